package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PPClient/global/config"
	"PPClient/logger"
	"PPClient/module/session"
	"PPClient/service/control"
	"PPClient/service/events"
	"PPClient/service/notify"
	"PPClient/service/notify/sink"
	"PPClient/service/socket"
	"PPClient/service/storage"
	"PPClient/tools/ids"
	"PPClient/tools/security"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func eventNames() []events.Name { return events.Names() }

func run(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, counter, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer kv.Close()

	platform, closePlatform, err := sink.Build(cfg.Notify)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePlatform(); err != nil {
			logger.Warn("[main] close notify sink", zap.Error(err))
		}
	}()

	nctx := notify.NewContext()
	nctx.SetPhysicalDevice(cfg.Notify.PhysicalDevice)
	appState := notify.NewAppStateTracker()

	opts := []notify.Option{
		notify.WithAppState(appState),
		notify.WithPreferences(kv),
		notify.WithDedupeTTL(cfg.Notify.DedupeTTL),
	}
	var badge storage.Counter
	if cfg.Notify.Badge {
		badge = counter
		opts = append(opts, notify.WithBadge(badge))
	}
	engine := notify.NewEngine(nctx, platform, opts...)
	defer engine.Close()

	if err := engine.LoadPreferences(ctx); err != nil {
		logger.Warn("[main] load notification preference", zap.Error(err))
	}

	reg := socket.NewRegistry(socket.Options{
		URL:              cfg.Server.URL,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		PingInterval:     cfg.Server.PingInterval,
		WriteWait:        cfg.Server.WriteWait,
		SendQueue:        cfg.Server.SendQueue,
		IDs:              ids.NewGenerator(cfg.Server.NodeID),
	})
	defer reg.Disconnect()

	relay := events.NewRelay(events.FromRegistry(reg), events.WithMessageObserver(engine))
	sess := session.NewManager(kv, nctx, session.FromRegistry(reg),
		session.WithVerify(security.DefaultOptions([]byte(cfg.Server.TokenSecret))))
	sess.OnConnect(func(context.Context) { subscribeAll(ctx, relay, sess) })

	engine.EnsurePermissions(ctx)

	if u, err := sess.Restore(ctx); err != nil {
		logger.Warn("[main] restore session", zap.Error(err))
	} else if u == nil {
		logger.Info("[main] not signed in, waiting for sign-in on the control api")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Control.Addr != "" {
		srv := control.New(control.Deps{
			Conn:     reg,
			Relay:    relay,
			Engine:   engine,
			AppState: appState,
			Session:  sess,
			Badge:    badge,
			Token:    cfg.Control.Token,
		})
		g.Go(func() error { return srv.Run(gctx, cfg.Control.Addr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	logger.Info("[main] shutting down")
	return err
}
