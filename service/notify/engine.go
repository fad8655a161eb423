package notify

import (
	"context"
	"strconv"
	"time"

	"PPClient/logger"
	"PPClient/service/events"
	"PPClient/service/storage"
	"PPClient/tools/errs"
	"PPClient/tools/safe"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

const (
	defaultDedupeTTL   = 10 * time.Minute
	defaultTaskTimeout = 10 * time.Second
)

type Option func(*Engine)

func WithAppState(s AppState) Option { return func(e *Engine) { e.appState = s } }

func WithBadge(b Badge) Option { return func(e *Engine) { e.badge = b } }

// WithPreferences 通知开关持久化到 kv
func WithPreferences(kv storage.KV) Option { return func(e *Engine) { e.prefs = kv } }

func WithDedupeTTL(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.dedupeTTL = d
		}
	}
}

func WithTaskTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.taskTimeout = d
		}
	}
}

// Engine 通知判定引擎：在 newMessage 回调之前同步判定，异步投递
type Engine struct {
	nctx     *Context
	platform Platform
	appState AppState
	badge    Badge
	prefs    storage.KV

	dedupeTTL   time.Duration
	taskTimeout time.Duration
	seen        *ttlcache.Cache[string, struct{}]
}

var _ events.MessageObserver = (*Engine)(nil)

func NewEngine(nctx *Context, platform Platform, opts ...Option) *Engine {
	safe.MustNotNil(nctx, "notify context")
	safe.MustNotNil(platform, "platform")

	e := &Engine{
		nctx:        nctx,
		platform:    platform,
		appState:    NewAppStateTracker(),
		dedupeTTL:   defaultDedupeTTL,
		taskTimeout: defaultTaskTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	e.seen = ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](e.dedupeTTL),
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go e.seen.Start()
	return e
}

func (e *Engine) Context() *Context { return e.nctx }

// Close 停止去重缓存的过期清理
func (e *Engine) Close() { e.seen.Stop() }

// Observe 判定一帧 newMessage；需要通知时另起协程投递，从不阻塞调用方
func (e *Engine) Observe(frame events.Response[events.MessagePayload]) {
	snap := e.nctx.Snapshot()
	d := Decide(frame, snap, e.appState.Foreground())
	if !d.Notify {
		fields := []zap.Field{zap.String("reason", string(d.Reason))}
		if frame.Data != nil {
			fields = append(fields, zap.String("message_id", frame.Data.ID), zap.String("conversation_id", frame.Data.ConversationID))
		}
		logger.Debug("[notify] skip notification", fields...)
		return
	}

	id := d.Request.Identifier
	if _, found := e.seen.GetOrSet(id, struct{}{}); found {
		logger.Debug("[notify] skip notification", zap.String("reason", string(ReasonDuplicate)), zap.String("identifier", id))
		return
	}

	withBadge := e.badge != nil && snap.PhysicalDevice
	safe.Go("notify "+id, func() { e.deliver(d.Request, withBadge) })
}

func (e *Engine) deliver(req Request, withBadge bool) {
	ctx, cancel := context.WithTimeout(context.Background(), e.taskTimeout)
	defer cancel()

	platformID, err := e.schedule(ctx, req)
	if err != nil {
		// 投递失败允许同一消息重投时再试
		e.seen.Delete(req.Identifier)
		logger.Error("[notify] schedule notification failed", zap.String("identifier", req.Identifier),
			zap.Error(errs.ErrNotificationDelivery.WrapErr(err, "schedule", "identifier", req.Identifier)))
		return
	}
	logger.Info("[notify] notification shown", zap.String("identifier", req.Identifier), zap.String("platform_id", platformID))

	if !withBadge {
		return
	}
	n, err := e.badge.Increment(ctx)
	if err != nil {
		logger.Warn("[notify] badge increment failed", zap.Error(err))
		return
	}
	logger.Debug("[notify] badge updated", zap.Int64("count", n))
}

// schedule 平台 panic 按投递失败处理
func (e *Engine) schedule(ctx context.Context, req Request) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.ErrPanic(r)
		}
	}()
	return e.platform.Schedule(ctx, req)
}

// EnsurePermissions 启动时调用：android 先建渠道，再查权限，未授权则申请。
// 返回是否拿到了权限；拒绝不是致命错误，功能静默降级。
func (e *Engine) EnsurePermissions(ctx context.Context) bool {
	if !e.nctx.Snapshot().PhysicalDevice {
		logger.Info("[notify] not a physical device, local notifications only")
	}
	if e.platform.OS() == "android" {
		err := e.platform.CreateChannel(ctx, Channel{
			ID:               ChannelMessages,
			Name:             "Messages",
			Importance:       ImportanceMax,
			VibrationPattern: []int{0, 250, 250, 250},
			Sound:            "default",
		})
		if err != nil {
			logger.Error("[notify] create notification channel failed", zap.Error(err))
			return false
		}
	}

	status, err := e.platform.PermissionStatus(ctx)
	if err != nil {
		logger.Error("[notify] read permission status failed", zap.Error(err))
		return false
	}
	if status != PermissionGranted {
		status, err = e.platform.RequestPermission(ctx)
		if err != nil {
			logger.Error("[notify] request permission failed", zap.Error(err))
			return false
		}
	}
	if status != PermissionGranted {
		logger.Warn("[notify] notification permissions denied",
			zap.Error(errs.ErrPermissionDenied.WrapMsg("", "status", status)))
		return false
	}
	logger.Info("[notify] notification permissions granted")
	return true
}

// SendTest 立即发一条测试通知
func (e *Engine) SendTest(ctx context.Context) (string, error) {
	id, err := e.platform.Schedule(ctx, Request{
		Identifier: "test-" + uuid.NewString(),
		Title:      "Test Notification",
		Body:       "This is a test notification!",
		Data:       map[string]any{"test": true},
		ChannelID:  ChannelMessages,
	})
	if err != nil {
		return "", errs.ErrNotificationDelivery.WrapErr(err, "test notification")
	}
	return id, nil
}

// LoadPreferences 从 kv 读出通知开关，未设置时保持开启
func (e *Engine) LoadPreferences(ctx context.Context) error {
	if e.prefs == nil {
		return nil
	}
	v, err := e.prefs.Get(ctx, storage.KeyNotificationsEnabled)
	if errs.ErrRecordNotFound.Is(err) {
		e.nctx.SetNotificationsEnabled(true)
		return nil
	}
	if err != nil {
		return err
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("[notify] bad notificationsEnabled value, keep enabled", zap.String("value", v))
		enabled = true
	}
	e.nctx.SetNotificationsEnabled(enabled)
	return nil
}

// SetNotificationsEnabled 设置页开关：先落盘再生效
func (e *Engine) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	if e.prefs != nil {
		if err := e.prefs.Set(ctx, storage.KeyNotificationsEnabled, strconv.FormatBool(enabled)); err != nil {
			return err
		}
	}
	e.nctx.SetNotificationsEnabled(enabled)
	return nil
}
