package control

import (
	"context"
	"errors"
	"net/http"
	"time"

	"PPClient/logger"
	mid "PPClient/middleware"
	"PPClient/module/session"
	"PPClient/service/events"
	"PPClient/service/notify"
	"PPClient/service/socket"
	"PPClient/service/storage"
	"PPClient/tools/safe"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StateSource 连接状态，*socket.Registry 满足此接口
type StateSource interface {
	State() socket.State
}

// Deps 控制接口依赖的运行时对象
type Deps struct {
	Conn     StateSource
	Relay    *events.Relay
	Engine   *notify.Engine
	AppState *notify.AppStateTracker
	Session  *session.Manager
	Badge    storage.Counter // 可选，为 nil 时不注册 /badge
	Token    string          // 为空则不校验
}

// Server 本地控制接口：替代界面生命周期（进入会话页、切后台、设置页开关等）
type Server struct {
	d Deps
}

func New(d Deps) *Server {
	safe.MustNotNil(d.Conn, "conn")
	safe.MustNotNil(d.Relay, "relay")
	safe.MustNotNil(d.Engine, "engine")
	safe.MustNotNil(d.AppState, "app state")
	safe.MustNotNil(d.Session, "session")
	return &Server{d: d}
}

// Router 组装路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mid.AccessLog())

	opt := mid.RouteOpt{IsAuth: true, Token: s.d.Token}
	mid.GET(r, "/status", s.status, opt)
	mid.PUT(r, "/conversation/active", s.setActiveConversation, opt)
	mid.PUT(r, "/app-state", s.setAppState, opt)
	mid.PUT(r, "/preferences/notifications", s.setNotifications, opt)
	mid.POST(r, "/notifications/test", s.testNotification, opt)
	mid.POST(r, "/messages", s.sendMessage, opt)
	mid.POST(r, "/session/sign-in", s.signIn, opt)
	mid.POST(r, "/session/sign-out", s.signOut, opt)
	if s.d.Badge != nil {
		mid.GET(r, "/badge", s.badge, opt)
		mid.PUT(r, "/badge/reset", s.resetBadge, opt)
	}
	return r
}

// Run 监听 addr，ctx 结束时优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[control] listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
