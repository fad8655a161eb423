package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"PPClient/logger"
	"PPClient/service/notify"
	"PPClient/service/socket"
	"PPClient/service/storage"
	"PPClient/tools/errs"
	"PPClient/tools/security"

	"go.uber.org/zap"
)

// Connector 连接管理，*socket.Registry 经 FromRegistry 适配
type Connector interface {
	Connect(ctx context.Context, token string) error
	Disconnect()
}

type registryConnector struct{ r *socket.Registry }

func (c registryConnector) Connect(ctx context.Context, token string) error {
	_, err := c.r.Connect(ctx, token)
	return err
}

func (c registryConnector) Disconnect() { c.r.Disconnect() }

func FromRegistry(r *socket.Registry) Connector { return registryConnector{r: r} }

// Manager 登录态：令牌持久化、当前用户、连接的建立与断开
type Manager struct {
	kv   storage.KV
	nctx *notify.Context
	conn Connector
	now  func() time.Time

	verify *security.Options

	mu        sync.RWMutex
	token     string
	user      *security.User
	onConnect func(ctx context.Context)
}

type Option func(*Manager)

// WithVerify 配置了密钥时令牌必须验签通过才会被接受
func WithVerify(opts security.Options) Option {
	return func(m *Manager) {
		if len(opts.Secret) > 0 {
			m.verify = &opts
		}
	}
}

func NewManager(kv storage.KV, nctx *notify.Context, conn Connector, opts ...Option) *Manager {
	m := &Manager{kv: kv, nctx: nctx, conn: conn, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OnConnect 每次连接建立后调用（新连接上没有任何监听，需要重新订阅）
func (m *Manager) OnConnect(f func(ctx context.Context)) {
	m.mu.Lock()
	m.onConnect = f
	m.mu.Unlock()
}

func (m *Manager) connect(ctx context.Context, token string) error {
	if err := m.conn.Connect(ctx, token); err != nil {
		return err
	}
	m.mu.RLock()
	f := m.onConnect
	m.mu.RUnlock()
	if f != nil {
		f(ctx)
	}
	return nil
}

// Token 当前令牌，未登录为 ""
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User 当前用户，未登录为 nil
func (m *Manager) User() *security.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Restore 启动时从存储恢复登录态并建立连接。
// 没有令牌返回 (nil, nil)；令牌损坏或过期会被删除。
func (m *Manager) Restore(ctx context.Context) (*security.User, error) {
	token, err := m.kv.Get(ctx, storage.KeyToken)
	if errs.ErrRecordNotFound.Is(err) {
		logger.Info("[session] no stored token")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	decoded, err := m.decode(token)
	if err != nil {
		logger.Warn("[session] stored token unusable, clearing", zap.Error(err))
		if derr := m.kv.Delete(ctx, storage.KeyToken); derr != nil {
			logger.Error("[session] clear token failed", zap.Error(derr))
		}
		return nil, err
	}

	m.apply(token, decoded.User)
	if err := m.connect(ctx, token); err != nil {
		return &decoded.User, err
	}
	logger.Info("[session] restored", zap.String("user_id", decoded.User.ID))
	return &decoded.User, nil
}

// UpdateToken 保存并应用新令牌（登录、资料更新后服务端下发），不重连；空令牌忽略
func (m *Manager) UpdateToken(ctx context.Context, token string) (*security.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	decoded, err := m.decode(token)
	if err != nil {
		return nil, err
	}
	if err := m.kv.Set(ctx, storage.KeyToken, token); err != nil {
		return nil, err
	}
	m.apply(token, decoded.User)
	logger.Info("[session] token updated", zap.String("user_id", decoded.User.ID))
	return &decoded.User, nil
}

// SignIn 保存令牌并连接
func (m *Manager) SignIn(ctx context.Context, token string) (*security.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errs.ErrInvalidToken.WrapMsg("empty token")
	}
	u, err := m.UpdateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := m.connect(ctx, m.Token()); err != nil {
		return u, err
	}
	return u, nil
}

// SignOut 清掉令牌和当前用户并断开连接
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.nctx.SetCurrentUserID("")
	m.conn.Disconnect()

	if err := m.kv.Delete(ctx, storage.KeyToken); err != nil {
		return err
	}
	logger.Info("[session] signed out")
	return nil
}

func (m *Manager) decode(token string) (*security.DecodedToken, error) {
	if m.verify != nil {
		return security.Verify(*m.verify, token)
	}
	decoded, err := security.Decode(token)
	if err != nil {
		return nil, err
	}
	if decoded.Expired(m.now()) {
		return nil, errs.ErrSessionExpired.WrapMsg("token expired", "user_id", decoded.User.ID, "exp", decoded.ExpiresAt)
	}
	return decoded, nil
}

func (m *Manager) apply(token string, u security.User) {
	m.mu.Lock()
	m.token = token
	m.user = &u
	m.mu.Unlock()
	m.nctx.SetCurrentUserID(u.ID)
}
