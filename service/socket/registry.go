package socket

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"PPClient/logger"
	"PPClient/tools/errs"
	"PPClient/tools/ids"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// State 连接状态机：Disconnected -> Connecting -> Connected -> Disconnected
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Options websocket 连接参数
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	WriteWait        time.Duration
	SendQueue        int
	IDs              *ids.Generator
	Dialer           *websocket.Dialer // nil => 按 HandshakeTimeout 新建
}

func (o *Options) norm() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendQueue <= 0 {
		o.SendQueue = 256
	}
	if o.IDs == nil {
		o.IDs = ids.NewGenerator(1)
	}
	if o.Dialer == nil {
		o.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		}
	}
}

// Registry 进程内唯一的连接句柄持有者，其它组件都通过它拿句柄
type Registry struct {
	opts Options

	mu    sync.Mutex // 串行化 Connect/Disconnect
	cur   atomic.Pointer[Conn]
	state atomic.Int32

	dialMu     sync.Mutex
	cancelDial context.CancelFunc // 拨号中的 Connect，Disconnect 用它打断
}

func NewRegistry(opts Options) *Registry {
	opts.norm()
	return &Registry{opts: opts}
}

func (r *Registry) State() State { return State(r.state.Load()) }

// Handle 返回当前存活的句柄，未连接返回 nil；不阻塞
func (r *Registry) Handle() *Conn {
	c := r.cur.Load()
	if c == nil || c.Closed() {
		return nil
	}
	return c
}

// Connect 用 token 建立会话。同一 token 已连接时直接返回现有句柄；
// 否则替换旧句柄。失败不重试，错误原样交给调用方。
func (r *Registry) Connect(ctx context.Context, token string) (*Conn, error) {
	if token == "" {
		return nil, errs.ErrConnection.WrapMsg("empty auth token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.Handle(); c != nil {
		if c.token == token {
			return c, nil
		}
		r.cur.Store(nil)
		c.Close()
	}

	u, err := url.Parse(r.opts.URL)
	if err != nil {
		return nil, errs.ErrConnection.WrapErr(err, "parse server url", "url", r.opts.URL)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.setDialCancel(cancel)
	defer r.setDialCancel(nil)

	r.state.Store(int32(Connecting))
	ws, resp, err := r.dial(dctx, u.String(), header)
	if err != nil {
		r.state.Store(int32(Disconnected))
		kv := []any{"url", r.opts.URL}
		if resp != nil {
			kv = append(kv, "status", resp.StatusCode)
		}
		logger.Warn("[socket] dial failed", zap.String("url", r.opts.URL), zap.Error(err))
		return nil, errs.ErrConnection.WrapErr(err, "dial websocket", kv...)
	}

	id := strconv.FormatInt(r.opts.IDs.Next(), 10)
	c := newConn(id, token, ws, r.opts, r.release)
	r.cur.Store(c)
	r.state.Store(int32(Connected))
	c.start()

	logger.Info("[socket] connected", zap.String("conn_id", id), zap.String("url", r.opts.URL))
	return c, nil
}

func (r *Registry) setDialCancel(cancel context.CancelFunc) {
	r.dialMu.Lock()
	r.cancelDial = cancel
	r.dialMu.Unlock()
}

// dial 在 websocket 握手阶段也响应 ctx 取消（Dialer 自己只认 deadline）
func (r *Registry) dial(ctx context.Context, u string, header http.Header) (*websocket.Conn, *http.Response, error) {
	d := *r.opts.Dialer
	next := d.NetDialContext
	if next == nil {
		if d.NetDial != nil {
			netDial := d.NetDial
			next = func(_ context.Context, network, addr string) (net.Conn, error) { return netDial(network, addr) }
		} else {
			var nd net.Dialer
			next = nd.DialContext
		}
	}

	var stop func() bool
	d.NetDialContext = func(dctx context.Context, network, addr string) (net.Conn, error) {
		nc, err := next(dctx, network, addr)
		if err != nil {
			return nil, err
		}
		stop = context.AfterFunc(ctx, func() { _ = nc.Close() })
		return nc, nil
	}

	ws, resp, err := d.DialContext(ctx, u, header)
	if stop != nil {
		stop()
	}
	return ws, resp, err
}

// Disconnect 打断进行中的拨号，释放句柄并清空其监听；可重复调用
func (r *Registry) Disconnect() {
	r.dialMu.Lock()
	if r.cancelDial != nil {
		r.cancelDial()
	}
	r.dialMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.cur.Swap(nil)
	r.state.Store(int32(Disconnected))
	if c != nil {
		c.Close()
		logger.Info("[socket] disconnected", zap.String("conn_id", c.id))
	}
}

// release 会话协程退出时回调；只清理仍是当前句柄的那条
func (r *Registry) release(c *Conn) {
	if r.cur.CompareAndSwap(c, nil) {
		r.state.Store(int32(Disconnected))
		logger.Info("[socket] connection lost", zap.String("conn_id", c.id))
	}
}
