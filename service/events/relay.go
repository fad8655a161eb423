package events

import (
	"sync"

	"PPClient/logger"
	"PPClient/service/socket"
	"PPClient/tools/errs"

	"go.uber.org/zap"
)

// Transport 单条连接上的事件收发，*socket.Conn 实现它
type Transport interface {
	Emit(event string, data any) error
	On(event string, l socket.Listener)
	Off(event string)
}

// HandleSource 取当前连接；未连接返回 nil
type HandleSource interface {
	Current() Transport
}

type registrySource struct{ r *socket.Registry }

func (s registrySource) Current() Transport {
	// 避免把 nil *Conn 装进非 nil 接口
	if c := s.r.Handle(); c != nil {
		return c
	}
	return nil
}

// FromRegistry 把连接注册表适配成 HandleSource
func FromRegistry(r *socket.Registry) HandleSource { return registrySource{r: r} }

// MessageObserver 在 newMessage 回调之前看一眼入站帧（通知判定）
type MessageObserver interface {
	Observe(frame Response[MessagePayload])
}

type Option func(*Relay)

func WithMessageObserver(o MessageObserver) Option {
	return func(r *Relay) { r.observer = o }
}

// Relay 事件中继：按事件名 emit/subscribe/unsubscribe，每个事件最多一个活跃监听
type Relay struct {
	src      HandleSource
	observer MessageObserver

	mu     sync.Mutex
	seq    uint64
	active map[Name]uint64 // 事件名 -> 当前订阅令牌
}

func NewRelay(src HandleSource, opts ...Option) *Relay {
	r := &Relay{
		src:    src,
		active: make(map[Name]uint64),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Emit 未连接时记录日志后静默返回；事件名不在目录里直接报错
func (r *Relay) Emit(name Name, payload any) error {
	if !name.Valid() {
		return errs.ErrUnknownEvent.WrapMsg("emit", "event", name)
	}
	t := r.src.Current()
	if t == nil {
		logger.Info("[relay] socket is not connected, drop emit", zap.String("event", string(name)))
		return nil
	}
	if err := t.Emit(string(name), payload); err != nil {
		if errs.ErrNotConnected.Is(err) {
			logger.Info("[relay] socket closed during emit", zap.String("event", string(name)))
			return nil
		}
		return err
	}
	return nil
}

// Subscribe 替换该事件已有的监听；newMessage 会先经过 MessageObserver。
// 未连接时返回一个空订阅。
func (r *Relay) Subscribe(name Name, cb func(data any)) (*Subscription, error) {
	if !name.Valid() {
		return nil, errs.ErrUnknownEvent.WrapMsg("subscribe", "event", name)
	}
	if cb == nil {
		return nil, errs.New("nil callback", "event", name).Wrap()
	}
	t := r.src.Current()
	if t == nil {
		logger.Info("[relay] socket is not connected, skip subscribe", zap.String("event", string(name)))
		return &Subscription{name: name}, nil
	}

	listener := socket.Listener(cb)
	if name == NewMessageName && r.observer != nil {
		listener = r.wrapNewMessage(cb)
	}

	// token 与传输层监听在同一把锁内更新；On 原子替换同名旧监听，不留空窗
	r.mu.Lock()
	r.seq++
	token := r.seq
	r.active[name] = token
	t.On(string(name), listener)
	r.mu.Unlock()

	return &Subscription{relay: r, name: name, token: token, transport: t}, nil
}

func (r *Relay) wrapNewMessage(cb func(data any)) socket.Listener {
	return func(data any) {
		frame := DecodeResponse[MessagePayload](data)
		if !frame.Success || frame.Data == nil {
			logger.Info("[relay] unexpected newMessage frame", zap.Bool("success", frame.Success), zap.String("msg", frame.Msg))
		}
		r.observer.Observe(frame)
		cb(data)
	}
}

// Unsubscribe 移除该事件的监听，不管是谁装的
func (r *Relay) Unsubscribe(name Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, name)
	if t := r.src.Current(); t != nil {
		t.Off(string(name))
	}
}

func (r *Relay) unsubscribe(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[s.name] != s.token {
		return
	}
	delete(r.active, s.name)
	s.transport.Off(string(s.name))
}

// Subscription 一次订阅的句柄
type Subscription struct {
	relay     *Relay
	name      Name
	token     uint64
	transport Transport
	once      sync.Once
}

func (s *Subscription) Name() Name { return s.name }

// Active 订阅是否仍是该事件的当前监听
func (s *Subscription) Active() bool {
	if s == nil || s.relay == nil {
		return false
	}
	s.relay.mu.Lock()
	defer s.relay.mu.Unlock()
	return s.relay.active[s.name] == s.token
}

// Unsubscribe 只有自己仍是当前监听时才移除，不会误删后来的订阅
func (s *Subscription) Unsubscribe() {
	if s == nil || s.relay == nil {
		return
	}
	s.once.Do(func() { s.relay.unsubscribe(s) })
}
