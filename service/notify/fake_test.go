package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"PPClient/service/events"
	"PPClient/service/socket"
)

// fakePlatform 记录所有通知请求；同一 Identifier 只保留一条，模拟平台侧幂等
type fakePlatform struct {
	os string

	mu         sync.Mutex
	scheduled  []Request
	byID       map[string]Request
	channels   []Channel
	status     PermissionStatus
	grantOnAsk bool
	failNext   atomic.Int32
	panicNext  atomic.Int32
	// block 非 nil 时 Schedule 一直等到它被关闭，模拟卡住的平台
	block chan struct{}
	calls chan Request
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		os:         "ios",
		byID:       make(map[string]Request),
		status:     PermissionGranted,
		grantOnAsk: true,
		calls:      make(chan Request, 64),
	}
}

func (p *fakePlatform) OS() string { return p.os }

func (p *fakePlatform) PermissionStatus(context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

func (p *fakePlatform) RequestPermission(context.Context) (PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grantOnAsk {
		p.status = PermissionGranted
	} else {
		p.status = PermissionDenied
	}
	return p.status, nil
}

func (p *fakePlatform) CreateChannel(_ context.Context, ch Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, ch)
	return nil
}

func (p *fakePlatform) Schedule(_ context.Context, req Request) (string, error) {
	defer func() { p.calls <- req }()
	if p.block != nil {
		<-p.block
	}
	if p.panicNext.Load() > 0 {
		p.panicNext.Add(-1)
		panic("platform crashed")
	}
	if p.failNext.Load() > 0 {
		p.failNext.Add(-1)
		return "", errors.New("permission revoked")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scheduled = append(p.scheduled, req)
	p.byID[req.Identifier] = req
	return "platform-" + req.Identifier, nil
}

func (p *fakePlatform) visible() map[string]Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Request, len(p.byID))
	for k, v := range p.byID {
		out[k] = v
	}
	return out
}

func (p *fakePlatform) scheduledCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scheduled)
}

type fakeBadge struct{ n atomic.Int64 }

func (b *fakeBadge) Increment(context.Context) (int64, error) { return b.n.Add(1), nil }

// fakeTransport 内存里的连接，push 同步触发监听
type fakeTransport struct {
	mu        sync.Mutex
	listeners map[string]socket.Listener
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{listeners: make(map[string]socket.Listener)}
}

func (t *fakeTransport) Emit(string, any) error { return nil }

func (t *fakeTransport) On(event string, l socket.Listener) {
	t.mu.Lock()
	t.listeners[event] = l
	t.mu.Unlock()
}

func (t *fakeTransport) Off(event string) {
	t.mu.Lock()
	delete(t.listeners, event)
	t.mu.Unlock()
}

func (t *fakeTransport) push(event string, data any) {
	t.mu.Lock()
	l := t.listeners[event]
	t.mu.Unlock()
	if l != nil {
		l(data)
	}
}

type staticSource struct{ t events.Transport }

func (s staticSource) Current() events.Transport { return s.t }
