package socket

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"PPClient/logger"
	"PPClient/tools/errs"
	"PPClient/tools/safe"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Listener 入站事件回调，data 为帧里 data 字段的 JSON 通用值
type Listener func(data any)

// Conn 一条已建立的 websocket 会话（ConnectionHandle）。
// 读协程按到达顺序同步分发；写协程独占所有写操作（业务帧 + ping + close）。
type Conn struct {
	id    string
	token string
	ws    *websocket.Conn
	opts  Options

	send chan []byte

	mu        sync.RWMutex
	listeners map[string]Listener

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{} // Close 发出的信号
	exited    chan struct{} // 读写协程都退出后关闭

	onExit func(*Conn)
}

func newConn(id, token string, ws *websocket.Conn, opts Options, onExit func(*Conn)) *Conn {
	return &Conn{
		id:        id,
		token:     token,
		ws:        ws,
		opts:      opts,
		send:      make(chan []byte, opts.SendQueue),
		listeners: make(map[string]Listener),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
		onExit:    onExit,
	}
}

func (c *Conn) ID() string { return c.id }

// Done 在会话结束（主动断开或对端关闭）后关闭
func (c *Conn) Done() <-chan struct{} { return c.exited }

func (c *Conn) Closed() bool { return c.closed.Load() }

// On 注册事件监听；同名旧监听被替换
func (c *Conn) On(event string, l Listener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.listeners[event] = l
	c.mu.Unlock()
}

// Off 移除事件监听
func (c *Conn) Off(event string) {
	c.mu.Lock()
	delete(c.listeners, event)
	c.mu.Unlock()
}

// HasListener 是否存在该事件的监听
func (c *Conn) HasListener(event string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.listeners[event]
	return ok
}

// Emit 编码后放入发送队列，不等待真正写出
func (c *Conn) Emit(event string, data any) error {
	if c.closed.Load() {
		return errs.ErrNotConnected.WrapMsg("emit on closed connection", "event", event)
	}
	payload, err := EncodeFrame(event, data)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errs.ErrNotConnected.WrapMsg("emit on closed connection", "event", event)
	case c.send <- payload:
		return nil
	default:
		return errs.ErrConnection.WrapMsg("send queue full", "event", event, "conn_id", c.id)
	}
}

// Close 断开会话并清空监听；可重复调用
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.mu.Lock()
		c.listeners = make(map[string]Listener)
		c.mu.Unlock()
	})
}

func (c *Conn) start() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer wg.Done()
		c.readLoop()
	}()
	go func() {
		wg.Wait()
		close(c.exited)
		if c.onExit != nil {
			c.onExit(c)
		}
	}()
}

func (c *Conn) readLoop() {
	// 读协程退出即会话结束，唤醒写协程收尾
	defer c.Close()

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			switch {
			case c.closed.Load():
				logger.Debug("[socket] read loop stopped", zap.String("conn_id", c.id))
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				logger.Info("[socket] peer closed", zap.String("conn_id", c.id), zap.Error(err))
			default:
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					logger.Warn("[socket] read timeout", zap.String("conn_id", c.id), zap.Error(err))
				} else {
					logger.Warn("[socket] read err", zap.String("conn_id", c.id), zap.Error(err))
				}
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			// 只打印简短样本
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Warn("[socket] drop bad frame", zap.String("conn_id", c.id), zap.Error(perr),
				zap.ByteString("sample", sample), zap.Int("len", len(data)))
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(f *Frame) {
	c.mu.RLock()
	l := c.listeners[f.Event]
	c.mu.RUnlock()
	if l == nil {
		logger.Debug("[socket] no listener", zap.String("event", f.Event))
		return
	}
	if err := safe.Call(func() { l(f.Data) }); err != nil {
		logger.Error("[socket] listener panic", zap.String("event", f.Event), zap.Error(err))
	}
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		// 统一由写协程发 Close 并关闭底层连接，读协程随之退出
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.opts.WriteWait))
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Warn("[socket] write err", zap.String("conn_id", c.id), zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.opts.WriteWait)); err != nil {
				logger.Warn("[socket] ping err", zap.String("conn_id", c.id), zap.Error(err))
				c.Close()
				return
			}
		}
	}
}
