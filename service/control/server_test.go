package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"PPClient/global"
	"PPClient/module/session"
	"PPClient/service/events"
	"PPClient/service/notify"
	"PPClient/service/notify/sink"
	"PPClient/service/socket"
	"PPClient/service/storage"
	"PPClient/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedState socket.State

func (s fixedState) State() socket.State { return socket.State(s) }

type emitted struct {
	event string
	data  any
}

type recordTransport struct {
	mu    sync.Mutex
	emits []emitted
}

func (t *recordTransport) Emit(event string, data any) error {
	t.mu.Lock()
	t.emits = append(t.emits, emitted{event, data})
	t.mu.Unlock()
	return nil
}
func (t *recordTransport) On(string, socket.Listener) {}
func (t *recordTransport) Off(string)                 {}

type source struct{ t events.Transport }

func (s source) Current() events.Transport { return s.t }

type nopConnector struct{}

func (nopConnector) Connect(context.Context, string) error { return nil }
func (nopConnector) Disconnect()                          {}

type fixture struct {
	router    *gin.Engine
	engine    *notify.Engine
	appState  *notify.AppStateTracker
	session   *session.Manager
	transport *recordTransport
	kv        storage.KV
	badge     storage.Counter
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	kv := storage.NewMemory()
	nctx := notify.NewContext()
	st := notify.NewAppStateTracker()
	engine := notify.NewEngine(nctx, sink.NewLogPlatform("ios", true),
		notify.WithAppState(st), notify.WithPreferences(kv))
	t.Cleanup(engine.Close)

	tr := &recordTransport{}
	badge := storage.NewKVCounter(kv)
	s := New(Deps{
		Conn:     fixedState(socket.Connected),
		Relay:    events.NewRelay(source{t: tr}),
		Engine:   engine,
		AppState: st,
		Session:  session.NewManager(kv, nctx, nopConnector{}),
		Badge:    badge,
		Token:    token,
	})
	return &fixture{router: s.Router(), engine: engine, appState: st, session: s.d.Session, transport: tr, kv: kv, badge: badge}
}

func (f *fixture) do(method, path string, body any, header ...string) (*httptest.ResponseRecorder, global.Msg) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var msg global.Msg
	_ = json.Unmarshal(w.Body.Bytes(), &msg)
	return w, msg
}

func TestStatus(t *testing.T) {
	f := newFixture(t, "")
	f.engine.Context().SetActiveConversation("c1")

	w, msg := f.do(http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := msg.Data.(map[string]any)
	assert.Equal(t, "connected", data["connection"])
	assert.Equal(t, "c1", data["activeConversationId"])
	assert.Equal(t, "active", data["appState"])
	assert.Equal(t, true, data["notificationsEnabled"])
}

func TestActiveConversationAndAppState(t *testing.T) {
	f := newFixture(t, "")

	w, _ := f.do(http.MethodPut, "/conversation/active", gin.H{"conversationId": "c9"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c9", f.engine.Context().Snapshot().ActiveConversationID)

	w, _ = f.do(http.MethodPut, "/conversation/active", gin.H{"conversationId": ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", f.engine.Context().Snapshot().ActiveConversationID)

	w, _ = f.do(http.MethodPut, "/app-state", gin.H{"state": "background"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.appState.Foreground())

	w, _ = f.do(http.MethodPut, "/app-state", gin.H{"state": "sleeping"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = f.do(http.MethodPut, "/app-state", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationPreference(t *testing.T) {
	f := newFixture(t, "")

	w, _ := f.do(http.MethodPut, "/preferences/notifications", gin.H{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.engine.Context().Snapshot().NotificationsEnabled)
	v, err := f.kv.Get(context.Background(), storage.KeyNotificationsEnabled)
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	w, _ = f.do(http.MethodPut, "/preferences/notifications", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestNotification(t *testing.T) {
	f := newFixture(t, "")
	w, msg := f.do(http.MethodPost, "/notifications/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, msg.Data.(map[string]any)["id"])
}

func TestSendMessageRequiresSession(t *testing.T) {
	f := newFixture(t, "")
	body := gin.H{"conversationId": "c1", "content": "hi"}

	w, _ := f.do(http.MethodPost, "/messages", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, _, err := security.Generate(security.DefaultOptions([]byte("k")), security.User{ID: "u1", Name: "Alice"})
	require.NoError(t, err)
	w, _ = f.do(http.MethodPost, "/session/sign-in", gin.H{"token": tok})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(http.MethodPost, "/messages", body)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.transport.emits, 1)
	assert.Equal(t, "newMessage", f.transport.emits[0].event)
	req := f.transport.emits[0].data.(events.NewMessageRequest)
	assert.Equal(t, "u1", req.Sender.ID)
	assert.Equal(t, "hi", req.Content)

	w, _ = f.do(http.MethodPost, "/session/sign-out", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.session.User())
}

func TestSignInRejectsBadToken(t *testing.T) {
	f := newFixture(t, "")
	w, _ := f.do(http.MethodPost, "/session/sign-in", gin.H{"token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestControlToken(t *testing.T) {
	f := newFixture(t, "s3cret")
	w, _ := f.do(http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = f.do(http.MethodGet, "/status", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBadgeCountAndReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	_, err := f.badge.Increment(ctx)
	require.NoError(t, err)
	_, err = f.badge.Increment(ctx)
	require.NoError(t, err)

	w, msg := f.do(http.MethodGet, "/badge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), msg.Data.(map[string]any)["count"])

	w, _ = f.do(http.MethodPut, "/badge/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	n, err := f.badge.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	w, msg = f.do(http.MethodGet, "/badge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), msg.Data.(map[string]any)["count"])
}

func TestBadgeRoutesAbsentWithoutCounter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	kv := storage.NewMemory()
	nctx := notify.NewContext()
	st := notify.NewAppStateTracker()
	engine := notify.NewEngine(nctx, sink.NewLogPlatform("ios", true), notify.WithAppState(st))
	t.Cleanup(engine.Close)

	s := New(Deps{
		Conn:     fixedState(socket.Connected),
		Relay:    events.NewRelay(source{t: &recordTransport{}}),
		Engine:   engine,
		AppState: st,
		Session:  session.NewManager(kv, nctx, nopConnector{}),
	})
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/badge/reset", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
