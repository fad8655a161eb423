package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PPClient/service/notify"
	"PPClient/service/storage"
	"PPClient/tools/errs"
	"PPClient/tools/security"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("session-secret")

type fakeConnector struct {
	mu          sync.Mutex
	tokens      []string
	disconnects int
	err         error
}

func (f *fakeConnector) Connect(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	return f.err
}

func (f *fakeConnector) Disconnect() {
	f.mu.Lock()
	f.disconnects++
	f.mu.Unlock()
}

func token(t *testing.T, id, name string) string {
	t.Helper()
	tok, _, err := security.Generate(security.DefaultOptions(secret), security.User{ID: id, Name: name})
	require.NoError(t, err)
	return tok
}

func expiredToken(t *testing.T, id string) string {
	t.Helper()
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"user": map[string]any{"id": id},
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func setup() (*Manager, storage.KV, *notify.Context, *fakeConnector) {
	kv := storage.NewMemory()
	nctx := notify.NewContext()
	conn := &fakeConnector{}
	return NewManager(kv, nctx, conn), kv, nctx, conn
}

func TestRestoreWithoutToken(t *testing.T) {
	m, _, nctx, conn := setup()
	u, err := m.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, conn.tokens)
	assert.Equal(t, "", nctx.Snapshot().CurrentUserID)
}

func TestRestoreConnectsWithStoredToken(t *testing.T) {
	ctx := context.Background()
	m, kv, nctx, conn := setup()
	tok := token(t, "u1", "Alice")
	require.NoError(t, kv.Set(ctx, storage.KeyToken, tok))

	u, err := m.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "u1", nctx.Snapshot().CurrentUserID)
	assert.Equal(t, []string{tok}, conn.tokens)
	assert.Equal(t, tok, m.Token())
}

func TestRestoreClearsExpiredToken(t *testing.T) {
	ctx := context.Background()
	m, kv, nctx, conn := setup()
	require.NoError(t, kv.Set(ctx, storage.KeyToken, expiredToken(t, "u1")))

	_, err := m.Restore(ctx)
	require.Error(t, err)
	assert.True(t, errs.ErrSessionExpired.Is(err))

	_, err = kv.Get(ctx, storage.KeyToken)
	assert.True(t, errs.ErrRecordNotFound.Is(err))
	assert.Empty(t, conn.tokens)
	assert.Equal(t, "", nctx.Snapshot().CurrentUserID)
}

func TestRestoreClearsGarbageToken(t *testing.T) {
	ctx := context.Background()
	m, kv, _, _ := setup()
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "garbage"))

	_, err := m.Restore(ctx)
	assert.True(t, errs.ErrInvalidToken.Is(err))
	_, err = kv.Get(ctx, storage.KeyToken)
	assert.True(t, errs.ErrRecordNotFound.Is(err))
}

func TestUpdateTokenDoesNotReconnect(t *testing.T) {
	ctx := context.Background()
	m, kv, nctx, conn := setup()

	u, err := m.UpdateToken(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, u)

	tok := token(t, "u2", "Bob")
	u, err = m.UpdateToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, "u2", nctx.Snapshot().CurrentUserID)
	stored, err := kv.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, tok, stored)
	assert.Empty(t, conn.tokens)
}

func TestSignInAndSignOut(t *testing.T) {
	ctx := context.Background()
	m, kv, nctx, conn := setup()

	_, err := m.SignIn(ctx, " ")
	assert.True(t, errs.ErrInvalidToken.Is(err))

	var hooks int
	m.OnConnect(func(context.Context) { hooks++ })

	tok := token(t, "u1", "Alice")
	_, err = m.SignIn(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, []string{tok}, conn.tokens)
	assert.Equal(t, 1, hooks)
	assert.Equal(t, "Alice", m.User().Name)

	require.NoError(t, m.SignOut(ctx))
	assert.Equal(t, 1, conn.disconnects)
	assert.Nil(t, m.User())
	assert.Equal(t, "", m.Token())
	assert.Equal(t, "", nctx.Snapshot().CurrentUserID)
	_, err = kv.Get(ctx, storage.KeyToken)
	assert.True(t, errs.ErrRecordNotFound.Is(err))
}

func TestSignInConnectFailureKeepsToken(t *testing.T) {
	ctx := context.Background()
	m, kv, _, conn := setup()
	conn.err = errs.ErrConnection.WrapErr(errors.New("refused"), "dial")

	_, err := m.SignIn(ctx, token(t, "u1", "Alice"))
	assert.True(t, errs.ErrConnection.Is(err))
	_, err = kv.Get(ctx, storage.KeyToken)
	assert.NoError(t, err)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	conn := &fakeConnector{}
	m := NewManager(kv, notify.NewContext(), conn, WithVerify(security.DefaultOptions([]byte("other-secret"))))

	_, err := m.SignIn(ctx, token(t, "u1", "Alice"))
	assert.True(t, errs.ErrInvalidToken.Is(err))
	assert.Empty(t, conn.tokens)
	_, err = kv.Get(ctx, storage.KeyToken)
	assert.True(t, errs.ErrRecordNotFound.Is(err))

	require.NoError(t, kv.Set(ctx, storage.KeyToken, expiredToken(t, "u1")))
	m = NewManager(kv, notify.NewContext(), conn, WithVerify(security.DefaultOptions(secret)))
	_, err = m.Restore(ctx)
	assert.True(t, errs.ErrSessionExpired.Is(err))
}

func TestVerifyAcceptsMatchingSignature(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	m := NewManager(storage.NewMemory(), notify.NewContext(), conn, WithVerify(security.DefaultOptions(secret)))

	u, err := m.SignIn(ctx, token(t, "u1", "Alice"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Len(t, conn.tokens, 1)
}

func TestVerifyWithoutSecretOnlyDecodes(t *testing.T) {
	m := NewManager(storage.NewMemory(), notify.NewContext(), &fakeConnector{}, WithVerify(security.DefaultOptions(nil)))
	assert.Nil(t, m.verify)
}
