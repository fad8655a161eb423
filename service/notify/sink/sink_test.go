package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"PPClient/global/config"
	"PPClient/service/notify"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ notify.Platform = (*LogPlatform)(nil)
	_ notify.Platform = (*NATSPlatform)(nil)
	_ notify.Platform = (*KafkaPlatform)(nil)
)

func request(id string) notify.Request {
	return notify.Request{
		Identifier: id,
		Title:      "Bob",
		Body:       "hi",
		Data:       map[string]any{"conversationId": "c1", "messageId": "m1", "type": "newMessage"},
		Sound:      "default",
		Priority:   "high",
		ChannelID:  notify.ChannelMessages,
	}
}

func TestLogPlatformReplacesByIdentifier(t *testing.T) {
	ctx := context.Background()
	p := NewLogPlatform("ios", true)

	id1, err := p.Schedule(ctx, request("msg-m1"))
	require.NoError(t, err)
	id2, err := p.Schedule(ctx, request("msg-m1"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, p.Shown())

	id3, err := p.Schedule(ctx, request("msg-m2"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, 2, p.Shown())
}

func TestLogPlatformPermissions(t *testing.T) {
	ctx := context.Background()

	p := NewLogPlatform("android", true)
	st, _ := p.PermissionStatus(ctx)
	assert.Equal(t, notify.PermissionUndetermined, st)
	st, _ = p.RequestPermission(ctx)
	assert.Equal(t, notify.PermissionGranted, st)

	denied := NewLogPlatform("android", false)
	st, _ = denied.RequestPermission(ctx)
	assert.Equal(t, notify.PermissionDenied, st)
	// 拒绝后再申请不会改变结果
	st, _ = denied.RequestPermission(ctx)
	assert.Equal(t, notify.PermissionDenied, st)

	require.NoError(t, p.CreateChannel(ctx, notify.Channel{ID: "messages", Importance: notify.ImportanceMax}))
	ch, ok := p.Channel("messages")
	require.True(t, ok)
	assert.Equal(t, notify.ImportanceMax, ch.Importance)
}

type published struct {
	subject string
	data    []byte
	hdr     map[string]string
	msgID   string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) PublishOnce(_ context.Context, subject string, data []byte, hdr map[string]string, msgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data, hdr: hdr, msgID: msgID})
	return nil
}

func TestNATSPlatformSchedule(t *testing.T) {
	pub := &fakePublisher{}
	p := NewNATSPlatform("ios", pub, "ppclient.notifications")

	id, err := p.Schedule(context.Background(), request("msg-m1"))
	require.NoError(t, err)
	assert.Equal(t, "msg-m1", id)

	require.Len(t, pub.msgs, 1)
	m := pub.msgs[0]
	assert.Equal(t, "ppclient.notifications", m.subject)
	assert.Equal(t, "msg-m1", m.msgID)
	assert.Equal(t, "application/json", m.hdr["Content-Type"])

	var got notify.Request
	require.NoError(t, json.Unmarshal(m.data, &got))
	assert.Equal(t, request("msg-m1"), got)

	pub.err = errors.New("no responders")
	_, err = p.Schedule(context.Background(), request("msg-m2"))
	assert.Error(t, err)
}

func TestKafkaPlatformSchedule(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var req notify.Request
		if err := json.Unmarshal(val, &req); err != nil {
			return err
		}
		if req.Identifier != "msg-m1" {
			return errors.New("unexpected identifier " + req.Identifier)
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewKafkaPlatform("android", producer, "ppclient_notifications")
	id, err := p.Schedule(context.Background(), request("msg-m1"))
	require.NoError(t, err)
	assert.Contains(t, id, "ppclient_notifications/")

	_, err = p.Schedule(context.Background(), request("msg-m2"))
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)

	require.NoError(t, p.Close())
}

func TestBuild(t *testing.T) {
	p, closer, err := Build(config.NotifyConfig{Sink: config.SinkLog, Platform: "android"})
	require.NoError(t, err)
	assert.IsType(t, &LogPlatform{}, p)
	assert.Equal(t, "android", p.OS())
	assert.NoError(t, closer())

	_, _, err = Build(config.NotifyConfig{Sink: "carrier-pigeon"})
	assert.Error(t, err)

	_, _, err = Build(config.NotifyConfig{Sink: config.SinkNATS})
	assert.Error(t, err)
}
