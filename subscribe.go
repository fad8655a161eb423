package main

import (
	"context"

	"PPClient/logger"
	"PPClient/module/session"
	"PPClient/service/events"

	"go.uber.org/zap"
)

// subscribeAll 在新连接上挂全部事件监听，并拉一次会话列表
func subscribeAll(ctx context.Context, relay *events.Relay, sess *session.Manager) {
	events.NewMessage.Subscribe(relay, func(r events.Response[events.MessagePayload]) {
		if !r.Success || r.Data == nil {
			logger.Warn("[events] newMessage failed", zap.String("msg", r.Msg))
			return
		}
		logger.Info("[events] newMessage",
			zap.String("id", r.Data.ID),
			zap.String("conversation_id", r.Data.ConversationID),
			zap.String("sender", r.Data.Sender.Name))
	})
	events.GetMessages.Subscribe(relay, func(r events.Response[[]events.MessagePayload]) {
		logResult("getMessages", r.Success, r.Msg, lenOf(r.Data))
	})
	events.NewConversation.Subscribe(relay, func(r events.Response[events.Conversation]) {
		if r.Success && r.Data != nil {
			logger.Info("[events] newConversation", zap.String("id", r.Data.ID), zap.String("type", r.Data.Type))
			return
		}
		logResult("newConversation", r.Success, r.Msg, 0)
	})
	events.GetContacts.Subscribe(relay, func(r events.Response[[]events.Contact]) {
		logResult("getContacts", r.Success, r.Msg, lenOf(r.Data))
	})
	events.GetConversations.Subscribe(relay, func(r events.Response[[]events.Conversation]) {
		logResult("getConversations", r.Success, r.Msg, lenOf(r.Data))
	})
	events.TestSocket.Subscribe(relay, func(r events.Response[map[string]any]) {
		logResult("testSocket", r.Success, r.Msg, 0)
	})
	events.UpdateProfile.Subscribe(relay, func(r events.Response[events.TokenPayload]) {
		if !r.Success || r.Data == nil {
			logResult("updateProfile", r.Success, r.Msg, 0)
			return
		}
		// 资料变更后服务端下发新令牌
		if _, err := sess.UpdateToken(ctx, r.Data.Token); err != nil {
			logger.Error("[events] apply updated token", zap.Error(err))
		}
	})

	if err := events.GetConversations.Emit(relay, events.NoPayload{}); err != nil {
		logger.Warn("[events] request conversations", zap.Error(err))
	}
}

func logResult(event string, ok bool, msg string, n int) {
	if !ok {
		logger.Warn("[events] "+event+" failed", zap.String("msg", msg))
		return
	}
	logger.Info("[events] "+event, zap.Int("count", n))
}

func lenOf[T any](p *[]T) int {
	if p == nil {
		return 0
	}
	return len(*p)
}
