package notify

import (
	"PPClient/service/events"
	"PPClient/tools/safe"
)

// Reason 判定结果的原因
type Reason string

const (
	ReasonNotify       Reason = "notify"
	ReasonBadFrame     Reason = "bad_frame"
	ReasonSelfAuthored Reason = "self_authored"
	ReasonDisabled     Reason = "notifications_disabled"
	ReasonViewing      Reason = "viewing_conversation"
	ReasonDuplicate    Reason = "duplicate"
)

const (
	ChannelMessages = "messages"
	TypeNewMessage  = "newMessage"

	defaultTitle = "New Message"
	defaultBody  = "You have a new message"
)

type Decision struct {
	Notify  bool
	Reason  Reason
	Request Request // 仅 Notify 为 true 时有效
}

// IdentifierFor 同一条消息总是得到同一个通知标识
func IdentifierFor(messageID string) string { return "msg-" + messageID }

// Decide 按顺序匹配抑制规则，命中即返回；纯函数，不产生副作用
func Decide(frame events.Response[events.MessagePayload], snap Snapshot, foreground bool) Decision {
	if !frame.Success || frame.Data == nil {
		return Decision{Reason: ReasonBadFrame}
	}
	msg := frame.Data

	if snap.CurrentUserID != "" && msg.Sender.ID == snap.CurrentUserID {
		return Decision{Reason: ReasonSelfAuthored}
	}
	if !snap.NotificationsEnabled {
		return Decision{Reason: ReasonDisabled}
	}
	if foreground && snap.ActiveConversationID != "" && snap.ActiveConversationID == msg.ConversationID {
		return Decision{Reason: ReasonViewing}
	}

	return Decision{
		Notify: true,
		Reason: ReasonNotify,
		Request: Request{
			Identifier: IdentifierFor(msg.ID),
			Title:      safe.DefaultString(msg.Sender.Name, defaultTitle),
			Body:       safe.DefaultString(msg.Content, defaultBody),
			Data: map[string]any{
				"conversationId": msg.ConversationID,
				"messageId":      msg.ID,
				"type":           TypeNewMessage,
			},
			Sound:     "default",
			Priority:  "high",
			ChannelID: ChannelMessages,
		},
	}
}
