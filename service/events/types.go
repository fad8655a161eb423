package events

import (
	"PPClient/tools/decode"
)

// Response 服务端回包统一形状 {success, data?, msg?}
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

type Sender struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// MessagePayload 服务端下发的消息，入站后不再修改
type MessagePayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Sender         Sender `json:"sender"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment,omitempty"`
	CreatedAt      string `json:"createdAt"`
}

type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type Conversation struct {
	ID           string          `json:"_id"`
	Type         string          `json:"type"` // direct / group
	Name         string          `json:"name,omitempty"`
	Avatar       string          `json:"avatar,omitempty"`
	Participants []Participant   `json:"participants"`
	LastMessage  *MessagePayload `json:"lastMessage,omitempty"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
}

type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type TokenPayload struct {
	Token string `json:"token"`
}

// ---- 上行负载 ----

type NewMessageRequest struct {
	ConversationID string `json:"conversationId"`
	Sender         Sender `json:"sender"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment,omitempty"`
}

type GetMessagesRequest struct {
	ConversationID string `json:"conversationId"`
}

type NewConversationRequest struct {
	Type         string   `json:"type"`
	Participants []string `json:"participants"`
	Name         string   `json:"name,omitempty"`
	Avatar       string   `json:"avatar,omitempty"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// NoPayload 不带负载的上行事件，线上编码为 null
type NoPayload struct{}

func (NoPayload) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// DecodeResponse 把帧 data 解成 Response[T]；形状不对时给出 success=false 的回包，
// 调用方的错误处理逻辑照常生效
func DecodeResponse[T any](data any) Response[T] {
	if _, ok := data.(map[string]any); !ok {
		return Response[T]{Success: false, Msg: "malformed frame"}
	}
	resp, err := decode.Decode[Response[T]](data)
	if err != nil {
		return Response[T]{Success: false, Msg: "malformed payload: " + err.Error()}
	}
	return *resp
}
