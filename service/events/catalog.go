package events

// Name 事件名，闭集
type Name string

const (
	NewMessageName       Name = "newMessage"
	GetMessagesName      Name = "getMessages"
	NewConversationName  Name = "newConversation"
	GetContactsName      Name = "getContacts"
	GetConversationsName Name = "getConversations"
	UpdateProfileName    Name = "updateProfile"
	TestSocketName       Name = "testSocket"
)

var catalog = map[Name]struct{}{
	NewMessageName:       {},
	GetMessagesName:      {},
	NewConversationName:  {},
	GetContactsName:      {},
	GetConversationsName: {},
	UpdateProfileName:    {},
	TestSocketName:       {},
}

// Valid 是否属于协议认可的事件
func (n Name) Valid() bool {
	_, ok := catalog[n]
	return ok
}

// Names 全部事件名（顺序固定）
func Names() []Name {
	return []Name{
		NewMessageName,
		GetMessagesName,
		NewConversationName,
		GetContactsName,
		GetConversationsName,
		UpdateProfileName,
		TestSocketName,
	}
}

// Event 一个事件的类型化描述：Req 为上行负载，Resp 为下行 data 的类型
type Event[Req any, Resp any] struct {
	name Name
}

func (e Event[Req, Resp]) Name() Name { return e.name }

// Emit 发送上行负载
func (e Event[Req, Resp]) Emit(r *Relay, req Req) error {
	return r.Emit(e.name, req)
}

// Subscribe 注册回调；同名事件只保留最后一个订阅
func (e Event[Req, Resp]) Subscribe(r *Relay, cb func(Response[Resp])) *Subscription {
	sub, _ := r.Subscribe(e.name, func(data any) {
		cb(DecodeResponse[Resp](data))
	})
	return sub
}

var (
	NewMessage       = Event[NewMessageRequest, MessagePayload]{name: NewMessageName}
	GetMessages      = Event[GetMessagesRequest, []MessagePayload]{name: GetMessagesName}
	NewConversation  = Event[NewConversationRequest, Conversation]{name: NewConversationName}
	GetContacts      = Event[NoPayload, []Contact]{name: GetContactsName}
	GetConversations = Event[NoPayload, []Conversation]{name: GetConversationsName}
	UpdateProfile    = Event[UpdateProfileRequest, TokenPayload]{name: UpdateProfileName}
	TestSocket       = Event[map[string]any, map[string]any]{name: TestSocketName}
)
