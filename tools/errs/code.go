package errs

// 通用错误码
const (
	ServerInternalError = 500
	RecordNotFoundError = 1004
	InvalidTokenError   = 1501
	SessionExpiredError = 1502
)

// 连接/协议/通知相关错误码
const (
	ConnectionErrorCode           = 2001
	NotConnectedCode              = 2002
	ProtocolErrorCode             = 2101
	UnknownEventCode              = 2102
	PermissionDeniedCode          = 2201
	NotificationDeliveryErrorCode = 2202
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrInvalidToken   = NewCodeError(InvalidTokenError, "InvalidTokenError")
	ErrSessionExpired = NewCodeError(SessionExpiredError, "SessionExpiredError")

	ErrConnection           = NewCodeError(ConnectionErrorCode, "ConnectionError")
	ErrNotConnected         = NewCodeError(NotConnectedCode, "NotConnected")
	ErrProtocol             = NewCodeError(ProtocolErrorCode, "ProtocolError")
	ErrUnknownEvent         = NewCodeError(UnknownEventCode, "UnknownEvent")
	ErrPermissionDenied     = NewCodeError(PermissionDeniedCode, "PermissionDenied")
	ErrNotificationDelivery = NewCodeError(NotificationDeliveryErrorCode, "NotificationDeliveryError")
)

func init() {
	_ = DefaultCodeRelation.Add(ConnectionErrorCode, NotConnectedCode)
	_ = DefaultCodeRelation.Add(ProtocolErrorCode, UnknownEventCode)
}
