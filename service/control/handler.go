package control

import (
	"net/http"

	"PPClient/global"
	"PPClient/service/events"
	"PPClient/service/notify"
	"PPClient/tools/errs"

	"github.com/gin-gonic/gin"
)

type statusReply struct {
	Connection           string `json:"connection"`
	UserID               string `json:"userId,omitempty"`
	ActiveConversationID string `json:"activeConversationId,omitempty"`
	AppState             string `json:"appState"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	PhysicalDevice       bool   `json:"physicalDevice"`
}

func (s *Server) status(c *gin.Context) {
	snap := s.d.Engine.Context().Snapshot()
	c.JSON(http.StatusOK, global.Sucess(statusReply{
		Connection:           s.d.Conn.State().String(),
		UserID:               snap.CurrentUserID,
		ActiveConversationID: snap.ActiveConversationID,
		AppState:             s.d.AppState.State().String(),
		NotificationsEnabled: snap.NotificationsEnabled,
		PhysicalDevice:       snap.PhysicalDevice,
	}))
}

type activeConversationReq struct {
	// 空串表示离开会话页
	ConversationID string `json:"conversationId"`
}

func (s *Server) setActiveConversation(c *gin.Context) {
	var req activeConversationReq
	if !bind(c, &req) {
		return
	}
	s.d.Engine.Context().SetActiveConversation(req.ConversationID)
	c.JSON(http.StatusOK, global.Sucess(req))
}

type appStateReq struct {
	State string `json:"state" binding:"required"`
}

func (s *Server) setAppState(c *gin.Context) {
	var req appStateReq
	if !bind(c, &req) {
		return
	}
	st, ok := notify.ParseState(req.State)
	if !ok {
		c.JSON(http.StatusBadRequest, global.Fail(errs.New("unknown app state", "state", req.State)))
		return
	}
	s.d.AppState.Set(st)
	c.JSON(http.StatusOK, global.Sucess(gin.H{"state": st.String()}))
}

type notificationsReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) setNotifications(c *gin.Context) {
	var req notificationsReq
	if !bind(c, &req) {
		return
	}
	if err := s.d.Engine.SetNotificationsEnabled(c.Request.Context(), *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(gin.H{"enabled": *req.Enabled}))
}

func (s *Server) testNotification(c *gin.Context) {
	id, err := s.d.Engine.SendTest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(gin.H{"id": id}))
}

func (s *Server) badge(c *gin.Context) {
	n, err := s.d.Badge.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(gin.H{"count": n}))
}

// resetBadge 用户看过通知后清零
func (s *Server) resetBadge(c *gin.Context) {
	if err := s.d.Badge.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(gin.H{"count": 0}))
}

type sendMessageReq struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment"`
}

// sendMessage 以当前用户身份发 newMessage，结果经 newMessage 订阅回来
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageReq
	if !bind(c, &req) {
		return
	}
	u := s.d.Session.User()
	if u == nil {
		c.JSON(http.StatusUnauthorized, global.Fail(errs.ErrInvalidToken.WrapMsg("not signed in")))
		return
	}
	err := events.NewMessage.Emit(s.d.Relay, events.NewMessageRequest{
		ConversationID: req.ConversationID,
		Sender:         events.Sender{ID: u.ID, Name: u.Name, Avatar: u.Avatar},
		Content:        req.Content,
		Attachment:     req.Attachment,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, global.Fail(err))
		return
	}
	c.JSON(http.StatusAccepted, global.Sucess(nil))
}

type signInReq struct {
	Token string `json:"token" binding:"required"`
}

func (s *Server) signIn(c *gin.Context) {
	var req signInReq
	if !bind(c, &req) {
		return
	}
	u, err := s.d.Session.SignIn(c.Request.Context(), req.Token)
	if err != nil {
		status := http.StatusBadGateway
		if errs.ErrInvalidToken.Is(err) || errs.ErrSessionExpired.Is(err) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(u))
}

func (s *Server) signOut(c *gin.Context) {
	if err := s.d.Session.SignOut(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, global.Fail(err))
		return
	}
	c.JSON(http.StatusOK, global.Sucess(nil))
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, global.Fail(errs.WrapMsg(err, "bad request")))
		return false
	}
	return true
}
