package notify

import "sync"

// Context 通知判定依赖的进程级状态，由应用根对象持有并注入 Engine。
// 空字符串表示 null（未登录 / 不在任何会话页）。
type Context struct {
	mu                   sync.RWMutex
	currentUserID        string
	activeConversationID string
	notificationsEnabled bool
	physicalDevice       bool
}

// Snapshot Context 某一时刻的只读副本
type Snapshot struct {
	CurrentUserID        string
	ActiveConversationID string
	NotificationsEnabled bool
	PhysicalDevice       bool
}

// NewContext 默认开启通知、视为真机
func NewContext() *Context {
	return &Context{notificationsEnabled: true, physicalDevice: true}
}

// SetCurrentUserID 登录时设置，登出时传 ""
func (c *Context) SetCurrentUserID(id string) {
	c.mu.Lock()
	c.currentUserID = id
	c.mu.Unlock()
}

// SetActiveConversation 进入会话页时设置，离开时传 ""
func (c *Context) SetActiveConversation(id string) {
	c.mu.Lock()
	c.activeConversationID = id
	c.mu.Unlock()
}

func (c *Context) SetNotificationsEnabled(v bool) {
	c.mu.Lock()
	c.notificationsEnabled = v
	c.mu.Unlock()
}

func (c *Context) SetPhysicalDevice(v bool) {
	c.mu.Lock()
	c.physicalDevice = v
	c.mu.Unlock()
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		CurrentUserID:        c.currentUserID,
		ActiveConversationID: c.activeConversationID,
		NotificationsEnabled: c.notificationsEnabled,
		PhysicalDevice:       c.physicalDevice,
	}
}
