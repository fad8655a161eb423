package notify

import "sync/atomic"

// AppState 前后台状态
type AppState interface {
	Foreground() bool
}

type State int32

const (
	StateActive State = iota
	StateInactive
	StateBackground
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	default:
		return "background"
	}
}

// ParseState 未知值按 background 处理
func ParseState(s string) (State, bool) {
	switch s {
	case "active":
		return StateActive, true
	case "inactive":
		return StateInactive, true
	case "background":
		return StateBackground, true
	}
	return StateBackground, false
}

// AppStateTracker 由 UI 生命周期回调写入，默认 active
type AppStateTracker struct {
	v atomic.Int32
}

func NewAppStateTracker() *AppStateTracker { return &AppStateTracker{} }

func (t *AppStateTracker) Set(s State) { t.v.Store(int32(s)) }

func (t *AppStateTracker) State() State { return State(t.v.Load()) }

// Foreground 只有 active 算前台
func (t *AppStateTracker) Foreground() bool { return t.State() == StateActive }
