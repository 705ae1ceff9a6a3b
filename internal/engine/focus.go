package engine

import "strings"

// 答题期间前端需要拦截的 DOM 事件
var suppressedEvents = []string{"copy", "cut", "contextmenu", "dragstart", "selectstart"}

// Ctrl/Cmd + 这些按键的组合在答题期间被拦截
var suppressedShortcutKeys = map[string]bool{
	"c": true,
	"x": true,
	"a": true,
}

// FocusGuard 答题专注模式。随答题会话启停，结束后必须释放，
// 不能泄漏到查看模式或其他页面。只是尽力而为的防作弊劝阻，
// 不构成安全边界。
type FocusGuard struct {
	active bool
}

func (g *FocusGuard) Engage()      { g.active = true }
func (g *FocusGuard) Release()     { g.active = false }
func (g *FocusGuard) Active() bool { return g.active }

// BlocksEvent 事件是否需要被拦截；非激活状态一律放行
func (g *FocusGuard) BlocksEvent(name string) bool {
	if !g.active {
		return false
	}
	name = strings.ToLower(name)
	for _, ev := range suppressedEvents {
		if ev == name {
			return true
		}
	}
	return false
}

// BlocksShortcut 是否拦截 Ctrl/Cmd 组合键
func (g *FocusGuard) BlocksShortcut(ctrlOrMeta bool, key string) bool {
	if !g.active || !ctrlOrMeta {
		return false
	}
	return suppressedShortcutKeys[strings.ToLower(key)]
}

// SuppressedEvents 供视图层绑定监听的事件清单
func (g *FocusGuard) SuppressedEvents() []string {
	out := make([]string, len(suppressedEvents))
	copy(out, suppressedEvents)
	return out
}
