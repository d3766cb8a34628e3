package hotkey

import "sync"

// Fire 一次热键触发
type Fire struct {
	ID          string
	DisplayName string
}

// Tracker 修饰键/组合键状态机
// 维护当前按住的键集合，在触发键按下的瞬间判定哪些热键定义成立；
// 已按住的键再次按下视为系统自动重复，整体忽略。
// fired 防止触发键松开后在修饰键仍按住时重新按下被重复触发；
// 释放任一修饰键后整体清空，同一组合可以再次触发。
type Tracker struct {
	mu      sync.Mutex
	defs    []Definition
	pressed map[int]struct{}
	fired   map[string]struct{} // 自上次修饰键释放以来已上报的热键 id
}

// NewTracker 创建状态机
func NewTracker(defs []Definition) *Tracker {
	return &Tracker{
		defs:    defs,
		pressed: make(map[int]struct{}),
		fired:   make(map[string]struct{}),
	}
}

// SetDefinitions 热更新热键定义（配置文件变更时调用）
// 不重置按键状态，进行中的组合不受影响。
func (t *Tracker) SetDefinitions(defs []Definition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defs = defs
}

// Press 记录一次按下，返回本次判定成立的热键触发（按定义顺序）。
// 只在触发键自身按下时判定，单独按住修饰键永远不会触发。
// repeat 表示该键此前已处于按住状态（系统自动重复产生的按下），
// 自动重复不触发任何热键，调用方也应跳过计数；释放后重新按下才算新事件。
func (t *Tracker) Press(vk int) (fires []Fire, repeat bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, held := t.pressed[vk]; held {
		return nil, true
	}
	t.pressed[vk] = struct{}{}
	for _, def := range t.defs {
		if def.TriggerVK != vk {
			continue
		}
		if _, done := t.fired[def.ID]; done {
			continue
		}
		if !t.modifiersSatisfied(def) {
			continue
		}
		fires = append(fires, Fire{ID: def.ID, DisplayName: def.DisplayName})
		t.fired[def.ID] = struct{}{}
	}
	return fires, false
}

// Release 记录一次释放
// 释放的键属于任一修饰键角色时清空已触发集合；
// 释放普通键不影响已触发集合。
func (t *Tracker) Release(vk int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pressed, vk)
	if IsModifierCode(vk) {
		t.fired = make(map[string]struct{})
	}
}

// modifiersSatisfied 定义要求的每个角色是否都有左/右之一被按住
func (t *Tracker) modifiersSatisfied(def Definition) bool {
	for _, mod := range def.Modifiers {
		pair := modifierPairs[mod]
		_, left := t.pressed[pair[0]]
		_, right := t.pressed[pair[1]]
		if !left && !right {
			return false
		}
	}
	return true
}
