package hotkey

import "fmt"

// Modifier 修饰键角色
type Modifier string

const (
	ModCtrl  Modifier = "CTRL"
	ModShift Modifier = "SHIFT"
	ModAlt   Modifier = "ALT"
	ModWin   Modifier = "WIN"
)

// modifierPairs 每个角色对应左/右两个虚拟键码，任一按下即视为满足。
var modifierPairs = map[Modifier][2]int{
	ModCtrl:  {162, 163},
	ModShift: {160, 161},
	ModAlt:   {164, 165},
	ModWin:   {91, 92},
}

// modifierCodes 全部修饰键码的集合，用于判断某次释放是否涉及修饰键。
var modifierCodes = func() map[int]struct{} {
	codes := make(map[int]struct{}, len(modifierPairs)*2)
	for _, pair := range modifierPairs {
		codes[pair[0]] = struct{}{}
		codes[pair[1]] = struct{}{}
	}
	return codes
}()

// IsModifierCode 判断键码是否属于任一修饰键角色
func IsModifierCode(vk int) bool {
	_, ok := modifierCodes[vk]
	return ok
}

// Definition 热键定义
// 从配置加载的固定记录：修饰键角色集合 + 触发键。
type Definition struct {
	ID          string     // 如 "CTRL+C"
	DisplayName string     // 展示名称，如 "复制"
	Modifiers   []Modifier // 至少一个角色
	TriggerVK   int        // 触发键的虚拟键码
}

// ValidateDefinitions 加载时校验热键定义
func ValidateDefinitions(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for i, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("第 %d 个热键定义缺少 id", i+1)
		}
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("热键 id 重复: %s", def.ID)
		}
		seen[def.ID] = struct{}{}
		if len(def.Modifiers) == 0 {
			return fmt.Errorf("热键 %s 未声明修饰键", def.ID)
		}
		for _, mod := range def.Modifiers {
			if _, ok := modifierPairs[mod]; !ok {
				return fmt.Errorf("热键 %s 包含未知修饰键: %s", def.ID, mod)
			}
		}
		if def.TriggerVK <= 0 {
			return fmt.Errorf("热键 %s 的触发键码无效: %d", def.ID, def.TriggerVK)
		}
	}
	return nil
}

// DefaultDefinitions 默认热键列表
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "CTRL+C", DisplayName: "复制", Modifiers: []Modifier{ModCtrl}, TriggerVK: 67},
		{ID: "CTRL+V", DisplayName: "粘贴", Modifiers: []Modifier{ModCtrl}, TriggerVK: 86},
		{ID: "CTRL+X", DisplayName: "剪切", Modifiers: []Modifier{ModCtrl}, TriggerVK: 88},
		{ID: "CTRL+Z", DisplayName: "撤销", Modifiers: []Modifier{ModCtrl}, TriggerVK: 90},
		{ID: "CTRL+S", DisplayName: "保存", Modifiers: []Modifier{ModCtrl}, TriggerVK: 83},
		{ID: "CTRL+A", DisplayName: "全选", Modifiers: []Modifier{ModCtrl}, TriggerVK: 65},
		{ID: "CTRL+F", DisplayName: "查找", Modifiers: []Modifier{ModCtrl}, TriggerVK: 70},
		{ID: "CTRL+SHIFT+S", DisplayName: "另存为", Modifiers: []Modifier{ModCtrl, ModShift}, TriggerVK: 83},
		{ID: "ALT+TAB", DisplayName: "切换窗口", Modifiers: []Modifier{ModAlt}, TriggerVK: 9},
		{ID: "WIN+V", DisplayName: "剪贴板历史", Modifiers: []Modifier{ModWin}, TriggerVK: 86},
	}
}
