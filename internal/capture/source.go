package capture

// EventKind 输入事件类型
type EventKind string

const (
	KindPress   EventKind = "press"
	KindRelease EventKind = "release"
)

// Event 采集协作方产出的一条输入信号
// VK 为平台稳定的虚拟键码；KeyName 尽力而为，可能为空。
type Event struct {
	Kind    EventKind `json:"kind"`
	VK      int       `json:"vk"`
	KeyName string    `json:"key_name,omitempty"`
}

// Source 按下/释放信号源
// 真正的系统钩子在进程外实现，本模块只约定边界；
// Events 通道关闭表示信号源结束。
type Source interface {
	Events() <-chan Event
}
