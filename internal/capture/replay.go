package capture

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ReplaySource 从 JSONL 流回放输入事件
// 每行一个 Event；解析失败的行跳过不中断回放，
// 让代理进程可以在没有系统钩子的环境下端到端运行。
// 消费方提前退出时调用 Close，读取协程随即结束。
type ReplaySource struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewReplaySource 创建回放源并开始读取
func NewReplaySource(r io.Reader) *ReplaySource {
	s := &ReplaySource{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go s.run(r)
	return s
}

// Events 实现 Source
func (s *ReplaySource) Events() <-chan Event {
	return s.events
}

// Close 通知读取协程退出
// 对不再消费 Events 的回放源必须调用，否则读取协程会阻塞在投递上。
func (s *ReplaySource) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *ReplaySource) run(r io.Reader) {
	defer close(s.events)

	scanner := bufio.NewScanner(r)
	var dropped int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			dropped++
			continue
		}
		if ev.Kind != KindPress && ev.Kind != KindRelease {
			dropped++
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("读取回放流失败", "error", err)
	}
	if dropped > 0 {
		slog.Warn("回放流中存在无法解析的行", "dropped", dropped)
	}
}
