package schema

// KeyEvent 旧版逐条按键日志（遗留表）
// 仅供迁移器读取重建聚合；v0 时代的存量库才会存在此表，
// 迁移完成后整表删除。Timestamp 为 "YYYY-MM-DD HH:MM:SS" 文本，
// 历史数据可能缺键码或缺时间戳，读取方需跳过。
type KeyEvent struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	KeyName        string `gorm:"size:64"`
	VirtualKeyCode *int
	Timestamp      string `gorm:"size:19"`
}

// TableName 指定表名
func (KeyEvent) TableName() string {
	return "key_events"
}
