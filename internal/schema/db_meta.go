package schema

import "time"

// SchemaVersionKey db_meta 中记录 schema 版本的固定键。
const SchemaVersionKey = "schema_version"

// DBMeta 数据库元信息表
// schema_version 单行记录当前聚合表布局的版本，只会向前递增，
// 避免仅依赖 AutoMigrate 导致升级不可控。
type DBMeta struct {
	Key       string    `gorm:"primaryKey;size:32" json:"key"`
	Value     string    `gorm:"size:64;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (DBMeta) TableName() string {
	return "db_meta"
}
