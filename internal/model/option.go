package model

// Option is a named setting, also used for schema version markers.
type Option struct {
	Name  string `gorm:"primaryKey;size:191"`
	Value string `gorm:"type:text;not null"`
}

func (Option) TableName() string { return "options" }
