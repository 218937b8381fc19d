package models

import "time"

// Preference is one locally persisted client setting.
type Preference struct {
	Key       string    `gorm:"primaryKey;column:key;type:text"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Preference) TableName() string {
	return "preferences"
}
