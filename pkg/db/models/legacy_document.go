package models

import (
	"time"

	dbtypes "github.com/gardenseed/storefront/pkg/db/types"
)

// LegacyDocument is a schemaless record of the legacy item collections.
type LegacyDocument struct {
	ID         string          `gorm:"primaryKey;column:id;type:varchar(36)"`
	Collection string          `gorm:"column:collection;type:varchar(64);not null;index"`
	Fields     dbtypes.JSONMap `gorm:"column:fields;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (LegacyDocument) TableName() string {
	return "legacy_documents"
}
