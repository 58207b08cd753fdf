package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. State is keyed by a fixed row key: one
// process embodies one storefront session, so each table holds one row.
type CartStateModel struct {
	Key       string         `gorm:"primaryKey"`
	Items     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

type SessionStateModel struct {
	Key       string         `gorm:"primaryKey"`
	Token     string         `gorm:"not null"`
	User      datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}
