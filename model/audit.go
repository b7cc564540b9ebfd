package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one tracker mutation.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    string         `gorm:"index:idx_audit_action;size:32;not null" json:"action"`
	ItemID    string         `gorm:"index:idx_audit_item;size:128" json:"item_id"`
	ActorID   string         `gorm:"size:64" json:"actor_id"`
	FromLevel int            `json:"from_level"`
	ToLevel   int            `json:"to_level"`
	Detail    string         `gorm:"type:text" json:"detail"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
