package model

import (
	"time"

	"gorm.io/datatypes"
)

// Item is the stored row of a tracker item. Parents, checklists and history
// are kept as JSON columns; Position preserves the user's item order.
type Item struct {
	ID          string         `gorm:"primaryKey;size:128" json:"id"`
	Position    int            `gorm:"index:idx_item_position;not null" json:"position"`
	Name        string         `gorm:"size:128;not null" json:"name"`
	Type        string         `gorm:"size:16;not null" json:"type"`
	Description string         `gorm:"type:text" json:"description"`
	Notes       string         `gorm:"type:text" json:"notes"`
	Tier        int            `gorm:"default:0" json:"tier"`
	Level       int            `gorm:"default:0" json:"level"`
	IsPrime     bool           `json:"is_prime"`
	Enhanced    bool           `json:"enhanced"`
	Parents     datatypes.JSON `json:"parents"`
	Checklists  datatypes.JSON `json:"checklists"`
	History     datatypes.JSON `json:"history"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "items" }
