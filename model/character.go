package model

import (
	"time"

	"gorm.io/datatypes"
)

// Character is the stored row of a tracker character ("Me" included).
type Character struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	Position  int            `gorm:"not null" json:"position"`
	Name      string         `gorm:"size:64;not null" json:"name"`
	XP        int            `gorm:"default:0" json:"xp"`
	Items     datatypes.JSON `json:"items"`
	Goals     datatypes.JSON `json:"goals"`
	Journals  datatypes.JSON `json:"journals"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// Party is the stored row of a party with its pending temporary boosts.
type Party struct {
	ID         string         `gorm:"primaryKey;size:64" json:"id"`
	Position   int            `gorm:"not null" json:"position"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	CharIDs    datatypes.JSON `json:"char_ids"`
	TempBoosts datatypes.JSON `json:"temp_boosts"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Party) TableName() string { return "parties" }

// SettingsRowID is the primary key of the single settings row.
const SettingsRowID = 1

// Setting holds the user preferences. There is only ever one row.
type Setting struct {
	ID            int    `gorm:"primaryKey" json:"id"`
	Theme         string `gorm:"size:16" json:"theme"`
	DiscoveryMode bool   `json:"discovery_mode"`
	Emojis        bool   `json:"emojis"`
}
