package model

import "time"

// StateEntry stores one JSON snapshot under a fixed logical key.
type StateEntry struct {
	Key       string `gorm:"primaryKey;column:state_key"`
	Value     string
	UpdatedAt time.Time
}

func (StateEntry) TableName() string {
	return "kv_entries"
}
