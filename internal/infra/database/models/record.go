package models

import (
	"time"
)

// Record is the persisted form of a catalog record. Seq is a monotonically
// increasing insert sequence; ListIDs orders by it so same-timestamp
// creations keep a stable order.
type Record struct {
	ID               string    `json:"id" gorm:"primaryKey;type:text"`
	Seq              int64     `json:"seq" gorm:"autoIncrement;uniqueIndex"`
	Title            string    `json:"title" gorm:"type:text;not null"`
	Author           string    `json:"author" gorm:"type:text"`
	Description      string    `json:"description" gorm:"type:text"`
	PublicCategory   int       `json:"publicCategory" gorm:"not null"`
	PublicYear       int       `json:"publicYear" gorm:"not null"`
	CiphertextHandle []byte    `json:"ciphertextHandle" gorm:"->;<-:create;type:bytea;not null"`
	DisclosedValue   int64     `json:"disclosedValue" gorm:"not null;default:0"`
	Disclosed        bool      `json:"disclosed" gorm:"not null;default:false"`
	Creator          string    `json:"creator" gorm:"->;<-:create;type:text;index;not null"`
	CreatedAt        time.Time `json:"createdAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
