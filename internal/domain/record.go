package domain

import (
	"time"

	"github.com/veilshelf/veilshelf"
)

// Record is the domain-level catalog record. The ciphertext handle is set once
// at creation and never reassigned; the disclosed pair flips exactly once.
type Record struct {
	ID               string
	Title            string
	Author           string
	Description      string
	PublicCategory   int
	PublicYear       int
	CiphertextHandle veilshelf.CiphertextHandle
	DisclosedValue   uint32
	Disclosed        bool
	Creator          string
	CreatedAt        time.Time
}

// Wire converts to the wire representation.
func (r Record) Wire() veilshelf.Record {
	return veilshelf.Record{
		ID:               r.ID,
		Title:            r.Title,
		Author:           r.Author,
		Description:      r.Description,
		PublicCategory:   r.PublicCategory,
		PublicYear:       r.PublicYear,
		CiphertextHandle: r.CiphertextHandle,
		DisclosedValue:   r.DisclosedValue,
		Disclosed:        r.Disclosed,
		Creator:          r.Creator,
		CreatedAt:        r.CreatedAt,
	}
}
