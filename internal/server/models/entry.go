package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/threeline/internal/common"
	"golang.org/x/text/unicode/norm"
)

// MaxLineLength is the per-line limit in runes, matching the client.
const MaxLineLength = 120

// Entry is a journal entry as stored for one user. Timestamps are epoch
// milliseconds; SyncedAt is assigned by the server when a write is accepted.
type Entry struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Line1     string  `json:"line1"`
	Line2     string  `json:"line2"`
	Line3     string  `json:"line3"`
	ImageURI  *string `json:"imageUri,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
	DeletedAt *int64  `json:"deletedAt"`
	SyncedAt  int64   `json:"-"`
}

// Validate rejects entries a client could not have produced.
func (e *Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: entry id is required", common.ErrValidation)
	}
	if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
		return fmt.Errorf("%w: entry %s: date %q must be YYYY-MM-DD", common.ErrValidation, e.ID, e.Date)
	}
	if e.UpdatedAt <= 0 {
		return fmt.Errorf("%w: entry %s: updatedAt must be positive", common.ErrValidation, e.ID)
	}
	for i, l := range []string{e.Line1, e.Line2, e.Line3} {
		if n := utf8.RuneCountInString(norm.NFC.String(l)); n > MaxLineLength {
			return fmt.Errorf("%w: entry %s: line %d has %d characters, limit is %d",
				common.ErrValidation, e.ID, i+1, n, MaxLineLength)
		}
	}
	return nil
}
