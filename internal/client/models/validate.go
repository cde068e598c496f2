package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/threeline/internal/common"
	"golang.org/x/text/unicode/norm"
)

// DateLayout is the calendar-day format used for Entry.Date.
const DateLayout = "2006-01-02"

// DateKey formats t as an entry date in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidateDate checks that s is a real YYYY-MM-DD calendar day.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: date %q must be YYYY-MM-DD", common.ErrValidation, s)
	}
	return nil
}

// ValidateLines trims and NFC-normalises up to three input lines, requires at
// least one of them to be non-empty and each to fit MaxLineLength runes.
// Missing slots are padded with "".
func ValidateLines(lines []string) ([LineCount]string, error) {
	var out [LineCount]string

	if len(lines) > LineCount {
		return out, fmt.Errorf("%w: at most %d lines allowed", common.ErrValidation, LineCount)
	}

	filled := false
	for i, l := range lines {
		l = normalizeLine(l)
		if n := utf8.RuneCountInString(l); n > MaxLineLength {
			return out, fmt.Errorf("%w: line %d has %d characters, limit is %d",
				common.ErrValidation, i+1, n, MaxLineLength)
		}
		if l != "" {
			filled = true
		}
		out[i] = l
	}

	if !filled {
		return out, fmt.Errorf("%w: at least one line is required", common.ErrValidation)
	}
	return out, nil
}

// ClampLine trims and NFC-normalises l and cuts it to MaxLineLength runes.
// It is used for text that did not pass through ValidateLines.
func ClampLine(l string) string {
	l = normalizeLine(l)
	if utf8.RuneCountInString(l) <= MaxLineLength {
		return l
	}
	return strings.TrimSpace(string([]rune(l)[:MaxLineLength]))
}

func normalizeLine(l string) string {
	return norm.NFC.String(strings.TrimSpace(l))
}
