// Package backup implements the journal backup document, its optional
// passphrase encryption and the places archives are kept.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
)

// FormatVersion is the only document version Decode accepts.
const FormatVersion = 1

// ErrUnsupportedVersion is returned for documents of any other version. It
// matches common.ErrValidation as well.
var ErrUnsupportedVersion = fmt.Errorf("%w: unsupported backup version", common.ErrValidation)

// Document is the exported form of the journal.
type Document struct {
	Version    int            `json:"version"`
	ExportedAt int64          `json:"exportedAt"`
	Entries    []models.Entry `json:"entries"`
}

// Encode renders entries, tombstones included, as an indented document.
func Encode(entries []models.Entry, exportedAt int64) ([]byte, error) {
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: exportedAt,
		Entries:    models.CloneAll(entries),
	}
	if doc.Entries == nil {
		doc.Entries = []models.Entry{}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return out, nil
}

// Decode parses a document leniently. Entries lacking a string id or a valid
// date are skipped; missing or non-numeric timestamps become now, missing
// line slots become "" and lines are trimmed and cut to MaxLineLength.
func Decode(raw []byte, now int64) ([]models.Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: backup is not valid JSON: %v", common.ErrValidation, err)
	}

	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: backup must be a JSON object", common.ErrValidation)
	}

	if !isVersion(doc["version"]) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedVersion, doc["version"])
	}

	list, ok := doc["entries"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: backup entries must be an array", common.ErrValidation)
	}

	entries := make([]models.Entry, 0, len(list))
	for _, item := range list {
		if e, ok := decodeEntry(item, now); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func decodeEntry(item any, now int64) (models.Entry, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return models.Entry{}, false
	}
	id, okID := obj["id"].(string)
	date, okDate := obj["date"].(string)
	if !okID || !okDate || id == "" || models.ValidateDate(date) != nil {
		return models.Entry{}, false
	}

	e := models.Entry{ID: id, Date: date}

	if lines, ok := obj["lines"].([]any); ok {
		for i := 0; i < models.LineCount && i < len(lines); i++ {
			if s, ok := lines[i].(string); ok {
				e.Lines[i] = models.ClampLine(s)
			}
		}
	}

	if uri, ok := obj["imageUri"].(string); ok && uri != "" {
		e.ImageURI = &uri
	}

	e.CreatedAt = millisOr(obj["createdAt"], now)
	e.UpdatedAt = millisOr(obj["updatedAt"], now)

	if ts, ok := number(obj["deletedAt"]); ok {
		e.DeletedAt = &ts
	}
	return e, true
}

// isVersion accepts only a JSON number equal to FormatVersion.
func isVersion(v any) bool {
	n, ok := v.(json.Number)
	if !ok {
		return false
	}
	f, err := n.Float64()
	return err == nil && f == FormatVersion
}

func millisOr(v any, fallback int64) int64 {
	if ts, ok := number(v); ok && ts != 0 {
		return ts
	}
	return fallback
}

// number accepts JSON numbers and numeric strings.
func number(v any) (int64, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = x
	default:
		return 0, false
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}
