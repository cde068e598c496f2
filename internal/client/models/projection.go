package models

import "strings"

// Visible returns the live entries in display order, at most one per date.
// When two live entries share a date the one with the greatest UpdatedAt
// (then the greatest id) is shown.
func Visible(entries []Entry) []Entry {
	live := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDeleted() {
			live = append(live, e.Clone())
		}
	}
	SortForDisplay(live)

	out := live[:0]
	seen := make(map[string]struct{}, len(live))
	for _, e := range live {
		if _, dup := seen[e.Date]; dup {
			continue
		}
		seen[e.Date] = struct{}{}
		out = append(out, e)
	}
	return out
}

// VisibleForDate returns the visible entry for date, if any.
func VisibleForDate(entries []Entry, date string) (Entry, bool) {
	for _, e := range Visible(entries) {
		if e.Date == date {
			return e, true
		}
	}
	return Entry{}, false
}

// Search returns visible entries having a line that contains keyword,
// ignoring case. A blank keyword matches every visible entry.
func Search(entries []Entry, keyword string) []Entry {
	visible := Visible(entries)
	q := strings.ToLower(strings.TrimSpace(keyword))
	if q == "" {
		return visible
	}

	out := make([]Entry, 0, len(visible))
	for _, e := range visible {
		for _, l := range e.Lines {
			if strings.Contains(strings.ToLower(l), q) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// InMonth returns visible entries whose date falls in month, given as YYYY-MM.
func InMonth(entries []Entry, month string) []Entry {
	prefix := month + "-"
	out := []Entry{}
	for _, e := range Visible(entries) {
		if strings.HasPrefix(e.Date, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// FindByID returns the entry with id, tombstones included.
func FindByID(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}
