package remote

import "github.com/dmitrijs2005/threeline/internal/client/models"

// wireEntry is the camelCase record shared by the custom REST API and the
// Firebase Realtime Database.
type wireEntry struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Line1     string  `json:"line1"`
	Line2     string  `json:"line2"`
	Line3     string  `json:"line3"`
	ImageURI  *string `json:"imageUri,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
	DeletedAt *int64  `json:"deletedAt"`
}

func toWire(e models.Entry) wireEntry {
	return wireEntry{
		ID:        e.ID,
		Date:      e.Date,
		Line1:     e.Lines[0],
		Line2:     e.Lines[1],
		Line3:     e.Lines[2],
		ImageURI:  e.ImageURI,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		DeletedAt: e.DeletedAt,
	}
}

func (w wireEntry) toModel() models.Entry {
	return models.Entry{
		ID:        w.ID,
		Date:      w.Date,
		Lines:     [models.LineCount]string{w.Line1, w.Line2, w.Line3},
		ImageURI:  w.ImageURI,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
		DeletedAt: w.DeletedAt,
	}
}

// supabaseRow is a journal_entries row as exposed by PostgREST.
type supabaseRow struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	Line1     string  `json:"line1"`
	Line2     string  `json:"line2"`
	Line3     string  `json:"line3"`
	ImageURI  *string `json:"image_uri"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	DeletedAt *int64  `json:"deleted_at"`
}

func toSupabase(userID string, e models.Entry) supabaseRow {
	return supabaseRow{
		ID:        e.ID,
		UserID:    userID,
		Date:      e.Date,
		Line1:     e.Lines[0],
		Line2:     e.Lines[1],
		Line3:     e.Lines[2],
		ImageURI:  e.ImageURI,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		DeletedAt: e.DeletedAt,
	}
}

func (r supabaseRow) toModel() models.Entry {
	return models.Entry{
		ID:        r.ID,
		Date:      r.Date,
		Lines:     [models.LineCount]string{r.Line1, r.Line2, r.Line3},
		ImageURI:  r.ImageURI,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
}
