package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/stretchr/testify/require"
)

// captured is what the fake backend saw for one request.
type captured struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

func fakeBackend(t *testing.T, status int, reply string) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func decodeBody(t *testing.T, c captured) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(c.Body, &out))
	return out
}

func ptr[T any](v T) *T { return &v }

func session(provider models.Provider) *models.AuthSession {
	return &models.AuthSession{
		Provider:    provider,
		AccessToken: "tok/en+1",
		User:        models.AuthUser{ID: "user-1", Email: "ann@example.com"},
	}
}

func sampleEntries() []models.Entry {
	return []models.Entry{
		{
			ID: "e1", Date: "2024-01-15",
			Lines:     [3]string{"one", "two", "three"},
			ImageURI:  ptr("file:///photo.jpg"),
			CreatedAt: 1705300000000, UpdatedAt: 1705310000000,
		},
		{
			ID: "e2", Date: "2024-01-14",
			Lines:     [3]string{"gone", "", ""},
			CreatedAt: 1705200000000, UpdatedAt: 1705210000000,
			DeletedAt: ptr(int64(1705210000000)),
		},
	}
}
