package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabase(t *testing.T, status int, reply string) (*SupabaseClient, func() []captured) {
	t.Helper()
	srv, seen := fakeBackend(t, status, reply)
	clock := testutil.NewStubClock(time.UnixMilli(1705400000000))
	return NewSupabaseClient(srv.Client(), clock, srv.URL, "anon"), seen
}

func TestSupabase_SignInWithPassword(t *testing.T) {
	c, seen := newSupabase(t, http.StatusOK,
		`{"access_token":"jwt","user":{"id":"u1","email":"ann@example.com","user_metadata":{"name":"Annie"}}}`)

	s, err := c.SignInWithEmail(context.Background(), "ann@example.com", "pw")
	require.NoError(t, err)

	req := seen()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/auth/v1/token", req.Path)
	assert.Equal(t, []string{"password"}, req.Query["grant_type"])
	assert.Equal(t, "anon", req.Header.Get("apikey"))
	assert.Equal(t, map[string]any{"email": "ann@example.com", "password": "pw"}, decodeBody(t, req))

	assert.Equal(t, models.ProviderSupabase, s.Provider)
	assert.Equal(t, "Annie", *s.User.DisplayName)
}

func TestSupabase_SignInWithIDTokenPrefersFullName(t *testing.T) {
	c, seen := newSupabase(t, http.StatusOK,
		`{"access_token":"jwt","user":{"id":"u1","user_metadata":{"full_name":"Ann Lee","name":"Annie"}}}`)

	s, err := c.SignInWithGoogle(context.Background(), "gtok")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", *s.User.DisplayName)
	assert.Equal(t, "unknown@supabase.local", s.User.Email)

	req := seen()[0]
	assert.Equal(t, []string{"id_token"}, req.Query["grant_type"])
	assert.Equal(t, map[string]any{"provider": "google", "id_token": "gtok"}, decodeBody(t, req))
}

func TestSupabase_SignInWithApple(t *testing.T) {
	c, seen := newSupabase(t, http.StatusOK, `{"access_token":"jwt","user":{"id":"u1"}}`)
	_, err := c.SignInWithApple(context.Background(), "atok")
	require.NoError(t, err)
	assert.Equal(t, "apple", decodeBody(t, seen()[0])["provider"])
}

func TestSupabase_Pull(t *testing.T) {
	c, seen := newSupabase(t, http.StatusOK, `[
		{"id":"e1","user_id":"user-1","date":"2024-01-15","line1":"one","line2":"two","line3":"three","image_uri":"file:///photo.jpg","created_at":1705300000000,"updated_at":1705310000000,"deleted_at":null},
		{"id":"e2","user_id":"user-1","date":"2024-01-14","line1":"gone","line2":"","line3":"","image_uri":null,"created_at":1705200000000,"updated_at":1705210000000,"deleted_at":1705210000000}
	]`)

	res, err := c.Pull(context.Background(), session(models.ProviderSupabase), 1705000000000)
	require.NoError(t, err)

	req := seen()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/rest/v1/journal_entries", req.Path)
	assert.Equal(t, []string{"eq.user-1"}, req.Query["user_id"])
	assert.Equal(t, []string{"gte.1705000000000"}, req.Query["updated_at"])
	assert.Equal(t, []string{"updated_at.desc"}, req.Query["order"])
	assert.Equal(t, []string{supabaseColumns}, req.Query["select"])
	assert.Equal(t, "anon", req.Header.Get("apikey"))
	assert.Equal(t, "Bearer tok/en+1", req.Header.Get("Authorization"))

	assert.Equal(t, int64(1705400000000), res.ServerTime)
	assert.Equal(t, sampleEntries(), res.Entries)
}

func TestSupabase_PushUpsertsRows(t *testing.T) {
	c, seen := newSupabase(t, http.StatusCreated, ``)

	require.NoError(t, c.Push(context.Background(), session(models.ProviderSupabase), sampleEntries()))

	req := seen()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rest/v1/journal_entries", req.Path)
	assert.Equal(t, []string{"id"}, req.Query["on_conflict"])
	assert.Equal(t, "resolution=merge-duplicates,return=minimal", req.Header.Get("Prefer"))

	var rows []supabaseRow
	require.NoError(t, json.Unmarshal(req.Body, &rows))
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "user-1", r.UserID)
	}
	assert.Equal(t, sampleEntries(), []models.Entry{rows[0].toModel(), rows[1].toModel()})
	assert.Contains(t, string(req.Body), `"image_uri":null`, "every row carries the same keys")
}

func TestSupabase_PullRejected(t *testing.T) {
	c, _ := newSupabase(t, http.StatusForbidden, `{"message":"JWT expired"}`)
	_, err := c.Pull(context.Background(), session(models.ProviderSupabase), 0)
	require.ErrorIs(t, err, ErrPullFailed)
	require.ErrorIs(t, err, ErrUnauthorized)
}
