package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
)

const (
	supabaseUnknownEmail = "unknown@supabase.local"
	supabaseTable        = "journal_entries"
	supabaseColumns      = "id,user_id,date,line1,line2,line3,image_uri,created_at,updated_at,deleted_at"
)

// SupabaseClient uses GoTrue for sign-in and PostgREST for the
// journal_entries table.
type SupabaseClient struct {
	http    *httpDoer
	clock   common.Clock
	baseURL string
	anonKey string
}

var _ Client = (*SupabaseClient)(nil)

func NewSupabaseClient(hc *http.Client, clock common.Clock, baseURL, anonKey string) *SupabaseClient {
	return &SupabaseClient{http: &httpDoer{client: hc}, clock: clock, baseURL: trimBase(baseURL), anonKey: anonKey}
}

func (c *SupabaseClient) Provider() models.Provider { return models.ProviderSupabase }

type supabaseAuthResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			FullName string `json:"full_name"`
			Name     string `json:"name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

func (c *SupabaseClient) signIn(ctx context.Context, grantType string, body any) (*models.AuthSession, error) {
	var resp supabaseAuthResponse
	err := c.http.do(ctx, ErrAuthFailed, request{
		method: http.MethodPost,
		url:    c.baseURL + "/auth/v1/token?" + url.Values{"grant_type": {grantType}}.Encode(),
		header: map[string]string{common.APIKeyHeader: c.anonKey},
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, &Error{Op: ErrAuthFailed, Message: "response carries no token or user"}
	}

	user := models.AuthUser{ID: resp.User.ID, Email: resp.User.Email}
	if user.Email == "" {
		user.Email = supabaseUnknownEmail
	}
	name := resp.User.UserMetadata.FullName
	if name == "" {
		name = resp.User.UserMetadata.Name
	}
	if name != "" {
		user.DisplayName = &name
	}
	return &models.AuthSession{Provider: models.ProviderSupabase, AccessToken: resp.AccessToken, User: user}, nil
}

func (c *SupabaseClient) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return c.signIn(ctx, "password", map[string]string{"email": email, "password": password})
}

func (c *SupabaseClient) SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signIn(ctx, "id_token", map[string]string{"provider": "apple", "id_token": identityToken})
}

func (c *SupabaseClient) SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signIn(ctx, "id_token", map[string]string{"provider": "google", "id_token": identityToken})
}

func (c *SupabaseClient) restHeaders(s *models.AuthSession) map[string]string {
	return map[string]string{
		common.APIKeyHeader:        c.anonKey,
		common.AuthorizationHeader: bearer(s.AccessToken),
	}
}

func (c *SupabaseClient) Pull(ctx context.Context, s *models.AuthSession, since int64) (*PullResult, error) {
	q := url.Values{
		"select":     {supabaseColumns},
		"user_id":    {"eq." + s.User.ID},
		"updated_at": {"gte." + strconv.FormatInt(since, 10)},
		"order":      {"updated_at.desc"},
	}

	serverTime := common.NowMillis(c.clock)

	var rows []supabaseRow
	err := c.http.do(ctx, ErrPullFailed, request{
		method: http.MethodGet,
		url:    c.baseURL + "/rest/v1/" + supabaseTable + "?" + q.Encode(),
		header: c.restHeaders(s),
	}, &rows)
	if err != nil {
		return nil, err
	}

	out := &PullResult{Entries: make([]models.Entry, 0, len(rows)), ServerTime: serverTime}
	for _, r := range rows {
		out.Entries = append(out.Entries, r.toModel())
	}
	return out, nil
}

func (c *SupabaseClient) Push(ctx context.Context, s *models.AuthSession, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]supabaseRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toSupabase(s.User.ID, e))
	}

	h := c.restHeaders(s)
	h[common.PreferHeader] = "resolution=merge-duplicates,return=minimal"

	return c.http.do(ctx, ErrPushFailed, request{
		method: http.MethodPost,
		url:    c.baseURL + "/rest/v1/" + supabaseTable + "?" + url.Values{"on_conflict": {"id"}}.Encode(),
		header: h,
		body:   rows,
	}, nil)
}
