package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
)

// CustomClient speaks the project's own REST API (see cmd/server).
type CustomClient struct {
	http    *httpDoer
	baseURL string
}

var _ Client = (*CustomClient)(nil)

func NewCustomClient(hc *http.Client, baseURL string) *CustomClient {
	return &CustomClient{http: &httpDoer{client: hc}, baseURL: trimBase(baseURL)}
}

func (c *CustomClient) Provider() models.Provider { return models.ProviderCustom }

type customAuthResponse struct {
	AccessToken string          `json:"accessToken"`
	User        models.AuthUser `json:"user"`
}

func (c *CustomClient) signIn(ctx context.Context, method string, body any) (*models.AuthSession, error) {
	var resp customAuthResponse
	err := c.http.do(ctx, ErrAuthFailed, request{
		method: http.MethodPost,
		url:    c.baseURL + "/auth/" + method + "/login",
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, &Error{Op: ErrAuthFailed, Message: "response carries no token or user"}
	}
	return &models.AuthSession{
		Provider:    models.ProviderCustom,
		AccessToken: resp.AccessToken,
		User:        resp.User,
	}, nil
}

func (c *CustomClient) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return c.signIn(ctx, "email", map[string]string{"email": email, "password": password})
}

func (c *CustomClient) SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signIn(ctx, "apple", map[string]string{"identityToken": identityToken})
}

func (c *CustomClient) SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signIn(ctx, "google", map[string]string{"identityToken": identityToken})
}

type customPullResponse struct {
	Entries    []wireEntry `json:"entries"`
	ServerTime int64       `json:"serverTime"`
}

func (c *CustomClient) Pull(ctx context.Context, s *models.AuthSession, since int64) (*PullResult, error) {
	var resp customPullResponse
	err := c.http.do(ctx, ErrPullFailed, request{
		method: http.MethodGet,
		url:    c.baseURL + "/entries/pull?" + url.Values{"since": {strconv.FormatInt(since, 10)}}.Encode(),
		header: map[string]string{common.AuthorizationHeader: bearer(s.AccessToken)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &PullResult{Entries: make([]models.Entry, 0, len(resp.Entries)), ServerTime: resp.ServerTime}
	for _, w := range resp.Entries {
		out.Entries = append(out.Entries, w.toModel())
	}
	return out, nil
}

func (c *CustomClient) Push(ctx context.Context, s *models.AuthSession, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	body := struct {
		Entries []wireEntry `json:"entries"`
	}{Entries: make([]wireEntry, 0, len(entries))}
	for _, e := range entries {
		body.Entries = append(body.Entries, toWire(e))
	}

	return c.http.do(ctx, ErrPushFailed, request{
		method: http.MethodPost,
		url:    c.baseURL + "/entries/push",
		header: map[string]string{common.AuthorizationHeader: bearer(s.AccessToken)},
		body:   body,
	}, nil)
}
