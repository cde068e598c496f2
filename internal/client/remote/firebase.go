package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/common"
)

const firebaseUnknownEmail = "unknown@firebase.local"

// FirebaseClient signs in through the Identity Toolkit REST API and keeps
// entries under /entries/{uid} in the Realtime Database.
type FirebaseClient struct {
	http        *httpDoer
	clock       common.Clock
	apiKey      string
	authURL     string
	databaseURL string
}

var _ Client = (*FirebaseClient)(nil)

func NewFirebaseClient(hc *http.Client, clock common.Clock, apiKey, authURL, databaseURL string) *FirebaseClient {
	return &FirebaseClient{
		http:        &httpDoer{client: hc},
		clock:       clock,
		apiKey:      apiKey,
		authURL:     trimBase(authURL),
		databaseURL: trimBase(databaseURL),
	}
}

func (c *FirebaseClient) Provider() models.Provider { return models.ProviderFirebase }

type firebaseAuthResponse struct {
	IDToken     string `json:"idToken"`
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (c *FirebaseClient) signIn(ctx context.Context, endpoint string, body any) (*models.AuthSession, error) {
	var resp firebaseAuthResponse
	err := c.http.do(ctx, ErrAuthFailed, request{
		method: http.MethodPost,
		url:    c.authURL + "/accounts:" + endpoint + "?" + url.Values{"key": {c.apiKey}}.Encode(),
		body:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.IDToken == "" || resp.LocalID == "" {
		return nil, &Error{Op: ErrAuthFailed, Message: "response carries no token or user"}
	}

	user := models.AuthUser{ID: resp.LocalID, Email: resp.Email}
	if user.Email == "" {
		user.Email = firebaseUnknownEmail
	}
	if resp.DisplayName != "" {
		user.DisplayName = &resp.DisplayName
	}
	return &models.AuthSession{Provider: models.ProviderFirebase, AccessToken: resp.IDToken, User: user}, nil
}

func (c *FirebaseClient) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return c.signIn(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (c *FirebaseClient) signInWithIdp(ctx context.Context, providerID, identityToken string) (*models.AuthSession, error) {
	postBody := url.Values{"id_token": {identityToken}, "providerId": {providerID}}.Encode()
	return c.signIn(ctx, "signInWithIdp", map[string]any{
		"postBody":            postBody,
		"requestUri":          "https://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	})
}

func (c *FirebaseClient) SignInWithApple(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signInWithIdp(ctx, "apple.com", identityToken)
}

func (c *FirebaseClient) SignInWithGoogle(ctx context.Context, identityToken string) (*models.AuthSession, error) {
	return c.signInWithIdp(ctx, "google.com", identityToken)
}

func (c *FirebaseClient) entriesURL(s *models.AuthSession) string {
	return c.databaseURL + "/entries/" + url.PathEscape(s.User.ID) + ".json?" +
		url.Values{"auth": {s.AccessToken}}.Encode()
}

// Pull reads the user's whole entry map and filters it locally; the
// Realtime Database has no server-side updatedAt index for this layout.
func (c *FirebaseClient) Pull(ctx context.Context, s *models.AuthSession, since int64) (*PullResult, error) {
	serverTime := common.NowMillis(c.clock)

	var byID map[string]wireEntry
	err := c.http.do(ctx, ErrPullFailed, request{
		method: http.MethodGet,
		url:    c.entriesURL(s),
	}, &byID)
	if err != nil {
		return nil, err
	}

	out := &PullResult{Entries: []models.Entry{}, ServerTime: serverTime}
	for key, w := range byID {
		if w.ID == "" {
			w.ID = key
		}
		if w.UpdatedAt >= since {
			out.Entries = append(out.Entries, w.toModel())
		}
	}
	return out, nil
}

func (c *FirebaseClient) Push(ctx context.Context, s *models.AuthSession, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	body := make(map[string]wireEntry, len(entries))
	for _, e := range entries {
		body[e.ID] = toWire(e)
	}
	return c.http.do(ctx, ErrPushFailed, request{
		method: http.MethodPatch,
		url:    c.entriesURL(s),
		body:   body,
	}, nil)
}
