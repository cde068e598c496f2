package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
	"github.com/dmitrijs2005/threeline/internal/client/store"
	"github.com/dmitrijs2005/threeline/internal/client/syncer"
	"github.com/dmitrijs2005/threeline/internal/testutil"
	"github.com/stretchr/testify/require"
)

// fakeRemote implements remote.Client for service tests.
type fakeRemote struct {
	mu sync.Mutex

	SignInErr error
	PushErr   error

	LastEmail    string
	LastPassword string
	LastToken    string
	Pushed       []models.Entry
}

var _ remote.Client = (*fakeRemote)(nil)

func (f *fakeRemote) Provider() models.Provider { return models.ProviderCustom }

func (f *fakeRemote) session(email string) *models.AuthSession {
	return &models.AuthSession{
		Provider:    models.ProviderCustom,
		AccessToken: "opaque-token",
		User:        models.AuthUser{ID: "user-1", Email: email},
	}
}

func (f *fakeRemote) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastEmail, f.LastPassword = email, password
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	return f.session(email), nil
}

func (f *fakeRemote) SignInWithApple(ctx context.Context, token string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastToken = token
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	return f.session("apple@example.com"), nil
}

func (f *fakeRemote) SignInWithGoogle(ctx context.Context, token string) (*models.AuthSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastToken = token
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	return f.session("google@example.com"), nil
}

func (f *fakeRemote) Pull(ctx context.Context, s *models.AuthSession, since int64) (*remote.PullResult, error) {
	return &remote.PullResult{Entries: []models.Entry{}, ServerTime: 500}, nil
}

func (f *fakeRemote) Push(ctx context.Context, s *models.AuthSession, entries []models.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Pushed = append(f.Pushed, entries...)
	return nil
}

type fixture struct {
	engine *syncer.Engine
	store  *store.Store
	remote *fakeRemote
	clock  *testutil.StubClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rc := &fakeRemote{}
	clock := testutil.FixedClock()
	e := syncer.New(st, rc, syncer.Options{Clock: clock})
	require.NoError(t, e.Bootstrap(ctx))

	return &fixture{engine: e, store: st, remote: rc, clock: clock}
}

func (f *fixture) entries(t *testing.T) EntryService {
	return NewEntryService(f.engine, f.clock, testutil.NewStubIDGenerator(), nil)
}

func (f *fixture) queued(t *testing.T) []string {
	t.Helper()
	q, err := f.store.LoadQueue(context.Background())
	require.NoError(t, err)
	return models.QueueIDs(q)
}
