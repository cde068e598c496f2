package syncer

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/threeline/internal/client/models"
	"github.com/dmitrijs2005/threeline/internal/client/remote"
)

// fakeRemote is an in-memory backend implementing remote.Client.
type fakeRemote struct {
	mu sync.Mutex

	provider   models.Provider
	server     map[string]models.Entry
	serverTime int64

	PushErr error
	PullErr error

	// when set, Push signals pushStarted and blocks until pushGate closes
	pushGate    chan struct{}
	pushStarted chan struct{}

	Pushes [][]models.Entry
	Pulls  []int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{provider: models.ProviderCustom, server: map[string]models.Entry{}, serverTime: 1000}
}

var _ remote.Client = (*fakeRemote)(nil)

func (f *fakeRemote) Provider() models.Provider { return f.provider }

func (f *fakeRemote) SignInWithEmail(ctx context.Context, email, password string) (*models.AuthSession, error) {
	return &models.AuthSession{Provider: f.provider, AccessToken: "tok", User: models.AuthUser{ID: "u1", Email: email}}, nil
}

func (f *fakeRemote) SignInWithApple(ctx context.Context, token string) (*models.AuthSession, error) {
	return f.SignInWithEmail(ctx, "apple@x", "")
}

func (f *fakeRemote) SignInWithGoogle(ctx context.Context, token string) (*models.AuthSession, error) {
	return f.SignInWithEmail(ctx, "google@x", "")
}

func (f *fakeRemote) Push(ctx context.Context, s *models.AuthSession, entries []models.Entry) error {
	f.mu.Lock()
	f.Pushes = append(f.Pushes, models.CloneAll(entries))
	gate, started := f.pushGate, f.pushStarted
	f.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PushErr != nil {
		return f.PushErr
	}
	for _, e := range entries {
		f.server[e.ID] = e.Clone()
	}
	return nil
}

func (f *fakeRemote) Pull(ctx context.Context, s *models.AuthSession, since int64) (*remote.PullResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Pulls = append(f.Pulls, since)
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	res := &remote.PullResult{Entries: []models.Entry{}, ServerTime: f.serverTime}
	for _, e := range f.server {
		if e.UpdatedAt >= since {
			res.Entries = append(res.Entries, e.Clone())
		}
	}
	return res, nil
}

func (f *fakeRemote) put(e models.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.server[e.ID] = e
}

func (f *fakeRemote) get(id string) (models.Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.server[id]
	return e, ok
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Pushes)
}

func (f *fakeRemote) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Pulls)
}

func (f *fakeRemote) gatePush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushGate = make(chan struct{})
	f.pushStarted = make(chan struct{}, 8)
}

func (f *fakeRemote) releasePush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.pushGate)
	f.pushGate = nil
}

func (f *fakeRemote) setServerTime(ts int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverTime = ts
}
