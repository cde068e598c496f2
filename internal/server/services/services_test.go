package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/dbx"
	"github.com/dmitrijs2005/threeline/internal/server/auth"
	"github.com/dmitrijs2005/threeline/internal/server/config"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/entries"
	"github.com/dmitrijs2005/threeline/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/threeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	ids map[string]auth.Identity
}

func (f fakeVerifier) Verify(token string) (auth.Identity, error) {
	id, ok := f.ids[token]
	if !ok {
		return auth.Identity{}, common.ErrInvalidToken
	}
	return id, nil
}

type fixture struct {
	clock   *testutil.StubClock
	repos   *repomanager.MemoryRepositoryManager
	users   *UserService
	entries *EntryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var cfg config.Config
	cfg.LoadDefaults()

	clock := testutil.FixedClock()
	repos := repomanager.NewMemoryRepositoryManager(clock)
	verifiers := map[string]IdentityVerifier{
		models.ProviderGoogle: fakeVerifier{ids: map[string]auth.Identity{
			"tok-verified":   {Subject: "g-1", Email: "alice@example.com"},
			"tok-unverified": {Subject: "g-2"},
		}},
	}
	return &fixture{
		clock:   clock,
		repos:   repos,
		users:   NewUserService(repos, &cfg, verifiers, clock, testutil.NewStubIDGenerator(), nil),
		entries: NewEntryService(repos, clock, nil),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.users.Register(ctx, " Alice@Example.com ", "long enough")
	require.NoError(t, err)
	assert.Equal(t, "id-1", res.User.ID)
	assert.Equal(t, "alice@example.com", res.User.Email)

	uid, err := f.users.Authenticate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "id-1", uid)

	_, err = f.users.Register(ctx, "alice@example.com", "another one")
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	res, err = f.users.Login(ctx, "ALICE@example.com", "long enough")
	require.NoError(t, err)
	assert.Equal(t, "id-1", res.User.ID)

	_, err = f.users.Login(ctx, "alice@example.com", "wrong password")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "bob@example.com", "long enough")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "not-an-email", "long enough")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = f.users.Register(ctx, "Alice <alice@example.com>", "long enough")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = f.users.Register(ctx, "alice@example.com", "short")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestAuthenticate_Expired(t *testing.T) {
	f := newFixture(t)
	res, err := f.users.Register(context.Background(), "a@example.com", "long enough")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.users.Authenticate(res.AccessToken)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLoginWithIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.users.Register(ctx, "alice@example.com", "long enough")
	require.NoError(t, err)

	res, err := f.users.LoginWithIdentity(ctx, models.ProviderGoogle, "tok-verified")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID, "verified email links to the existing account")

	res, err = f.users.LoginWithIdentity(ctx, models.ProviderGoogle, "tok-unverified")
	require.NoError(t, err)
	assert.Equal(t, "id-2", res.User.ID)
	assert.Empty(t, res.User.Email)

	again, err := f.users.LoginWithIdentity(ctx, models.ProviderGoogle, "tok-unverified")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID, "subject stays linked")

	_, err = f.users.LoginWithIdentity(ctx, models.ProviderGoogle, "forged")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = f.users.LoginWithIdentity(ctx, models.ProviderGoogle, " ")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.LoginWithIdentity(ctx, models.ProviderApple, "tok-verified")
	require.ErrorIs(t, err, ErrProviderDisabled)
}

func entry(id string, updated int64, line string) models.Entry {
	return models.Entry{ID: id, Date: "2024-01-15", Line1: line, CreatedAt: 1, UpdatedAt: updated}
}

func TestPushPull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := common.NowMillis(f.clock)

	n, err := f.entries.Push(ctx, "u-1", []models.Entry{entry("e1", 10, "one"), entry("e2", 10, "two")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, serverTime, err := f.entries.Pull(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, t0, serverTime)
	assert.Equal(t, t0, got[0].SyncedAt)

	f.clock.Advance(time.Second)
	n, err = f.entries.Push(ctx, "u-1", []models.Entry{entry("e1", 5, "stale"), entry("e2", 11, "newer")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err = f.entries.Pull(ctx, "u-1", t0+1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "newer", got[0].Line1)

	got, _, err = f.entries.Pull(ctx, "u-2", 0)
	require.NoError(t, err)
	assert.Empty(t, got, "users are isolated")
}

func TestPush_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.entries.Push(ctx, "u-1", []models.Entry{entry("ok", 1, "a"), entry("", 1, "b")})
	require.ErrorIs(t, err, common.ErrValidation)

	got, _, err := f.entries.Pull(ctx, "u-1", 0)
	require.NoError(t, err)
	assert.Empty(t, got, "invalid batches are rejected as a whole")

	_, err = f.entries.Push(ctx, "u-1", make([]models.Entry, MaxPushBatch+1))
	require.ErrorIs(t, err, common.ErrValidation)

	_, _, err = f.entries.Pull(ctx, "u-1", -1)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestPush_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	clock := testutil.FixedClock()
	svc := NewEntryService(repomanager.NewPostgresRepositoryManager(db), clock, nil)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO entries").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = svc.Push(context.Background(), "u-1", []models.Entry{entry("e1", 1, "a"), entry("e2", 1, "b")})
	require.ErrorContains(t, err, "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPull_TakesUserLockInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	clock := testutil.FixedClock()
	svc := NewEntryService(repomanager.NewPostgresRepositoryManager(db), clock, nil)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, date").WithArgs("u-1", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "line1", "line2", "line3", "image_uri",
			"created_at", "updated_at", "deleted_at", "synced_at"}))
	mock.ExpectCommit()

	got, serverTime, err := svc.Pull(context.Background(), "u-1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, common.NowMillis(clock), serverTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

// heldManager parks the first push inside its transaction, after the
// entries are stamped, until release is closed.
type heldManager struct {
	repomanager.RepositoryManager
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

type heldRepo struct {
	entries.Repository
	m *heldManager
}

func (m *heldManager) Entries(db dbx.DBTX) entries.Repository {
	return heldRepo{Repository: m.RepositoryManager.Entries(db), m: m}
}

func (r heldRepo) Upsert(ctx context.Context, userID string, e models.Entry) (bool, error) {
	ok, err := r.Repository.Upsert(ctx, userID, e)
	r.m.once.Do(func() {
		close(r.m.entered)
		<-r.m.release
	})
	return ok, err
}

func TestPull_DoesNotSkipPushInFlight(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	held := &heldManager{
		RepositoryManager: repomanager.NewMemoryRepositoryManager(clock),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	svc := NewEntryService(held, clock, nil)

	pushed := make(chan error, 1)
	go func() {
		_, err := svc.Push(ctx, "u-1", []models.Entry{entry("e1", 10, "racing")})
		pushed <- err
	}()
	<-held.entered
	clock.Advance(time.Second)

	type pullResult struct {
		list      []models.Entry
		watermark int64
		err       error
	}
	pulled := make(chan pullResult, 1)
	go func() {
		list, wm, err := svc.Pull(ctx, "u-1", 0)
		pulled <- pullResult{list, wm, err}
	}()

	select {
	case <-pulled:
		t.Fatal("pull returned while a push for the same user was uncommitted")
	case <-time.After(50 * time.Millisecond):
	}

	close(held.release)
	require.NoError(t, <-pushed)

	first := <-pulled
	require.NoError(t, first.err)
	later, _, err := svc.Pull(ctx, "u-1", first.watermark)
	require.NoError(t, err)

	seen := append(first.list, later...)
	require.NotEmpty(t, seen, "the pushed entry is visible to a pull or to the next one")
	assert.Equal(t, "racing", seen[0].Line1)
}
