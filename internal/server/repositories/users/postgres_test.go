package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/threeline/internal/common"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var created = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertUser = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUser).
		WithArgs("u-1", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_WithoutPassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUser).
		WithArgs("u-2", "", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	if _, err := repo.Create(context.Background(), &models.User{ID: "u-2"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUser).
		WithArgs("u-1", "alice@example.com", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "h"})
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUser).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)`
	mock.ExpectQuery(q).
		WithArgs("Alice@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("u-1", "alice@example.com", "hash", created))

	got, err := repo.GetByEmail(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NullPassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("u-3", "", nil, created))

	got, err := repo.GetByID(context.Background(), "u-3")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.PasswordHash != "" {
		t.Fatalf("expected empty hash, got %q", got.PasswordHash)
	}
}

func TestGetByIdentity_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)JOIN\s+user_identities\s+i\s+ON\s+i\.user_id\s*=\s*u\.id`).
		WithArgs("google", "sub-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIdentity(context.Background(), "google", "sub-1")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("boom"))

	_, err := repo.GetByEmail(context.Background(), "x@example.com")
	if err == nil || errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestLinkIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+user_identities.*ON\s+CONFLICT\s+\(provider,\s*subject\)\s+DO\s+NOTHING$`
	mock.ExpectExec(q).
		WithArgs("apple", "a-1", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WillReturnError(errors.New("fk violation"))

	id := models.Identity{Provider: "apple", Subject: "a-1", UserID: "u-1"}
	if err := repo.LinkIdentity(context.Background(), id); err != nil {
		t.Fatalf("LinkIdentity error: %v", err)
	}
	if err := repo.LinkIdentity(context.Background(), id); err == nil {
		t.Fatal("expected error")
	}
}
