package entries

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/threeline/internal/server/models"
	"github.com/google/go-cmp/cmp"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const upsertQuery = `(?s)^INSERT\s+INTO\s+entries\s.*ON\s+CONFLICT\s+\(user_id,\s*id\)\s+DO\s+UPDATE\s+SET\s.*WHERE\s+entries\.updated_at\s*<\s*EXCLUDED\.updated_at$`

func ptr[T any](v T) *T { return &v }

func TestUpsert_Applied(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	e := models.Entry{
		ID: "e1", Date: "2024-01-15", Line1: "a", Line2: "b",
		ImageURI: ptr("file:///x.jpg"), CreatedAt: 1, UpdatedAt: 2, SyncedAt: 99,
	}
	mock.ExpectExec(upsertQuery).
		WithArgs("u-1", "e1", "2024-01-15", "a", "b", "", "file:///x.jpg", int64(1), int64(2), nil, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Upsert(context.Background(), "u-1", e)
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !applied {
		t.Fatal("expected applied")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsert_StaleIgnored(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Upsert(context.Background(), "u-1", models.Entry{ID: "e1", DeletedAt: ptr(int64(5))})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if applied {
		t.Fatal("stale write must not be applied")
	}
}

func TestUpsert_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQuery).WillReturnError(errors.New("db down"))
	if _, err := repo.Upsert(context.Background(), "u-1", models.Entry{ID: "e1"}); err == nil {
		t.Fatal("expected exec error")
	}

	mock.ExpectExec(upsertQuery).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
	if _, err := repo.Upsert(context.Background(), "u-1", models.Entry{ID: "e1"}); err == nil {
		t.Fatal("expected rows affected error")
	}
}

var listColumns = []string{"id", "date", "line1", "line2", "line3", "image_uri", "created_at", "updated_at", "deleted_at", "synced_at"}

const listQuery = `(?s)^SELECT\s.*FROM\s+entries\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+synced_at\s*>=\s*\$2\s+ORDER\s+BY\s+synced_at,\s*id$`

func TestListSince(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).
		WithArgs("u-1", int64(50)).
		WillReturnRows(sqlmock.NewRows(listColumns).
			AddRow("e1", "2024-01-14", "a", "", "", nil, int64(1), int64(2), nil, int64(50)).
			AddRow("e2", "2024-01-15", "b", "c", "d", "img", int64(3), int64(4), int64(4), int64(60)))

	got, err := repo.ListSince(context.Background(), "u-1", 50)
	if err != nil {
		t.Fatalf("ListSince error: %v", err)
	}

	want := []models.Entry{
		{ID: "e1", Date: "2024-01-14", Line1: "a", CreatedAt: 1, UpdatedAt: 2, SyncedAt: 50},
		{ID: "e2", Date: "2024-01-15", Line1: "b", Line2: "c", Line3: "d", ImageURI: ptr("img"),
			CreatedAt: 3, UpdatedAt: 4, DeletedAt: ptr(int64(4)), SyncedAt: 60},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListSince mismatch (-want +got):\n%s", diff)
	}
}

func TestListSince_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).WillReturnRows(sqlmock.NewRows(listColumns))

	got, err := repo.ListSince(context.Background(), "u-1", 0)
	if err != nil {
		t.Fatalf("ListSince error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListSince_Errors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQuery).WillReturnError(errors.New("db down"))
	if _, err := repo.ListSince(context.Background(), "u-1", 0); err == nil {
		t.Fatal("expected query error")
	}

	mock.ExpectQuery(listQuery).WillReturnRows(sqlmock.NewRows(listColumns).
		AddRow("e1", "2024-01-14", "a", "", "", nil, "not-a-number", int64(2), nil, int64(50)))
	if _, err := repo.ListSince(context.Background(), "u-1", 0); err == nil {
		t.Fatal("expected scan error")
	}

	mock.ExpectQuery(listQuery).WillReturnRows(sqlmock.NewRows(listColumns).
		AddRow("e1", "2024-01-14", "a", "", "", nil, int64(1), int64(2), nil, int64(50)).
		RowError(0, errors.New("row broke")))
	if _, err := repo.ListSince(context.Background(), "u-1", 0); err == nil {
		t.Fatal("expected rows error")
	}
}

func TestLockUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.LockUser(context.Background(), "u-1"); err != nil {
		t.Fatalf("LockUser error: %v", err)
	}

	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnError(errors.New("conn reset"))
	if err := repo.LockUser(context.Background(), "u-1"); err == nil {
		t.Fatalf("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
