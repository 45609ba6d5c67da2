package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func newCacheRepoWithMock(t *testing.T) (*QueryCacheRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &QueryCacheRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestQueryCacheGetMissReturnsNil(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT query_hash, query_text, results, created_at").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"query_hash", "query_text", "results", "created_at"}))

	entry, err := repo.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Fatalf("expected miss, got %+v", entry)
	}
}

func TestQueryCacheGetDecodesResults(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT query_hash").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"query_hash", "query_text", "results", "created_at"}).
			AddRow("abc", "vacaciones", []byte(`[{"document_id":3,"title":"Vacaciones","document_type":"sentencia","relevance_score":2.5}]`), created))

	entry, err := repo.Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil || len(entry.Results) != 1 || entry.Results[0].DocumentID != 3 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Results[0].DocumentType != domain.TypeSentencia || !entry.CreatedAt.Equal(created) {
		t.Fatalf("unexpected entry fields: %+v", entry)
	}
}

func TestQueryCachePutUpserts(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO query_cache").
		WithArgs("abc", "vacaciones", sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), domain.CacheEntry{
		QueryHash: "abc",
		QueryText: "vacaciones",
		Results:   []domain.RetrievalResult{{DocumentID: 3}},
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestQueryCacheDeleteOlderThanReportsRows(t *testing.T) {
	repo, mock, done := newCacheRepoWithMock(t)
	defer done()

	cutoff := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM query_cache WHERE created_at <=").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 deleted rows, got %d", n)
	}
}
