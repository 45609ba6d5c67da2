package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

var documentRowColumns = []string{
	"id", "title", "document_type", "reference_number", "issue_date", "source", "content",
	"keywords", "category", "subcategory", "created_at", "updated_at",
}

func TestListDocumentsScansRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	issued := time.Date(2017, 1, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow(int64(1), "Licencia de maternidad", "ley", "1822", issued, "congreso", "La licencia...", "maternidad", "laboral", "licencias", created, created).
		AddRow(int64(2), "Salario mínimo", "decreto", "", nil, "", "El salario...", "", "", "", created, created)
	mock.ExpectQuery("SELECT id, title, document_type, reference_number").WillReturnRows(rows)

	docs, err := repo.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Type != domain.TypeLey || docs[0].IssueDate == nil || !docs[0].IssueDate.Equal(issued) {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if docs[1].IssueDate != nil || docs[1].ReferenceNumber != "" {
		t.Fatalf("unexpected second document: %+v", docs[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, document_type").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLatestUpdateOnEmptyStoreIsZero(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT MAX\(updated_at\) FROM legal_documents`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	latest, err := repo.LatestUpdate(context.Background())
	if err != nil {
		t.Fatalf("LatestUpdate() error = %v", err)
	}
	if !latest.IsZero() {
		t.Fatalf("expected zero time, got %v", latest)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountDocuments(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM legal_documents`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountDocuments(context.Background())
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestListIDsByFilterPassesEmptyForUnsetFields(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id FROM legal_documents").
		WithArgs("ley", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(4)))

	ids, err := repo.ListIDsByFilter(context.Background(), domain.DocumentFilter{Type: domain.TypeLey})
	if err != nil {
		t.Fatalf("ListIDsByFilter() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 4 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertWithReferenceUsesConflictClause(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("ON CONFLICT \\(document_type, reference_number\\)").
		WithArgs("Licencia de paternidad", "ley", "2114", nil, "", "Texto", "", "familia", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))

	doc := &domain.LegalDocument{Title: "Licencia de paternidad", Type: domain.TypeLey, ReferenceNumber: " 2114 ", Body: "Texto", Category: "familia"}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if doc.ID != 9 || !doc.UpdatedAt.Equal(now) {
		t.Fatalf("expected returned id and timestamps, got %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertRejectsInvalidDocuments(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	cases := []*domain.LegalDocument{
		nil,
		{Title: "", Type: domain.TypeLey, Body: "x"},
		{Title: "t", Type: domain.DocumentType("tratado"), Body: "x"},
	}
	for _, doc := range cases {
		if err := repo.Upsert(context.Background(), doc); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Upsert(%+v) error = %v, want invalid input", doc, err)
		}
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS legal_documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaRollsBackOnFailure(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
