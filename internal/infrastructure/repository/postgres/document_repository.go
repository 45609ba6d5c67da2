package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const documentsDDL = `
CREATE TABLE IF NOT EXISTS legal_documents (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	document_type TEXT NOT NULL,
	reference_number TEXT NOT NULL DEFAULT '',
	issue_date DATE,
	source TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	keywords TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	subcategory TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_legal_documents_reference
	ON legal_documents(document_type, reference_number) WHERE reference_number <> '';
CREATE INDEX IF NOT EXISTS idx_legal_documents_type ON legal_documents(document_type);
CREATE INDEX IF NOT EXISTS idx_legal_documents_category ON legal_documents(category);
CREATE INDEX IF NOT EXISTS idx_legal_documents_updated_at ON legal_documents(updated_at DESC);
`

const documentColumns = `id, title, document_type, reference_number, issue_date, source, content, keywords, category, subcategory, created_at, updated_at`

// DocumentRepository is the legal corpus. The retrieval core only reads it;
// the loader writes through Upsert.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

var (
	_ ports.DocumentSource = (*DocumentRepository)(nil)
	_ ports.DocumentWriter = (*DocumentRepository)(nil)
)

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, documentsDDL)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.LegalDocument, error) {
	var (
		doc       domain.LegalDocument
		docType   string
		issueDate sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.Title, &docType, &doc.ReferenceNumber, &issueDate, &doc.Source, &doc.Body,
		&doc.Keywords, &doc.Category, &doc.Subcategory, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return domain.LegalDocument{}, err
	}
	doc.Type = domain.DocumentType(docType)
	if issueDate.Valid {
		t := issueDate.Time
		doc.IssueDate = &t
	}
	return doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]domain.LegalDocument, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM legal_documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.LegalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.LegalDocument, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM legal_documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) LatestUpdate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM legal_documents`).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("query latest update: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM legal_documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func (r *DocumentRepository) ListIDsByFilter(ctx context.Context, filter domain.DocumentFilter) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id FROM legal_documents
WHERE ($1 = '' OR document_type = $1)
  AND ($2 = '' OR category = $2)
ORDER BY id
`, string(filter.Type), strings.TrimSpace(filter.Category))
	if err != nil {
		return nil, fmt.Errorf("query filtered ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan filtered id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filtered ids: %w", err)
	}
	return ids, nil
}

// Upsert inserts a document, or replaces the one sharing its type and
// reference number. updated_at always moves forward so running indexes see
// the change.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.LegalDocument) error {
	if doc == nil {
		return domain.WrapError(domain.ErrInvalidInput, "upsert document", errors.New("nil document"))
	}
	if strings.TrimSpace(doc.Title) == "" || strings.TrimSpace(doc.Body) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "upsert document", errors.New("title and content are required"))
	}
	if _, err := domain.ParseDocumentType(string(doc.Type)); err != nil {
		return err
	}

	var issueDate sql.NullTime
	if doc.IssueDate != nil {
		issueDate = sql.NullTime{Time: *doc.IssueDate, Valid: true}
	}

	query := `
INSERT INTO legal_documents (title, document_type, reference_number, issue_date, source, content, keywords, category, subcategory)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at, updated_at
`
	if strings.TrimSpace(doc.ReferenceNumber) != "" {
		query = `
INSERT INTO legal_documents (title, document_type, reference_number, issue_date, source, content, keywords, category, subcategory)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (document_type, reference_number) WHERE reference_number <> '' DO UPDATE SET
	title = EXCLUDED.title,
	issue_date = EXCLUDED.issue_date,
	source = EXCLUDED.source,
	content = EXCLUDED.content,
	keywords = EXCLUDED.keywords,
	category = EXCLUDED.category,
	subcategory = EXCLUDED.subcategory,
	updated_at = NOW()
RETURNING id, created_at, updated_at
`
	}

	err := r.db.QueryRowContext(ctx, query,
		doc.Title, string(doc.Type), strings.TrimSpace(doc.ReferenceNumber), issueDate, doc.Source, doc.Body,
		doc.Keywords, doc.Category, doc.Subcategory,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}
