package storage

import (
	"context"
	"database/sql"

	"borrower-etl/models"
)

// TableReader loads a tabular input file into memory
type TableReader interface {
	Read() (*models.Table, error)
}

// BorrowerStore persists cleaned borrowers, replacing whatever was stored before
type BorrowerStore interface {
	Replace(ctx context.Context, borrowers []*models.Borrower) (int, error)
	Close() error
}

// Querier is the read side used by the analyzer
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
