package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// SQLStore handles storing borrowers in a relational table through database/sql
type SQLStore struct {
	db      *sql.DB
	dialect *Dialect
	logger  *utils.Logger
}

// Open connects to the configured engine and pings it
func Open(ctx context.Context, driver, dsn string, connectTimeout time.Duration, logger *utils.Logger) (*SQLStore, error) {
	dialect, err := LookupDialect(driver)
	if err != nil {
		return nil, apperrors.WrapStorageError(err, "failed to open storage")
	}

	if dialect.Name == "sqlite" {
		if err := ensureDir(dsn); err != nil {
			return nil, apperrors.WrapStorageError(err, "failed to create database directory")
		}
	}

	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, apperrors.WrapStorageError(err, "failed to open DB")
	}

	if dialect.Name != "sqlite" {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Minute * 5)
	}

	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.WrapStorageError(err, "failed to ping DB")
	}

	logger.Info("Connected to %s storage successfully", dialect.Name)
	return &SQLStore{db: db, dialect: dialect, logger: logger}, nil
}

// ensureDir creates the parent directory of a plain sqlite file path
func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// DB exposes the connection pool for read queries
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL flavour the store speaks
func (s *SQLStore) Dialect() *Dialect {
	return s.dialect
}

// Replace drops and recreates the borrowers table, then inserts every borrower
// in one transaction. Nothing from a previous run survives.
func (s *SQLStore) Replace(ctx context.Context, borrowers []*models.Borrower) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+TableName); err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to drop table")
	}
	if _, err = tx.ExecContext(ctx, s.dialect.CreateTableSQL()); err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to create table")
	}
	s.logger.Info("Table '%s' is ready", TableName)

	stmt, err := tx.PrepareContext(ctx, s.dialect.InsertSQL())
	if err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for i, b := range borrowers {
		if _, err = stmt.ExecContext(ctx, rowValues(b)...); err != nil {
			return 0, apperrors.WrapStorageError(err, fmt.Sprintf("failed to insert row %d (%s)", i+1, b.Name))
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to commit transaction")
	}

	s.logger.Info("Inserted %d borrowers into %s", len(borrowers), TableName)
	return len(borrowers), nil
}

// Count returns the number of rows currently stored
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+TableName).Scan(&n); err != nil {
		return 0, apperrors.WrapStorageError(err, "failed to count rows")
	}
	return n, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ BorrowerStore = (*SQLStore)(nil)

// rowValues lays a borrower out in schema column order
func rowValues(b *models.Borrower) []any {
	return []any{
		textValue(b.Name),
		dateValue(b.DateOfBirth),
		textValue(b.Gender),
		textValue(b.MaritalStatus),
		b.PhoneNumber,
		textValue(b.EmailAddress),
		textValue(b.MailingAddress),
		textValue(b.LanguagePreference),
		textValue(b.GeographicalLocation),
		b.CreditScore,
		textValue(b.LoanType),
		realValue(b.LoanAmount),
		b.LoanTerm,
		realValue(b.InterestRate),
		textValue(b.LoanPurpose),
		realValue(b.EMI),
		textValue(b.IPAddress),
		textValue(b.Geolocation),
		textValue(b.RepaymentHistory),
		realValue(b.DaysLeftToPay),
		textValue(b.DelayedPayment),
	}
}

func textValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func realValue(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
