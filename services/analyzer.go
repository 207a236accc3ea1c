package services

import (
	"context"
	"database/sql"
	"fmt"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/storage"
	"borrower-etl/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// GoodRepaymentFlag is the exact Delayed Payment value of a borrower who pays on time
const GoodRepaymentFlag = "No"

var (
	colName          = storage.Quote(models.ColName)
	colLoanType      = storage.Quote(models.ColLoanType)
	colLoanAmount    = storage.Quote(models.ColLoanAmount)
	colInterestRate  = storage.Quote(models.ColInterestRate)
	colDaysLeft      = storage.Quote(models.ColDaysLeftToPay)
	colDelayedPaymnt = storage.Quote(models.ColDelayedPayment)
)

// Analyzer runs the fixed aggregate queries against the borrowers table
type Analyzer struct {
	db      storage.Querier
	dialect *storage.Dialect
	logger  *utils.Logger
}

// NewAnalyzer creates a new Analyzer
func NewAnalyzer(db storage.Querier, dialect *storage.Dialect, logger *utils.Logger) *Analyzer {
	return &Analyzer{db: db, dialect: dialect, logger: logger}
}

// Analyze computes all four results. The queries are read-only and independent,
// so they run concurrently; the first failure cancels the rest.
func (a *Analyzer) Analyze(ctx context.Context) (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.PastDueAverage, err = a.PastDueAverage(ctx)
		return err
	})
	g.Go(func() (err error) {
		report.TopBorrowers, err = a.TopBorrowers(ctx)
		return err
	})
	g.Go(func() (err error) {
		report.GoodRepayment, err = a.GoodRepayment(ctx)
		return err
	})
	g.Go(func() (err error) {
		report.LoanTypes, err = a.LoanTypeSummary(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.PastDueAverage.Valid {
		a.logger.Info("Query A result: %s", fixed2(report.PastDueAverage))
	} else {
		a.logger.Info("Query A result: no borrowers past due")
	}
	a.logger.Info("Query B result: %d borrowers", len(report.TopBorrowers))
	a.logger.Info("Query C result: %d borrowers", len(report.GoodRepayment))
	a.logger.Info("Query D result: %d loan types", len(report.LoanTypes))
	return report, nil
}

// PastDueAverage is the mean loan amount of borrowers with at most
// PastDueThresholdDays left on their current EMI. Invalid when nobody qualifies.
func (a *Analyzer) PastDueAverage(ctx context.Context) (decimal.NullDecimal, error) {
	query := fmt.Sprintf("SELECT AVG(%s) FROM %s WHERE %s <= %s",
		colLoanAmount, storage.TableName, colDaysLeft, a.dialect.Placeholder(1))

	var avg sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, query, models.PastDueThresholdDays).Scan(&avg); err != nil {
		return decimal.NullDecimal{}, apperrors.WrapStorageError(err, "past-due average query failed")
	}
	return toNullDecimal(avg), nil
}

// TopBorrowers returns up to TopBorrowersLimit borrowers by descending loan
// amount. Ties keep insertion order where the engine exposes it; NULL amounts sort last.
func (a *Analyzer) TopBorrowers(ctx context.Context) ([]models.BorrowerAmount, error) {
	order := fmt.Sprintf("%s IS NULL, %s DESC", colLoanAmount, colLoanAmount)
	if a.dialect.RowOrder != "" {
		order += ", " + a.dialect.RowOrder
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s LIMIT %s",
		colName, colLoanAmount, storage.TableName, order, a.dialect.Placeholder(1))

	rows, err := a.db.QueryContext(ctx, query, models.TopBorrowersLimit)
	if err != nil {
		return nil, apperrors.WrapStorageError(err, "top borrowers query failed")
	}
	defer rows.Close()

	var out []models.BorrowerAmount
	for rows.Next() {
		var name sql.NullString
		var amount sql.NullFloat64
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, apperrors.WrapStorageError(err, "failed to scan top borrower")
		}
		out = append(out, models.BorrowerAmount{Name: name.String, LoanAmount: toNullDecimal(amount)})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorageError(err, "top borrowers query failed")
	}
	return out, nil
}

// GoodRepayment lists the names of borrowers whose Delayed Payment is exactly "No"
func (a *Analyzer) GoodRepayment(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		colName, storage.TableName, colDelayedPaymnt, a.dialect.Placeholder(1))
	if a.dialect.RowOrder != "" {
		query += " ORDER BY " + a.dialect.RowOrder
	}

	rows, err := a.db.QueryContext(ctx, query, GoodRepaymentFlag)
	if err != nil {
		return nil, apperrors.WrapStorageError(err, "good repayment query failed")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.WrapStorageError(err, "failed to scan borrower name")
		}
		names = append(names, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorageError(err, "good repayment query failed")
	}
	return names, nil
}

// LoanTypeSummary groups by the raw Loan Type value; NULL forms its own group
// and is listed first.
func (a *Analyzer) LoanTypeSummary(ctx context.Context) ([]models.LoanTypeSummary, error) {
	query := fmt.Sprintf(
		"SELECT %[1]s, COUNT(*), AVG(%[2]s), AVG(%[3]s) FROM %[4]s GROUP BY %[1]s ORDER BY %[1]s IS NOT NULL, %[1]s",
		colLoanType, colLoanAmount, colInterestRate, storage.TableName)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.WrapStorageError(err, "loan type summary query failed")
	}
	defer rows.Close()

	var out []models.LoanTypeSummary
	for rows.Next() {
		var s models.LoanTypeSummary
		var avgAmount, avgRate sql.NullFloat64
		if err := rows.Scan(&s.LoanType, &s.Count, &avgAmount, &avgRate); err != nil {
			return nil, apperrors.WrapStorageError(err, "failed to scan loan type summary")
		}
		s.AvgLoanAmount = toNullDecimal(avgAmount)
		s.AvgInterestRate = toNullDecimal(avgRate)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorageError(err, "loan type summary query failed")
	}
	return out, nil
}

func toNullDecimal(f sql.NullFloat64) decimal.NullDecimal {
	if !f.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f.Float64), Valid: true}
}
