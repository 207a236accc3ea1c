package services

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"

	"github.com/shopspring/decimal"
)

// DateOfBirthLayout accepts day-month-year with or without zero padding
const DateOfBirthLayout = "2-1-2006"

// CleanStats summarizes one cleaning pass
type CleanStats struct {
	Rows int
	// Failures counts values per column that could not be coerced and became NULL
	Failures map[string]int
}

// TotalFailures sums coercion failures over all columns
func (s CleanStats) TotalFailures() int {
	total := 0
	for _, n := range s.Failures {
		total += n
	}
	return total
}

// DataCleaner normalizes raw extracted rows into typed Borrower records
type DataCleaner struct {
	logger *utils.Logger
}

// NewDataCleaner creates a new DataCleaner
func NewDataCleaner(logger *utils.Logger) *DataCleaner {
	return &DataCleaner{logger: logger}
}

// Clean converts every raw row; it never drops a row. A value that fails its
// conversion is stored as NULL and counted in the returned stats.
func (c *DataCleaner) Clean(raw []*models.RawBorrower) ([]*models.Borrower, CleanStats) {
	stats := CleanStats{Rows: len(raw), Failures: make(map[string]int)}
	cleaned := make([]*models.Borrower, 0, len(raw))

	for _, r := range raw {
		rc := rowCleaner{raw: r, stats: &stats, logger: c.logger}

		b := &models.Borrower{
			Name:                 rc.text(models.ColName),
			DateOfBirth:          rc.date(models.ColDateOfBirth),
			Gender:               rc.text(models.ColGender),
			MaritalStatus:        rc.text(models.ColMaritalStatus),
			PhoneNumber:          CleanPhone(r.Get(models.ColPhoneNumber)),
			EmailAddress:         rc.text(models.ColEmailAddress),
			MailingAddress:       rc.text(models.ColMailingAddress),
			LanguagePreference:   rc.text(models.ColLanguagePreference),
			GeographicalLocation: rc.text(models.ColGeographicalLocation),
			CreditScore:          rc.integer(models.ColCreditScore),
			LoanType:             rc.text(models.ColLoanType),
			LoanAmount:           rc.dec(models.ColLoanAmount),
			LoanTerm:             rc.integer(models.ColLoanTerm),
			InterestRate:         rc.dec(models.ColInterestRate),
			LoanPurpose:          rc.text(models.ColLoanPurpose),
			EMI:                  rc.dec(models.ColEMI),
			IPAddress:            rc.text(models.ColIPAddress),
			Geolocation:          rc.text(models.ColGeolocation),
			RepaymentHistory:     rc.text(models.ColRepaymentHistory),
			DaysLeftToPay:        rc.dec(models.ColDaysLeftToPay),
			DelayedPayment:       rc.text(models.ColDelayedPayment),
		}
		cleaned = append(cleaned, b)
	}

	if n := stats.TotalFailures(); n > 0 {
		c.logger.Warn("Cleaned %d rows, %d values could not be converted and were set to NULL", len(cleaned), n)
	} else {
		c.logger.Info("Data transformed successfully (%d rows)", len(cleaned))
	}
	return cleaned, stats
}

// rowCleaner carries per-row context so failures can be reported with their line
type rowCleaner struct {
	raw    *models.RawBorrower
	stats  *CleanStats
	logger *utils.Logger
}

func (rc rowCleaner) fail(err error) {
	var ce *apperrors.CoercionError
	if !errors.As(err, &ce) {
		return
	}
	ce.Line = rc.raw.Line
	rc.stats.Failures[ce.Field]++
	if rc.logger.DebugEnabled() {
		rc.logger.Debug("%v, stored as NULL", ce)
	}
}

// text keeps the cell exactly as read; only phone and the typed columns are normalized
func (rc rowCleaner) text(col string) string {
	return rc.raw.Get(col)
}

func (rc rowCleaner) date(col string) *time.Time {
	t, err := ParseDate(col, rc.raw.Get(col))
	if err != nil {
		rc.fail(err)
	}
	return t
}

func (rc rowCleaner) integer(col string) sql.NullInt64 {
	v, err := ParseInteger(col, rc.raw.Get(col))
	if err != nil {
		rc.fail(err)
	}
	return v
}

func (rc rowCleaner) dec(col string) decimal.NullDecimal {
	v, err := ParseDecimal(col, rc.raw.Get(col))
	if err != nil {
		rc.fail(err)
	}
	return v
}

// CleanPhone strips every non-digit character. Applying it twice is a no-op.
func CleanPhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseDecimal converts a numeric cell. Empty input is NULL without error;
// anything unparsable is NULL with a *apperrors.CoercionError.
func ParseDecimal(field, raw string) (decimal.NullDecimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, &apperrors.CoercionError{Field: field, Value: raw}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// ParseInteger converts a whole-number cell. Integral decimals such as "3.0"
// are accepted; fractional values are not.
func ParseInteger(field, raw string) (sql.NullInt64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullInt64{}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !fitsInt64(d) {
		return sql.NullInt64{}, &apperrors.CoercionError{Field: field, Value: raw}
	}
	return sql.NullInt64{Int64: d.IntPart(), Valid: true}, nil
}

var (
	minInt64 = decimal.NewFromInt(-1 << 63)
	maxInt64 = decimal.NewFromInt(1<<63 - 1)
)

func fitsInt64(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(minInt64) && d.LessThanOrEqual(maxInt64)
}

// ParseDate reads a day-month-year date such as 24-06-1985
func ParseDate(field, raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateOfBirthLayout, s)
	if err != nil {
		return nil, &apperrors.CoercionError{Field: field, Value: raw}
	}
	return &t, nil
}
