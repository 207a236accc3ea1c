package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// PastDueThresholdDays is the inclusive days-left bound used by the past-due average
const PastDueThresholdDays = 5

// TopBorrowersLimit caps the outstanding-balance ranking
const TopBorrowersLimit = 10

// BorrowerAmount is one entry of the outstanding-balance ranking
type BorrowerAmount struct {
	Name       string
	LoanAmount decimal.NullDecimal
}

// LoanTypeSummary aggregates all borrowers sharing a raw Loan Type value.
// Valid=false on LoanType marks the NULL group.
type LoanTypeSummary struct {
	LoanType        sql.NullString
	Count           int64
	AvgLoanAmount   decimal.NullDecimal
	AvgInterestRate decimal.NullDecimal
}

// AnalysisReport holds the four aggregate results computed from the borrowers table
type AnalysisReport struct {
	// PastDueAverage is invalid when no borrower qualifies, which is not the same as 0
	PastDueAverage decimal.NullDecimal
	TopBorrowers   []BorrowerAmount
	GoodRepayment  []string
	LoanTypes      []LoanTypeSummary
}
