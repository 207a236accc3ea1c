package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Column names as they appear in the input header and in the borrowers table
const (
	ColName                 = "Name"
	ColDateOfBirth          = "Date of Birth"
	ColGender               = "Gender"
	ColMaritalStatus        = "Marital Status"
	ColPhoneNumber          = "Phone Number"
	ColEmailAddress         = "Email Address"
	ColMailingAddress       = "Mailing Address"
	ColLanguagePreference   = "Language Preference"
	ColGeographicalLocation = "Geographical Location"
	ColCreditScore          = "Credit Score"
	ColLoanType             = "Loan Type"
	ColLoanAmount           = "Loan Amount"
	ColLoanTerm             = "Loan Term"
	ColInterestRate         = "Interest Rate"
	ColLoanPurpose          = "Loan Purpose"
	ColEMI                  = "EMI"
	ColIPAddress            = "IP Address"
	ColGeolocation          = "Geolocation"
	ColRepaymentHistory     = "Repayment History"
	ColDaysLeftToPay        = "Days Left to Pay Current EMI"
	ColDelayedPayment       = "Delayed Payment"
)

// ColumnCount is the width of the borrowers table
const ColumnCount = 21

// Columns is the fixed borrower schema in declaration order
var Columns = []string{
	ColName,
	ColDateOfBirth,
	ColGender,
	ColMaritalStatus,
	ColPhoneNumber,
	ColEmailAddress,
	ColMailingAddress,
	ColLanguagePreference,
	ColGeographicalLocation,
	ColCreditScore,
	ColLoanType,
	ColLoanAmount,
	ColLoanTerm,
	ColInterestRate,
	ColLoanPurpose,
	ColEMI,
	ColIPAddress,
	ColGeolocation,
	ColRepaymentHistory,
	ColDaysLeftToPay,
	ColDelayedPayment,
}

// Table is a delimited file held in memory: the header row plus text cells
type Table struct {
	Source string
	Header []string
	Rows   [][]string
	// Lines holds the 1-based source line of each row, when the reader knows it
	Lines []int
}

// RawBorrower is one input row bound to the schema, values still untyped.
// Values are indexed in the same order as Columns.
type RawBorrower struct {
	Line   int
	Values [ColumnCount]string
}

// Get returns the raw value of a schema column
func (r *RawBorrower) Get(col string) string {
	for i, c := range Columns {
		if c == col {
			return r.Values[i]
		}
	}
	return ""
}

// Borrower is a cleaned, typed record ready for storage.
// Empty text fields are stored as NULL; PhoneNumber is always stored.
type Borrower struct {
	Name                 string
	DateOfBirth          *time.Time
	Gender               string
	MaritalStatus        string
	PhoneNumber          string // digits only
	EmailAddress         string
	MailingAddress       string
	LanguagePreference   string
	GeographicalLocation string
	CreditScore          sql.NullInt64
	LoanType             string
	LoanAmount           decimal.NullDecimal
	LoanTerm             sql.NullInt64
	InterestRate         decimal.NullDecimal
	LoanPurpose          string
	EMI                  decimal.NullDecimal
	IPAddress            string
	Geolocation          string
	RepaymentHistory     string
	DaysLeftToPay        decimal.NullDecimal
	DelayedPayment       string
}
