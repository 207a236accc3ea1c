package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/storage"
	"borrower-etl/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	name     string
	amount   string
	rate     string
	daysLeft float64
	delayed  string
	loanType string
	noDays   bool
	noAmount bool
}

func (f fixture) borrower() *models.Borrower {
	b := &models.Borrower{
		Name:           f.name,
		DelayedPayment: f.delayed,
		LoanType:       f.loanType,
	}
	if !f.noAmount {
		b.LoanAmount = decimal.NewNullDecimal(decimal.RequireFromString(f.amount))
	}
	if f.rate != "" {
		b.InterestRate = decimal.NewNullDecimal(decimal.RequireFromString(f.rate))
	}
	if !f.noDays {
		b.DaysLeftToPay = decimal.NewNullDecimal(decimal.NewFromFloat(f.daysLeft))
	}
	return b
}

func loadedAnalyzer(t *testing.T, fixtures ...fixture) *Analyzer {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "analysis.db"), time.Second, utils.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	borrowers := make([]*models.Borrower, len(fixtures))
	for i, f := range fixtures {
		borrowers[i] = f.borrower()
	}
	_, err = store.Replace(ctx, borrowers)
	require.NoError(t, err)

	return NewAnalyzer(store.DB(), store.Dialect(), utils.Discard())
}

func TestAnalyzer_EndToEndScenario(t *testing.T) {
	a := loadedAnalyzer(t,
		fixture{name: "row1", amount: "1000", rate: "5", daysLeft: 10, delayed: "No", loanType: "Personal"},
		fixture{name: "row2", amount: "5000", rate: "7", daysLeft: 3, delayed: "Yes", loanType: "Personal"},
		fixture{name: "row3", amount: "3000", rate: "4", daysLeft: 5, delayed: "No", loanType: "Auto"},
	)

	report, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.True(t, report.PastDueAverage.Valid)
	assert.Equal(t, "4000.00", report.PastDueAverage.Decimal.StringFixed(2))

	require.Len(t, report.TopBorrowers, 3)
	assert.Equal(t, "row2", report.TopBorrowers[0].Name)
	assert.Equal(t, "5000.00", report.TopBorrowers[0].LoanAmount.Decimal.StringFixed(2))
	assert.Equal(t, "row3", report.TopBorrowers[1].Name)
	assert.Equal(t, "row1", report.TopBorrowers[2].Name)

	assert.Equal(t, []string{"row1", "row3"}, report.GoodRepayment)

	require.Len(t, report.LoanTypes, 2)
	byType := map[string]models.LoanTypeSummary{}
	for _, lt := range report.LoanTypes {
		byType[lt.LoanType.String] = lt
	}
	assert.Equal(t, int64(2), byType["Personal"].Count)
	assert.Equal(t, "3000.00", byType["Personal"].AvgLoanAmount.Decimal.StringFixed(2))
	assert.Equal(t, "6.00", byType["Personal"].AvgInterestRate.Decimal.StringFixed(2))
	assert.Equal(t, int64(1), byType["Auto"].Count)
	assert.Equal(t, "3000.00", byType["Auto"].AvgLoanAmount.Decimal.StringFixed(2))
}

func TestAnalyzer_PastDueAverage(t *testing.T) {
	ctx := context.Background()

	t.Run("No qualifying rows is absent, not zero", func(t *testing.T) {
		a := loadedAnalyzer(t,
			fixture{name: "a", amount: "100", daysLeft: 6},
			fixture{name: "b", amount: "200", noDays: true},
		)
		avg, err := a.PastDueAverage(ctx)
		require.NoError(t, err)
		assert.False(t, avg.Valid)
	})

	t.Run("Zero amount average is still a value", func(t *testing.T) {
		a := loadedAnalyzer(t, fixture{name: "a", amount: "0", daysLeft: 0})
		avg, err := a.PastDueAverage(ctx)
		require.NoError(t, err)
		require.True(t, avg.Valid)
		assert.True(t, avg.Decimal.IsZero())
	})

	t.Run("Fractional days left count as past due", func(t *testing.T) {
		a := loadedAnalyzer(t,
			fixture{name: "a", amount: "1000", daysLeft: 2.5},
			fixture{name: "b", amount: "9000", daysLeft: 5.5},
		)
		avg, err := a.PastDueAverage(ctx)
		require.NoError(t, err)
		require.True(t, avg.Valid)
		assert.Equal(t, "1000.00", avg.Decimal.StringFixed(2))
	})

	t.Run("Null amounts are ignored by the mean", func(t *testing.T) {
		a := loadedAnalyzer(t,
			fixture{name: "a", amount: "100", daysLeft: 1},
			fixture{name: "b", noAmount: true, daysLeft: 2},
		)
		avg, err := a.PastDueAverage(ctx)
		require.NoError(t, err)
		assert.Equal(t, "100.00", avg.Decimal.StringFixed(2))
	})
}

func TestAnalyzer_TopBorrowers(t *testing.T) {
	var fixtures []fixture
	for i := 1; i <= 15; i++ {
		fixtures = append(fixtures, fixture{name: fmt.Sprintf("b%02d", i), amount: fmt.Sprint(i * 100)})
	}
	fixtures = append(fixtures,
		fixture{name: "tie-first", amount: "1500"},
		fixture{name: "null", noAmount: true},
	)
	a := loadedAnalyzer(t, fixtures...)

	top, err := a.TopBorrowers(context.Background())
	require.NoError(t, err)
	require.Len(t, top, models.TopBorrowersLimit)

	for i := 1; i < len(top); i++ {
		assert.True(t, top[i-1].LoanAmount.Decimal.GreaterThanOrEqual(top[i].LoanAmount.Decimal), "descending order")
	}
	assert.Equal(t, "b15", top[0].Name, "ties keep insertion order")
	assert.Equal(t, "tie-first", top[1].Name)
	for _, b := range top {
		assert.NotEqual(t, "null", b.Name)
	}

	few := loadedAnalyzer(t, fixture{name: "only", amount: "1"})
	top, err = few.TopBorrowers(context.Background())
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestAnalyzer_GoodRepayment(t *testing.T) {
	a := loadedAnalyzer(t,
		fixture{name: "a", amount: "1", delayed: "No"},
		fixture{name: "b", amount: "1", delayed: "no"},
		fixture{name: "c", amount: "1", delayed: "NO "},
		fixture{name: "d", amount: "1", delayed: "Yes"},
		fixture{name: "e", amount: "1"},
		fixture{name: "f", amount: "1", delayed: "No"},
	)

	names, err := a.GoodRepayment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "f"}, names)
}

func TestAnalyzer_LoanTypeSummary(t *testing.T) {
	a := loadedAnalyzer(t,
		fixture{name: "a", amount: "100", rate: "5", loanType: "Home"},
		fixture{name: "b", amount: "300", rate: "7", loanType: "Home"},
		fixture{name: "c", amount: "50", loanType: "Auto"},
		fixture{name: "d", amount: "10"},
		fixture{name: "e", amount: "30"},
	)

	summary, err := a.LoanTypeSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 3)

	assert.False(t, summary[0].LoanType.Valid, "NULL group is listed first")
	assert.Equal(t, int64(2), summary[0].Count)
	assert.Equal(t, "20.00", summary[0].AvgLoanAmount.Decimal.StringFixed(2))
	assert.False(t, summary[0].AvgInterestRate.Valid)

	assert.Equal(t, "Auto", summary[1].LoanType.String)
	assert.Equal(t, int64(1), summary[1].Count)

	assert.Equal(t, "Home", summary[2].LoanType.String)
	assert.Equal(t, int64(2), summary[2].Count)
	assert.Equal(t, "200.00", summary[2].AvgLoanAmount.Decimal.StringFixed(2))
	assert.Equal(t, "6.00", summary[2].AvgInterestRate.Decimal.StringFixed(2))
}

func TestAnalyzer_MissingTable(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "empty.db"), time.Second, utils.Discard())
	require.NoError(t, err)
	defer store.Close()

	_, err = NewAnalyzer(store.DB(), store.Dialect(), utils.Discard()).Analyze(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
}
