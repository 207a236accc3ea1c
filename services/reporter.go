package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"borrower-etl/models"
	"borrower-etl/utils"

	"github.com/shopspring/decimal"
)

// UnspecifiedLoanType labels the group of borrowers whose Loan Type is NULL
const UnspecifiedLoanType = "None"

// summaryPreview is how many good-repayment names the console summary shows
const summaryPreview = 5

// ReportWriter writes the analysis results to a text file
type ReportWriter struct {
	filePath string
	logger   *utils.Logger
}

// NewReportWriter creates a new ReportWriter
func NewReportWriter(filePath string, logger *utils.Logger) *ReportWriter {
	return &ReportWriter{filePath: filePath, logger: logger}
}

// Write replaces the report file with a fresh rendering of report
func (w *ReportWriter) Write(report *models.AnalysisReport) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	if err := RenderReport(buf, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	w.logger.Info("Analysis complete. Results written to %s", w.filePath)
	return nil
}

// RenderReport writes the four sections a, b, c, d in order
func RenderReport(out io.Writer, report *models.AnalysisReport) error {
	w := &errWriter{w: out}

	w.printf("a. Average loan amount for borrowers who are more than %d days past due:\n", models.PastDueThresholdDays)
	if report.PastDueAverage.Valid {
		w.printf("%s\n\n", fixed2(report.PastDueAverage))
	} else {
		w.printf("No borrowers are more than %d days past due.\n\n", models.PastDueThresholdDays)
	}

	w.printf("b. Top %d borrowers with the highest outstanding balance:\n", models.TopBorrowersLimit)
	for _, b := range report.TopBorrowers {
		w.printf("%s: %s\n", b.Name, fixed2(b.LoanAmount))
	}
	w.printf("\n")

	w.printf("c. List of borrowers with good repayment history:\n")
	for _, name := range report.GoodRepayment {
		w.printf("%s\n", name)
	}
	w.printf("\n")

	w.printf("d. Brief analysis with respect to loan type:\n")
	for _, lt := range report.LoanTypes {
		w.printf("Loan Type: %s\n", loanTypeLabel(lt))
		w.printf("Count: %d\n", lt.Count)
		w.printf("Average Loan Amount: %s\n", fixed2(lt.AvgLoanAmount))
		w.printf("Average Interest Rate: %s\n\n", fixed2(lt.AvgInterestRate))
	}

	return w.err
}

// PrintAnalysisSummary formats and prints a short version of the report to a terminal
func PrintAnalysisSummary(out io.Writer, report *models.AnalysisReport) {
	border := strings.Repeat("═", 55)
	thin := strings.Repeat("─", 55)

	fmt.Fprintf(out, "\n╔%s╗\n", border)
	fmt.Fprintf(out, "║%s║\n", center("BORROWER PORTFOLIO ANALYSIS", 55))
	fmt.Fprintf(out, "╚%s╝\n", border)

	fmt.Fprintf(out, "\n PAST DUE (<= %d DAYS LEFT)\n%s\n", models.PastDueThresholdDays, thin)
	if report.PastDueAverage.Valid {
		fmt.Fprintf(out, "  Average Loan Amount     : %s\n", fixed2(report.PastDueAverage))
	} else {
		fmt.Fprintf(out, "  No borrowers past due\n")
	}

	if len(report.TopBorrowers) > 0 {
		fmt.Fprintf(out, "\n TOP %d OUTSTANDING BALANCES\n%s\n", len(report.TopBorrowers), thin)
		for i, b := range report.TopBorrowers {
			fmt.Fprintf(out, "  %2d. %-35s %12s\n", i+1, truncate(b.Name, 35), fixed2(b.LoanAmount))
		}
	}

	fmt.Fprintf(out, "\n GOOD REPAYMENT HISTORY (%d)\n%s\n", len(report.GoodRepayment), thin)
	for i, name := range report.GoodRepayment {
		if i == summaryPreview {
			fmt.Fprintf(out, "  ... and %d more\n", len(report.GoodRepayment)-summaryPreview)
			break
		}
		fmt.Fprintf(out, "  %s\n", name)
	}

	if len(report.LoanTypes) > 0 {
		fmt.Fprintf(out, "\n BY LOAN TYPE\n%s\n", thin)
		fmt.Fprintf(out, "  %-20s %6s %14s %8s\n", "Type", "Count", "Avg Amount", "Avg Rate")
		for _, lt := range report.LoanTypes {
			fmt.Fprintf(out, "  %-20s %6d %14s %8s\n",
				truncate(loanTypeLabel(lt), 20), lt.Count, fixed2(lt.AvgLoanAmount), fixed2(lt.AvgInterestRate))
		}
	}

	fmt.Fprintf(out, "\n%s\n\n", border)
}

func loanTypeLabel(lt models.LoanTypeSummary) string {
	if !lt.LoanType.Valid {
		return UnspecifiedLoanType
	}
	return lt.LoanType.String
}

// fixed2 rounds the stored float to two places, ties to even on its exact binary value
func fixed2(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(d.Decimal.InexactFloat64(), 'f', 2, 64)
}

// errWriter remembers the first write error so rendering stays linear
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
