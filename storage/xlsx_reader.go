package storage

import (
	"errors"
	"fmt"
	"os"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads the first worksheet of an Excel workbook
type XLSXReader struct {
	filePath string
	logger   *utils.Logger
}

// NewXLSXReader creates a new XLSXReader
func NewXLSXReader(filePath string, logger *utils.Logger) *XLSXReader {
	return &XLSXReader{filePath: filePath, logger: logger}
}

// Read treats the first non-empty row as the header. Rows that are entirely
// empty are skipped, matching how the CSV reader handles blank lines.
func (r *XLSXReader) Read() (*models.Table, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, apperrors.NewNotFoundError(r.filePath, err)
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	table := &models.Table{Source: r.filePath}
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		if table.Header == nil {
			table.Header = cleanHeader(row)
			continue
		}
		table.Rows = append(table.Rows, fitRow(row, len(table.Header)))
		table.Lines = append(table.Lines, i+1)
	}
	if table.Header == nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, apperrors.NewSchemaError(models.Columns))
	}

	r.logger.Info("Data extracted successfully from %s sheet %q (%d rows x %d columns)",
		r.filePath, sheetName, len(table.Rows), len(table.Header))
	return table, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
