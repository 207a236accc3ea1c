package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"
)

// CSVReader handles reading a delimited borrower file
type CSVReader struct {
	filePath  string
	delimiter rune
	logger    *utils.Logger
}

// NewCSVReader creates a new CSVReader
func NewCSVReader(filePath string, delimiter rune, logger *utils.Logger) *CSVReader {
	return &CSVReader{filePath: filePath, delimiter: delimiter, logger: logger}
}

// OpenTableReader picks a reader from the file extension: .xlsx workbooks go
// through excelize, everything else is treated as delimited text. A .tsv file
// read with the default comma delimiter switches to tab.
func OpenTableReader(filePath string, delimiter rune, logger *utils.Logger) TableReader {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return NewXLSXReader(filePath, logger)
	case ".tsv":
		if delimiter == ',' {
			delimiter = '\t'
		}
	}
	return NewCSVReader(filePath, delimiter, logger)
}

// Read loads the whole file. The header row becomes Table.Header verbatim
// (trimmed); data rows are padded or truncated to the header width.
func (r *CSVReader) Read() (*models.Table, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.NewNotFoundError(r.filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, apperrors.NewNotFoundError(r.filePath, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewNotFoundError(r.filePath, errors.New("path is a directory"))
	}

	reader := csv.NewReader(file)
	reader.Comma = r.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", r.filePath, apperrors.NewSchemaError(models.Columns))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := &models.Table{Source: r.filePath, Header: cleanHeader(header)}
	width := len(table.Header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, fitRow(record, width))
		table.Lines = append(table.Lines, line)
	}

	r.logger.Info("Data extracted successfully from %s (%d rows x %d columns)", r.filePath, len(table.Rows), width)
	return table, nil
}

// cleanHeader trims names and drops a UTF-8 byte order mark from the first cell
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func fitRow(record []string, width int) []string {
	if len(record) == width {
		return record
	}
	row := make([]string, width)
	copy(row, record)
	return row
}
