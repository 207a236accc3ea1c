package services

import (
	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"
)

// Extractor binds a freshly read table to the fixed borrower schema
type Extractor struct {
	logger *utils.Logger
}

// NewExtractor creates a new Extractor
func NewExtractor(logger *utils.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Bind maps every schema column to its position in the header, so the input
// may list columns in any order. All missing columns are reported together.
// Columns outside the schema are ignored.
func (e *Extractor) Bind(table *models.Table) ([]*models.RawBorrower, error) {
	index := make(map[string]int, len(table.Header))
	for i, name := range table.Header {
		if _, dup := index[name]; dup {
			e.logger.Warn("Duplicate column '%s' in %s, using the first one", name, table.Source)
			continue
		}
		index[name] = i
	}

	positions := make([]int, len(models.Columns))
	var missing []string
	for i, col := range models.Columns {
		pos, ok := index[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		positions[i] = pos
		delete(index, col)
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}
	for name := range index {
		e.logger.Debug("Ignoring column '%s' not in the borrower schema", name)
	}

	raw := make([]*models.RawBorrower, len(table.Rows))
	for r, row := range table.Rows {
		rb := &models.RawBorrower{Line: r + 2}
		if r < len(table.Lines) {
			rb.Line = table.Lines[r]
		}
		for i, pos := range positions {
			if pos < len(row) {
				rb.Values[i] = row[pos]
			}
		}
		raw[r] = rb
	}

	e.logger.Info("Bound %d rows to the %d-column borrower schema", len(raw), models.ColumnCount)
	return raw, nil
}
