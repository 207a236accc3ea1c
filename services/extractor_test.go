package services

import (
	"errors"
	"testing"

	"borrower-etl/apperrors"
	"borrower-etl/models"
	"borrower-etl/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reversed(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[len(cols)-1-i] = c
	}
	return out
}

func TestExtractor_Bind(t *testing.T) {
	ex := NewExtractor(utils.Discard())

	t.Run("Columns are matched by name regardless of order", func(t *testing.T) {
		header := append(reversed(models.Columns), "Unused")
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = "v:" + h
		}

		raw, err := ex.Bind(&models.Table{Header: header, Rows: [][]string{row}, Lines: []int{7}})
		require.NoError(t, err)
		require.Len(t, raw, 1)

		assert.Equal(t, 7, raw[0].Line)
		for i, col := range models.Columns {
			assert.Equal(t, "v:"+col, raw[0].Values[i])
			assert.Equal(t, "v:"+col, raw[0].Get(col))
		}
	})

	t.Run("Every missing column is reported", func(t *testing.T) {
		var header []string
		for _, c := range models.Columns {
			if c != models.ColLoanAmount && c != models.ColEMI {
				header = append(header, c)
			}
		}

		_, err := ex.Bind(&models.Table{Header: header})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))

		var schemaErr *apperrors.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []string{models.ColLoanAmount, models.ColEMI}, schemaErr.Missing)
	})

	t.Run("Duplicate header keeps the first column", func(t *testing.T) {
		header := append(append([]string{}, models.Columns...), models.ColName)
		row := make([]string, len(header))
		row[0] = "first"
		row[len(row)-1] = "second"

		raw, err := ex.Bind(&models.Table{Header: header, Rows: [][]string{row}})
		require.NoError(t, err)
		assert.Equal(t, "first", raw[0].Get(models.ColName))
		assert.Equal(t, 2, raw[0].Line, "line defaults to row index after the header")
	})

	t.Run("No rows is not an error", func(t *testing.T) {
		raw, err := ex.Bind(&models.Table{Header: models.Columns})
		require.NoError(t, err)
		assert.Empty(t, raw)
	})
}
