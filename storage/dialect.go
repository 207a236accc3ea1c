package storage

import (
	"fmt"
	"strings"

	"borrower-etl/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// TableName is the single table the pipeline owns
const TableName = "borrowers"

// ColumnKind is the storage class of a borrowers column
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindReal
)

// Dialect captures the handful of SQL differences between supported engines
type Dialect struct {
	Name       string
	DriverName string
	// RowOrder is an expression that follows insertion order, empty if the engine has none
	RowOrder    string
	placeholder func(n int) string
	types       map[ColumnKind]string
}

var dialects = map[string]*Dialect{
	"sqlite": {
		Name:        "sqlite",
		DriverName:  "sqlite",
		RowOrder:    "rowid",
		placeholder: func(int) string { return "?" },
		types:       map[ColumnKind]string{KindText: "TEXT", KindInteger: "INTEGER", KindReal: "REAL"},
	},
	"postgres": {
		Name:        "postgres",
		DriverName:  "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		types:       map[ColumnKind]string{KindText: "TEXT", KindInteger: "BIGINT", KindReal: "DOUBLE PRECISION"},
	},
	"pgx": {
		Name:        "pgx",
		DriverName:  "pgx",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		types:       map[ColumnKind]string{KindText: "TEXT", KindInteger: "BIGINT", KindReal: "DOUBLE PRECISION"},
	},
}

// LookupDialect returns the dialect registered under name
func LookupDialect(name string) (*Dialect, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported storage driver %q", name)
	}
	return d, nil
}

// Placeholder returns the bind marker for the n-th (1-based) argument
func (d *Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// Quote wraps an identifier in double quotes; column names contain spaces
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// columnKinds declares the storage class of every non-text column
var columnKinds = map[string]ColumnKind{
	models.ColCreditScore:   KindInteger,
	models.ColLoanAmount:    KindReal,
	models.ColLoanTerm:      KindInteger,
	models.ColInterestRate:  KindReal,
	models.ColEMI:           KindReal,
	models.ColDaysLeftToPay: KindReal,
}

// KindOf returns the storage class of a schema column
func KindOf(col string) ColumnKind {
	if k, ok := columnKinds[col]; ok {
		return k
	}
	return KindText
}

// CreateTableSQL renders the fixed borrowers DDL in schema order
func (d *Dialect) CreateTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(TableName)
	b.WriteString(" (\n")
	for i, col := range models.Columns {
		b.WriteString("\t")
		b.WriteString(Quote(col))
		b.WriteString(" ")
		b.WriteString(d.types[KindOf(col)])
		if i < len(models.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

// InsertSQL renders a single-row INSERT covering every schema column
func (d *Dialect) InsertSQL() string {
	cols := make([]string, len(models.Columns))
	marks := make([]string, len(models.Columns))
	for i, col := range models.Columns {
		cols[i] = Quote(col)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", TableName, strings.Join(cols, ", "), strings.Join(marks, ", "))
}
