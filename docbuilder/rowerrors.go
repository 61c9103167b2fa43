package docbuilder

import (
	"strconv"
	"strings"
)

// RowErrorCase stores the error produced while building documents for one
// row, and the row's position within its batch. Mirrors the teacher's
// BulkErrorCase/BulkError aggregation (legacy_types.go) generalized from
// a single bulk call to a whole batch of rows.
type RowErrorCase struct {
	RowIndex int
	Err      error
}

// RowErrors aggregates the RowErrorCase values produced by a batch run
// that keeps going past individual row failures.
type RowErrors struct {
	cases []RowErrorCase
}

// Add records one row's failure.
func (e *RowErrors) Add(rowIndex int, err error) {
	e.cases = append(e.cases, RowErrorCase{RowIndex: rowIndex, Err: err})
}

// Cases exposes the individual failures.
func (e *RowErrors) Cases() []RowErrorCase {
	return e.cases
}

// Empty reports whether no row failed.
func (e *RowErrors) Empty() bool {
	return len(e.cases) == 0
}

// Error implements the standard error interface. Returns an empty string
// if no cases were recorded; callers should check Empty first.
func (e *RowErrors) Error() string {
	if len(e.cases) == 0 {
		return ""
	}
	if len(e.cases) == 1 {
		return e.cases[0].Err.Error()
	}
	var b strings.Builder
	b.WriteString("multiple rows failed:\n")
	for _, c := range e.cases {
		b.WriteString("  - row ")
		b.WriteString(strconv.Itoa(c.RowIndex))
		b.WriteString(": ")
		b.WriteString(c.Err.Error())
		b.WriteByte('\n')
	}
	return b.String()
}
