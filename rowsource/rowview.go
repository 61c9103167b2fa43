// Package rowsource defines the row-metadata collaborator contract the
// transformation core reads cells through, plus a CSV-backed
// implementation that exercises it without any external framework.
package rowsource

import (
	"math/big"
	"time"
)

// CellType is the declared type of one column across the row stream. Type
// metadata is supplied by the collaborator, not inferred by the core.
type CellType int

const (
	CellString CellType = iota
	CellBool
	CellInt64
	CellFloat64
	CellDate
	CellBytes
	CellBigDecimal
	CellSerializable
)

// Row is one tuple of typed cells, addressed by column index.
type Row []interface{}

// RowView is the read-only row-metadata contract the core builds against:
// column lookup by name, per-column type, null tests and typed accessors.
// Implementations never mutate a Row.
type RowView interface {
	IndexOf(name string) (int, bool)
	TypeOf(i int) CellType
	IsNull(i int, row Row) bool
	StringAt(i int, row Row) string
	BoolAt(i int, row Row) bool
	Int64At(i int, row Row) int64
	Float64At(i int, row Row) float64
	DateAt(i int, row Row) time.Time
	BytesAt(i int, row Row) []byte
	BigDecimalAt(i int, row Row) *big.Rat
}
