package rowsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// ColumnSpec declares one CSV column's name and cell type.
type ColumnSpec struct {
	Name string   `yaml:"name"`
	Type CellType `yaml:"-"`
	// TypeName is the YAML-facing spelling of Type ("string", "int64",
	// ...); ResolveColumnTypes fills in Type from it.
	TypeName string `yaml:"type"`
}

// ResolveColumnTypes parses each column's TypeName into Type, in place.
func ResolveColumnTypes(columns []ColumnSpec) error {
	for i := range columns {
		t, err := ParseCellType(columns[i].TypeName)
		if err != nil {
			return fmt.Errorf("rowsource: column %q: %w", columns[i].Name, err)
		}
		columns[i].Type = t
	}
	return nil
}

// ParseCellType maps the YAML-facing type name to a CellType.
func ParseCellType(name string) (CellType, error) {
	switch name {
	case "string":
		return CellString, nil
	case "bool":
		return CellBool, nil
	case "int64":
		return CellInt64, nil
	case "float64":
		return CellFloat64, nil
	case "date":
		return CellDate, nil
	case "bytes":
		return CellBytes, nil
	case "bigdecimal":
		return CellBigDecimal, nil
	case "serializable":
		return CellSerializable, nil
	default:
		return 0, fmt.Errorf("unrecognized column type %q", name)
	}
}

// CSVView is a RowView backed by a fixed column schema, used to parse a
// CSV stream into typed Rows. Cells that are empty strings in the source
// CSV are treated as null, matching the "null cells are omitted" contract
// the builders rely on.
type CSVView struct {
	columns []ColumnSpec
	index   map[string]int
}

// NewCSVView builds a CSVView from an ordered column schema.
func NewCSVView(columns []ColumnSpec) *CSVView {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c.Name] = i
	}
	return &CSVView{columns: columns, index: idx}
}

func (v *CSVView) IndexOf(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

func (v *CSVView) TypeOf(i int) CellType {
	return v.columns[i].Type
}

func (v *CSVView) IsNull(i int, row Row) bool {
	return row[i] == nil
}

func (v *CSVView) StringAt(i int, row Row) string      { return row[i].(string) }
func (v *CSVView) BoolAt(i int, row Row) bool           { return row[i].(bool) }
func (v *CSVView) Int64At(i int, row Row) int64         { return row[i].(int64) }
func (v *CSVView) Float64At(i int, row Row) float64     { return row[i].(float64) }
func (v *CSVView) DateAt(i int, row Row) time.Time      { return row[i].(time.Time) }
func (v *CSVView) BytesAt(i int, row Row) []byte        { return row[i].([]byte) }
func (v *CSVView) BigDecimalAt(i int, row Row) *big.Rat { return row[i].(*big.Rat) }

// ReadAll parses every record of r into typed Rows according to the
// view's column schema. The first CSV record is assumed to be a header
// and is skipped.
func (v *CSVView) ReadAll(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("rowsource: reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	records = records[1:] // drop header

	rows := make([]Row, 0, len(records))
	for lineNum, rec := range records {
		if len(rec) != len(v.columns) {
			return nil, fmt.Errorf("rowsource: csv line %d: expected %d columns, got %d", lineNum+2, len(v.columns), len(rec))
		}
		row := make(Row, len(rec))
		for i, raw := range rec {
			cell, err := parseCell(v.columns[i].Type, raw)
			if err != nil {
				return nil, fmt.Errorf("rowsource: csv line %d, column %q: %w", lineNum+2, v.columns[i].Name, err)
			}
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCell(t CellType, raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	switch t {
	case CellString:
		return raw, nil
	case CellBool:
		return strconv.ParseBool(raw)
	case CellInt64:
		return strconv.ParseInt(raw, 10, 64)
	case CellFloat64:
		return strconv.ParseFloat(raw, 64)
	case CellDate:
		return time.Parse(time.RFC3339, raw)
	case CellBytes:
		return []byte(raw), nil
	case CellBigDecimal:
		rat, ok := new(big.Rat).SetString(strings.TrimSpace(raw))
		if !ok {
			return nil, fmt.Errorf("invalid decimal %q", raw)
		}
		return rat, nil
	case CellSerializable:
		return serializableValue(raw), nil
	default:
		return nil, fmt.Errorf("unsupported cell type %d", t)
	}
}

// serializableValue models the "opaque/serializable" cell kind the core
// must reject (spec: CantStoreSerializable). Any distinct type that is
// neither a recognized scalar nor a document literal qualifies; this
// wrapper makes that explicit at the source boundary.
type serializableValue string
