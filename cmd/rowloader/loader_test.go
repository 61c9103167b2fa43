package main

import (
	"context"
	"math/big"
	"testing"
	"time"

	mgo "github.com/rowdoc/core"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

type fakeCollection struct {
	findOneResult bool
	insertCalls   int
	upsertCalls   int
}

func (f *fakeCollection) FindOne(ctx context.Context, query interface{}) (bool, error) {
	return f.findOneResult, nil
}

func (f *fakeCollection) Upsert(ctx context.Context, selector, update interface{}) (*mgo.ChangeInfo, error) {
	f.upsertCalls++
	return &mgo.ChangeInfo{Updated: 1}, nil
}

func (f *fakeCollection) Insert(ctx context.Context, docs ...interface{}) error {
	f.insertCalls++
	return nil
}

type loaderTestView struct {
	columns []rowsource.ColumnSpec
	index   map[string]int
}

func newLoaderTestView(columns []rowsource.ColumnSpec) *loaderTestView {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c.Name] = i
	}
	return &loaderTestView{columns: columns, index: idx}
}

func (v *loaderTestView) IndexOf(name string) (int, bool)      { i, ok := v.index[name]; return i, ok }
func (v *loaderTestView) TypeOf(i int) rowsource.CellType      { return v.columns[i].Type }
func (v *loaderTestView) IsNull(i int, row rowsource.Row) bool { return row[i] == nil }
func (v *loaderTestView) StringAt(i int, row rowsource.Row) string   { return row[i].(string) }
func (v *loaderTestView) BoolAt(i int, row rowsource.Row) bool       { return row[i].(bool) }
func (v *loaderTestView) Int64At(i int, row rowsource.Row) int64     { return row[i].(int64) }
func (v *loaderTestView) Float64At(i int, row rowsource.Row) float64 { return row[i].(float64) }
func (v *loaderTestView) DateAt(i int, row rowsource.Row) time.Time  { return row[i].(time.Time) }
func (v *loaderTestView) BytesAt(i int, row rowsource.Row) []byte    { return row[i].([]byte) }
func (v *loaderTestView) BigDecimalAt(i int, row rowsource.Row) *big.Rat {
	return row[i].(*big.Rat)
}

func mustCompileSchema(t *testing.T, mappings []rowmapping.FieldMapping) *rowmapping.Schema {
	t.Helper()
	s := &rowmapping.Schema{Collection: "widgets", Mappings: mappings}
	require.NoError(t, s.Compile(rowmapping.NoopInterpolator{}))
	return s
}

func TestProcessRowInsertPath(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "name", Type: rowsource.CellString}}
	view := newLoaderTestView(columns)
	schema := mustCompileSchema(t, []rowmapping.FieldMapping{
		{IncomingName: "name", DocPath: "name"},
	})

	coll := &fakeCollection{}
	ok, err := processRow(context.Background(), schema, view, rowsource.Row{"alice"}, false, coll, false, testLogger())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, coll.insertCalls)
}

func TestProcessRowInsertPathEmptyRowSkips(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "name", Type: rowsource.CellString}}
	view := newLoaderTestView(columns)
	schema := mustCompileSchema(t, []rowmapping.FieldMapping{
		{IncomingName: "name", DocPath: "name"},
	})

	coll := &fakeCollection{}
	ok, err := processRow(context.Background(), schema, view, rowsource.Row{nil}, false, coll, false, testLogger())
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, coll.insertCalls)
}

func TestProcessRowModifierPathUpserts(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "key", Type: rowsource.CellInt64},
		{Name: "status", Type: rowsource.CellString},
	}
	view := newLoaderTestView(columns)
	schema := mustCompileSchema(t, []rowmapping.FieldMapping{
		{IncomingName: "key", DocPath: "key", IsMatchField: true},
		{IncomingName: "status", DocPath: "status", ModifierOp: rowmapping.OpSet},
	})

	coll := &fakeCollection{}
	ok, err := processRow(context.Background(), schema, view, rowsource.Row{int64(1), "shipped"}, true, coll, false, testLogger())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, coll.upsertCalls)
}

func TestProcessRowModifierPathNoMatchSkips(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "key", Type: rowsource.CellInt64},
		{Name: "status", Type: rowsource.CellString},
	}
	view := newLoaderTestView(columns)
	schema := mustCompileSchema(t, []rowmapping.FieldMapping{
		{IncomingName: "key", DocPath: "key", IsMatchField: true},
		{IncomingName: "status", DocPath: "status", ModifierOp: rowmapping.OpSet},
	})

	coll := &fakeCollection{}
	ok, err := processRow(context.Background(), schema, view, rowsource.Row{nil, "shipped"}, true, coll, false, testLogger())
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, coll.upsertCalls)
}

func TestProcessRowDryRunNeverCallsStore(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "name", Type: rowsource.CellString}}
	view := newLoaderTestView(columns)
	schema := mustCompileSchema(t, []rowmapping.FieldMapping{
		{IncomingName: "name", DocPath: "name"},
	})

	ok, err := processRow(context.Background(), schema, view, rowsource.Row{"alice"}, false, nil, true, testLogger())
	require.NoError(t, err)
	require.True(t, ok)
}
