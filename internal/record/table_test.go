package record

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riverdb/riverdb/internal/bufferpool"
)

func testSchema() Schema {
	return Schema{
		Attrs: []Attribute{
			{Name: "a", Type: TypeInt},
			{Name: "b", Type: TypeString, TypeLength: 4},
			{Name: "c", Type: TypeInt},
		},
		KeyAttrs: []int{0},
	}
}

func newRecord(t *testing.T, s Schema, a int32, b string, c int32) *Record {
	t.Helper()
	rec := NewRecord(s)
	require.NoError(t, SetAttr(s, rec, 0, a))
	require.NoError(t, SetAttr(s, rec, 1, b))
	require.NoError(t, SetAttr(s, rec, 2, c))
	return rec
}

// TestScenarioC_RecordRoundTrip follows spec §8 Scenario C.
func TestScenarioC_RecordRoundTrip(t *testing.T) {
	s := testSchema()
	name := filepath.Join(t.TempDir(), "t1.tbl")

	tbl, err := CreateTable(name, s, 4, bufferpool.LRU)
	require.NoError(t, err)
	defer tbl.CloseTable()

	r1 := newRecord(t, s, 1, "abcd", 10)
	r2 := newRecord(t, s, 2, "efgh", 20)
	r3 := newRecord(t, s, 3, "ijkl", 30)

	require.NoError(t, tbl.InsertRecord(r1))
	require.NoError(t, tbl.InsertRecord(r2))
	require.NoError(t, tbl.InsertRecord(r3))

	require.Equal(t, RID{Page: 1, Slot: 0}, r1.RID)
	require.Equal(t, RID{Page: 1, Slot: 1}, r2.RID)
	require.Equal(t, RID{Page: 1, Slot: 2}, r3.RID)
	require.Equal(t, 3, tbl.GetNumTuples())

	for _, r := range []*Record{r1, r2, r3} {
		got := &Record{}
		require.NoError(t, tbl.GetRecord(r.RID, got))
		require.Equal(t, r.Data, got.Data)
	}

	require.NoError(t, tbl.DeleteRecord(r1.RID))
	err = tbl.GetRecord(r1.RID, &Record{})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 2, tbl.GetNumTuples())

	r4 := newRecord(t, s, 4, "mnop", 40)
	require.NoError(t, tbl.InsertRecord(r4))
	require.Equal(t, RID{Page: 1, Slot: 0}, r4.RID)
}

// TestScenarioD_ScanWithPredicate follows spec §8 Scenario D.
func TestScenarioD_ScanWithPredicate(t *testing.T) {
	s := testSchema()
	name := filepath.Join(t.TempDir(), "t2.tbl")

	tbl, err := CreateTable(name, s, 4, bufferpool.LRU)
	require.NoError(t, err)
	defer tbl.CloseTable()

	r1 := newRecord(t, s, 1, "abcd", 10)
	r2 := newRecord(t, s, 2, "efgh", 20)
	r3 := newRecord(t, s, 3, "ijkl", 30)
	require.NoError(t, tbl.InsertRecord(r1))
	require.NoError(t, tbl.InsertRecord(r2))
	require.NoError(t, tbl.InsertRecord(r3))
	require.NoError(t, tbl.DeleteRecord(r2.RID))

	cond := Compare{Op: OpGt, Left: AttrRef{Index: 0}, Right: Const{Value: int32(1)}}
	sc := StartScan(tbl, cond)

	var got Record
	require.NoError(t, sc.Next(&got))
	v, err := GetAttr(s, &got, 0)
	require.NoError(t, err)
	require.Equal(t, int32(3), v)

	err = sc.Next(&got)
	require.ErrorIs(t, err, ErrNoMoreTuples)
	require.NoError(t, CloseScan(sc))
}

func TestScanEmptyTable(t *testing.T) {
	s := testSchema()
	name := filepath.Join(t.TempDir(), "t3.tbl")

	tbl, err := CreateTable(name, s, 4, bufferpool.FIFO)
	require.NoError(t, err)
	defer tbl.CloseTable()

	sc := StartScan(tbl, nil)
	var rec Record
	err = sc.Next(&rec)
	require.ErrorIs(t, err, ErrNoMoreTuples)
}

// TestScenarioF_Persistence follows spec §8 Scenario F.
func TestScenarioF_Persistence(t *testing.T) {
	s := testSchema()
	name := filepath.Join(t.TempDir(), "t4.tbl")

	tbl, err := CreateTable(name, s, 4, bufferpool.LRU)
	require.NoError(t, err)

	r1 := newRecord(t, s, 1, "abcd", 10)
	r2 := newRecord(t, s, 2, "efgh", 20)
	require.NoError(t, tbl.InsertRecord(r1))
	require.NoError(t, tbl.InsertRecord(r2))
	require.NoError(t, tbl.CloseTable())

	reopened, err := OpenTable(name, 4, bufferpool.LRU)
	require.NoError(t, err)
	defer reopened.CloseTable()

	require.Equal(t, s.Attrs, reopened.Schema().Attrs)
	require.Equal(t, s.KeyAttrs, reopened.Schema().KeyAttrs)
	require.Equal(t, 2, reopened.GetNumTuples())

	got := &Record{}
	require.NoError(t, reopened.GetRecord(r1.RID, got))
	require.Equal(t, r1.Data, got.Data)
	got2 := &Record{}
	require.NoError(t, reopened.GetRecord(r2.RID, got2))
	require.Equal(t, r2.Data, got2.Data)
}

func TestGetRecordSize(t *testing.T) {
	s := testSchema()
	require.Equal(t, 1+4+4+4, s.RecordSize())
}

func TestUpdateRecordKeepsRID(t *testing.T) {
	s := testSchema()
	name := filepath.Join(t.TempDir(), "t5.tbl")
	tbl, err := CreateTable(name, s, 4, bufferpool.FIFO)
	require.NoError(t, err)
	defer tbl.CloseTable()

	r1 := newRecord(t, s, 1, "abcd", 10)
	require.NoError(t, tbl.InsertRecord(r1))

	updated := newRecord(t, s, 1, "zzzz", 99)
	updated.RID = r1.RID
	require.NoError(t, tbl.UpdateRecord(updated))

	got := &Record{}
	require.NoError(t, tbl.GetRecord(r1.RID, got))
	v, err := GetAttr(s, got, 2)
	require.NoError(t, err)
	require.Equal(t, int32(99), v)
}
