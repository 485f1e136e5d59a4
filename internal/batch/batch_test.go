package batch

import "testing"

func TestRowCountEqualLength(t *testing.T) {
	b := Batch{Columns: []Column{
		{Name: "a", Kind: KindUint64, Uint64: []uint64{1, 2, 3}},
		{Name: "b", Kind: KindBytes, Bytes: [][]byte{{1}, {2}, {3}}},
	}}
	if b.RowCount() != 3 {
		t.Fatalf("expected row count 3, got %d", b.RowCount())
	}
}

func TestRowCountMismatchDetected(t *testing.T) {
	b := Batch{Columns: []Column{
		{Name: "a", Kind: KindUint64, Uint64: []uint64{1, 2, 3}},
		{Name: "b", Kind: KindBytes, Bytes: [][]byte{{1}, {2}}},
	}}
	if b.RowCount() != -1 {
		t.Fatalf("expected mismatch to be detected")
	}
}

func TestSwap(t *testing.T) {
	b := Batch{Columns: []Column{
		{Name: "a", Kind: KindUint64, Uint64: []uint64{10, 20}, Null: []bool{false, true}},
	}}
	b.Swap(0, 1)
	if b.Columns[0].Uint64[0] != 20 || b.Columns[0].Uint64[1] != 10 {
		t.Fatalf("swap did not exchange values: %v", b.Columns[0].Uint64)
	}
	if !b.Columns[0].Null[0] || b.Columns[0].Null[1] {
		t.Fatalf("swap did not exchange null marks: %v", b.Columns[0].Null)
	}
}

func TestIsNullWithoutNullSlice(t *testing.T) {
	c := Column{Kind: KindUint64, Uint64: []uint64{1, 2}}
	if c.IsNull(0) || c.IsNull(1) {
		t.Fatalf("column with no Null slice should report no nulls")
	}
}
