package freeze

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/types"
)

// SortBatch sorts b in place by sortKeys, then by rowIdentity as a final
// deterministic tiebreaker (spec §4.5 step 5 and its tie-breaking note),
// using a stable comparator that treats nulls as greater than any
// non-null value ("nulls last").
func SortBatch(b *batch.Batch, schema types.Schema, sortKeys, rowIdentity []string) error {
	keys := append(append([]string{}, sortKeys...), rowIdentity...)
	seen := make(map[string]bool, len(keys))
	cols := make([]*batch.Column, 0, len(keys))
	for _, name := range keys {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !schema.Has(name) {
			return fmt.Errorf("sort key %q is not in the effective schema", name)
		}
		col := b.ColumnByName(name)
		if col == nil {
			return fmt.Errorf("batch is missing sort key column %q", name)
		}
		cols = append(cols, col)
	}

	sort.Stable(&batchSorter{b: b, cols: cols})
	return nil
}

type batchSorter struct {
	b    *batch.Batch
	cols []*batch.Column
}

func (s *batchSorter) Len() int      { return s.b.RowCount() }
func (s *batchSorter) Swap(i, j int) { s.b.Swap(i, j) }

func (s *batchSorter) Less(i, j int) bool {
	for _, col := range s.cols {
		switch compareColumn(col, i, j) {
		case -1:
			return true
		case 1:
			return false
		}
	}
	return false
}

// compareColumn returns -1/0/1 comparing rows i and j of col. A null value
// always compares greater than a non-null one ("nulls last").
func compareColumn(col *batch.Column, i, j int) int {
	ni, nj := col.IsNull(i), col.IsNull(j)
	switch {
	case ni && nj:
		return 0
	case ni:
		return 1
	case nj:
		return -1
	}

	switch col.Kind {
	case batch.KindUint8:
		return cmpUint64(uint64(col.Uint8[i]), uint64(col.Uint8[j]))
	case batch.KindUint32:
		return cmpUint64(uint64(col.Uint32[i]), uint64(col.Uint32[j]))
	case batch.KindUint64:
		return cmpUint64(col.Uint64[i], col.Uint64[j])
	case batch.KindBytes:
		return bytes.Compare(col.Bytes[i], col.Bytes[j])
	case batch.KindU256:
		return col.U256[i].Cmp(col.U256[j])
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
