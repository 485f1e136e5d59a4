// Package batch defines the typed column-vector container that every
// gatherer produces and every writer consumes: an ordered, equal-length
// set of columns for one (chunk, datatype) pair (spec §4.4, glossary
// "Batch").
//
// The column-kind taxonomy is adapted from solidcoredata-dca/ts/def.go's
// Type enum (Hash, Int64, Bool, String, Bytes, Any) — that package tags
// every column of its binary table stream with one of a small closed set
// of kinds so the encoder/decoder never has to guess a representation.
// Batch does the same thing for cryo-go's domain: every column is one of a
// small set of concrete vector kinds, chosen by the schema resolver
// (internal/schema) and populated by a gatherer (internal/gather).
package batch

import "math/big"

// Column is one column's values for a chunk: a name, a kind, and the
// values themselves. Exactly one of the typed slices is populated,
// matching Kind.
type Column struct {
	Name string
	Kind Kind

	Uint8  []uint8
	Uint32 []uint32
	Uint64 []uint64
	Bytes  [][]byte
	U256   []*big.Int // nil entry = SQL-style NULL for that row

	// Null marks, per row, whether the value at that index is absent. Used
	// for nullable columns of any kind, since a zero number or an empty
	// byte string cannot itself signal "missing" (spec §4.4:
	// base_fee_per_gas, to_address, gas_price, transaction_type, the
	// EIP-1559 fee fields, chain_id and topic0..topic3 are all nullable).
	Null []bool
}

// Kind is the logical storage kind of a column's values.
type Kind int

const (
	KindUint8 Kind = iota
	KindUint32
	KindUint64
	KindBytes
	KindU256
)

// Len returns the column's row count, derived from whichever slice is
// populated.
func (c Column) Len() int {
	switch c.Kind {
	case KindUint8:
		return len(c.Uint8)
	case KindUint32:
		return len(c.Uint32)
	case KindUint64:
		return len(c.Uint64)
	case KindBytes:
		return len(c.Bytes)
	case KindU256:
		return len(c.U256)
	default:
		return 0
	}
}

// IsNull reports whether row i is null. A column with a nil Null slice has
// no nulls at all.
func (c Column) IsNull(i int) bool {
	return c.Null != nil && c.Null[i]
}

// Batch is the ordered, equal-length set of columns produced for one
// (chunk, datatype) pair, ready for sorting (internal/freeze) and
// serialization (internal/writer).
type Batch struct {
	Columns []Column
}

// RowCount returns the batch's common row count (0 for a batch with no
// columns), or -1 if its columns disagree on length (a shape-mismatch condition the
// chunk executor must reject before handing the batch to a writer, spec
// §4.5 step 4 and §8's "all column vectors have equal length" invariant).
func (b Batch) RowCount() int {
	if len(b.Columns) == 0 {
		return 0
	}
	n := b.Columns[0].Len()
	for _, c := range b.Columns[1:] {
		if c.Len() != n {
			return -1
		}
	}
	return n
}

// ColumnByName returns a pointer to the named column, or nil if absent.
func (b *Batch) ColumnByName(name string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}
	return nil
}

// Swap exchanges rows i and j across every column — the primitive the
// sorter (internal/freeze) uses to implement sort.Interface without
// reshuffling column-by-column by hand.
func (b Batch) Swap(i, j int) {
	for ci := range b.Columns {
		c := &b.Columns[ci]
		switch c.Kind {
		case KindUint8:
			c.Uint8[i], c.Uint8[j] = c.Uint8[j], c.Uint8[i]
		case KindUint32:
			c.Uint32[i], c.Uint32[j] = c.Uint32[j], c.Uint32[i]
		case KindUint64:
			c.Uint64[i], c.Uint64[j] = c.Uint64[j], c.Uint64[i]
		case KindBytes:
			c.Bytes[i], c.Bytes[j] = c.Bytes[j], c.Bytes[i]
		case KindU256:
			c.U256[i], c.U256[j] = c.U256[j], c.U256[i]
		}
		if c.Null != nil {
			c.Null[i], c.Null[j] = c.Null[j], c.Null[i]
		}
	}
}
