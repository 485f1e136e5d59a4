// Package parquetio writes a batch.Batch to a Parquet 2.x-compatible file
// using github.com/parquet-go/parquet-go (spec §4.7, §6). No example in
// the retrieval pack ships a Parquet writer — the nearest analogues
// (solidcoredata-dca's bespoke ts/def.go binary table stream,
// dolthub/dolt's NBS table persister in other_examples) are both
// hand-rolled columnar formats rather than Parquet — so this dependency
// is new to the domain stack rather than grounded on a pack example; see
// DESIGN.md.
//
// Since the effective schema (internal/schema) is only known at runtime —
// it depends on the requested datatype plus include/exclude flags — the
// Parquet schema here is built dynamically from a parquet.Group rather
// than from a fixed Go struct, and rows are assembled as raw parquet.Row
// values rather than via the library's reflection-based struct writer.
package parquetio

import (
	"fmt"
	"math/big"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/types"
	"github.com/dmagro/cryo-go/internal/writer"
)

// Options controls the row-group layout and statistics of spec §4.7.
type Options struct {
	RowGroups    *uint64 // flush every ceil(rows/RowGroups) rows; may yield fewer groups than RowGroups
	RowGroupSize *uint64 // flush a new row group every N rows (takes priority over RowGroups)
	Statistics   bool    // min/max/null_count/distinct_count per column per row group
}

// Write serializes b to path as a single Parquet file whose column layout
// matches schema (order and nullability), with row-group boundaries and
// statistics per opts.
func Write(path string, b *batch.Batch, schema types.Schema, encoding types.ColumnEncoding, opts Options) error {
	rows := b.RowCount()
	if rows < 0 {
		return fmt.Errorf("batch has mismatched column lengths, cannot write %s", path)
	}

	pschema := buildSchema(schema, encoding)
	colIdx := leafIndex(pschema)
	groupSize := resolveGroupSize(rows, opts)

	return writer.AtomicFile(path, func(f *os.File) error {
		wopts := []parquet.WriterOption{pschema}
		if !opts.Statistics {
			wopts = append(wopts, parquet.DataPageStatistics(false))
		}
		pw := parquet.NewWriter(f, wopts...)

		for row := 0; row < rows; row++ {
			prow, err := buildRow(b, schema, encoding, colIdx, row)
			if err != nil {
				return err
			}
			if _, err := pw.WriteRows([]parquet.Row{prow}); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			if groupSize > 0 && (row+1)%groupSize == 0 && row+1 != rows {
				if err := pw.Flush(); err != nil {
					return fmt.Errorf("flush row group at row %d: %w", row, err)
				}
			}
		}
		return pw.Close()
	})
}

// resolveGroupSize turns RowGroupSize/RowGroups into a flush-every-N-rows
// count; 0 means "single row group" (spec §4.7: "row_group_size ... else
// row_groups ... else a single row group").
func resolveGroupSize(rows int, opts Options) int {
	if opts.RowGroupSize != nil && *opts.RowGroupSize > 0 {
		return int(*opts.RowGroupSize)
	}
	if opts.RowGroups != nil && *opts.RowGroups > 0 {
		groups := int(*opts.RowGroups)
		size := (rows + groups - 1) / groups
		if size < 1 {
			size = 1
		}
		return size
	}
	return 0
}

// buildSchema builds a dynamic Parquet group matching schema's column
// types, encoding and nullability (spec §6: "Parquet schema mapping").
// parquet.Group is a Go map, so parquet.NewSchema does not preserve
// schema's insertion order — it normalizes the group's fields into its
// own leaf order. leafIndex recovers that order so row construction can
// agree with it.
func buildSchema(schema types.Schema, encoding types.ColumnEncoding) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range schema {
		node := nodeFor(col, encoding)
		if col.Nullable {
			node = node.Optional()
		}
		group[col.Name] = node
	}
	return parquet.NewSchema("row", group)
}

// leafIndex maps each column name to its leaf position in pschema, the
// order buildRow must stamp into parquet.Value.Level and parquet.Row
// slots (spec §6). Every column here is a flat scalar leaf, so each
// entry in pschema.Columns() is a single-element path.
func leafIndex(pschema *parquet.Schema) map[string]int {
	idx := make(map[string]int)
	for i, path := range pschema.Columns() {
		idx[path[0]] = i
	}
	return idx
}

func nodeFor(col types.Column, encoding types.ColumnEncoding) parquet.Node {
	switch col.Type {
	case types.TypeUint8:
		return parquet.Uint(8)
	case types.TypeUint32:
		return parquet.Uint(32)
	case types.TypeUint64:
		return parquet.Uint(64)
	case types.TypeBoolean:
		return parquet.Leaf(parquet.BooleanType)
	case types.TypeBytes:
		if encoding == types.Hex {
			return parquet.String()
		}
		return parquet.Leaf(parquet.ByteArrayType)
	case types.TypeU256:
		if encoding == types.Hex {
			return parquet.String()
		}
		return parquet.Leaf(parquet.FixedLenByteArrayType(32))
	default:
		return parquet.Leaf(parquet.ByteArrayType)
	}
}

// buildRow assembles one flat parquet.Row, slotting each column into the
// leaf position colIdx assigns it rather than schema's iteration order
// (buildSchema's parquet.Group reorders leaves by name). Every column
// here is a scalar leaf (no repeated groups), so the repetition level is
// always 0; the definition level is 1 for a present value in an optional
// column and 0 for either a required column or a null value in an
// optional one.
func buildRow(b *batch.Batch, schema types.Schema, encoding types.ColumnEncoding, colIdx map[string]int, row int) (parquet.Row, error) {
	prow := make(parquet.Row, len(schema))
	for _, col := range schema {
		c := b.ColumnByName(col.Name)
		if c == nil {
			return nil, fmt.Errorf("batch is missing schema column %q", col.Name)
		}
		idx := colIdx[col.Name]
		if col.Nullable && c.IsNull(row) {
			prow[idx] = parquet.ValueOf(nil).Level(0, 0, idx)
			continue
		}
		def := 0
		if col.Nullable {
			def = 1
		}
		prow[idx] = parquetValue(*c, row, col.Type, encoding).Level(0, def, idx)
	}
	return prow, nil
}

func parquetValue(c batch.Column, row int, typ types.ColumnType, encoding types.ColumnEncoding) parquet.Value {
	switch c.Kind {
	case batch.KindUint8:
		return parquet.ValueOf(int32(c.Uint8[row]))
	case batch.KindUint32:
		return parquet.ValueOf(int32(c.Uint32[row]))
	case batch.KindUint64:
		return parquet.ValueOf(int64(c.Uint64[row]))
	case batch.KindBytes:
		if encoding == types.Hex {
			return parquet.ValueOf(fmt.Sprintf("0x%x", c.Bytes[row]))
		}
		return parquet.ValueOf(c.Bytes[row])
	case batch.KindU256:
		v := c.U256[row]
		if encoding == types.Hex {
			return parquet.ValueOf("0x" + v.Text(16))
		}
		return parquet.ValueOf(u256Bytes(v))
	default:
		return parquet.ValueOf(nil)
	}
}

// u256Bytes renders a u256 value as a 32-byte big-endian FIXED_LEN_BYTE_ARRAY
// (spec §6), left-padded with zeros.
func u256Bytes(v *big.Int) []byte {
	raw := v.Bytes()
	out := make([]byte, 32)
	copy(out[32-len(raw):], raw)
	return out
}
