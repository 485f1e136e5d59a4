// Package csvio writes a batch.Batch to RFC 4180 CSV using the standard
// library's encoding/csv (spec §4.7). No pack example pulls a third-party
// CSV library and RFC 4180 is a solved problem stdlib already owns
// correctly, so unlike the rest of the domain stack this one genuinely
// earns the stdlib-only treatment — see DESIGN.md.
package csvio

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/types"
	"github.com/dmagro/cryo-go/internal/writer"
)

// Write serializes b to path as UTF-8 CSV: header row equal to schema's
// column names in order, comma separator, RFC 4180 quoting via
// encoding/csv's default writer. Bytes columns are promoted to hex per
// encoding (spec §4.7: "Binary in CSV means base-16 lowercase without
// prefix ... the writer must promote to hex and record this"); u256
// columns follow the same Binary/Hex split, as decimal or 0x-hex text.
func Write(path string, b *batch.Batch, schema types.Schema, encoding types.ColumnEncoding) error {
	if n := b.RowCount(); n < 0 {
		return fmt.Errorf("batch has mismatched column lengths, cannot write %s", path)
	}

	return writer.AtomicFile(path, func(f *os.File) error {
		w := csv.NewWriter(f)

		header := schema.Names()
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		rows := b.RowCount()
		record := make([]string, len(header))
		for row := 0; row < rows; row++ {
			for i, name := range header {
				col := b.ColumnByName(name)
				if col == nil {
					return fmt.Errorf("batch is missing schema column %q", name)
				}
				record[i] = cellValue(*col, row, encoding)
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}

		w.Flush()
		return w.Error()
	})
}

func cellValue(c batch.Column, row int, encoding types.ColumnEncoding) string {
	if c.IsNull(row) {
		return ""
	}
	switch c.Kind {
	case batch.KindUint8:
		return fmt.Sprintf("%d", c.Uint8[row])
	case batch.KindUint32:
		return fmt.Sprintf("%d", c.Uint32[row])
	case batch.KindUint64:
		return fmt.Sprintf("%d", c.Uint64[row])
	case batch.KindBytes:
		return bytesToText(c.Bytes[row], encoding)
	case batch.KindU256:
		return u256ToText(c.U256[row], encoding)
	default:
		return ""
	}
}

func bytesToText(b []byte, encoding types.ColumnEncoding) string {
	h := hex.EncodeToString(b)
	if encoding == types.Hex {
		return "0x" + h
	}
	return h
}

func u256ToText(v *big.Int, encoding types.ColumnEncoding) string {
	if v == nil {
		return ""
	}
	if encoding == types.Hex {
		return "0x" + v.Text(16)
	}
	return v.String()
}
