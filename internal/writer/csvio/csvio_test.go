package csvio

import (
	"bufio"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/types"
)

func TestWriteHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	schema := types.Schema{
		{Name: "block_number", Type: types.TypeUint64},
		{Name: "block_hash", Type: types.TypeBytes},
		{Name: "value", Type: types.TypeU256},
		{Name: "base_fee_per_gas", Type: types.TypeUint64, Nullable: true},
	}
	b := &batch.Batch{Columns: []batch.Column{
		{Name: "block_number", Kind: batch.KindUint64, Uint64: []uint64{1, 2}},
		{Name: "block_hash", Kind: batch.KindBytes, Bytes: [][]byte{{0xde, 0xad}, {0xbe, 0xef}}},
		{Name: "value", Kind: batch.KindU256, U256: []*big.Int{big.NewInt(100), big.NewInt(200)}},
		{Name: "base_fee_per_gas", Kind: batch.KindUint64, Uint64: []uint64{0, 7}, Null: []bool{true, false}},
	}}

	if err := Write(path, b, schema, types.Binary); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "block_number,block_hash,value,base_fee_per_gas" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,dead,100,") {
		t.Fatalf("unexpected row 1: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ",") {
		t.Fatalf("expected null base_fee_per_gas to render empty: %q", lines[1])
	}
	if lines[2] != "2,beef,200,7" {
		t.Fatalf("unexpected row 2: %q", lines[2])
	}
}

func TestWriteHexEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	schema := types.Schema{{Name: "address", Type: types.TypeBytes}}
	b := &batch.Batch{Columns: []batch.Column{
		{Name: "address", Kind: batch.KindBytes, Bytes: [][]byte{{0xab, 0xcd}}},
	}}

	if err := Write(path, b, schema, types.Hex); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "0xabcd") {
		t.Fatalf("expected 0x-prefixed hex in hex mode, got %q", string(data))
	}
}

func TestWriteRejectsMismatchedColumnLengths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	schema := types.Schema{
		{Name: "a", Type: types.TypeUint64},
		{Name: "b", Type: types.TypeUint64},
	}
	b := &batch.Batch{Columns: []batch.Column{
		{Name: "a", Kind: batch.KindUint64, Uint64: []uint64{1, 2}},
		{Name: "b", Kind: batch.KindUint64, Uint64: []uint64{1}},
	}}

	if err := Write(path, b, schema, types.Binary); err == nil {
		t.Fatalf("expected error for mismatched column lengths")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no output file to be left behind on error")
	}
}
