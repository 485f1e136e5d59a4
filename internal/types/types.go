// Package types defines the vocabulary shared by every stage of the
// ingestion pipeline: the datatype enumeration, column encodings, file
// formats, and the FreezeOpts value that the CLI builds once at startup
// and every downstream component treats as read-only.
//
// This plays the same role for cryo-go that internal/rpc/types.go plays
// for the teacher project: the single file every other package imports to
// speak a common language.
package types

import "fmt"

// Datatype is the closed enumeration of things cryo-go can extract.
type Datatype int

const (
	Blocks Datatype = iota
	Transactions
	Logs
)

func (d Datatype) String() string {
	switch d {
	case Blocks:
		return "blocks"
	case Transactions:
		return "transactions"
	case Logs:
		return "logs"
	default:
		return fmt.Sprintf("datatype(%d)", int(d))
	}
}

// ParseDatatype recognizes the canonical names plus the aliases "events"
// (Logs) and "txs" (Transactions). Unknown tokens are a configuration
// error, never a panic — this is the CLI boundary, and bad input here must
// fail before any chunk runs (spec §7).
func ParseDatatype(token string) (Datatype, error) {
	switch token {
	case "blocks":
		return Blocks, nil
	case "logs", "events":
		return Logs, nil
	case "transactions", "txs":
		return Transactions, nil
	default:
		return 0, fmt.Errorf("unknown datatype %q", token)
	}
}

// ColumnEncoding selects how variable-length byte columns (hashes,
// addresses, calldata, topics, log data) are represented in output.
type ColumnEncoding int

const (
	Binary ColumnEncoding = iota
	Hex
)

func (e ColumnEncoding) String() string {
	if e == Hex {
		return "hex"
	}
	return "binary"
}

// FileFormat selects the output serialization.
type FileFormat int

const (
	Parquet FileFormat = iota
	CSV
)

func (f FileFormat) String() string {
	if f == CSV {
		return "csv"
	}
	return "parquet"
}

func (f FileFormat) Extension() string {
	if f == CSV {
		return "csv"
	}
	return "parquet"
}

// ColumnType is the logical type of a schema column, independent of how it
// is eventually encoded on disk. Bytes-typed columns are the only ones
// affected by ColumnEncoding.
type ColumnType int

const (
	TypeUint32 ColumnType = iota
	TypeUint64
	TypeUint8
	TypeBytes   // variable-length bytes; Binary or Hex per ColumnEncoding
	TypeU256    // 32-byte big integer; Binary (fixed 32 bytes) or Hex (decimal-ish hex string)
	TypeBoolean
)

// Column is one entry of an ordered schema: a name paired with a logical
// type and whether the column may hold nulls (e.g. base_fee_per_gas on
// pre-EIP-1559 blocks, to_address on contract-creation transactions).
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Schema is an ordered (not sorted) sequence of columns. Order matters: it
// is part of the contract for CSV headers and Parquet column layout (spec
// §9, "Schema as ordered mapping").
type Schema []Column

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a named column, or -1 if absent.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is present in the schema.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// BlockChunk is an inclusive, non-negative block-height interval.
type BlockChunk struct {
	Start uint64
	End   uint64
}

// Width returns the number of blocks covered by the chunk.
func (c BlockChunk) Width() uint64 {
	return c.End - c.Start + 1
}

// FreezeOpts is the immutable, fully-resolved configuration for one
// ingestion run. It is built once at startup (internal/cliopts) and never
// mutated afterward — every chunk executor reads it concurrently without
// locking.
type FreezeOpts struct {
	Datatypes []Datatype

	// BlockChunks is the ordered, pairwise-disjoint, full covering tiling
	// of the requested range (spec §3 invariants).
	BlockChunks []BlockChunk

	OutputDir    string
	FileFormat   FileFormat
	ColumnFormat ColumnEncoding
	NetworkName  string

	MaxConcurrentChunks int
	MaxConcurrentBlocks int
	LogRequestSize      uint64

	DryRun bool

	Schemas map[Datatype]Schema
	Sort    map[Datatype][]string

	RowGroups        *uint64
	RowGroupSize     *uint64
	ParquetStatistics bool
}

// Validate checks the invariants of spec §3. It is the single gate through
// which a FreezeOpts must pass before any chunk executor runs.
func (o FreezeOpts) Validate() error {
	if o.MaxConcurrentChunks < 1 {
		return fmt.Errorf("max_concurrent_chunks must be >= 1, got %d", o.MaxConcurrentChunks)
	}
	if o.MaxConcurrentBlocks < 1 {
		return fmt.Errorf("max_concurrent_blocks must be >= 1, got %d", o.MaxConcurrentBlocks)
	}
	if o.LogRequestSize < 1 {
		return fmt.Errorf("log_request_size must be >= 1, got %d", o.LogRequestSize)
	}
	if len(o.Datatypes) == 0 {
		return fmt.Errorf("at least one datatype is required")
	}
	for _, dt := range o.Datatypes {
		schema, ok := o.Schemas[dt]
		if !ok {
			return fmt.Errorf("datatype %s has no schema entry", dt)
		}
		if len(schema) == 0 {
			return fmt.Errorf("datatype %s resolved to an empty schema", dt)
		}
		sortKeys, ok := o.Sort[dt]
		if !ok {
			return fmt.Errorf("datatype %s has no sort entry", dt)
		}
		for _, key := range sortKeys {
			if !schema.Has(key) {
				return fmt.Errorf("datatype %s: sort key %q is not in its schema", dt, key)
			}
		}
	}
	for i := 1; i < len(o.BlockChunks); i++ {
		prev, cur := o.BlockChunks[i-1], o.BlockChunks[i]
		if cur.Start <= prev.End {
			return fmt.Errorf("block chunks are not disjoint/ascending: %v then %v", prev, cur)
		}
	}
	return nil
}
