// Package summary renders the pre-flight configuration banner that spec
// §1 calls "terminal pretty-printing of the configuration summary" — an
// external collaborator of the core engine, not part of it, but still a
// real component a complete repository needs (spec §6: "-d/--dry: print
// plan, do not execute").
//
// The palette and table style are carried over from the teacher's
// internal/output/terminal.go (green/cyan/bold SprintFunc palette,
// rodaine/table.New(...).WithHeaderFormatter(...).Print()).
package summary

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/dmagro/cryo-go/internal/blockrange"
	"github.com/dmagro/cryo-go/internal/types"
)

var (
	cyan  = color.New(color.FgCyan).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
)

// Print writes the resolved-plan banner for opts to stdout: the header, a
// bullet list of the resolved run options, and, per datatype, a table of
// its effective schema and sort columns. The chunk size and the Parquet
// row-group and statistics settings are not printed.
func Print(opts types.FreezeOpts, rpcURL string) {
	fmt.Println()
	fmt.Println(cyan("╭─────────────────────────────────────────────────────────────────╮"))
	fmt.Printf("%s %s\n", cyan("│"), bold("cryo-go: resolved ingestion plan"))
	fmt.Println(cyan("╰─────────────────────────────────────────────────────────────────╯"))
	fmt.Println()

	total := blockrange.TotalBlocks(opts.BlockChunks)
	bullet := func(label string, value interface{}) {
		fmt.Printf("  %s %-22s %v\n", green("•"), label, value)
	}

	bullet("network", opts.NetworkName)
	bullet("provider", rpcURL)
	bullet("datatypes", datatypeNames(opts.Datatypes))
	bullet("total blocks", total)
	bullet("chunks", len(opts.BlockChunks))
	bullet("max concurrent chunks", opts.MaxConcurrentChunks)
	bullet("max concurrent blocks", opts.MaxConcurrentBlocks)
	bullet("global request ceiling", opts.MaxConcurrentChunks*opts.MaxConcurrentBlocks)
	if containsLogs(opts.Datatypes) {
		bullet("log request size", opts.LogRequestSize)
	}
	bullet("format", opts.FileFormat)
	bullet("binary encoding", opts.ColumnFormat)
	bullet("output dir", opts.OutputDir)
	fmt.Println()

	for _, dt := range opts.Datatypes {
		fmt.Println(bold(dt.String()))
		headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
		tbl := table.New("Column", "Type", "Nullable")
		tbl.WithHeaderFormatter(headerFmt)
		for _, col := range opts.Schemas[dt] {
			tbl.AddRow(col.Name, columnTypeName(col.Type), col.Nullable)
		}
		tbl.Print()
		fmt.Printf("  sort: %v\n\n", opts.Sort[dt])
	}
}

func datatypeNames(dts []types.Datatype) []string {
	names := make([]string, len(dts))
	for i, dt := range dts {
		names[i] = dt.String()
	}
	return names
}

func containsLogs(dts []types.Datatype) bool {
	for _, dt := range dts {
		if dt == types.Logs {
			return true
		}
	}
	return false
}

func columnTypeName(t types.ColumnType) string {
	switch t {
	case types.TypeUint8:
		return "uint8"
	case types.TypeUint32:
		return "uint32"
	case types.TypeUint64:
		return "uint64"
	case types.TypeBytes:
		return "bytes"
	case types.TypeU256:
		return "u256"
	case types.TypeBoolean:
		return "bool"
	default:
		return "unknown"
	}
}
