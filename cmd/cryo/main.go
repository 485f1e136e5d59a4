// Command cryo is the entry point of the ingestion engine: it owns
// argument parsing, help styling, and the pre-flight summary — the three
// things spec §1 names as external collaborators of the core engine in
// internal/freeze.
//
// Structured as a single spf13/cobra root command, the way the teacher's
// cmd/monitor builds each of its subcommands (blocksCmd, statusCmd, ...):
// one *cobra.Command, its flags bound to local vars, a RunE that resolves
// them and delegates to the engine.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/cryo-go/internal/cliopts"
	"github.com/dmagro/cryo-go/internal/freeze"
	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/summary"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		blocks                []string
		rpcURL                string
		networkName           string
		chunkSize             uint64
		outputDir             string
		csvFormat             bool
		hexEncoding           bool
		sortColumns           []string
		rowGroups             uint64
		rowGroupSize          uint64
		noStats               bool
		includeColumns        []string
		excludeColumns        []string
		maxConcurrentRequests uint64
		maxConcurrentChunks   uint64
		maxConcurrentBlocks   uint64
		logRequestSize        uint64
		dry                   bool
	)

	cmd := &cobra.Command{
		Use:   "cryo datatype...",
		Short: "Extract historical Ethereum data into Parquet or CSV files",
		Long: `cryo extracts historical blockchain data from a JSON-RPC endpoint and
materializes it into columnar Parquet files or row-oriented CSV files.

Examples:
  cryo blocks -b 17000000:17000100
  cryo logs -b 17000000:17000099 --log-request-size 100 --hex
  cryo blocks transactions -b 17000000:17000099 -c 50 --csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := cliopts.Raw{
				Datatypes:             args,
				BlockTokens:           blocks,
				ChunkSize:             chunkSize,
				RPCURL:                rpcURL,
				NetworkName:           networkName,
				OutputDir:             outputDir,
				CSV:                   csvFormat,
				Hex:                   hexEncoding,
				Sort:                  sortColumns,
				LogRequestSize:        logRequestSize,
				Dry:                   dry,
				NoStats:               noStats,
			}
			if cmd.Flags().Changed("include-columns") {
				raw.IncludeColumns = includeColumns
			}
			if len(excludeColumns) > 0 {
				raw.ExcludeColumns = excludeColumns
			}
			if cmd.Flags().Changed("row-groups") {
				v := rowGroups
				raw.RowGroups = &v
			}
			if cmd.Flags().Changed("row-group-size") {
				v := rowGroupSize
				raw.RowGroupSize = &v
			}
			if cmd.Flags().Changed("max-concurrent-requests") {
				v := maxConcurrentRequests
				raw.MaxConcurrentRequests = &v
			}
			if cmd.Flags().Changed("max-concurrent-chunks") {
				v := maxConcurrentChunks
				raw.MaxConcurrentChunks = &v
			}
			if cmd.Flags().Changed("max-concurrent-blocks") {
				v := maxConcurrentBlocks
				raw.MaxConcurrentBlocks = &v
			}
			return run(cmd.Context(), raw)
		},
	}

	cmd.Flags().StringSliceVarP(&blocks, "blocks", "b", []string{"17000000:17000100"}, "one or more block range tokens (N or A:B)")
	cmd.Flags().StringVarP(&rpcURL, "rpc", "r", "http://localhost:8545", "JSON-RPC endpoint")
	cmd.Flags().StringVar(&networkName, "network-name", "", "override auto-derived network name")
	cmd.Flags().Uint64VarP(&chunkSize, "chunk-size", "c", 1000, "blocks per chunk")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "output directory")
	cmd.Flags().BoolVar(&csvFormat, "csv", false, "write CSV instead of Parquet")
	cmd.Flags().BoolVar(&hexEncoding, "hex", false, "encode bytes columns as 0x-hex instead of binary")
	cmd.Flags().StringSliceVarP(&sortColumns, "sort", "s", nil, "sort columns (single-datatype runs only)")
	cmd.Flags().Uint64Var(&rowGroups, "row-groups", 0, "split each Parquet file into this many row groups")
	cmd.Flags().Uint64Var(&rowGroupSize, "row-group-size", 0, "flush a new Parquet row group every N rows")
	cmd.Flags().BoolVar(&noStats, "no-stats", false, "disable Parquet column statistics")
	cmd.Flags().StringSliceVarP(&includeColumns, "include-columns", "i", nil, "restrict the schema to these columns")
	cmd.Flags().StringSliceVarP(&excludeColumns, "exclude-columns", "e", nil, "drop these columns from the schema")
	cmd.Flags().Uint64Var(&maxConcurrentRequests, "max-concurrent-requests", 0, "global in-flight RPC cap (= chunks * blocks)")
	cmd.Flags().Uint64Var(&maxConcurrentChunks, "max-concurrent-chunks", 0, "concurrent chunk executors")
	cmd.Flags().Uint64Var(&maxConcurrentBlocks, "max-concurrent-blocks", 0, "concurrent in-flight RPCs per chunk")
	cmd.Flags().Uint64Var(&logRequestSize, "log-request-size", 1, "blocks per eth_getLogs call")
	cmd.Flags().BoolVarP(&dry, "dry", "d", false, "print the resolved plan and exit without ingesting")

	return cmd
}

func run(ctx context.Context, raw cliopts.Raw) error {
	client := rpc.NewClient("cryo", raw.RPCURL, 30*time.Second, 5)

	opts, err := cliopts.Build(ctx, raw, client)
	if err != nil {
		return err
	}

	if opts.DryRun {
		summary.Print(opts, raw.RPCURL)
		return nil
	}

	return freeze.Freeze(ctx, opts, client)
}
