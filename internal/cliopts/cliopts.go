// Package cliopts turns the flat, CLI-shaped inputs of spec §6 into a
// fully-resolved, validated types.FreezeOpts: the one gate every run
// passes through before cmd/cryo calls internal/freeze.Freeze.
//
// This is the Go analogue of cryo's own main.rs argument-resolution path
// (original_source/src/main.rs): parse_datatype, parse_block_inputs,
// parse_concurrency_args and the network-name derivation are all
// reassembled here into one Build call, the way the teacher's
// cmd/monitor command files each resolve their own flags into a typed
// call before dispatching to internal/rpc.
package cliopts

import (
	"context"
	"fmt"

	"github.com/dmagro/cryo-go/internal/blockrange"
	"github.com/dmagro/cryo-go/internal/ingesterr"
	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/scheduler"
	"github.com/dmagro/cryo-go/internal/schema"
	"github.com/dmagro/cryo-go/internal/types"
)

// Raw is the unresolved, flag-shaped input: exactly what cmd/cryo's cobra
// flags decode into, before any parsing, defaulting or cross-validation.
type Raw struct {
	Datatypes []string

	BlockTokens []string
	ChunkSize   uint64

	RPCURL      string
	NetworkName string

	OutputDir string
	CSV       bool
	Hex       bool

	Sort []string

	// IncludeColumns is nil when --include-columns was never passed, and
	// non-nil (possibly empty) when it was — that distinction is load-
	// bearing (spec §8: "Empty include list is rejected" is only an error
	// when the user actually asked for an empty include set). cmd/cryo
	// sets this from cobra's Flags().Changed("include-columns"), not just
	// from the slice's length.
	IncludeColumns []string
	ExcludeColumns []string

	RowGroups        *uint64
	RowGroupSize     *uint64
	NoStats          bool

	MaxConcurrentRequests *uint64
	MaxConcurrentChunks   *uint64
	MaxConcurrentBlocks   *uint64
	LogRequestSize        uint64

	Dry bool
}

// Build resolves Raw into a validated types.FreezeOpts. It is the only
// place in cryo-go that performs the network_name RPC suspension spec §9
// calls out ("startup must await one RPC before the plan is fully
// materialized unless --network-name is provided").
func Build(ctx context.Context, raw Raw, client *rpc.Client) (types.FreezeOpts, error) {
	datatypes, err := parseDatatypes(raw.Datatypes)
	if err != nil {
		return types.FreezeOpts{}, ingesterr.Config("invalid datatype", err)
	}

	if len(raw.Sort) > 0 && len(datatypes) > 1 {
		return types.FreezeOpts{}, ingesterr.Config("custom sort not supported for multiple datatypes", nil)
	}

	fullRange, err := blockrange.ParseTokens(raw.BlockTokens)
	if err != nil {
		return types.FreezeOpts{}, ingesterr.Config("invalid block range", err)
	}
	chunks, err := blockrange.Chunks(fullRange, raw.ChunkSize)
	if err != nil {
		return types.FreezeOpts{}, ingesterr.Config("invalid chunk size", err)
	}

	chunksCap, blocksCap, err := scheduler.Resolve(raw.MaxConcurrentRequests, raw.MaxConcurrentChunks, raw.MaxConcurrentBlocks)
	if err != nil {
		return types.FreezeOpts{}, ingesterr.Config("invalid concurrency settings", err)
	}

	encoding := types.Binary
	if raw.Hex {
		encoding = types.Hex
	}
	format := types.Parquet
	if raw.CSV {
		format = types.CSV
	}

	schemas := make(map[types.Datatype]types.Schema, len(datatypes))
	sorts := make(map[types.Datatype][]string, len(datatypes))
	for _, dt := range datatypes {
		eff, err := schema.Resolve(dt, encoding, raw.IncludeColumns, raw.ExcludeColumns)
		if err != nil {
			return types.FreezeOpts{}, ingesterr.Config(fmt.Sprintf("resolving schema for %s", dt), err)
		}
		schemas[dt] = eff

		sortKeys := raw.Sort
		if len(sortKeys) == 0 {
			sortKeys, err = schema.DefaultSort(dt)
			if err != nil {
				return types.FreezeOpts{}, ingesterr.Config(fmt.Sprintf("resolving default sort for %s", dt), err)
			}
		}
		for _, key := range sortKeys {
			if !eff.Has(key) {
				return types.FreezeOpts{}, ingesterr.Config(fmt.Sprintf("sort key %q is not in the %s schema", key, dt), nil)
			}
		}
		sorts[dt] = sortKeys
	}

	networkName := raw.NetworkName
	if networkName == "" {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			return types.FreezeOpts{}, ingesterr.Config("deriving network name via eth_chainId", err)
		}
		networkName = deriveNetworkName(chainID)
	}

	opts := types.FreezeOpts{
		Datatypes:           datatypes,
		BlockChunks:         chunks,
		OutputDir:           raw.OutputDir,
		FileFormat:          format,
		ColumnFormat:        encoding,
		NetworkName:         networkName,
		MaxConcurrentChunks: int(chunksCap),
		MaxConcurrentBlocks: int(blocksCap),
		LogRequestSize:      raw.LogRequestSize,
		DryRun:              raw.Dry,
		Schemas:             schemas,
		Sort:                sorts,
		RowGroups:           raw.RowGroups,
		RowGroupSize:        raw.RowGroupSize,
		ParquetStatistics:   !raw.NoStats,
	}
	if err := opts.Validate(); err != nil {
		return types.FreezeOpts{}, ingesterr.Config("invalid freeze options", err)
	}
	return opts, nil
}

// parseDatatypes parses every token via types.ParseDatatype and
// deduplicates while preserving first-seen order.
func parseDatatypes(tokens []string) ([]types.Datatype, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("at least one datatype is required")
	}
	seen := make(map[types.Datatype]bool, len(tokens))
	var out []types.Datatype
	for _, tok := range tokens {
		dt, err := types.ParseDatatype(tok)
		if err != nil {
			return nil, err
		}
		if seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	return out, nil
}

// deriveNetworkName implements spec §6's fallback exactly: chain 1 maps
// to "ethereum"; everything else becomes "network_<chain_id>".
func deriveNetworkName(chainID uint64) string {
	if chainID == 1 {
		return "ethereum"
	}
	return fmt.Sprintf("network_%d", chainID)
}
