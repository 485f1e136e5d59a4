// Package blockrange parses block-range command-line tokens and splits the
// resulting interval into fixed-width chunks.
//
// This is the Go port of cryo's block_utils::parse_block_inputs and
// get_subchunks (original_source/src/main.rs): a token is either a single
// non-negative integer N (meaning [N, N]) or a colon-separated pair A:B
// (meaning [A, B]). Multiple tokens are unioned into a single covering
// range before chunking.
package blockrange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmagro/cryo-go/internal/types"
)

// ParseTokens parses one or more range tokens and returns the union
// interval that covers all of them (spec §4.1: "the canonical shape is a
// single range").
func ParseTokens(tokens []string) (types.BlockChunk, error) {
	if len(tokens) == 0 {
		return types.BlockChunk{}, fmt.Errorf("at least one block range token is required")
	}

	var start, end uint64
	haveRange := false

	for _, tok := range tokens {
		a, b, err := parseToken(tok)
		if err != nil {
			return types.BlockChunk{}, err
		}
		if !haveRange {
			start, end = a, b
			haveRange = true
			continue
		}
		if a < start {
			start = a
		}
		if b > end {
			end = b
		}
	}
	return types.BlockChunk{Start: start, End: end}, nil
}

// parseToken parses a single token: "N" or "A:B".
func parseToken(tok string) (uint64, uint64, error) {
	if idx := strings.IndexByte(tok, ':'); idx >= 0 {
		aStr, bStr := tok[:idx], tok[idx+1:]
		a, err := strconv.ParseUint(aStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range token %q: %w", tok, err)
		}
		b, err := strconv.ParseUint(bStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range token %q: %w", tok, err)
		}
		if a > b {
			return 0, 0, fmt.Errorf("invalid range token %q: start > end", tok)
		}
		return a, b, nil
	}

	n, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range token %q: %w", tok, err)
	}
	return n, n, nil
}

// Chunks splits a block interval into chunks of width `size`, with the
// final chunk truncated to fit the range. A size of 0 is rejected (spec
// §4.1: "A chunk-size of 0 is rejected").
//
// Chunks are returned in ascending order, pairwise disjoint, and their
// union equals [r.Start, r.End] exactly — the invariant exercised in
// spec §8's tiling property.
func Chunks(r types.BlockChunk, size uint64) ([]types.BlockChunk, error) {
	if size == 0 {
		return nil, fmt.Errorf("chunk size must be >= 1")
	}

	var chunks []types.BlockChunk
	for start := r.Start; start <= r.End; start += size {
		end := start + size - 1
		if end > r.End || end < start { // end < start guards uint64 overflow
			end = r.End
		}
		chunks = append(chunks, types.BlockChunk{Start: start, End: end})
		if end == r.End {
			break
		}
	}
	return chunks, nil
}

// TotalBlocks sums the width of every chunk — used by the dry-run summary.
func TotalBlocks(chunks []types.BlockChunk) uint64 {
	var total uint64
	for _, c := range chunks {
		total += c.Width()
	}
	return total
}
