// Package scheduler implements the two-level concurrency gate of spec
// §4.6: an outer semaphore bounding concurrent chunk executors and an
// inner semaphore bounding concurrent in-flight RPC calls within a single
// chunk. The product of the two capacities is the effective global
// request ceiling (spec §9, "Global request cap").
//
// The fan-out/collect shape is adapted from
// internal/provider/executor.go's ExecuteAll helper in the teacher
// project (itself built on errgroup.WithContext + a mutex-protected
// results slice): one Go-level fan-out primitive, used once for the
// outer (per-chunk) gate and once for the inner (per-block) gate.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Scheduler owns the outer chunk semaphore described in spec §4.6. The
// inner (block) semaphore is not shared state on Scheduler: RunBlocks
// creates one fresh per call so each chunk executor gets its own
// independent pool of MaxConcurrentBlocks permits, rather than every
// chunk competing for a single global pool (spec §4.6, §8, §9: the
// effective global request ceiling is chunks*blocks, not blocks).
type Scheduler struct {
	chunkSem *semaphore.Weighted

	MaxConcurrentChunks int
	MaxConcurrentBlocks int
}

// New builds a Scheduler with the given outer (chunk) and inner (block)
// capacities. Both must be >= 1 (spec §3 invariant); callers are expected
// to have validated this via types.FreezeOpts.Validate before reaching
// here.
func New(maxConcurrentChunks, maxConcurrentBlocks int) *Scheduler {
	return &Scheduler{
		chunkSem:            semaphore.NewWeighted(int64(maxConcurrentChunks)),
		MaxConcurrentChunks: maxConcurrentChunks,
		MaxConcurrentBlocks: maxConcurrentBlocks,
	}
}

// RunChunks runs fn once per item under the outer semaphore. Chunks do not
// fail fast: every item is attempted, and RunChunks returns the first
// error encountered only after every goroutine has completed and released
// its permit (spec §5: "the top-level driver surfaces the first error
// after draining outstanding chunks").
func RunChunks[T any](ctx context.Context, s *Scheduler, items []T, fn func(ctx context.Context, item T) error) error {
	// Every g.Go closure below returns nil unconditionally (errors are
	// captured into firstErr instead of returned), so errgroup never
	// auto-cancels gctx on a sibling's failure. gctx still derives from the
	// caller's ctx, so external cancellation (spec §5) propagates normally.
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var firstErr error

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := s.chunkSem.Acquire(gctx, 1); err != nil {
				// Acquire only fails once ctx is done; record that as the
				// run's error so external cancellation reaches the caller.
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			defer s.chunkSem.Release(1)

			if err := fn(gctx, item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return firstErr
}

// BlockResult pairs a per-block fan-out result with the height it came
// from, before the caller re-sorts by height.
type BlockResult[T any] struct {
	Height uint64
	Value  T
	Err    error
}

// RunBlocks runs fn once per height under a fresh inner semaphore scoped
// to this call, and returns results keyed by height, already re-ordered
// ascending (spec §4.5 step 3: "results are keyed by block number and
// reassembled in ascending order"). Each chunk executor calls RunBlocks
// once, so the fresh semaphore gives it its own MaxConcurrentBlocks
// in-flight budget independent of every other chunk's. The first
// per-height error is returned as err; all heights are still attempted so
// every acquired permit is released.
func RunBlocks[T any](ctx context.Context, s *Scheduler, heights []uint64, fn func(ctx context.Context, height uint64) (T, error)) ([]BlockResult[T], error) {
	results := make([]BlockResult[T], len(heights))
	blockSem := semaphore.NewWeighted(int64(s.MaxConcurrentBlocks))
	g, gctx := errgroup.WithContext(ctx)

	for i, h := range heights {
		i, h := i, h
		g.Go(func() error {
			if err := blockSem.Acquire(gctx, 1); err != nil {
				results[i] = BlockResult[T]{Height: h, Err: err}
				return nil
			}
			defer blockSem.Release(1)

			v, err := fn(gctx, h)
			results[i] = BlockResult[T]{Height: h, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Height < results[j].Height })

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

// Resolve implements the concurrency resolution table of spec §4.6, using
// the exact arithmetic of cryo's parse_concurrency_args
// (original_source/src/main.rs): any of requests/chunks/blocks may be
// unset (nil). Returns the resolved (chunks, blocks) pair or an error if
// all three are set and inconsistent (requests != chunks*blocks). The
// all-unset default is (chunks=32, blocks=3) — verified against
// parse_concurrency_args's own (None, None, None) => (32, 3) arm, which
// binds to (max_concurrent_chunks, max_concurrent_blocks) at the call site.
func Resolve(requests, chunks, blocks *uint64) (resolvedChunks, resolvedBlocks uint64, err error) {
	maxu := func(a, b uint64) uint64 {
		if a > b {
			return a
		}
		return b
	}
	switch {
	case requests == nil && chunks == nil && blocks == nil:
		return 32, 3, nil
	case requests != nil && chunks == nil && blocks == nil:
		return maxu(*requests/3, 1), 3, nil
	case requests == nil && chunks != nil && blocks == nil:
		return *chunks, 3, nil
	case requests == nil && chunks == nil && blocks != nil:
		return maxu(100 / *blocks, 1), *blocks, nil
	case requests != nil && chunks != nil && blocks == nil:
		return *chunks, maxu(*requests / *chunks, 1), nil
	case requests == nil && chunks != nil && blocks != nil:
		return *chunks, *blocks, nil
	case requests != nil && chunks == nil && blocks != nil:
		return maxu(*requests / *blocks, 1), *blocks, nil
	default: // all three set
		if *requests != *chunks**blocks {
			return 0, 0, fmt.Errorf("max_concurrent_requests (%d) must equal max_concurrent_chunks (%d) * max_concurrent_blocks (%d)", *requests, *chunks, *blocks)
		}
		return *chunks, *blocks, nil
	}
}
