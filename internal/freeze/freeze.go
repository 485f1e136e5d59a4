// Package freeze is the top-level ingestion orchestrator (spec §4.5): the
// Go analogue of cryo's freeze.rs, wiring the scheduler, the gatherers and
// the writers together per chunk and draining outcomes per §5/§7.
package freeze

import (
	"context"
	"fmt"
	"os"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/gather"
	"github.com/dmagro/cryo-go/internal/ingesterr"
	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/schema"
	"github.com/dmagro/cryo-go/internal/scheduler"
	"github.com/dmagro/cryo-go/internal/types"
	"github.com/dmagro/cryo-go/internal/writer"
	"github.com/dmagro/cryo-go/internal/writer/csvio"
	"github.com/dmagro/cryo-go/internal/writer/parquetio"
)

// Freeze runs a complete ingestion pass: validates opts, creates the
// output directory, and runs one chunk executor per (datatype, chunk)
// pair under the scheduler's two-level concurrency gate (spec §4.6). Every
// chunk is attempted regardless of its siblings' outcome; the first error
// encountered is returned only after every chunk has finished (spec §5:
// "the top-level driver surfaces the first error after draining
// outstanding chunks").
func Freeze(ctx context.Context, opts types.FreezeOpts, client *rpc.Client) error {
	if err := opts.Validate(); err != nil {
		return ingesterr.Config("invalid freeze options", err)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return ingesterr.Config("create output directory", err)
	}

	pad := writer.PadWidth(maxHeight(opts.BlockChunks))
	sched := scheduler.New(opts.MaxConcurrentChunks, opts.MaxConcurrentBlocks)

	jobs := make([]chunkJob, 0, len(opts.Datatypes)*len(opts.BlockChunks))
	for _, dt := range opts.Datatypes {
		for _, chunk := range opts.BlockChunks {
			jobs = append(jobs, chunkJob{datatype: dt, chunk: chunk})
		}
	}

	return scheduler.RunChunks(ctx, sched, jobs, func(ctx context.Context, job chunkJob) error {
		return runChunk(ctx, client, sched, opts, job.datatype, job.chunk, pad)
	})
}

type chunkJob struct {
	datatype types.Datatype
	chunk    types.BlockChunk
}

// runChunk implements spec §4.5 steps 2-6 for a single (datatype, chunk)
// pair: gather, validate shape, sort, write. Permit acquisition/release
// for the outer (chunk) semaphore happens in scheduler.RunChunks around
// this call; the inner (block) semaphore is acquired inside the gatherer.
func runChunk(ctx context.Context, client *rpc.Client, sched *scheduler.Scheduler, opts types.FreezeOpts, dt types.Datatype, chunk types.BlockChunk, pad int) error {
	effSchema, ok := opts.Schemas[dt]
	if !ok {
		return ingesterr.Data(dt, chunk, fmt.Errorf("no resolved schema for datatype"))
	}

	b, err := gatherOne(ctx, client, sched, opts, dt, chunk, effSchema)
	if err != nil {
		return err
	}

	if n := b.RowCount(); n < 0 {
		return ingesterr.Data(dt, chunk, fmt.Errorf("batch columns have mismatched lengths"))
	}
	for _, col := range effSchema {
		if b.ColumnByName(col.Name) == nil {
			return ingesterr.Data(dt, chunk, fmt.Errorf("batch is missing schema column %q", col.Name))
		}
	}

	rowIdentity, err := schema.RowIdentity(dt)
	if err != nil {
		return ingesterr.Data(dt, chunk, err)
	}
	if err := SortBatch(b, effSchema, opts.Sort[dt], rowIdentity); err != nil {
		return ingesterr.Data(dt, chunk, err)
	}

	ext := opts.FileFormat.Extension()
	path := writer.OutputPath(opts.OutputDir, opts.NetworkName, dt, chunk, pad, ext)

	switch opts.FileFormat {
	case types.CSV:
		if err := csvio.Write(path, b, effSchema, opts.ColumnFormat); err != nil {
			return ingesterr.IO(dt, chunk, err)
		}
	default:
		popts := parquetio.Options{
			RowGroups:    opts.RowGroups,
			RowGroupSize: opts.RowGroupSize,
			Statistics:   opts.ParquetStatistics,
		}
		if err := parquetio.Write(path, b, effSchema, opts.ColumnFormat, popts); err != nil {
			return ingesterr.IO(dt, chunk, err)
		}
	}
	return nil
}

func gatherOne(ctx context.Context, client *rpc.Client, sched *scheduler.Scheduler, opts types.FreezeOpts, dt types.Datatype, chunk types.BlockChunk, effSchema types.Schema) (*batch.Batch, error) {
	switch dt {
	case types.Blocks:
		return gather.Blocks(ctx, client, sched, chunk, effSchema)
	case types.Transactions:
		return gather.Transactions(ctx, client, sched, chunk, effSchema)
	case types.Logs:
		return gather.Logs(ctx, client, sched, chunk, opts.LogRequestSize, effSchema)
	default:
		return nil, ingesterr.Data(dt, chunk, fmt.Errorf("unknown datatype"))
	}
}

// maxHeight derives the zero-pad width input of spec §6: the highest
// block height in the overall requested range.
func maxHeight(chunks []types.BlockChunk) uint64 {
	var max uint64
	for _, c := range chunks {
		if c.End > max {
			max = c.End
		}
	}
	return max
}
