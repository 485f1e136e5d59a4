// Package gather implements the three datatype gatherers of spec §4.4:
// Blocks, Transactions and Logs. Each turns one block-range chunk into a
// batch.Batch whose columns match the effective schema the caller
// resolved (internal/schema), fetching data through internal/rpc under
// the per-block semaphore of internal/scheduler.
//
// The per-field hex decoding here is grounded on the teacher's
// internal/rpc/methods.go typed-wrapper style (ParseHexUint64 etc. as the
// single place raw wire strings become Go values), generalized from "one
// health-check payload" to "one row of a columnar batch".
package gather

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/dmagro/cryo-go/internal/batch"
	"github.com/dmagro/cryo-go/internal/ingesterr"
	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/scheduler"
	"github.com/dmagro/cryo-go/internal/types"
)

// blockRow is the fully-decoded, typed shape of one getBlockByNumber
// result before it's laid out into columns. Decoding into a flat struct
// first (rather than writing straight into column slices from inside the
// per-block goroutine) keeps the column-assembly step single-threaded and
// free of index bookkeeping races.
type blockRow struct {
	height           uint64
	hash             []byte
	parentHash       []byte
	timestamp        uint32
	author           []byte
	gasUsed          uint64
	extraData        []byte
	baseFeePerGas    uint64
	baseFeePerGasSet bool
	size             uint64
	txCount          uint32
	logsBloom        []byte
}

func decodeBlockRow(height uint64, w *rpc.BlockWire) (blockRow, error) {
	row := blockRow{height: height}
	var err error
	if row.hash, err = rpc.ParseHexBytes(w.Hash); err != nil {
		return row, fmt.Errorf("block %d hash: %w", height, err)
	}
	if row.parentHash, err = rpc.ParseHexBytes(w.ParentHash); err != nil {
		return row, fmt.Errorf("block %d parentHash: %w", height, err)
	}
	ts, err := rpc.ParseHexUint64(w.Timestamp)
	if err != nil {
		return row, fmt.Errorf("block %d timestamp: %w", height, err)
	}
	row.timestamp = uint32(ts)
	if row.author, err = rpc.ParseHexBytes(w.Miner); err != nil {
		return row, fmt.Errorf("block %d miner: %w", height, err)
	}
	if row.gasUsed, err = rpc.ParseHexUint64(w.GasUsed); err != nil {
		return row, fmt.Errorf("block %d gasUsed: %w", height, err)
	}
	if row.extraData, err = rpc.ParseHexBytes(w.ExtraData); err != nil {
		return row, fmt.Errorf("block %d extraData: %w", height, err)
	}
	if w.BaseFeePerGas != "" {
		if row.baseFeePerGas, err = rpc.ParseHexUint64(w.BaseFeePerGas); err != nil {
			return row, fmt.Errorf("block %d baseFeePerGas: %w", height, err)
		}
		row.baseFeePerGasSet = true
	}
	if row.size, err = rpc.ParseHexUint64(w.Size); err != nil {
		return row, fmt.Errorf("block %d size: %w", height, err)
	}
	if row.logsBloom, err = rpc.ParseHexBytes(w.LogsBloom); err != nil {
		return row, fmt.Errorf("block %d logsBloom: %w", height, err)
	}
	hashes, err := w.TransactionHashes()
	if err != nil {
		return row, fmt.Errorf("block %d transactions: %w", height, err)
	}
	row.txCount = uint32(len(hashes))
	return row, nil
}

// Blocks gathers one row per block in the chunk, one getBlockByNumber call
// per height (include_txs=false), fanned out under the scheduler's
// per-block semaphore and reassembled in ascending order (spec §4.5 steps
// 2-3).
func Blocks(ctx context.Context, client *rpc.Client, sched *scheduler.Scheduler, chunk types.BlockChunk, schema types.Schema) (*batch.Batch, error) {
	heights := heightsOf(chunk)

	results, err := scheduler.RunBlocks(ctx, sched, heights, func(ctx context.Context, h uint64) (blockRow, error) {
		w, err := client.GetBlockByNumber(ctx, h, false)
		if err != nil {
			return blockRow{}, err
		}
		return decodeBlockRow(h, w)
	})
	if err != nil {
		return nil, classify(types.Blocks, chunk, err)
	}

	rows := make([]blockRow, len(results))
	for i, r := range results {
		rows[i] = r.Value
	}

	cols := make([]batch.Column, 0, len(schema))
	for _, col := range schema {
		switch col.Name {
		case "block_number":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.height
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "block_hash":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.hash
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "parent_hash":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.parentHash
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "timestamp":
			vals := make([]uint32, len(rows))
			for i, r := range rows {
				vals[i] = r.timestamp
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint32, Uint32: vals})
		case "author":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.author
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "gas_used":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.gasUsed
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "extra_data":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.extraData
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "base_fee_per_gas":
			vals := make([]uint64, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.baseFeePerGas
				nulls[i] = !r.baseFeePerGasSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals, Null: nulls})
		case "size":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.size
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "transaction_count":
			vals := make([]uint32, len(rows))
			for i, r := range rows {
				vals[i] = r.txCount
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint32, Uint32: vals})
		case "logs_bloom":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.logsBloom
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		default:
			return nil, ingesterr.Data(types.Blocks, chunk, fmt.Errorf("unsupported schema column %q", col.Name))
		}
	}
	return &batch.Batch{Columns: cols}, nil
}

type txRow struct {
	blockNumber  uint64
	txIndex      uint32
	hash         []byte
	nonce        uint64
	from         []byte
	to           []byte
	toSet        bool
	value        *big.Int
	input        []byte
	gasLimit     uint64
	gasPrice     uint64
	gasPriceSet  bool
	txType       uint8
	txTypeSet    bool
	maxPriority  uint64
	maxPrioritySet bool
	maxFee       uint64
	maxFeeSet    bool
	chainID      uint64
	chainIDSet   bool
}

func decodeTxRow(w *rpc.TransactionWire) (txRow, error) {
	var row txRow
	var err error
	if row.blockNumber, err = rpc.ParseHexUint64(w.BlockNumber); err != nil {
		return row, fmt.Errorf("transaction %s blockNumber: %w", w.Hash, err)
	}
	idx, err := rpc.ParseHexUint64(w.TransactionIndex)
	if err != nil {
		return row, fmt.Errorf("transaction %s transactionIndex: %w", w.Hash, err)
	}
	row.txIndex = uint32(idx)
	if row.hash, err = rpc.ParseHexBytes(w.Hash); err != nil {
		return row, fmt.Errorf("transaction %s hash: %w", w.Hash, err)
	}
	if row.nonce, err = rpc.ParseHexUint64(w.Nonce); err != nil {
		return row, fmt.Errorf("transaction %s nonce: %w", w.Hash, err)
	}
	if row.from, err = rpc.ParseHexBytes(w.From); err != nil {
		return row, fmt.Errorf("transaction %s from: %w", w.Hash, err)
	}
	if w.To != "" {
		if row.to, err = rpc.ParseHexBytes(w.To); err != nil {
			return row, fmt.Errorf("transaction %s to: %w", w.Hash, err)
		}
		row.toSet = true
	}
	if row.value, err = rpc.ParseHexBigInt(w.Value); err != nil {
		return row, fmt.Errorf("transaction %s value: %w", w.Hash, err)
	}
	if row.input, err = rpc.ParseHexBytes(w.Input); err != nil {
		return row, fmt.Errorf("transaction %s input: %w", w.Hash, err)
	}
	if row.gasLimit, err = rpc.ParseHexUint64(w.Gas); err != nil {
		return row, fmt.Errorf("transaction %s gas: %w", w.Hash, err)
	}
	if w.GasPrice != "" {
		if row.gasPrice, err = rpc.ParseHexUint64(w.GasPrice); err != nil {
			return row, fmt.Errorf("transaction %s gasPrice: %w", w.Hash, err)
		}
		row.gasPriceSet = true
	}
	if w.Type != "" {
		t, err := rpc.ParseHexUint64(w.Type)
		if err != nil {
			return row, fmt.Errorf("transaction %s type: %w", w.Hash, err)
		}
		row.txType = uint8(t)
		row.txTypeSet = true
	}
	if w.MaxPriorityFeePerGas != "" {
		if row.maxPriority, err = rpc.ParseHexUint64(w.MaxPriorityFeePerGas); err != nil {
			return row, fmt.Errorf("transaction %s maxPriorityFeePerGas: %w", w.Hash, err)
		}
		row.maxPrioritySet = true
	}
	if w.MaxFeePerGas != "" {
		if row.maxFee, err = rpc.ParseHexUint64(w.MaxFeePerGas); err != nil {
			return row, fmt.Errorf("transaction %s maxFeePerGas: %w", w.Hash, err)
		}
		row.maxFeeSet = true
	}
	if w.ChainID != "" {
		if row.chainID, err = rpc.ParseHexUint64(w.ChainID); err != nil {
			return row, fmt.Errorf("transaction %s chainId: %w", w.Hash, err)
		}
		row.chainIDSet = true
	}
	return row, nil
}

// Transactions gathers one row per transaction, one getBlockByNumber call
// per height (include_txs=true), transactions kept in block order and
// blocks reassembled ascending (spec §4.4).
func Transactions(ctx context.Context, client *rpc.Client, sched *scheduler.Scheduler, chunk types.BlockChunk, schema types.Schema) (*batch.Batch, error) {
	heights := heightsOf(chunk)

	results, err := scheduler.RunBlocks(ctx, sched, heights, func(ctx context.Context, h uint64) ([]txRow, error) {
		w, err := client.GetBlockByNumber(ctx, h, true)
		if err != nil {
			return nil, err
		}
		wireTxs, err := w.TransactionsFull()
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", h, err)
		}
		rows := make([]txRow, len(wireTxs))
		for i, wtx := range wireTxs {
			row, err := decodeTxRow(&wtx)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return rows, nil
	})
	if err != nil {
		return nil, classify(types.Transactions, chunk, err)
	}

	var rows []txRow
	for _, r := range results {
		rows = append(rows, r.Value...)
	}

	cols := make([]batch.Column, 0, len(schema))
	for _, col := range schema {
		switch col.Name {
		case "block_number":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.blockNumber
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "transaction_index":
			vals := make([]uint32, len(rows))
			for i, r := range rows {
				vals[i] = r.txIndex
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint32, Uint32: vals})
		case "transaction_hash":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.hash
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "nonce":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.nonce
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "from_address":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.from
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "to_address":
			vals := make([][]byte, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.to
				nulls[i] = !r.toSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals, Null: nulls})
		case "value":
			vals := make([]*big.Int, len(rows))
			for i, r := range rows {
				vals[i] = r.value
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindU256, U256: vals})
		case "input":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.input
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "gas_limit":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.gasLimit
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "gas_price":
			vals := make([]uint64, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.gasPrice
				nulls[i] = !r.gasPriceSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals, Null: nulls})
		case "transaction_type":
			vals := make([]uint8, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.txType
				nulls[i] = !r.txTypeSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint8, Uint8: vals, Null: nulls})
		case "max_priority_fee_per_gas":
			vals := make([]uint64, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.maxPriority
				nulls[i] = !r.maxPrioritySet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals, Null: nulls})
		case "max_fee_per_gas":
			vals := make([]uint64, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.maxFee
				nulls[i] = !r.maxFeeSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals, Null: nulls})
		case "chain_id":
			vals := make([]uint64, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.chainID
				nulls[i] = !r.chainIDSet
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals, Null: nulls})
		default:
			return nil, ingesterr.Data(types.Transactions, chunk, fmt.Errorf("unsupported schema column %q", col.Name))
		}
	}
	return &batch.Batch{Columns: cols}, nil
}

type logRow struct {
	blockNumber uint64
	blockHash   []byte
	txHash      []byte
	txIndex     uint32
	logIndex    uint32
	address     []byte
	topics      [4][]byte
	topicsSet   [4]bool
	data        []byte
}

func decodeLogRow(w *rpc.LogWire) (logRow, error) {
	var row logRow
	var err error
	if row.blockNumber, err = rpc.ParseHexUint64(w.BlockNumber); err != nil {
		return row, fmt.Errorf("log %s: blockNumber: %w", w.TransactionHash, err)
	}
	if row.blockHash, err = rpc.ParseHexBytes(w.BlockHash); err != nil {
		return row, fmt.Errorf("log %s: blockHash: %w", w.TransactionHash, err)
	}
	if row.txHash, err = rpc.ParseHexBytes(w.TransactionHash); err != nil {
		return row, fmt.Errorf("log %s: transactionHash: %w", w.TransactionHash, err)
	}
	idx, err := rpc.ParseHexUint64(w.TransactionIndex)
	if err != nil {
		return row, fmt.Errorf("log %s: transactionIndex: %w", w.TransactionHash, err)
	}
	row.txIndex = uint32(idx)
	logIdx, err := rpc.ParseHexUint64(w.LogIndex)
	if err != nil {
		return row, fmt.Errorf("log %s: logIndex: %w", w.TransactionHash, err)
	}
	row.logIndex = uint32(logIdx)
	if row.address, err = rpc.ParseHexBytes(w.Address); err != nil {
		return row, fmt.Errorf("log %s: address: %w", w.TransactionHash, err)
	}
	for i := 0; i < 4 && i < len(w.Topics); i++ {
		t, err := rpc.ParseHexBytes(w.Topics[i])
		if err != nil {
			return row, fmt.Errorf("log %s: topic%d: %w", w.TransactionHash, i, err)
		}
		row.topics[i] = t
		row.topicsSet[i] = true
	}
	if row.data, err = rpc.ParseHexBytes(w.Data); err != nil {
		return row, fmt.Errorf("log %s: data: %w", w.TransactionHash, err)
	}
	return row, nil
}

// Logs gathers one row per log entry. getLogs is called once per
// log_request_size-block sub-range covering the chunk (spec §4.3, §4.4),
// fanned out under the per-block semaphore (a "block" slot here is one
// sub-range call, not literally one block). Rows are reassembled and
// sorted by (block_number, log_index) ascending, stable.
func Logs(ctx context.Context, client *rpc.Client, sched *scheduler.Scheduler, chunk types.BlockChunk, logRequestSize uint64, schema types.Schema) (*batch.Batch, error) {
	subranges := logSubranges(chunk, logRequestSize)

	results, err := scheduler.RunBlocks(ctx, sched, subranges, func(ctx context.Context, from uint64) ([]logRow, error) {
		to := from + logRequestSize - 1
		if to > chunk.End {
			to = chunk.End
		}
		wireLogs, err := client.GetLogs(ctx, from, to)
		if err != nil {
			return nil, err
		}
		rows := make([]logRow, len(wireLogs))
		for i := range wireLogs {
			row, err := decodeLogRow(&wireLogs[i])
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		return rows, nil
	})
	if err != nil {
		return nil, classify(types.Logs, chunk, err)
	}

	var rows []logRow
	for _, r := range results {
		rows = append(rows, r.Value...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].blockNumber != rows[j].blockNumber {
			return rows[i].blockNumber < rows[j].blockNumber
		}
		return rows[i].logIndex < rows[j].logIndex
	})

	cols := make([]batch.Column, 0, len(schema))
	for _, col := range schema {
		switch col.Name {
		case "block_number":
			vals := make([]uint64, len(rows))
			for i, r := range rows {
				vals[i] = r.blockNumber
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint64, Uint64: vals})
		case "block_hash":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.blockHash
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "transaction_hash":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.txHash
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "transaction_index":
			vals := make([]uint32, len(rows))
			for i, r := range rows {
				vals[i] = r.txIndex
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint32, Uint32: vals})
		case "log_index":
			vals := make([]uint32, len(rows))
			for i, r := range rows {
				vals[i] = r.logIndex
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindUint32, Uint32: vals})
		case "address":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.address
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		case "topic0", "topic1", "topic2", "topic3":
			idx := int(col.Name[len(col.Name)-1] - '0')
			vals := make([][]byte, len(rows))
			nulls := make([]bool, len(rows))
			for i, r := range rows {
				vals[i] = r.topics[idx]
				nulls[i] = !r.topicsSet[idx]
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals, Null: nulls})
		case "data":
			vals := make([][]byte, len(rows))
			for i, r := range rows {
				vals[i] = r.data
			}
			cols = append(cols, batch.Column{Name: col.Name, Kind: batch.KindBytes, Bytes: vals})
		default:
			return nil, ingesterr.Data(types.Logs, chunk, fmt.Errorf("unsupported schema column %q", col.Name))
		}
	}
	return &batch.Batch{Columns: cols}, nil
}

func heightsOf(chunk types.BlockChunk) []uint64 {
	heights := make([]uint64, 0, chunk.Width())
	for h := chunk.Start; h <= chunk.End; h++ {
		heights = append(heights, h)
	}
	return heights
}

// logSubranges returns the starting height of each contiguous
// log_request_size-block sub-range covering the chunk (spec §4.3: "a
// chunk issues ⌈chunk_width / log_request_size⌉ log calls").
func logSubranges(chunk types.BlockChunk, logRequestSize uint64) []uint64 {
	var starts []uint64
	for h := chunk.Start; h <= chunk.End; h += logRequestSize {
		starts = append(starts, h)
	}
	return starts
}

// classify maps a gatherer-level failure to the transport/data error
// taxonomy of spec §7. internal/rpc.Client.Retry already distinguishes
// retryable transport failures from terminal ones internally, retrying
// everything except *rpc.RPCError to exhaustion (internal/rpc/client.go);
// by the time an error reaches here it is always terminal, and the two
// terminal shapes map to opposite categories. A plain error is a
// transport failure that survived retry (connection refused, timeout,
// a response the client couldn't decode) — classified as Transport. An
// *rpc.RPCError is a JSON-RPC error object: the node answered and
// refused the request, so the failure is in the data the node returned,
// not in reaching it — classified as Data.
func classify(dt types.Datatype, chunk types.BlockChunk, err error) error {
	var rpcErr *rpc.RPCError
	if isRPCError(err, &rpcErr) {
		return ingesterr.Data(dt, chunk, err)
	}
	return ingesterr.Transport(dt, chunk, err)
}

func isRPCError(err error, target **rpc.RPCError) bool {
	rpcErr, ok := err.(*rpc.RPCError)
	if ok {
		*target = rpcErr
	}
	return ok
}
