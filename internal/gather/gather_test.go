package gather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/schema"
	"github.com/dmagro/cryo-go/internal/scheduler"
	"github.com/dmagro/cryo-go/internal/types"
)

func mockServer(t *testing.T, handlers map[string]func(params []json.RawMessage) (interface{}, error)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request: %v", err)
		}
		h, ok := handlers[req.Method]
		if !ok {
			t.Fatalf("unexpected method %q", req.Method)
		}
		result, err := h(req.Params)
		resp := rpc.Response{JSONRPC: "2.0", ID: req.ID}
		if err != nil {
			resp.Error = &rpc.RPCError{Code: -32000, Message: err.Error()}
		} else {
			b, _ := json.Marshal(result)
			resp.Result = b
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGatherBlocks(t *testing.T) {
	srv := mockServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getBlockByNumber": func(params []json.RawMessage) (interface{}, error) {
			var heightHex string
			json.Unmarshal(params[0], &heightHex)
			return map[string]interface{}{
				"number":        heightHex,
				"hash":          "0x01",
				"parentHash":    "0x02",
				"timestamp":     "0x5f5e100",
				"miner":         "0x03",
				"gasUsed":       "0x64",
				"gasLimit":      "0xc8",
				"extraData":     "0x",
				"size":          "0x200",
				"logsBloom":     "0x00",
				"transactions":  []string{"0xaa", "0xbb"},
			}, nil
		},
	})
	defer srv.Close()

	client := rpc.NewClient("test", srv.URL, 5*time.Second, 2)
	sched := scheduler.New(1, 4)
	sch, err := schema.Resolve(types.Blocks, types.Binary, nil, nil)
	if err != nil {
		t.Fatalf("resolve schema: %v", err)
	}
	chunk := types.BlockChunk{Start: 100, End: 102}

	b, err := Blocks(context.Background(), client, sched, chunk, sch)
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	if b.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", b.RowCount())
	}
	numCol := b.ColumnByName("block_number")
	if numCol == nil {
		t.Fatalf("missing block_number column")
	}
	for i, want := range []uint64{100, 101, 102} {
		if numCol.Uint64[i] != want {
			t.Fatalf("row %d: block_number = %d, want %d (reassembly order)", i, numCol.Uint64[i], want)
		}
	}
	txCount := b.ColumnByName("transaction_count")
	if txCount.Uint32[0] != 2 {
		t.Fatalf("expected transaction_count 2, got %d", txCount.Uint32[0])
	}
	baseFee := b.ColumnByName("base_fee_per_gas")
	if !baseFee.IsNull(0) {
		t.Fatalf("expected base_fee_per_gas null when baseFeePerGas absent")
	}
}

func TestGatherTransactions(t *testing.T) {
	srv := mockServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getBlockByNumber": func(params []json.RawMessage) (interface{}, error) {
			return map[string]interface{}{
				"number":     "0x64",
				"transactions": []map[string]interface{}{
					{
						"blockNumber":      "0x64",
						"transactionIndex": "0x0",
						"hash":             "0xaa",
						"nonce":            "0x1",
						"from":             "0xf1",
						"to":               "0xd1",
						"value":            "0x1bc16d674ec80000",
						"input":            "0x",
						"gas":              "0x5208",
					},
					{
						"blockNumber":      "0x64",
						"transactionIndex": "0x1",
						"hash":             "0xbb",
						"nonce":            "0x2",
						"from":             "0xf2",
						"to":               "",
						"value":            "0x0",
						"input":            "0x606060",
						"gas":              "0x5208",
					},
				},
			}, nil
		},
	})
	defer srv.Close()

	client := rpc.NewClient("test", srv.URL, 5*time.Second, 2)
	sched := scheduler.New(1, 4)
	sch, err := schema.Resolve(types.Transactions, types.Binary, nil, nil)
	if err != nil {
		t.Fatalf("resolve schema: %v", err)
	}
	chunk := types.BlockChunk{Start: 100, End: 100}

	b, err := Transactions(context.Background(), client, sched, chunk, sch)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if b.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", b.RowCount())
	}
	toCol := b.ColumnByName("to_address")
	if toCol.IsNull(0) {
		t.Fatalf("first tx has a to_address, should not be null")
	}
	if !toCol.IsNull(1) {
		t.Fatalf("second tx is a contract creation, to_address should be null")
	}
}

func TestGatherLogsSubrangesAndSort(t *testing.T) {
	var calls []string
	srv := mockServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getLogs": func(params []json.RawMessage) (interface{}, error) {
			var filter rpc.LogFilter
			json.Unmarshal(params[0], &filter)
			calls = append(calls, filter.FromBlock+"-"+filter.ToBlock)
			// Return logs out of logIndex order to exercise the sort.
			if filter.FromBlock == "0x64" {
				return []map[string]interface{}{
					{"blockNumber": "0x64", "blockHash": "0x1", "transactionHash": "0xaa", "transactionIndex": "0x0", "logIndex": "0x1", "address": "0xad", "topics": []string{"0xe0"}, "data": "0x"},
					{"blockNumber": "0x64", "blockHash": "0x1", "transactionHash": "0xaa", "transactionIndex": "0x0", "logIndex": "0x0", "address": "0xad", "topics": []string{"0xe0"}, "data": "0x"},
				}, nil
			}
			return []map[string]interface{}{}, nil
		},
	})
	defer srv.Close()

	client := rpc.NewClient("test", srv.URL, 5*time.Second, 2)
	sched := scheduler.New(1, 4)
	sch, err := schema.Resolve(types.Logs, types.Binary, nil, nil)
	if err != nil {
		t.Fatalf("resolve schema: %v", err)
	}
	chunk := types.BlockChunk{Start: 100, End: 103}

	b, err := Logs(context.Background(), client, sched, chunk, 2, sch)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 getLogs calls for a 4-block chunk at log_request_size=2, got %d (%v)", len(calls), calls)
	}
	if b.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", b.RowCount())
	}
	logIdx := b.ColumnByName("log_index")
	if logIdx.Uint32[0] != 0 || logIdx.Uint32[1] != 1 {
		t.Fatalf("expected ascending log_index, got %v", logIdx.Uint32)
	}
}
