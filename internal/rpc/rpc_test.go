package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseHexUint64(t *testing.T) {
	cases := map[string]uint64{
		"0x0":       0,
		"0x1":       1,
		"":          0,
		"0x14a0b3f": 21629759,
	}
	for in, want := range cases {
		got, err := ParseHexUint64(in)
		if err != nil {
			t.Fatalf("ParseHexUint64(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseHexUint64(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseHexUint64Invalid(t *testing.T) {
	if _, err := ParseHexUint64("0xzz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}

func TestUint64ToHexRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 17000000, 1 << 40} {
		got, err := ParseHexUint64(Uint64ToHex(n))
		if err != nil {
			t.Fatalf("round trip %d: %v", n, err)
		}
		if got != n {
			t.Fatalf("round trip %d: got %d", n, got)
		}
	}
}

func TestParseHexBytes(t *testing.T) {
	b, err := ParseHexBytes("0xdeadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b) != 4 || b[0] != 0xde || b[3] != 0xef {
		t.Fatalf("unexpected bytes: %x", b)
	}
}

// mockRPCServer returns a handler that serves canned responses per method.
func mockRPCServer(t *testing.T, handlers map[string]func(params []json.RawMessage) (interface{}, error)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int               `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		h, ok := handlers[req.Method]
		if !ok {
			t.Fatalf("unexpected method %q", req.Method)
		}
		result, err := h(req.Params)
		resp := Response{JSONRPC: "2.0", ID: req.ID}
		if err != nil {
			resp.Error = &RPCError{Code: -32000, Message: err.Error()}
		} else {
			b, _ := json.Marshal(result)
			resp.Result = b
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClientGetBlockByNumber(t *testing.T) {
	srv := mockRPCServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getBlockByNumber": func(params []json.RawMessage) (interface{}, error) {
			return map[string]interface{}{
				"number":       "0x103d760",
				"hash":         "0xabc",
				"parentHash":   "0xdef",
				"timestamp":    "0x5f5",
				"miner":        "0x1",
				"gasUsed":      "0x10",
				"gasLimit":     "0x20",
				"extraData":    "0x",
				"size":         "0x100",
				"logsBloom":    "0x0",
				"transactions": []string{"0x1", "0x2"},
			}, nil
		},
	})
	defer srv.Close()

	client := NewClient("test", srv.URL, 5*time.Second, 2)
	block, err := client.GetBlockByNumber(context.Background(), 17000032, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hashes, err := block.TransactionHashes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 tx hashes, got %d", len(hashes))
	}
}

func TestClientGetBlockByNumberNull(t *testing.T) {
	srv := mockRPCServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getBlockByNumber": func(params []json.RawMessage) (interface{}, error) {
			return nil, nil
		},
	})
	defer srv.Close()
	// nil result marshals to "null", matching the pruned/non-existent case.
	client := NewClient("test", srv.URL, 5*time.Second, 2)
	if _, err := client.GetBlockByNumber(context.Background(), 999, false); err == nil {
		t.Fatalf("expected error for null block result")
	}
}

func TestClientRetryExhaustion(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL, 2*time.Second, 2)
	_, err := client.Retry(context.Background(), "eth_blockNumber")
	if err == nil {
		t.Fatalf("expected error after retry exhaustion")
	}
	if calls < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", calls)
	}
}

func TestClientDoesNotRetryRPCLevelError(t *testing.T) {
	calls := 0
	srv := mockRPCServer(t, map[string]func([]json.RawMessage) (interface{}, error){
		"eth_getLogs": func(params []json.RawMessage) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("execution reverted")
		},
	})
	defer srv.Close()

	client := NewClient("test", srv.URL, 2*time.Second, 5)
	_, err := client.GetLogs(context.Background(), 1, 2)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable RPC error, got %d", calls)
	}
}
