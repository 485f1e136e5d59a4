package cliopts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmagro/cryo-go/internal/rpc"
	"github.com/dmagro/cryo-go/internal/types"
)

func chainIDServer(t *testing.T, hexChainID string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     int    `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "eth_chainId" {
			t.Fatalf("unexpected method %q", req.Method)
		}
		b, _ := json.Marshal(hexChainID)
		json.NewEncoder(w).Encode(rpc.Response{JSONRPC: "2.0", ID: req.ID, Result: b})
	}))
}

func baseRaw() Raw {
	return Raw{
		Datatypes:   []string{"blocks"},
		BlockTokens: []string{"17000000:17000009"},
		ChunkSize:   5,
		OutputDir:   ".",
		NetworkName: "ethereum",
		LogRequestSize: 1,
	}
}

func TestBuildDerivesNetworkNameFromChainID(t *testing.T) {
	srv := chainIDServer(t, "0x1")
	defer srv.Close()

	raw := baseRaw()
	raw.NetworkName = ""
	client := rpc.NewClient("test", srv.URL, 5*time.Second, 1)

	opts, err := Build(context.Background(), raw, client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.NetworkName != "ethereum" {
		t.Fatalf("expected ethereum, got %q", opts.NetworkName)
	}
}

func TestBuildDerivesFallbackNetworkName(t *testing.T) {
	srv := chainIDServer(t, "0x89")
	defer srv.Close()

	raw := baseRaw()
	raw.NetworkName = ""
	client := rpc.NewClient("test", srv.URL, 5*time.Second, 1)

	opts, err := Build(context.Background(), raw, client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.NetworkName != "network_137" {
		t.Fatalf("expected network_137, got %q", opts.NetworkName)
	}
}

func TestBuildSkipsRPCWhenNetworkNameGiven(t *testing.T) {
	// A client pointed at a closed port: if Build tried eth_chainId here,
	// it would fail. It must not, since --network-name is set.
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	raw := baseRaw()

	opts, err := Build(context.Background(), raw, client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.NetworkName != "ethereum" {
		t.Fatalf("expected ethereum, got %q", opts.NetworkName)
	}
}

func TestBuildResolvesChunksAndSchema(t *testing.T) {
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	opts, err := Build(context.Background(), baseRaw(), client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.BlockChunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(opts.BlockChunks))
	}
	if len(opts.Schemas[types.Blocks]) == 0 {
		t.Fatalf("expected a resolved blocks schema")
	}
	if got := opts.Sort[types.Blocks]; len(got) != 1 || got[0] != "block_number" {
		t.Fatalf("expected default sort [block_number], got %v", got)
	}
}

func TestBuildRejectsCustomSortWithMultipleDatatypes(t *testing.T) {
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	raw := baseRaw()
	raw.Datatypes = []string{"blocks", "logs"}
	raw.Sort = []string{"block_number"}

	if _, err := Build(context.Background(), raw, client); err == nil {
		t.Fatalf("expected error for custom sort with multiple datatypes")
	}
}

func TestBuildRejectsInconsistentConcurrencyTriple(t *testing.T) {
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	raw := baseRaw()
	req, chunks, blocks := uint64(10), uint64(3), uint64(4)
	raw.MaxConcurrentRequests = &req
	raw.MaxConcurrentChunks = &chunks
	raw.MaxConcurrentBlocks = &blocks

	if _, err := Build(context.Background(), raw, client); err == nil {
		t.Fatalf("expected error for 10 != 3*4")
	}
}

func TestBuildRejectsUnknownDatatype(t *testing.T) {
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	raw := baseRaw()
	raw.Datatypes = []string{"bogus"}

	if _, err := Build(context.Background(), raw, client); err == nil {
		t.Fatalf("expected error for unknown datatype")
	}
}

func TestBuildRejectsEmptyIncludeList(t *testing.T) {
	client := rpc.NewClient("test", "http://127.0.0.1:1", 5*time.Second, 0)
	raw := baseRaw()
	raw.IncludeColumns = []string{}

	if _, err := Build(context.Background(), raw, client); err == nil {
		t.Fatalf("expected error for empty include list")
	}
}
