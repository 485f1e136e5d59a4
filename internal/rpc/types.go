// Package rpc is the typed JSON-RPC gateway (spec §4.3): a uniform surface
// over eth_getBlockByNumber, eth_getTransactionReceipt and eth_getLogs,
// plus eth_chainId for network-name derivation.
//
// The envelope types and hex-parsing helpers are carried over from the
// teacher's internal/rpc/types.go and internal/rpc/format.go: Ethereum's
// JSON-RPC wire format encodes every integer as a hex string, and
// json.RawMessage is used to defer decoding "result" until the caller
// knows what shape to expect.
package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope. Result is left raw because
// its shape depends on which method was called.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 level error (as opposed to a transport-level
// HTTP/network failure).
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ParseHexUint64 converts a "0x..."-prefixed (or bare) hex string to a
// uint64. An empty string parses to 0 — callers that need to distinguish
// "absent" from "zero" must check the raw string themselves before calling
// this (see gather's base-fee handling).
func ParseHexUint64(hexStr string) (uint64, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return 0, nil
	}
	val := new(big.Int)
	if _, ok := val.SetString(hexStr, 16); !ok {
		return 0, fmt.Errorf("invalid hex string: %s", hexStr)
	}
	if !val.IsUint64() {
		return 0, fmt.Errorf("value overflows uint64: %s", hexStr)
	}
	return val.Uint64(), nil
}

// ParseHexBigInt converts a "0x..."-prefixed hex string to a *big.Int,
// sized for u256 values (wei amounts) that can exceed uint64.
func ParseHexBigInt(hexStr string) (*big.Int, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return big.NewInt(0), nil
	}
	val := new(big.Int)
	if _, ok := val.SetString(hexStr, 16); !ok {
		return nil, fmt.Errorf("invalid hex string: %s", hexStr)
	}
	return val, nil
}

// ParseHexBytes decodes a "0x..."-prefixed hex string into raw bytes.
func ParseHexBytes(hexStr string) ([]byte, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")
	if hexStr == "" {
		return []byte{}, nil
	}
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}
	return hex.DecodeString(hexStr)
}

// Uint64ToHex converts a uint64 to a "0x"-prefixed hex string, the format
// eth_getBlockByNumber and friends expect for block-height parameters.
func Uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// BlockWire is the raw wire shape of an eth_getBlockByNumber result. All
// numeric fields arrive hex-encoded. TransactionsRaw is decoded by the
// caller once it knows whether it asked for hashes or full objects.
type BlockWire struct {
	Number          string          `json:"number"`
	Hash            string          `json:"hash"`
	ParentHash      string          `json:"parentHash"`
	Timestamp       string          `json:"timestamp"`
	Miner           string          `json:"miner"`
	GasUsed         string          `json:"gasUsed"`
	GasLimit        string          `json:"gasLimit"`
	ExtraData       string          `json:"extraData"`
	BaseFeePerGas   string          `json:"baseFeePerGas,omitempty"`
	Size            string          `json:"size"`
	LogsBloom       string          `json:"logsBloom"`
	TransactionsRaw json.RawMessage `json:"transactions"`
}

// TransactionWire is the raw wire shape of a transaction object embedded
// in a full block (include_txs=true).
type TransactionWire struct {
	BlockNumber          string `json:"blockNumber"`
	TransactionIndex     string `json:"transactionIndex"`
	Hash                 string `json:"hash"`
	Nonce                string `json:"nonce"`
	From                 string `json:"from"`
	To                   string `json:"to"`
	Value                string `json:"value"`
	Input                string `json:"input"`
	Gas                  string `json:"gas"`
	GasPrice             string `json:"gasPrice,omitempty"`
	Type                 string `json:"type,omitempty"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         string `json:"maxFeePerGas,omitempty"`
	ChainID              string `json:"chainId,omitempty"`
}

// LogWire is the raw wire shape of one entry returned by eth_getLogs.
type LogWire struct {
	BlockNumber      string   `json:"blockNumber"`
	BlockHash        string   `json:"blockHash"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	LogIndex         string   `json:"logIndex"`
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	Removed          bool     `json:"removed"`
}

// LogFilter is the parameter object for eth_getLogs.
type LogFilter struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Address   []string `json:"address,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}
