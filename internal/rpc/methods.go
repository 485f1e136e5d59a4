package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// ChainID calls eth_chainId, used by network-name derivation at startup
// (spec §6: "Network auto-naming").
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	resp, err := c.Retry(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	var hexStr string
	if err := json.Unmarshal(resp.Result, &hexStr); err != nil {
		return 0, fmt.Errorf("parse chainId: %w", err)
	}
	return ParseHexUint64(hexStr)
}

// GetBlockByNumber calls eth_getBlockByNumber. When includeTxs is true the
// "transactions" field of the result holds full transaction objects;
// otherwise it holds transaction hash strings only.
func (c *Client) GetBlockByNumber(ctx context.Context, height uint64, includeTxs bool) (*BlockWire, error) {
	resp, err := c.Retry(ctx, "eth_getBlockByNumber", Uint64ToHex(height), includeTxs)
	if err != nil {
		return nil, err
	}
	if string(resp.Result) == "null" {
		return nil, fmt.Errorf("block %d: node returned null (non-existent or pruned)", height)
	}
	var block BlockWire
	if err := json.Unmarshal(resp.Result, &block); err != nil {
		return nil, fmt.Errorf("parse block %d: %w", height, err)
	}
	return &block, nil
}

// TransactionsFull decodes BlockWire.TransactionsRaw as full transaction
// objects. Only valid to call when the block was fetched with
// includeTxs=true.
func (b *BlockWire) TransactionsFull() ([]TransactionWire, error) {
	var txs []TransactionWire
	if err := json.Unmarshal(b.TransactionsRaw, &txs); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	return txs, nil
}

// TransactionHashes decodes BlockWire.TransactionsRaw as transaction hash
// strings, used when includeTxs=false.
func (b *BlockWire) TransactionHashes() ([]string, error) {
	var hashes []string
	if err := json.Unmarshal(b.TransactionsRaw, &hashes); err != nil {
		return nil, fmt.Errorf("parse transaction hashes: %w", err)
	}
	return hashes, nil
}

// GetLogs calls eth_getLogs over an inclusive block range.
func (c *Client) GetLogs(ctx context.Context, fromBlock, toBlock uint64) ([]LogWire, error) {
	filter := LogFilter{
		FromBlock: Uint64ToHex(fromBlock),
		ToBlock:   Uint64ToHex(toBlock),
	}
	resp, err := c.Retry(ctx, "eth_getLogs", filter)
	if err != nil {
		return nil, err
	}
	var logs []LogWire
	if err := json.Unmarshal(resp.Result, &logs); err != nil {
		return nil, fmt.Errorf("parse logs [%d,%d]: %w", fromBlock, toBlock, err)
	}
	return logs, nil
}

// ReceiptWire is the raw wire shape of an eth_getTransactionReceipt
// result. It is part of the gateway's typed surface (spec §4.3); no
// gatherer calls GetTransactionReceipt, since none of the
// Blocks/Transactions/Logs schemas in spec §4.4 use receipt fields.
type ReceiptWire struct {
	BlockNumber       string    `json:"blockNumber"`
	TransactionHash   string    `json:"transactionHash"`
	TransactionIndex  string    `json:"transactionIndex"`
	GasUsed           string    `json:"gasUsed"`
	Status            string    `json:"status"`
	Logs              []LogWire `json:"logs"`
}

// GetTransactionReceipt calls eth_getTransactionReceipt.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash string) (*ReceiptWire, error) {
	resp, err := c.Retry(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if string(resp.Result) == "null" {
		return nil, fmt.Errorf("transaction %s: receipt not found", txHash)
	}
	var receipt ReceiptWire
	if err := json.Unmarshal(resp.Result, &receipt); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", txHash, err)
	}
	return &receipt, nil
}
