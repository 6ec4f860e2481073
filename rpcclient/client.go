// Package rpcclient implements the node RPC client (C1): a synchronous
// request/response wrapper around a bitcoind-compatible JSON-RPC
// endpoint, built on github.com/btcsuite/btcd/rpcclient. It is the only
// concrete implementation of mempool.NodeClient shipped by this module.
package rpcclient

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/dev7ba/mempool-server/config"
	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/mempool/types"
)

// Client adapts *rpcclient.Client to mempool.NodeClient.
type Client struct {
	rpc *rpcclient.Client
}

// New dials a bitcoind-compatible node per cfg. Cookie authentication
// takes precedence over user/password when CookieAuthPath is set: the
// btcd rpcclient has no native concept of bitcoind's cookie file, so
// its contents (format "user:password") are read once at construction
// time and fed in as plain User/Pass credentials.
func New(cfg config.BitcoindClientConfig) (*Client, error) {
	user, pass := cfg.User, cfg.Passwd
	if cfg.UseCookie() {
		var err error
		user, pass, err = readCookie(cfg.CookieAuthPath)
		if err != nil {
			return nil, errs.New(errs.KindNodeUnreachable, "failed to read cookie auth file", err)
		}
	}

	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.IPAddr,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true,
		DisableTLS:   true,
	}

	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, errs.New(errs.KindNodeUnreachable, "failed to construct RPC client", err)
	}
	return &Client{rpc: rpc}, nil
}

// readCookie parses bitcoind's ".cookie" auth file, a single line of
// the form "user:password".
func readCookie(path string) (user, pass string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), ":", 2)
	if len(parts) != 2 {
		return "", "", errs.New(errs.KindConfig, "malformed cookie auth file", nil)
	}
	return parts[0], parts[1], nil
}

// Shutdown releases the underlying connection.
func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}

// Health reports whether the node is reachable and has a transaction
// index enabled, per the C1 contract. A missing transaction index is
// reported as errs.KindNodePrecondition since it is fatal for this
// program's purpose but not a connectivity failure.
func (c *Client) Health(ctx context.Context) error {
	raw, err := c.rpc.RawRequest("getindexinfo", nil)
	if err != nil {
		if _, ok := err.(*btcjson.RPCError); ok {
			return errs.New(errs.KindRPCProtocol, "getindexinfo failed", err)
		}
		return errs.New(errs.KindNodeUnreachable, "node unreachable", err)
	}

	var indexes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &indexes); err != nil {
		return errs.New(errs.KindRPCProtocol, "malformed getindexinfo response", err)
	}
	if _, ok := indexes["txindex"]; !ok {
		return errs.New(errs.KindNodePrecondition, "node is missing a transaction index (txindex=1 required)", nil)
	}
	return nil
}

// RawMempoolVerbose implements mempool.NodeClient.
func (c *Client) RawMempoolVerbose(ctx context.Context) (map[types.TxId]uint32, error) {
	verbose, err := c.rpc.GetRawMempoolVerbose()
	if err != nil {
		return nil, errs.New(errs.KindNodeUnreachable, "getrawmempool verbose failed", err)
	}

	out := make(map[types.TxId]uint32, len(verbose))
	for hexID, entry := range verbose {
		txid, err := types.TxIdFromHex(hexID)
		if err != nil {
			return nil, errs.New(errs.KindRPCProtocol, "node returned a malformed txid", err)
		}
		out[txid] = uint32(entry.AncestorCount)
	}
	return out, nil
}

// RawTransactionHex implements mempool.NodeClient.
func (c *Client) RawTransactionHex(ctx context.Context, id types.TxId) (types.TxBytes, error) {
	hash, err := chainhash.NewHashFromStr(id.String())
	if err != nil {
		return nil, errs.New(errs.KindRPCProtocol, "invalid txid", err)
	}

	result, err := c.rpc.GetRawTransactionVerbose(hash)
	if err != nil {
		if isNotFoundRPCErr(err) {
			return nil, errs.New(errs.KindNotFound, "transaction not found", err)
		}
		return nil, errs.New(errs.KindNodeUnreachable, "getrawtransaction failed", err)
	}

	bytes, err := hexDecode(result.Hex)
	if err != nil {
		return nil, errs.New(errs.KindRPCProtocol, "node returned malformed transaction hex", err)
	}
	return bytes, nil
}

// BlockTxIds implements mempool.NodeClient.
func (c *Client) BlockTxIds(ctx context.Context, blockHash string) ([]types.TxId, error) {
	hash, err := chainhash.NewHashFromStr(blockHash)
	if err != nil {
		return nil, errs.New(errs.KindRPCProtocol, "invalid block hash", err)
	}

	block, err := c.rpc.GetBlock(hash)
	if err != nil {
		if isNotFoundRPCErr(err) {
			return nil, errs.New(errs.KindNotFound, "block not found", err)
		}
		return nil, errs.New(errs.KindNodeUnreachable, "getblock failed", err)
	}

	ids := make([]types.TxId, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		txid, err := types.TxIdFromHex(tx.TxHash().String())
		if err != nil {
			return nil, errs.New(errs.KindRPCProtocol, "node returned a malformed txid", err)
		}
		ids = append(ids, txid)
	}
	return ids, nil
}

// MempoolSize implements mempool.NodeClient.
func (c *Client) MempoolSize(ctx context.Context) (int, error) {
	info, err := c.rpc.GetMempoolInfo()
	if err != nil {
		return 0, errs.New(errs.KindNodeUnreachable, "getmempoolinfo failed", err)
	}
	return int(info.Size), nil
}

// isNotFoundRPCErr reports whether err is bitcoind's "No such mempool or
// blockchain transaction" / "Block not found" class of RPC error
// (RPC_INVALID_ADDRESS_OR_KEY, code -5).
func isNotFoundRPCErr(err error) bool {
	rpcErr, ok := err.(*btcjson.RPCError)
	if !ok {
		return false
	}
	return rpcErr.Code == btcjson.ErrRPCInvalidAddressOrKey
}

func hexDecode(s string) (types.TxBytes, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}
