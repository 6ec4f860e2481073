package mempool

import (
	"context"
	"fmt"
	"sync"

	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// fakeClient is an in-memory NodeClient used across this package's
// tests, standing in for a live bitcoind connection.
type fakeClient struct {
	mu       sync.Mutex
	verbose  map[types.TxId]uint32
	txs      map[types.TxId]types.TxBytes
	blocks   map[string][]types.TxId
	missing  map[types.TxId]bool
	sizeHint int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		verbose: make(map[types.TxId]uint32),
		txs:     make(map[types.TxId]types.TxBytes),
		blocks:  make(map[string][]types.TxId),
		missing: make(map[types.TxId]bool),
	}
}

func (f *fakeClient) addTx(id types.TxId, ancestorCount uint32, data types.TxBytes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verbose[id] = ancestorCount
	f.txs[id] = data
}

func (f *fakeClient) setBlock(hash string, ids ...types.TxId) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[hash] = ids
}

func (f *fakeClient) markMissing(id types.TxId) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[id] = true
}

func (f *fakeClient) RawMempoolVerbose(ctx context.Context) (map[types.TxId]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[types.TxId]uint32, len(f.verbose))
	for k, v := range f.verbose {
		out[k] = v
	}
	return out, nil
}

func (f *fakeClient) RawTransactionHex(ctx context.Context, id types.TxId) (types.TxBytes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[id] {
		return nil, errs.New(errs.KindNotFound, "not found", nil)
	}
	data, ok := f.txs[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "not found", nil)
	}
	return data, nil
}

func (f *fakeClient) BlockTxIds(ctx context.Context, blockHash string) ([]types.TxId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, ok := f.blocks[blockHash]
	if !ok {
		return nil, fmt.Errorf("unknown block %s", blockHash)
	}
	return ids, nil
}

func (f *fakeClient) MempoolSize(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sizeHint > 0 {
		return f.sizeHint, nil
	}
	return len(f.verbose), nil
}

var _ NodeClient = (*fakeClient)(nil)

// fakeLogger is a no-op logger.Logger used to keep tests quiet.
type fakeLogger struct{}

func (fakeLogger) SetToDebug()                           {}
func (fakeLogger) SetToInfo()                            {}
func (fakeLogger) SetToError()                           {}
func (f fakeLogger) Module(string) logger.Logger         { return f }
func (fakeLogger) Debug(string, ...interface{})          {}
func (fakeLogger) Info(string, ...interface{})           {}
func (fakeLogger) Warn(string, ...interface{})           {}
func (fakeLogger) Error(string, ...interface{})          {}
func (fakeLogger) Fatal(string, ...interface{})          {}

var _ logger.Logger = fakeLogger{}
