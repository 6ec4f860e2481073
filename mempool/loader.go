package mempool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/metrics"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// loadRecord is a single successfully-fetched mempool entry awaiting
// layered insertion.
type loadRecord struct {
	ancestorCount uint32
	txid          types.TxId
	data          types.TxBytes
}

// LoaderOption configures Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	concurrency int
}

// WithLoaderConcurrency bounds how many raw-transaction fetches the
// loader runs in parallel. The fetches are I/O-bound against the node's
// RPC server, so this is effectively the RPC client's concurrency cap.
func WithLoaderConcurrency(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// Load performs the initial bulk population of store from client: it
// lists the current mempool, fetches every transaction's bytes in
// parallel, buckets the successful fetches by ancestor-count layer, and
// inserts layer by layer so that every transaction with ancestor-count k
// receives a smaller Seq than every transaction with ancestor-count
// k+1. Within a layer, insertion order is unspecified.
func Load(ctx context.Context, client NodeClient, store *Store, log logger.Logger, opts ...LoaderOption) error {
	cfg := loaderConfig{concurrency: 32}
	for _, opt := range opts {
		opt(&cfg)
	}

	verbose, err := client.RawMempoolVerbose(ctx)
	if err != nil {
		return err
	}
	sizeHint := len(verbose)

	if denom, err := client.MempoolSize(ctx); err == nil {
		sizeHint = denom
	}
	log.Info("starting bulk load", "mempool_size", sizeHint)

	records := fetchAll(ctx, client, verbose, log, sizeHint, cfg.concurrency)
	layers := bucketByLayer(records)

	var total int
	for layer, recs := range layers {
		for _, r := range recs {
			store.Insert(r.txid, r.data)
		}
		total += len(recs)
		log.Debug("inserted bulk-load layer", "layer", layer, "count", len(recs))
	}

	metrics.LoaderProgress.Set(100)
	metrics.StoreSize.Set(float64(store.Size()))
	metrics.StoreCounter.Set(float64(store.Counter()))
	log.Info("bulk load complete", "inserted", total, "listed", len(verbose))
	return nil
}

// fetchAll fetches raw transaction bytes for every listed entry in
// parallel, silently dropping NotFound results (the node evicted the
// transaction between listing and fetch).
func fetchAll(
	ctx context.Context,
	client NodeClient,
	verbose map[types.TxId]uint32,
	log logger.Logger,
	sizeHint int,
	concurrency int,
) []loadRecord {
	type job struct {
		txid          types.TxId
		ancestorCount uint32
	}

	jobs := make(chan job, len(verbose))
	for txid, ac := range verbose {
		jobs <- job{txid: txid, ancestorCount: ac}
	}
	close(jobs)

	results := make(chan loadRecord, len(verbose))
	var wg sync.WaitGroup
	var done int64
	var lastPct int64

	worker := func() {
		defer wg.Done()
		for j := range jobs {
			data, err := client.RawTransactionHex(ctx, j.txid)
			n := atomic.AddInt64(&done, 1)
			if sizeHint > 0 {
				pct := n * 100 / int64(sizeHint)
				if pct > atomic.LoadInt64(&lastPct) {
					atomic.StoreInt64(&lastPct, pct)
					metrics.LoaderProgress.Set(float64(pct))
					log.Debug("bulk load progress", "percent", pct)
				}
			}
			if err != nil {
				if errs.NotFound(err) {
					continue
				}
				log.Warn("skipping transaction after fetch error", "txid", j.txid.String(), "err", err)
				continue
			}
			results <- loadRecord{ancestorCount: j.ancestorCount, txid: j.txid, data: data}
		}
	}

	if concurrency < 1 {
		concurrency = 1
	}
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}
	wg.Wait()
	close(results)

	records := make([]loadRecord, 0, len(verbose))
	for r := range results {
		records = append(records, r)
	}
	return records
}

// bucketByLayer groups records by ancestorCount-1 so layer 0 holds roots
// (ancestor_count == 1). Empty layers between populated ones are kept as
// empty slices so the ascending-index invariant is easy to reason about.
func bucketByLayer(records []loadRecord) [][]loadRecord {
	maxLayer := 0
	for _, r := range records {
		if l := int(r.ancestorCount) - 1; l > maxLayer {
			maxLayer = l
		}
	}

	layers := make([][]loadRecord, maxLayer+1)
	for _, r := range records {
		l := int(r.ancestorCount) - 1
		if l < 0 {
			l = 0
		}
		layers[l] = append(layers[l], r)
	}
	return layers
}
