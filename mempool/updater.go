package mempool

import (
	"context"
	"sync"
	"time"

	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/metrics"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// updaterState is the lifecycle of a single Updater run.
type updaterState int

const (
	stateInit updaterState = iota
	stateRunning
	stateDraining
	stateStopped
)

// Updater is the single-consumer incremental applier (C5): it drains a
// channel of types.Event produced by the sequence listener (C2) and
// applies each one to a Store. It runs its own goroutine and never
// touches the store concurrently with itself, so every Store mutation it
// performs is linearized with respect to the events it has already
// applied.
type Updater struct {
	store   *Store
	client  NodeClient
	log     logger.Logger
	timeout time.Duration

	mu    sync.Mutex
	state updaterState
	stop  chan struct{}
	done  chan struct{}
	errCh chan error
}

// NewUpdater constructs an Updater bound to store, using client to
// resolve block connections/disconnections into their member
// transactions. timeout is the maximum time the updater will wait for
// the next event before treating the stream as stalled (errs.KindStall).
func NewUpdater(store *Store, client NodeClient, log logger.Logger, timeout time.Duration) *Updater {
	return &Updater{
		store:   store,
		client:  client,
		log:     log.Module("updater"),
		timeout: timeout,
		state:   stateInit,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		errCh:   make(chan error, 1),
	}
}

// Run drains events until events is closed, Stop is called, or a
// receive-timeout/fatal event occurs. It blocks until the updater
// reaches stateStopped. Run must only be called once per Updater.
func (u *Updater) Run(events <-chan types.Event) {
	u.mu.Lock()
	u.state = stateRunning
	u.mu.Unlock()
	defer close(u.done)

	for {
		select {
		case <-u.stop:
			u.transitionTo(stateDraining)
			u.drainRemaining(events)
			u.transitionTo(stateStopped)
			return

		case ev, ok := <-events:
			if !ok {
				u.transitionTo(stateStopped)
				return
			}
			if err := u.apply(ev); err != nil {
				u.reportFatal(err)
				u.transitionTo(stateStopped)
				return
			}

		case <-time.After(u.timeout):
			u.reportFatal(errs.New(errs.KindStall, "no sequence event received within timeout", nil))
			u.transitionTo(stateStopped)
			return
		}
	}
}

// drainRemaining applies any events already buffered in the channel
// without blocking, honoring a graceful shutdown's "flush what's queued"
// contract.
func (u *Updater) drainRemaining(events <-chan types.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := u.apply(ev); err != nil {
				u.log.Warn("error applying event during drain", "err", err)
			}
		default:
			return
		}
	}
}

// apply dispatches a single event to the store.
func (u *Updater) apply(ev types.Event) error {
	metrics.UpdaterEventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	defer func() {
		metrics.StoreSize.Set(float64(u.store.Size()))
		metrics.StoreCounter.Set(float64(u.store.Counter()))
	}()

	switch ev.Kind {
	case types.EventSeqStart:
		if ev.AlreadyWorking {
			u.log.Info("sequence stream session started")
			return nil
		}
		return errs.New(errs.KindEventStreamFatal, "bitcoind reported not working at sequence stream start", nil)

	case types.EventSeqError:
		return errs.New(errs.KindEventStreamFatal, "sequence stream reported an error", ev.Err)

	case types.EventTxAdded:
		return u.fetchAndInsert(ev.TxId)

	case types.EventTxRemoved:
		u.store.Remove(ev.TxId)
		return nil

	case types.EventBlockConnection:
		return u.applyBlockConnection(ev.BlockHash)

	case types.EventBlockDisconnection:
		return u.applyBlockDisconnection(ev.BlockHash)

	default:
		return nil
	}
}

// fetchAndInsert resolves a newly-accepted transaction's bytes and
// inserts it. A NotFound error (the transaction was already evicted by
// the time we asked) is swallowed, matching the loader's policy.
func (u *Updater) fetchAndInsert(txid types.TxId) error {
	data, err := u.client.RawTransactionHex(context.Background(), txid)
	if err != nil {
		if errs.NotFound(err) {
			return nil
		}
		return err
	}
	u.store.Insert(txid, data)
	return nil
}

// applyBlockConnection removes every transaction the newly-connected
// block confirmed; those transactions have left the mempool.
func (u *Updater) applyBlockConnection(blockHash string) error {
	txids, err := u.client.BlockTxIds(context.Background(), blockHash)
	if err != nil {
		return err
	}
	for _, id := range txids {
		u.store.Remove(id)
	}
	u.log.Debug("block connected", "hash", blockHash, "confirmed", len(txids))
	return nil
}

// applyBlockDisconnection re-inserts every transaction the disconnected
// block had confirmed; a reorg returns them to the mempool. Transactions
// are inserted in the block's listed order, so their relative Seq order
// matches block.tx order.
func (u *Updater) applyBlockDisconnection(blockHash string) error {
	txids, err := u.client.BlockTxIds(context.Background(), blockHash)
	if err != nil {
		return err
	}
	restored := 0
	for _, id := range txids {
		if err := u.fetchAndInsert(id); err != nil {
			return err
		}
		if _, ok := u.store.Lookup(id); ok {
			restored++
		}
	}
	u.log.Debug("block disconnected", "hash", blockHash, "restored", restored)
	return nil
}

// Stop requests a graceful shutdown: the updater drains whatever is
// already buffered on its input channel, then stops. Stop does not
// block; call Wait to block until the updater has fully stopped.
func (u *Updater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	select {
	case <-u.stop:
	default:
		close(u.stop)
	}
}

// Wait blocks until Run has returned.
func (u *Updater) Wait() {
	<-u.done
}

// Err returns the error that caused the updater to stop, if any. It is
// only meaningful after Wait returns.
func (u *Updater) Err() error {
	select {
	case err := <-u.errCh:
		return err
	default:
		return nil
	}
}

func (u *Updater) reportFatal(err error) {
	u.log.Error("updater stopping", "err", err)
	kind := "unknown"
	var classified *errs.Error
	if e, ok := err.(*errs.Error); ok {
		classified = e
		kind = classified.Kind.String()
	}
	metrics.UpdaterErrorsTotal.WithLabelValues(kind).Inc()
	select {
	case u.errCh <- err:
	default:
	}
}

func (u *Updater) transitionTo(s updaterState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}

// State reports the updater's current lifecycle phase, exposed for
// tests and health reporting.
func (u *Updater) State() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch u.state {
	case stateInit:
		return "init"
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
