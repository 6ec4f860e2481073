// Package seqlistener implements the sequence listener (C2): a ZMQ
// subscriber against a bitcoind-compatible node's "sequence"
// notification topic, decoding raw frames into the mempool package's
// event tagged union and delivering them to a single consumer over a
// bounded channel.
package seqlistener

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"

	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/mempool/types"
	"github.com/dev7ba/mempool-server/pkgs/logger"
)

const sequenceTopic = "sequence"

// label identifies which kind of notification a "sequence" topic
// message carries, per bitcoind's zmqpubsequence wire format.
type label byte

const (
	labelBlockConnected    label = 'C'
	labelBlockDisconnected label = 'D'
	labelTxRemoved         label = 'R'
	labelTxAdded           label = 'A'
)

// Listener owns a single ZMQ SUB socket and republishes decoded events
// onto a bounded channel for C5 to drain.
type Listener struct {
	endpoint string
	log      logger.Logger

	out     chan types.Event
	stopped int32
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New constructs a Listener that will subscribe to endpoint once
// Start is called. bufSize bounds the output channel.
func New(endpoint string, bufSize int, log logger.Logger) *Listener {
	if bufSize < 1 {
		bufSize = 64
	}
	return &Listener{
		endpoint: endpoint,
		log:      log.Module("seqlistener"),
		out:      make(chan types.Event, bufSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Events returns the channel events are delivered on. It is closed once
// the producer goroutine exits.
func (l *Listener) Events() <-chan types.Event {
	return l.out
}

// Start dials the ZMQ endpoint, subscribes to the sequence topic, and
// begins the producer goroutine. The first event the consumer observes
// in a healthy session is always SeqStart.
func (l *Listener) Start(ctx context.Context) error {
	sock := zmq4.NewSub(ctx)
	if err := sock.Dial(l.endpoint); err != nil {
		return errs.New(errs.KindNodeUnreachable, fmt.Sprintf("failed to dial zmq endpoint %s", l.endpoint), err)
	}
	if err := sock.SetOption(zmq4.OptionSubscribe, sequenceTopic); err != nil {
		sock.Close()
		return errs.New(errs.KindNodeUnreachable, "failed to subscribe to sequence topic", err)
	}

	go l.run(sock)
	return nil
}

// run is the producer loop: the socket's owning goroutine. It exits
// when the stop flag is set or the socket read fails fatally, closing
// out so the consumer sees channel closure as end-of-stream.
func (l *Listener) run(sock zmq4.Socket) {
	defer close(l.done)
	defer close(l.out)
	defer sock.Close()

	l.deliver(types.NewSeqStart(true))

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		msg, err := sock.Recv()
		if err != nil {
			if atomic.LoadInt32(&l.stopped) == 1 {
				return
			}
			l.log.Error("zmq receive failed", "err", err)
			l.deliver(types.NewSeqError(errs.New(errs.KindEventStreamFatal, "zmq receive failed", err)))
			return
		}

		ev, ok := decode(msg.Frames)
		if !ok {
			l.log.Warn("dropping undecodable sequence frame")
			continue
		}
		l.deliver(ev)
	}
}

// deliver sends ev to the output channel unless a stop has already been
// requested, in which case it is dropped rather than blocking forever
// against a consumer that has stopped reading.
func (l *Listener) deliver(ev types.Event) {
	select {
	case l.out <- ev:
	case <-l.stop:
	}
}

// Stop requests the producer goroutine exit. It does not block; it is
// safe to call more than once.
func (l *Listener) Stop() {
	l.once.Do(func() {
		atomic.StoreInt32(&l.stopped, 1)
		close(l.stop)
	})
}

// Wait blocks until the producer goroutine has exited.
func (l *Listener) Wait() {
	<-l.done
}

// decode parses one "sequence" topic multipart message into an Event.
// Wire layout: frame0 = "sequence", frame1 = 32-byte hash || 1-byte
// label || (8-byte little-endian mempool sequence, labels 'A'/'R'
// only), frame2 = 4-byte internal zmq sequence counter (ignored).
func decode(frames [][]byte) (types.Event, bool) {
	if len(frames) < 2 || string(frames[0]) != sequenceTopic {
		return types.Event{}, false
	}
	body := frames[1]
	if len(body) < 33 {
		return types.Event{}, false
	}

	hash := reverseHash(body[:32])
	lbl := label(body[32])

	switch lbl {
	case labelBlockConnected:
		return types.NewBlockConnection(hash), true
	case labelBlockDisconnected:
		return types.NewBlockDisconnection(hash), true
	case labelTxAdded:
		txid, err := types.TxIdFromHex(hash)
		if err != nil {
			return types.Event{}, false
		}
		return types.NewTxAdded(txid), true
	case labelTxRemoved:
		txid, err := types.TxIdFromHex(hash)
		if err != nil {
			return types.Event{}, false
		}
		return types.NewTxRemoved(txid), true
	default:
		return types.Event{}, false
	}
}

// reverseHash converts bitcoind's internal (little-endian) hash byte
// order into the big-endian hex string used everywhere else (RPC
// results, TxId.String()).
func reverseHash(b []byte) string {
	rev := make([]byte, len(b))
	for i, c := range b {
		rev[len(b)-1-i] = c
	}
	return fmt.Sprintf("%x", rev)
}

// mempoolSeqNumber extracts the trailing 8-byte little-endian mempool
// sequence number carried by 'A'/'R' labelled messages. It is not
// currently surfaced on the Event type since C3's own Seq already
// totally orders arrivals, but is kept available for diagnostics.
func mempoolSeqNumber(body []byte) (uint64, bool) {
	if len(body) < 41 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(body[33:41]), true
}
