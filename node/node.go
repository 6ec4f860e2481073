// Package node wires the core components into a running process (C7):
// it owns the node RPC client, the sequence listener, the bulk loader,
// the incremental updater, and the HTTP streamer, and sequences their
// startup and shutdown per the documented ordering.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dev7ba/mempool-server/config"
	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/httpapi"
	"github.com/dev7ba/mempool-server/mempool"
	"github.com/dev7ba/mempool-server/pkgs/logger"
	"github.com/dev7ba/mempool-server/rpcclient"
	"github.com/dev7ba/mempool-server/seqlistener"
)

// healthWaitInterval is how often startup polls the node while waiting
// for it to report healthy.
const healthWaitInterval = 5 * time.Second

// healthWaitConsecutiveOK is how many consecutive healthy readings
// startup requires before proceeding.
const healthWaitConsecutiveOK = 2

// Node is the assembled process: every long-lived component plus the
// glue that starts and stops them in order.
type Node struct {
	cfg *config.AppConfig
	log logger.Logger

	client   *rpcclient.Client
	store    *mempool.Store
	listener *seqlistener.Listener
	updater  *mempool.Updater
	http     *httpapi.Server
}

// New assembles a Node from cfg without starting anything.
func New(cfg *config.AppConfig) (*Node, error) {
	log := cfg.G().Log

	client, err := rpcclient.New(cfg.BitcoindClient)
	if err != nil {
		return nil, err
	}

	store := mempool.NewStore()
	listener := seqlistener.New(cfg.BitcoindClient.Endpoint(), 1024, log)
	timeout := time.Duration(cfg.BitcoindClient.WaitTimeoutSeconds()) * time.Second
	updater := mempool.NewUpdater(store, client, log, timeout)
	server := httpapi.New(cfg.HTTP.ListenAddr, cfg.MountPrefix(), store, log)

	return &Node{
		cfg:      cfg,
		log:      log.Module("node"),
		client:   client,
		store:    store,
		listener: listener,
		updater:  updater,
		http:     server,
	}, nil
}

// Run executes the full startup sequence, blocks until an OS signal or
// a fatal component error arrives, then performs an orderly shutdown.
// It returns a process exit code: 0 for a clean shutdown (an OS signal,
// or the updater stopping on a receive-timeout stall), non-zero for a
// fatal startup error or a fatal abort of the HTTP streamer or the
// updater (such as an EventStreamFatal event).
func (n *Node) Run(ctx context.Context) int {
	if err := n.waitForHealthyNode(ctx); err != nil {
		n.log.Error("node health check failed", "err", err)
		return 1
	}

	if err := n.listener.Start(ctx); err != nil {
		n.log.Error("failed to start sequence listener", "err", err)
		return 1
	}

	if err := mempool.Load(ctx, n.client, n.store, n.log); err != nil {
		n.log.Error("bulk load failed", "err", err)
		n.listener.Stop()
		return 1
	}

	go n.updater.Run(n.listener.Events())

	httpErrCh := make(chan error, 1)
	go func() {
		if err := n.http.ListenAndServe(); err != nil && !isServerClosed(err) {
			httpErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigCh:
		n.log.Info("shutdown signal received")
	case err := <-httpErrCh:
		n.log.Error("http streamer failed", "err", err)
		exitCode = 1
	case <-n.updaterStalled():
		err := n.updater.Err()
		n.log.Error("updater stopped", "err", err)
		if errs.Fatal(err) {
			exitCode = 1
		}
	}

	n.shutdown()
	return exitCode
}

// waitForHealthyNode polls Health until healthWaitConsecutiveOK readings
// in a row succeed, per the documented startup order. A NodePrecondition
// error (missing transaction index) is fatal immediately rather than
// retried, since retrying cannot fix it.
func (n *Node) waitForHealthyNode(ctx context.Context) error {
	consecutive := 0
	for {
		err := n.client.Health(ctx)
		if err == nil {
			consecutive++
			if consecutive >= healthWaitConsecutiveOK {
				return nil
			}
		} else {
			if errs.Is(err, errs.KindNodePrecondition) {
				return err
			}
			consecutive = 0
			n.log.Warn("node not yet healthy", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(healthWaitInterval):
		}
	}
}

// updaterStalled returns a channel that closes once the updater's Run
// goroutine has exited, whether from a stall, a fatal event, or a clean
// channel close.
func (n *Node) updaterStalled() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		n.updater.Wait()
		close(ch)
	}()
	return ch
}

// shutdown performs the documented teardown order: stop the HTTP
// acceptor, stop and join the updater, then stop and join the listener.
func (n *Node) shutdown() {
	n.log.Info("shutting down")
	n.http.Close()

	n.updater.Stop()
	n.updater.Wait()

	n.listener.Stop()
	n.listener.Wait()

	n.client.Shutdown()
	n.log.Info("shutdown complete")
}

func isServerClosed(err error) bool {
	return err != nil && err.Error() == "http: Server closed"
}

// ExitMessage renders a human-directed explanation for a fatal startup
// error, per the documented exit-code contract.
func ExitMessage(err error) string {
	if errs.Is(err, errs.KindNodePrecondition) {
		return fmt.Sprintf("node is reachable but unusable: %s", err)
	}
	return fmt.Sprintf("fatal startup error: %s", err)
}
