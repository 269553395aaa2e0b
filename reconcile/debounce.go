// Package reconcile persists page snapshots on a trailing-edge debounce.
//
// Each page has at most one pending write. Scheduling again before the
// delay elapses replaces the snapshot and restarts the timer, so only the
// latest full snapshot is sent. Sends run on their own goroutines and are
// not ordered against each other: a slow send can commit after a newer one
// for the same page. Every send carries a per-page sequence number so
// callers can observe that race.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/skridlevsky/pagetree/types"
)

// DefaultDelay is the debounce window.
const DefaultDelay = 500 * time.Millisecond

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("reconcile: debouncer closed")

// Saver is the "replace all blocks for a page" boundary.
type Saver interface {
	ReplaceBlocks(ctx context.Context, pageID string, blocks []types.Block) error
}

// Result reports one completed send.
type Result struct {
	PageID string
	// Seq increases by one per send of the same page, in send order.
	Seq   uint64
	Count int
	Err   error
}

type pendingWrite struct {
	timer  *time.Timer
	blocks []types.Block
}

// Debouncer coalesces snapshots per page and hands them to a Saver.
type Debouncer struct {
	saver    Saver
	delay    time.Duration
	onResult func(Result)
	logger   *slog.Logger

	mu       sync.Mutex
	pending  map[string]*pendingWrite
	seq      map[string]uint64
	inflight map[chan struct{}]struct{}
	closed   bool
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithDelay sets the debounce window (default 500ms).
func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) { db.delay = d }
}

// OnResult registers a callback invoked after every send, on the sending
// goroutine.
func OnResult(fn func(Result)) Option {
	return func(db *Debouncer) { db.onResult = fn }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(db *Debouncer) { db.logger = l }
}

// New creates a Debouncer writing to saver.
func New(saver Saver, opts ...Option) *Debouncer {
	d := &Debouncer{
		saver:    saver,
		delay:    DefaultDelay,
		pending:  make(map[string]*pendingWrite),
		seq:      make(map[string]uint64),
		inflight: make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Schedule queues a snapshot of blocks for pageID, replacing any snapshot
// still waiting for that page and restarting its timer.
func (d *Debouncer) Schedule(pageID string, blocks []types.Block) error {
	snapshot := make([]types.Block, len(blocks))
	for i, b := range blocks {
		snapshot[i] = b.Clone()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if prev, ok := d.pending[pageID]; ok {
		prev.timer.Stop()
	}
	w := &pendingWrite{blocks: snapshot}
	w.timer = time.AfterFunc(d.delay, func() { d.fire(pageID, w) })
	d.pending[pageID] = w
	return nil
}

// fire runs when w's timer expires. A timer that was replaced after it had
// already fired finds another write in the map and does nothing.
func (d *Debouncer) fire(pageID string, w *pendingWrite) {
	d.mu.Lock()
	if d.pending[pageID] != w {
		d.mu.Unlock()
		return
	}
	delete(d.pending, pageID)
	seq := d.nextSeq(pageID)
	done := make(chan struct{})
	d.inflight[done] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.inflight, done)
		d.mu.Unlock()
		close(done)
	}()
	d.send(context.Background(), pageID, seq, w.blocks)
}

// nextSeq must be called with mu held.
func (d *Debouncer) nextSeq(pageID string) uint64 {
	d.seq[pageID]++
	return d.seq[pageID]
}

func (d *Debouncer) send(ctx context.Context, pageID string, seq uint64, blocks []types.Block) error {
	err := d.saver.ReplaceBlocks(ctx, pageID, blocks)
	if err != nil {
		d.logger.Error("persist failed", "page", pageID, "seq", seq, "blocks", len(blocks), "error", err)
	} else {
		d.logger.Debug("persisted", "page", pageID, "seq", seq, "blocks", len(blocks))
	}
	if d.onResult != nil {
		d.onResult(Result{PageID: pageID, Seq: seq, Count: len(blocks), Err: err})
	}
	return err
}

// Cancel discards the snapshot waiting for pageID, if any, and reports
// whether there was one. A send already in flight is not stopped.
func (d *Debouncer) Cancel(pageID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.pending[pageID]
	if !ok {
		return false
	}
	w.timer.Stop()
	delete(d.pending, pageID)
	return true
}

// Pending returns the number of pages with a snapshot waiting to be sent.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush sends every waiting snapshot now, then waits for all in-flight
// sends to finish or ctx to end. It returns the send errors joined.
func (d *Debouncer) Flush(ctx context.Context) error {
	type job struct {
		pageID string
		seq    uint64
		blocks []types.Block
	}

	d.mu.Lock()
	jobs := make([]job, 0, len(d.pending))
	for pageID, w := range d.pending {
		w.timer.Stop()
		jobs = append(jobs, job{pageID: pageID, seq: d.nextSeq(pageID), blocks: w.blocks})
		delete(d.pending, pageID)
	}
	d.mu.Unlock()

	var errs []error
	for _, j := range jobs {
		if err := d.send(ctx, j.pageID, j.seq, j.blocks); err != nil {
			errs = append(errs, err)
		}
	}

	d.mu.Lock()
	waiting := make([]chan struct{}, 0, len(d.inflight))
	for done := range d.inflight {
		waiting = append(waiting, done)
	}
	d.mu.Unlock()

	for _, done := range waiting {
		select {
		case <-done:
		case <-ctx.Done():
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}

// Close stops accepting snapshots and flushes what is pending.
func (d *Debouncer) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return d.Flush(ctx)
}
