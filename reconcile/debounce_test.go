package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skridlevsky/pagetree/types"
)

// fakeSaver records every ReplaceBlocks call on a channel. When gate is
// non-nil, calls for a page listed in it block until the gate is closed.
type fakeSaver struct {
	calls chan call
	err   error

	mu    sync.Mutex
	gates map[string]chan struct{}
}

type call struct {
	pageID string
	blocks []types.Block
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{calls: make(chan call, 16), gates: map[string]chan struct{}{}}
}

func (f *fakeSaver) ReplaceBlocks(_ context.Context, pageID string, blocks []types.Block) error {
	f.mu.Lock()
	gate := f.gates[pageID]
	delete(f.gates, pageID)
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.calls <- call{pageID: pageID, blocks: blocks}
	return f.err
}

func (f *fakeSaver) hold(pageID string) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[pageID] = gate
	f.mu.Unlock()
	return gate
}

func snapshot(contents ...string) []types.Block {
	out := make([]types.Block, len(contents))
	for i, c := range contents {
		out[i] = types.Block{ID: c, PageID: "p", Content: c, Index: i, Props: map[string]any{}}
	}
	return out
}

func waitCall(t *testing.T, f *fakeSaver) call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a save")
		return call{}
	}
}

func assertNoCall(t *testing.T, f *fakeSaver, within time.Duration) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected save of %s", c.pageID)
	case <-time.After(within):
	}
}

func TestSchedule_CoalescesToLatest(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(30*time.Millisecond))

	for _, s := range [][]types.Block{snapshot("a"), snapshot("a", "b"), snapshot("a", "b", "c")} {
		if err := d.Schedule("p", s); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	c := waitCall(t, f)
	if len(c.blocks) != 3 {
		t.Errorf("saved %d blocks, want latest snapshot of 3", len(c.blocks))
	}
	assertNoCall(t, f, 80*time.Millisecond)
	if d.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", d.Pending())
	}
}

func TestSchedule_PagesAreIndependent(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(20*time.Millisecond))

	d.Schedule("p1", snapshot("a"))
	d.Schedule("p2", snapshot("b"))
	if d.Pending() != 2 {
		t.Errorf("Pending = %d, want 2", d.Pending())
	}

	seen := map[string]bool{}
	seen[waitCall(t, f).pageID] = true
	seen[waitCall(t, f).pageID] = true
	if !seen["p1"] || !seen["p2"] {
		t.Errorf("saved pages = %v", seen)
	}
}

func TestSchedule_SnapshotIsCopied(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(10*time.Millisecond))

	blocks := snapshot("a")
	d.Schedule("p", blocks)
	blocks[0].Content = "mutated"
	blocks[0].Props["k"] = "v"

	c := waitCall(t, f)
	if c.blocks[0].Content != "a" || len(c.blocks[0].Props) != 0 {
		t.Errorf("saved block = %+v, want the scheduled snapshot", c.blocks[0])
	}
}

func TestFlush_SendsImmediately(t *testing.T) {
	f := newFakeSaver()
	var results []Result
	d := New(f, WithDelay(time.Hour), OnResult(func(r Result) { results = append(results, r) }))

	d.Schedule("p", snapshot("a", "b"))
	if err := d.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c := waitCall(t, f); len(c.blocks) != 2 {
		t.Errorf("flushed %d blocks", len(c.blocks))
	}
	if len(results) != 1 || results[0].Seq != 1 || results[0].Count != 2 || results[0].Err != nil {
		t.Errorf("results = %+v", results)
	}
	if d.Pending() != 0 {
		t.Error("Flush left pending writes")
	}
}

func TestFlush_ReportsErrors(t *testing.T) {
	f := newFakeSaver()
	f.err = errors.New("disk full")
	var got Result
	d := New(f, WithDelay(time.Hour), OnResult(func(r Result) { got = r }))

	d.Schedule("p", snapshot("a"))
	err := d.Flush(context.Background())
	if err == nil || !errors.Is(err, f.err) {
		t.Errorf("Flush err = %v, want disk full", err)
	}
	if got.Err == nil || got.PageID != "p" {
		t.Errorf("OnResult = %+v", got)
	}
}

func TestSequence_ObservesOutOfOrderCommit(t *testing.T) {
	f := newFakeSaver()
	var mu sync.Mutex
	var order []uint64
	d := New(f, WithDelay(10*time.Millisecond), OnResult(func(r Result) {
		mu.Lock()
		order = append(order, r.Seq)
		mu.Unlock()
	}))

	gate := f.hold("p")
	d.Schedule("p", snapshot("old"))
	time.Sleep(40 * time.Millisecond) // first send is now blocked in the saver

	d.Schedule("p", snapshot("new", "newer"))
	second := waitCall(t, f)
	if second.blocks[0].Content != "new" {
		t.Fatalf("first commit = %+v, want the newer snapshot", second.blocks)
	}

	close(gate)
	first := waitCall(t, f)
	if first.blocks[0].Content != "old" {
		t.Fatalf("late commit = %+v, want the stale snapshot", first.blocks)
	}
	if err := d.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("commit order by seq = %v, want [2 1]", order)
	}
}

func TestClose(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(time.Hour))

	d.Schedule("p", snapshot("a"))
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitCall(t, f)

	if err := d.Schedule("p", snapshot("b")); !errors.Is(err, ErrClosed) {
		t.Errorf("Schedule after Close = %v, want ErrClosed", err)
	}
}

func TestFlush_ContextCancelled(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(5*time.Millisecond))

	gate := f.hold("p")
	defer close(gate)
	d.Schedule("p", snapshot("a"))
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Flush err = %v, want deadline exceeded", err)
	}
}

func TestCancel_DiscardsPending(t *testing.T) {
	f := newFakeSaver()
	d := New(f, WithDelay(20*time.Millisecond))

	d.Schedule("p", snapshot("stale"))
	d.Schedule("q", snapshot("kept"))
	if !d.Cancel("p") {
		t.Fatal("Cancel(p) = false, want true")
	}
	if d.Cancel("p") {
		t.Error("second Cancel(p) = true, want false")
	}
	if d.Cancel("unknown") {
		t.Error("Cancel(unknown) = true, want false")
	}
	if got := d.Pending(); got != 1 {
		t.Errorf("Pending = %d, want 1", got)
	}

	if c := waitCall(t, f); c.pageID != "q" {
		t.Fatalf("saved %s, want q", c.pageID)
	}
	assertNoCall(t, f, 100*time.Millisecond)
}
