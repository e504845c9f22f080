package checkin

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkin/internal/directory"
	"checkin/internal/event"
)

// fakeResolver resolves from a fixed table and can be gated so a
// lookup blocks until released. It tracks the peak number of
// concurrent resolutions.
type fakeResolver struct {
	table       map[string]directory.Identity
	errs        map[string]error
	gate        chan struct{}
	inflight    int32
	maxInflight int32
	calls       int32
}

func (f *fakeResolver) Resolve(ctx context.Context, rawID string) (directory.Identity, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInflight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInflight, max, cur) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	if err, ok := f.errs[rawID]; ok {
		return directory.Identity{}, err
	}
	if id, ok := f.table[rawID]; ok {
		return id, nil
	}
	return directory.Identity{}, directory.ErrNotFound
}

// fakeLedger is an in-memory attendance list for one event.
type fakeLedger struct {
	mu      sync.Mutex
	eventID string
	records []event.Attendance
}

func (l *fakeLedger) Contains(eventID, studentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.StudentID == studentID {
			return true
		}
	}
	return false
}

func (l *fakeLedger) Append(ctx context.Context, eventID string, rec event.Attendance) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// recordSink collects every emitted outcome in order.
type recordSink struct {
	ch chan Outcome
}

func newRecordSink() *recordSink {
	return &recordSink{ch: make(chan Outcome, 32)}
}

func (s *recordSink) Show(o Outcome) { s.ch <- o }

func (s *recordSink) next(t *testing.T) Outcome {
	t.Helper()
	select {
	case o := <-s.ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func juan() directory.Identity {
	return directory.Identity{
		ExternalID: "P1",
		FullName:   "Juan Dela Cruz",
		Department: "CS",
		Email:      "juan_dela_cruz@x.edu",
	}
}

func newTestProcessor(resolver Resolver, ledger Ledger, sink Sink) *Processor {
	return NewProcessor(context.Background(), "evt-1", resolver, ledger, sink, zap.NewNop())
}

func TestProcessor_FirstScanSucceeds(t *testing.T) {
	resolver := &fakeResolver{table: map[string]directory.Identity{"A1": juan()}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	require.True(t, p.Submit("A1"))
	o := sink.next(t)
	assert.Equal(t, KindSuccess, o.Kind)
	assert.Equal(t, "success", o.Classification())
	assert.Contains(t, o.Message, "Juan")
	require.Equal(t, 1, ledger.len())
	assert.Equal(t, "P1", ledger.records[0].StudentID)
	assert.Equal(t, "Juan Dela Cruz", ledger.records[0].FullName)
	assert.Equal(t, "CS", ledger.records[0].Department)
}

func TestProcessor_RepeatScanWarns(t *testing.T) {
	resolver := &fakeResolver{table: map[string]directory.Identity{"A1": juan()}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	p.Submit("A1")
	first := sink.next(t)
	p.Submit("A1")
	second := sink.next(t)

	assert.Equal(t, KindSuccess, first.Kind)
	assert.Equal(t, KindAlreadyCheckedIn, second.Kind)
	assert.Equal(t, "warning", second.Classification())
	assert.Equal(t, "Juan, you're already checked in!", second.Message)
	assert.Equal(t, 1, ledger.len())
}

func TestProcessor_BurstIsSerializedInOrder(t *testing.T) {
	gate := make(chan struct{})
	resolver := &fakeResolver{
		gate: gate,
		table: map[string]directory.Identity{
			"A": {ExternalID: "PA", FullName: "Ana One", Email: "ana_one@x.edu", Department: "N/A"},
			"B": {ExternalID: "PB", FullName: "Ben Two", Email: "ben_two@x.edu", Department: "N/A"},
			"C": {ExternalID: "PC", FullName: "Cara Three", Email: "cara_three@x.edu", Department: "N/A"},
		},
	}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	// First scan blocks in the resolver; the rest pile up behind it.
	p.Submit("A")
	p.Submit("B")
	p.Submit("C")
	require.Eventually(t, func() bool { return p.QueueLen() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateProcessing, p.State())
	close(gate)

	var order []string
	for i := 0; i < 3; i++ {
		o := sink.next(t)
		order = append(order, o.RawID)
		assert.Equal(t, KindSuccess, o.Kind)
	}
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.EqualValues(t, 1, atomic.LoadInt32(&resolver.maxInflight))
	assert.Equal(t, 3, ledger.len())
	require.Eventually(t, func() bool { return p.State() == StateIdle }, time.Second, 5*time.Millisecond)
}

func TestProcessor_QueuedDuplicateObservesFirstAppend(t *testing.T) {
	gate := make(chan struct{})
	resolver := &fakeResolver{gate: gate, table: map[string]directory.Identity{"A1": juan()}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	// Same not-yet-registered id scanned twice while the first is in
	// flight: the second run sees the first's ledger mutation.
	p.Submit("A1")
	p.Submit("A1")
	close(gate)

	assert.Equal(t, KindSuccess, sink.next(t).Kind)
	assert.Equal(t, KindAlreadyCheckedIn, sink.next(t).Kind)
	assert.Equal(t, 1, ledger.len())
}

func TestProcessor_NotFoundLeavesLedgerAlone(t *testing.T) {
	resolver := &fakeResolver{}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	p.Submit("Z9")
	o := sink.next(t)
	assert.Equal(t, KindNotFound, o.Kind)
	assert.Equal(t, "error", o.Classification())
	assert.Equal(t, 0, ledger.len())
}

func TestProcessor_TransientErrorLeavesLedgerAlone(t *testing.T) {
	resolver := &fakeResolver{errs: map[string]error{"A1": &directory.TransientError{Detail: "status 500"}}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	p.Submit("A1")
	o := sink.next(t)
	assert.Equal(t, KindTransientError, o.Kind)
	assert.Equal(t, "error", o.Classification())
	assert.NotEmpty(t, o.Detail)
	assert.Equal(t, 0, ledger.len())
}

func TestProcessor_FailureDoesNotStallQueue(t *testing.T) {
	resolver := &fakeResolver{
		table: map[string]directory.Identity{"B": juan()},
		errs:  map[string]error{"A": &directory.TransientError{Detail: "status 502"}},
		gate:  make(chan struct{}),
	}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	p.Submit("A")
	p.Submit("B")
	close(resolver.gate)

	assert.Equal(t, KindTransientError, sink.next(t).Kind)
	assert.Equal(t, KindSuccess, sink.next(t).Kind)
	assert.Equal(t, 1, ledger.len())
}

func TestProcessor_BlankInputIgnored(t *testing.T) {
	resolver := &fakeResolver{}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	assert.False(t, p.Submit(""))
	assert.False(t, p.Submit("   "))
	assert.Equal(t, StateIdle, p.State())
	assert.EqualValues(t, 0, atomic.LoadInt32(&resolver.calls))
}

func TestProcessor_InputDisabledOnlyWhileWaitingWithEmptyQueue(t *testing.T) {
	gate := make(chan struct{})
	resolver := &fakeResolver{gate: gate, table: map[string]directory.Identity{"A": juan()}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	assert.False(t, p.InputDisabled())
	p.Submit("A")
	require.Eventually(t, func() bool { return p.InputDisabled() }, time.Second, 5*time.Millisecond)

	// Backlog present: the field stays enabled even though a scan is
	// in flight.
	p.Submit("A")
	assert.False(t, p.InputDisabled())

	close(gate)
	sink.next(t)
	sink.next(t)
	require.Eventually(t, func() bool { return !p.InputDisabled() && p.State() == StateIdle }, time.Second, 5*time.Millisecond)
}

func TestProcessor_DrainDropsBacklog(t *testing.T) {
	gate := make(chan struct{})
	resolver := &fakeResolver{gate: gate, table: map[string]directory.Identity{"A": juan()}}
	ledger := &fakeLedger{eventID: "evt-1"}
	sink := newRecordSink()
	p := newTestProcessor(resolver, ledger, sink)

	p.Submit("A")
	p.Submit("B")
	p.Submit("C")
	require.Eventually(t, func() bool { return p.QueueLen() == 2 }, time.Second, 5*time.Millisecond)
	p.Drain()
	assert.Equal(t, 0, p.QueueLen())

	close(gate)
	// Only the in-flight item completes.
	assert.Equal(t, "A", sink.next(t).RawID)
	require.Eventually(t, func() bool { return p.State() == StateIdle }, time.Second, 5*time.Millisecond)
	select {
	case o := <-sink.ch:
		t.Fatalf("unexpected outcome for %q", o.RawID)
	case <-time.After(50 * time.Millisecond):
	}
}
