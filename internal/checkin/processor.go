package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkin/internal/directory"
	"checkin/internal/event"
	"checkin/internal/queue"
)

// State is the processing slot state.
type State int

const (
	// StateIdle means no resolution is in progress.
	StateIdle State = iota
	// StateProcessing means exactly one scan is being resolved and
	// registered.
	StateProcessing
)

// Resolver maps raw scanned ids to identities.
type Resolver interface {
	Resolve(ctx context.Context, rawID string) (directory.Identity, error)
}

// Ledger is the attendance membership and append surface of the event
// service.
type Ledger interface {
	Contains(eventID, studentID string) bool
	Append(ctx context.Context, eventID string, rec event.Attendance) error
}

// Sink receives one outcome per processed scan, in processing order.
type Sink interface {
	Show(Outcome)
}

// Processor serializes scanner bursts into strict one-at-a-time
// processing. Submissions while a scan is in flight are queued FIFO;
// completion of each item advances the queue immediately, whatever the
// outcome, so a failure can never wedge the slot.
type Processor struct {
	eventID  string
	resolver Resolver
	ledger   Ledger
	sink     Sink
	log      *zap.Logger
	ctx      context.Context

	mu    sync.Mutex
	state State
	fifo  *queue.FIFO
}

// NewProcessor builds an idle processor for one event.
func NewProcessor(ctx context.Context, eventID string, resolver Resolver, ledger Ledger, sink Sink, log *zap.Logger) *Processor {
	return &Processor{
		eventID:  eventID,
		resolver: resolver,
		ledger:   ledger,
		sink:     sink,
		log:      log,
		ctx:      ctx,
		fifo:     queue.NewFIFO(),
	}
}

// Submit accepts a raw scanned id. Blank input is dropped before it
// reaches the queue. If the slot is idle processing starts immediately;
// otherwise the scan waits its turn.
func (p *Processor) Submit(rawID string) bool {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return false
	}
	scansTotal.Inc()

	p.mu.Lock()
	if p.state == StateProcessing {
		p.fifo.Push(rawID)
		queueDepth.Set(float64(p.fifo.Len()))
		p.mu.Unlock()
		return true
	}
	p.state = StateProcessing
	p.mu.Unlock()

	go p.run(rawID)
	return true
}

// run drains the queue starting from rawID. Only one run goroutine can
// exist at a time: it is spawned solely on the Idle to Processing
// transition and the slot returns to Idle only when the queue is empty.
func (p *Processor) run(rawID string) {
	for {
		outcome := p.processOne(rawID)
		p.sink.Show(outcome)
		outcomesTotal.WithLabelValues(outcome.Classification()).Inc()

		p.mu.Lock()
		next, ok := p.fifo.Pop()
		queueDepth.Set(float64(p.fifo.Len()))
		if !ok {
			p.state = StateIdle
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		rawID = next
	}
}

func (p *Processor) processOne(rawID string) Outcome {
	now := time.Now()
	identity, err := p.resolver.Resolve(p.ctx, rawID)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		return Outcome{
			Kind:    KindNotFound,
			RawID:   rawID,
			Message: "Student ID not found.",
			At:      now,
		}
	case err != nil:
		p.log.Warn("lookup failed", zap.String("raw_id", rawID), zap.Error(err))
		return Outcome{
			Kind:    KindTransientError,
			RawID:   rawID,
			Message: "A network or system error occurred. Try again.",
			Detail:  err.Error(),
			At:      now,
		}
	}

	if p.ledger.Contains(p.eventID, identity.ExternalID) {
		return Outcome{
			Kind:     KindAlreadyCheckedIn,
			RawID:    rawID,
			Message:  fmt.Sprintf("%s, you're already checked in!", identity.FirstName()),
			Identity: &identity,
			At:       now,
		}
	}

	rec := event.Attendance{
		StudentID:  identity.ExternalID,
		FullName:   identity.FullName,
		Department: identity.Department,
		Email:      identity.Email,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.ledger.Append(p.ctx, p.eventID, rec); err != nil {
		p.log.Warn("ledger append failed", zap.String("event_id", p.eventID), zap.Error(err))
		return Outcome{
			Kind:    KindTransientError,
			RawID:   rawID,
			Message: "A network or system error occurred. Try again.",
			Detail:  err.Error(),
			At:      now,
		}
	}

	return Outcome{
		Kind:     KindSuccess,
		RawID:    rawID,
		Message:  welcomeFor(identity.FirstName()),
		Identity: &identity,
		At:       now,
	}
}

// State reports the processing slot state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// QueueLen reports how many scans wait behind the in-flight item.
func (p *Processor) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fifo.Len()
}

// InputDisabled reports whether the scan field should be disabled:
// actively waiting on the network for the current item with nothing
// queued behind it.
func (p *Processor) InputDisabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateProcessing && p.fifo.Len() == 0
}

// Drain drops queued scans. The in-flight item, if any, still runs to
// completion.
func (p *Processor) Drain() {
	p.mu.Lock()
	p.fifo.Clear()
	queueDepth.Set(0)
	p.mu.Unlock()
}
