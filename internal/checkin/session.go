package checkin

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"checkin/internal/directory"
	"checkin/internal/event"
)

// ErrSessionActive is returned when starting a session while one is open.
var ErrSessionActive = errors.New("a check-in session is already active")

// ErrNoSession is returned when no session is open.
var ErrNoSession = errors.New("no active check-in session")

// Session binds one event to a processor, a fresh resolver cache, and a
// feedback signal. Cache and queue live exactly as long as the session.
type Session struct {
	EventID   string
	StartedAt time.Time
	Processor *Processor
	Feedback  *Feedback
	resolver  *directory.Resolver
}

// Status is the presentation-facing view of the active session.
type Status struct {
	EventID       string             `json:"event_id"`
	EventName     string             `json:"event_name"`
	State         string             `json:"state"`
	QueueDepth    int                `json:"queue_depth"`
	InputDisabled bool               `json:"input_disabled"`
	CheckedIn     int                `json:"checked_in"`
	Outcome       *OutcomeView       `json:"outcome,omitempty"`
	Recent        []event.Attendance `json:"recent"`
}

// OutcomeView is the JSON shape of a visible outcome.
type OutcomeView struct {
	Classification string              `json:"classification"`
	Message        string              `json:"message"`
	Identity       *directory.Identity `json:"identity,omitempty"`
	At             time.Time           `json:"at"`
}

// Manager owns the single active check-in session.
type Manager struct {
	events *event.Service
	client directory.LookupClient
	ttl    time.Duration
	log    *zap.Logger

	mu     sync.Mutex
	active *Session
}

// NewManager creates a manager with no active session.
func NewManager(events *event.Service, client directory.LookupClient, feedbackTTL time.Duration, log *zap.Logger) *Manager {
	return &Manager{events: events, client: client, ttl: feedbackTTL, log: log}
}

// Start opens a session for the event. Only one session may be active.
func (m *Manager) Start(eventID string) (Status, error) {
	evt, ok := m.events.Get(eventID)
	if !ok {
		return Status{}, event.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return Status{}, ErrSessionActive
	}

	resolver := directory.NewResolver(m.client, m.log)
	feedback := NewFeedback(m.ttl)
	sess := &Session{
		EventID:   evt.ID,
		StartedAt: time.Now(),
		Feedback:  feedback,
		resolver:  resolver,
	}
	sess.Processor = NewProcessor(context.Background(), evt.ID, resolver, m.events, feedback, m.log)
	m.active = sess
	m.log.Info("check-in session started", zap.String("event_id", evt.ID), zap.String("event", evt.Name))
	return m.status(sess), nil
}

// Stop closes the active session, dropping queued scans and the
// resolution cache. An in-flight lookup runs to completion but its
// outcome lands on a discarded feedback signal.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ErrNoSession
	}
	m.active.Processor.Drain()
	m.active.resolver.Clear()
	m.active.Feedback.Hide()
	m.log.Info("check-in session stopped", zap.String("event_id", m.active.EventID))
	m.active = nil
	return nil
}

// StopIfEvent closes the session when it targets the given event.
// Used when the event itself is deleted.
func (m *Manager) StopIfEvent(eventID string) {
	m.mu.Lock()
	match := m.active != nil && m.active.EventID == eventID
	m.mu.Unlock()
	if match {
		_ = m.Stop()
	}
}

// Submit feeds one raw scan to the active session.
func (m *Manager) Submit(rawID string) error {
	m.mu.Lock()
	sess := m.active
	m.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}
	sess.Processor.Submit(rawID)
	return nil
}

// Status reports the active session's state for the presentation layer.
func (m *Manager) Status() (Status, error) {
	m.mu.Lock()
	sess := m.active
	m.mu.Unlock()
	if sess == nil {
		return Status{}, ErrNoSession
	}
	return m.status(sess), nil
}

func (m *Manager) status(sess *Session) Status {
	st := Status{
		EventID:       sess.EventID,
		State:         "idle",
		QueueDepth:    sess.Processor.QueueLen(),
		InputDisabled: sess.Processor.InputDisabled(),
		Recent:        []event.Attendance{},
	}
	if sess.Processor.State() == StateProcessing {
		st.State = "processing"
	}
	if o, ok := sess.Feedback.Current(); ok {
		st.Outcome = &OutcomeView{
			Classification: o.Classification(),
			Message:        o.Message,
			Identity:       o.Identity,
			At:             o.At,
		}
	}
	if evt, ok := m.events.Get(sess.EventID); ok {
		st.EventName = evt.Name
		st.CheckedIn = len(evt.Attendees)
		for i := len(evt.Attendees) - 1; i >= 0 && len(st.Recent) < 10; i-- {
			st.Recent = append(st.Recent, evt.Attendees[i])
		}
	}
	return st
}
