package event

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an event id does not exist.
var ErrNotFound = errors.New("event not found")

// ErrNameRequired is returned when creating an event without a name or date.
var ErrNameRequired = errors.New("event name and date required")

// Service owns the in-memory event list and acts as the attendance
// ledger for the active event. Every mutation rewrites the persisted
// list through the Store; persistence is best effort and failures are
// logged rather than surfaced.
type Service struct {
	mu     sync.RWMutex
	store  Store
	events []Event
	log    *zap.Logger
}

// NewService loads the persisted event list and returns a service over it.
func NewService(ctx context.Context, store Store, log *zap.Logger) (*Service, error) {
	events, err := store.Load(ctx)
	if err != nil {
		log.Warn("event load failed, starting empty", zap.Error(err))
		events = nil
	}
	return &Service{store: store, events: events, log: log}, nil
}

// List returns a snapshot of all events in creation order.
func (s *Service) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.events))
	for _, evt := range s.events {
		out = append(out, evt.Clone())
	}
	return out
}

// Get returns a snapshot of one event.
func (s *Service) Get(id string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, evt := range s.events {
		if evt.ID == id {
			return evt.Clone(), true
		}
	}
	return Event{}, false
}

// Create appends a new event with a generated id.
func (s *Service) Create(ctx context.Context, name, date, description string) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" || date == "" {
		return Event{}, ErrNameRequired
	}
	evt := Event{
		ID:          uuid.NewString(),
		Name:        name,
		Date:        date,
		Description: strings.TrimSpace(description),
		Attendees:   []Attendance{},
	}
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	s.persist(ctx)
	return evt, nil
}

// Delete removes an event and all its attendance records.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, evt := range s.events {
		if evt.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

// Contains reports whether the event already holds a record for the
// given directory identifier. Dedup by this key is the processor's job;
// the ledger only answers membership.
func (s *Service) Contains(eventID, studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, evt := range s.events {
		if evt.ID != eventID {
			continue
		}
		for _, a := range evt.Attendees {
			if a.StudentID == studentID {
				return true
			}
		}
		return false
	}
	return false
}

// Append adds an attendance record to the event and persists the list.
// It does not reject duplicate student ids.
func (s *Service) Append(ctx context.Context, eventID string, rec Attendance) error {
	s.mu.Lock()
	idx := -1
	for i, evt := range s.events {
		if evt.ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.events[idx].Attendees = append(s.events[idx].Attendees, rec)
	s.mu.Unlock()
	s.persist(ctx)
	return nil
}

func (s *Service) persist(ctx context.Context) {
	s.mu.RLock()
	snapshot := make([]Event, 0, len(s.events))
	for _, evt := range s.events {
		snapshot = append(snapshot, evt.Clone())
	}
	s.mu.RUnlock()
	if err := s.store.Save(ctx, snapshot); err != nil {
		s.log.Warn("event save failed", zap.Error(err))
	}
}
