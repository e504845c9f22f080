package event

import "context"

// Store persists the full ordered event list. The list is loaded once at
// startup and rewritten on every mutation. Implementations must treat
// malformed persisted data as an empty list rather than an error.
type Store interface {
	Load(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
}
