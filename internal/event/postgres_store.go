package event

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"
)

// PostgresStore keeps the event list in a single table, one row per event
// with the attendee list as a JSONB column. Save rewrites the whole table
// so the load-once/rewrite-on-mutation contract matches the other backends.
type PostgresStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewPostgresStore builds a store over an open connection.
func NewPostgresStore(db *sql.DB, log *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			position    INT PRIMARY KEY,
			id          TEXT NOT NULL,
			name        TEXT NOT NULL,
			event_date  TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			attendees   JSONB NOT NULL DEFAULT '[]'
		)
	`)
	return err
}

// Load reads all events in stored order. Rows with unparseable attendee
// data are kept with an empty attendee list rather than failing the load.
func (s *PostgresStore) Load(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, event_date, description, attendees
		FROM events
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var evt Event
		var attendees []byte
		if err := rows.Scan(&evt.ID, &evt.Name, &evt.Date, &evt.Description, &attendees); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attendees, &evt.Attendees); err != nil {
			s.log.Warn("discarding malformed attendee list", zap.String("event_id", evt.ID), zap.Error(err))
			evt.Attendees = nil
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Save rewrites the table inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return err
	}
	for i, evt := range events {
		if evt.Attendees == nil {
			evt.Attendees = []Attendance{}
		}
		attendees, err := json.Marshal(evt.Attendees)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (position, id, name, event_date, description, attendees)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, i, evt.ID, evt.Name, evt.Date, evt.Description, attendees); err != nil {
			return err
		}
	}
	return tx.Commit()
}
