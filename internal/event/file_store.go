package event

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// FileStore keeps the event list as a single JSON document on disk.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the event list. A missing or unparseable file yields an empty list.
func (s *FileStore) Load(ctx context.Context) ([]Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		s.log.Warn("discarding malformed event file", zap.String("path", s.path), zap.Error(err))
		return nil, nil
	}
	return events, nil
}

// Save rewrites the whole list atomically via a temp file rename.
func (s *FileStore) Save(ctx context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
