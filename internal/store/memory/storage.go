package memorystorage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ryanparsons7/calendly-notion/internal/store"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[string]map[string]store.Record
	idSeq int
}

func New() *Storage {
	return &Storage{data: make(map[string]map[string]store.Record)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) FindByKey(_ context.Context, databaseID string, key string) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[databaseID][key]
	return copyRecord(r), ok, nil
}

func (s *Storage) Create(_ context.Context, databaseID string, r *store.Record) error {
	if r.ExternalKey == "" {
		return store.ErrEmptyKey
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.data[databaseID]
	if !ok {
		records = make(map[string]store.Record)
		s.data[databaseID] = records
	}
	if _, ok := records[r.ExternalKey]; ok {
		return fmt.Errorf("duplicate key %q: %w", r.ExternalKey, store.ErrDuplicateKey)
	}
	r.RecordID = s.nextID()
	records[r.ExternalKey] = copyRecord(*r)
	return nil
}

func (s *Storage) Update(_ context.Context, databaseID string, r store.Record) error {
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end time should not be before start time: %w", store.ErrIncorrectTime)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data[databaseID][r.ExternalKey]
	if !ok {
		return fmt.Errorf("failed to update record with key %q: %w", r.ExternalKey, store.ErrNotFound)
	}
	r.RecordID = existing.RecordID
	s.data[databaseID][r.ExternalKey] = copyRecord(r)
	return nil
}

// Records returns a snapshot of the records of the database.
func (s *Storage) Records(databaseID string) []store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]store.Record, 0, len(s.data[databaseID]))
	for _, r := range s.data[databaseID] {
		records = append(records, copyRecord(r))
	}
	return records
}

func (s *Storage) nextID() string {
	s.idSeq++
	return strconv.Itoa(s.idSeq)
}

func copyRecord(r store.Record) store.Record {
	if r.Link != nil {
		link := *r.Link
		r.Link = &link
	}
	if r.Properties != nil {
		props := make(map[string]interface{}, len(r.Properties))
		for k, v := range r.Properties {
			props[k] = v
		}
		r.Properties = props
	}
	return r
}
