// Package memory keeps entry collections in process memory, encoded exactly
// as they would be on disk.
package memory

import (
	"context"
	"sync"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
	"moodjournal/internal/storage"
)

// Storage implements ports.EntryStorage.
type Storage struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves int
}

func New() *Storage {
	return &Storage{data: map[string][]byte{}}
}

func (s *Storage) Load(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	payload, ok := s.data[userID]
	s.mu.Unlock()
	if !ok {
		return nil, ports.ErrCollectionNotFound
	}
	return storage.DecodeEntries(payload)
}

func (s *Storage) Save(ctx context.Context, userID string, entries []domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := storage.EncodeEntries(entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = payload
	s.saves++
	return nil
}

// SetRaw stores an arbitrary payload for userID.
func (s *Storage) SetRaw(userID string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = append([]byte(nil), payload...)
}

// Raw returns the stored payload for userID.
func (s *Storage) Raw(userID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.data[userID]
	return append([]byte(nil), payload...), ok
}

// Saves counts successful writes.
func (s *Storage) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Storage) Close() error { return nil }
