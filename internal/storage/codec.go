// Package storage holds the persisted form of a user's entry collection.
package storage

import (
	"fmt"

	"github.com/goccy/go-json"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

// EncodeEntries renders a collection as a JSON array. A nil collection is
// written as an empty array.
func EncodeEntries(entries []domain.JournalEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	return payload, nil
}

// DecodeEntries parses a stored collection. Anything that is not a JSON
// array of entries is reported as ports.ErrCollectionMalformed.
func DecodeEntries(payload []byte) ([]domain.JournalEntry, error) {
	var entries []domain.JournalEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCollectionMalformed, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: not an array", ports.ErrCollectionMalformed)
	}
	return entries, nil
}
