// Package journal keeps the signed-in user's journal entries in memory and
// mirrors every change to durable storage.
package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"moodjournal/internal/domain"
	"moodjournal/internal/ports"
)

var (
	ErrNoUser        = errors.New("no signed-in user")
	ErrEntryNotFound = errors.New("journal entry not found")
)

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs replaces the entry id generator.
func WithIDs(next func() string) Option {
	return func(s *Store) { s.newID = next }
}

// Store is scoped to whichever user the identity provider reports. The
// collection is kept newest-first in insertion order and never re-sorted.
type Store struct {
	identity ports.IdentityProvider
	storage  ports.EntryStorage
	analyzer ports.SentimentAnalyzer
	notifier ports.Notifier
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	userID  string
	loaded  bool
	entries []domain.JournalEntry
}

func NewStore(identity ports.IdentityProvider, storage ports.EntryStorage, analyzer ports.SentimentAnalyzer, notifier ports.Notifier, opts ...Option) *Store {
	s := &Store{
		identity: identity,
		storage:  storage,
		analyzer: analyzer,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create scores the transcript and prepends a new entry.
func (s *Store) Create(ctx context.Context, transcript, audioURL string) (domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, err := s.syncUser(ctx)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	sentiment, err := s.score(ctx, transcript)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	now := s.now().UTC()
	entry := domain.JournalEntry{
		ID:         s.newID(),
		UserID:     userID,
		Transcript: transcript,
		Sentiment:  sentiment,
		AudioURL:   audioURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	next := make([]domain.JournalEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)
	if err := s.commit(ctx, userID, next); err != nil {
		return domain.JournalEntry{}, err
	}

	log.Debug().Str("user", userID).Str("entry", entry.ID).Str("label", string(sentiment.Label)).Msg("Journal entry created")
	s.notifier.Notify(domain.Notification{Kind: domain.NotificationEntryAdded})
	return entry, nil
}

// Update rescores an entry with a new transcript. Id, audio and creation
// time are kept.
func (s *Store) Update(ctx context.Context, id, transcript string) (domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, err := s.syncUser(ctx)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	_, index, found := lo.FindIndexOf(s.entries, func(entry domain.JournalEntry) bool {
		return entry.ID == id
	})
	if !found {
		return domain.JournalEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	sentiment, err := s.score(ctx, transcript)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	next := slices.Clone(s.entries)
	updated := next[index]
	updated.Transcript = transcript
	updated.Sentiment = sentiment
	updated.UpdatedAt = s.now().UTC()
	next[index] = updated

	if err := s.commit(ctx, userID, next); err != nil {
		return domain.JournalEntry{}, err
	}

	s.notifier.Notify(domain.Notification{Kind: domain.NotificationEntryUpdated})
	return updated, nil
}

// Delete removes an entry. Unknown ids leave the collection unchanged but
// it is still written back.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, err := s.syncUser(ctx)
	if err != nil {
		return err
	}

	next := lo.Reject(s.entries, func(entry domain.JournalEntry, _ int) bool {
		return entry.ID == id
	})
	removed := len(next) != len(s.entries)

	if err := s.commit(ctx, userID, next); err != nil {
		return err
	}

	if removed {
		s.notifier.Notify(domain.Notification{Kind: domain.NotificationEntryDeleted})
	}
	return nil
}

// List returns a copy of the collection. Without a user it is empty.
func (s *Store) List(ctx context.Context) ([]domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncUser(ctx); err != nil {
		if errors.Is(err, ErrNoUser) {
			return []domain.JournalEntry{}, nil
		}
		return nil, err
	}
	return slices.Clone(s.entries), nil
}

// Get returns one entry by id.
func (s *Store) Get(ctx context.Context, id string) (domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.syncUser(ctx); err != nil {
		return domain.JournalEntry{}, err
	}
	entry, found := lo.Find(s.entries, func(entry domain.JournalEntry) bool {
		return entry.ID == id
	})
	if !found {
		return domain.JournalEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return entry, nil
}

// Reload discards the in-memory collection and loads it again.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	_, err := s.syncUser(ctx)
	return err
}

// syncUser loads the collection whenever the current user differs from the
// one it was loaded for. Callers hold s.mu.
func (s *Store) syncUser(ctx context.Context) (string, error) {
	user, ok := s.identity.CurrentUser()
	if !ok || user.ID == "" {
		s.userID = ""
		s.loaded = false
		s.entries = nil
		return "", ErrNoUser
	}
	if s.loaded && s.userID == user.ID {
		return user.ID, nil
	}

	entries, err := s.load(ctx, user.ID)
	if err != nil {
		s.userID = ""
		s.loaded = false
		s.entries = nil
		return "", err
	}
	s.userID = user.ID
	s.loaded = true
	s.entries = entries
	return user.ID, nil
}

func (s *Store) load(ctx context.Context, userID string) ([]domain.JournalEntry, error) {
	entries, err := s.storage.Load(ctx, userID)
	switch {
	case err == nil:
		log.Debug().Str("user", userID).Int("entries", len(entries)).Msg("Journal loaded")
		return entries, nil
	case errors.Is(err, ports.ErrCollectionNotFound), errors.Is(err, ports.ErrCollectionMalformed):
		if errors.Is(err, ports.ErrCollectionMalformed) {
			log.Warn().Err(err).Str("user", userID).Msg("Stored journal is unreadable, starting empty")
		}
		empty := []domain.JournalEntry{}
		if saveErr := s.storage.Save(ctx, userID, empty); saveErr != nil {
			log.Warn().Err(saveErr).Str("user", userID).Msg("Failed to persist empty journal")
		}
		return empty, nil
	default:
		return nil, fmt.Errorf("load journal: %w", err)
	}
}

func (s *Store) score(ctx context.Context, transcript string) (domain.Sentiment, error) {
	sentiment, err := s.analyzer.Analyze(ctx, transcript)
	if err != nil {
		log.Error().Err(err).Msg("Sentiment analysis failed")
		s.notifier.Notify(domain.Notification{Kind: domain.NotificationEntryFailed, Detail: err.Error()})
		return domain.Sentiment{}, fmt.Errorf("analyze sentiment: %w", err)
	}
	return sentiment, nil
}

// commit persists next and only then makes it the in-memory collection.
func (s *Store) commit(ctx context.Context, userID string, next []domain.JournalEntry) error {
	if err := s.storage.Save(ctx, userID, next); err != nil {
		log.Error().Err(err).Str("user", userID).Msg("Failed to persist journal")
		s.notifier.Notify(domain.Notification{Kind: domain.NotificationEntryFailed, Detail: err.Error()})
		return fmt.Errorf("persist journal: %w", err)
	}
	s.entries = next
	return nil
}
