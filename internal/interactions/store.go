// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package interactions

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/metrics"
	"github.com/tomtom215/vitrine/internal/models"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("interaction store is closed")

// Store is the interaction log used by the ranker and the batch jobs.
type Store interface {
	// Record validates and durably appends one event.
	Record(ctx context.Context, event models.InteractionEvent) (models.InteractionEvent, error)

	// Read yields one user's events from the last windowDays days in
	// ascending timestamp order. Each range over the result is a fresh read.
	Read(ctx context.Context, userID string, windowDays int) iter.Seq2[models.InteractionEvent, error]

	// Scan yields every user's events at or after since, grouped by user and
	// ascending in time within a user.
	Scan(ctx context.Context, since time.Time) iter.Seq2[models.InteractionEvent, error]
}

// Config configures a BadgerStore.
type Config struct {
	Path      string
	InMemory  bool
	Retention time.Duration // TTL per event, 0 keeps events forever
	GCRatio   float64
	Now       func() time.Time
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	gcRatio   float64
	now       func() time.Time

	userLocks sync.Map // userID -> *sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// record is the stored value. The key already carries user and timestamp.
type record struct {
	ID     string           `json:"id"`
	Kind   models.EventKind `json:"k"`
	ItemID string           `json:"i,omitempty"`
	Query  string           `json:"q,omitempty"`
}

// Open opens (or creates) the store.
func Open(cfg Config) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("interaction store path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	gcRatio := cfg.GCRatio
	if gcRatio <= 0 {
		gcRatio = 0.5
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("retention", cfg.Retention).
		Msg("Interaction store opened")

	return &BadgerStore{db: db, retention: cfg.Retention, gcRatio: gcRatio, now: now}, nil
}

func (s *BadgerStore) lockFor(userID string) *sync.Mutex {
	m, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// Record validates event, assigns an ID and timestamp when missing, and
// writes it. The returned event carries the stored ID and timestamp.
func (s *BadgerStore) Record(ctx context.Context, event models.InteractionEvent) (models.InteractionEvent, error) {
	start := time.Now()

	if err := event.Validate(); err != nil {
		return models.InteractionEvent{}, err
	}
	if event.Kind == models.EventSearch {
		event.Query = normalizeQuery(event.Query)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Timestamp = event.Timestamp.UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return models.InteractionEvent{}, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return models.InteractionEvent{}, err
	}

	lock := s.lockFor(event.UserID)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.Marshal(record{ID: event.ID, Kind: event.Kind, ItemID: event.ItemID, Query: event.Query})
	if err != nil {
		return models.InteractionEvent{}, fmt.Errorf("marshal interaction: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		last, ok, err := lastTimestamp(txn, event.UserID)
		if err != nil {
			return err
		}
		if ok && !event.Timestamp.After(last) {
			event.Timestamp = last.Add(time.Nanosecond)
		}
		e := badger.NewEntry(eventKey(event.UserID, event.Timestamp), data)
		if s.retention > 0 {
			e = e.WithTTL(s.retention)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		metrics.RecordInteractionError()
		return models.InteractionEvent{}, fmt.Errorf("write interaction: %w", err)
	}

	metrics.RecordInteraction(string(event.Kind), time.Since(start))
	return event, nil
}

func lastTimestamp(txn *badger.Txn, userID string) (time.Time, bool, error) {
	prefix := userPrefix(userID)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Seek(prefixUpperBound(prefix))
	if !it.ValidForPrefix(prefix) {
		return time.Time{}, false, nil
	}
	_, ts, ok := parseKey(it.Item().Key())
	if !ok {
		return time.Time{}, false, fmt.Errorf("corrupt interaction key %q", it.Item().Key())
	}
	return ts, true, nil
}

// Read implements Store. windowDays must be at least 1.
func (s *BadgerStore) Read(ctx context.Context, userID string, windowDays int) iter.Seq2[models.InteractionEvent, error] {
	return func(yield func(models.InteractionEvent, error) bool) {
		if !models.UserIDPattern.MatchString(userID) {
			yield(models.InteractionEvent{}, models.NewValidationError("user_id", "must be 1-50 alphanumeric characters"))
			return
		}
		if windowDays < 1 {
			yield(models.InteractionEvent{}, models.NewValidationError("days", "must be at least 1"))
			return
		}
		since := s.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
		prefix := userPrefix(userID)
		s.iterate(ctx, prefix, appendTimestamp(prefix, since), yield)
	}
}

// Scan implements Store.
func (s *BadgerStore) Scan(ctx context.Context, since time.Time) iter.Seq2[models.InteractionEvent, error] {
	return func(yield func(models.InteractionEvent, error) bool) {
		s.scanAll(ctx, since, yield)
	}
}

// iterate yields every event under prefix starting at from.
func (s *BadgerStore) iterate(ctx context.Context, prefix, from []byte, yield func(models.InteractionEvent, error) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		yield(models.InteractionEvent{}, ErrStoreClosed)
		return
	}

	stopped := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(from); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ev, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			if !yield(ev, nil) {
				stopped = true
				return nil
			}
		}
		return nil
	})
	if err != nil && !stopped {
		yield(models.InteractionEvent{}, fmt.Errorf("read interactions: %w", err))
	}
}

// scanAll walks the whole keyspace. Keys of one user are contiguous, so
// when an event older than since is found the iterator jumps straight to
// since within that user's range.
func (s *BadgerStore) scanAll(ctx context.Context, since time.Time, yield func(models.InteractionEvent, error) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		yield(models.InteractionEvent{}, ErrStoreClosed)
		return
	}

	root := []byte(keyPrefix)
	stopped := false
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = root
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(root)
		for it.ValidForPrefix(root) {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			userID, ts, ok := parseKey(item.Key())
			if !ok {
				it.Next()
				continue
			}
			if ts.Before(since) {
				it.Seek(appendTimestamp(userPrefix(userID), since))
				continue
			}
			ev, err := decodeItem(item)
			if err != nil {
				return err
			}
			if !yield(ev, nil) {
				stopped = true
				return nil
			}
			it.Next()
		}
		return nil
	})
	if err != nil && !stopped {
		yield(models.InteractionEvent{}, fmt.Errorf("scan interactions: %w", err))
	}
}

func decodeItem(item *badger.Item) (models.InteractionEvent, error) {
	userID, ts, ok := parseKey(item.Key())
	if !ok {
		return models.InteractionEvent{}, fmt.Errorf("corrupt interaction key %q", item.Key())
	}
	var rec record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return models.InteractionEvent{}, fmt.Errorf("decode interaction %s: %w", item.Key(), err)
	}
	return models.InteractionEvent{
		ID:        rec.ID,
		UserID:    userID,
		Kind:      rec.Kind,
		ItemID:    rec.ItemID,
		Query:     rec.Query,
		Timestamp: ts,
	}, nil
}

// RunGC reclaims value-log space left by expired events.
func (s *BadgerStore) RunGC() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	for {
		err := s.db.RunValueLogGC(s.gcRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Interaction store closed")
	return nil
}
