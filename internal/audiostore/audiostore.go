// Package audiostore keeps synthesized replies in memory until a client
// fetches them through /audio/{id}.
//
// The store is bounded in both size and age: at most Capacity blobs are kept
// (least recently used goes first) and each blob expires TTL after it was
// stored. Every eviction is counted and reported.
package audiostore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/nadzzz/melabot/internal/observe"
)

// ErrNotFound is returned by Get for unknown or expired ids.
var ErrNotFound = errors.New("audio not found")

// Defaults used when a zero Capacity or TTL is passed to New.
const (
	DefaultCapacity = 512
	DefaultTTL      = time.Hour
)

// Blob is one stored audio file. Audio must not be modified by callers.
type Blob struct {
	ID          string
	Audio       []byte
	ContentType string
	StoredAt    time.Time
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Entries   int
	Capacity  int
	TTL       time.Duration
	Evictions uint64
}

// EvictFunc is called after a blob leaves the store. reason is "capacity"
// or "expired". It runs with the store's internal lock held and must not
// call back into the store.
type EvictFunc func(id string, reason string)

// Store is a bounded, concurrency-safe map from id to Blob.
type Store struct {
	cache     *expirable.LRU[string, Blob]
	capacity  int
	ttl       time.Duration
	evictions atomic.Uint64
	onEvict   EvictFunc
	metrics   *observe.Metrics
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithOnEvict registers fn to be told about evictions.
func WithOnEvict(fn EvictFunc) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// WithMetrics counts evictions on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a Store holding at most capacity blobs for at most ttl each.
func New(capacity int, ttl time.Duration, opts ...Option) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{capacity: capacity, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.cache = expirable.NewLRU[string, Blob](capacity, s.evicted, ttl)
	return s
}

// Put stores a private copy of audio and returns its new id. It never fails.
func (s *Store) Put(audio []byte, contentType string) string {
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	id := uuid.NewString()
	s.cache.Add(id, Blob{
		ID:          id,
		Audio:       append([]byte(nil), audio...),
		ContentType: contentType,
		StoredAt:    s.now(),
	})
	return id
}

// Get returns the blob stored under id, or ErrNotFound.
func (s *Store) Get(id string) (Blob, error) {
	b, ok := s.cache.Get(id)
	if !ok {
		return Blob{}, ErrNotFound
	}
	return b, nil
}

// Stats reports the current size and eviction count.
func (s *Store) Stats() Stats {
	return Stats{
		Entries:   s.cache.Len(),
		Capacity:  s.capacity,
		TTL:       s.ttl,
		Evictions: s.evictions.Load(),
	}
}

// Ping reports whether the store is usable. It exists for readiness checks.
func (s *Store) Ping(context.Context) error {
	if s.cache == nil {
		return errors.New("audio store not initialised")
	}
	return nil
}

func (s *Store) evicted(id string, b Blob) {
	reason := "capacity"
	if !s.now().Before(b.StoredAt.Add(s.ttl)) {
		reason = "expired"
	}
	s.evictions.Add(1)
	if s.metrics != nil {
		s.metrics.RecordAudioEviction(context.Background(), reason)
	}
	if s.onEvict != nil {
		s.onEvict(id, reason)
	}
}
