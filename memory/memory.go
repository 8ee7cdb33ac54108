// Package memory stores cached analyses and learned architecture patterns.
//
// Two backends implement provider.Memory: InMemoryStore keeps everything in
// process and SQLiteStore persists to a database file.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a new ULID string.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Checksum returns the hex SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewRecord builds an analysis record with a fresh id and checksum.
func NewRecord(analysisType string, data []byte, at time.Time) provider.AnalysisRecord {
	return provider.AnalysisRecord{
		ID:           NewID(),
		Timestamp:    at,
		AnalysisType: analysisType,
		Data:         append([]byte(nil), data...),
		Checksum:     Checksum(data),
	}
}

// sortPatterns orders counts by frequency, then by name.
func sortPatterns(counts []provider.PatternCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Pattern < counts[j].Pattern
	})
}

// InMemoryStore is a process-local provider.Memory.
type InMemoryStore struct {
	mu           sync.RWMutex
	analyses     map[string]provider.AnalysisRecord
	patterns     map[provider.ArchitecturePattern]int
	lastActivity time.Time
	now          func() time.Time
}

var _ provider.Memory = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		analyses: make(map[string]provider.AnalysisRecord),
		patterns: make(map[provider.ArchitecturePattern]int),
		now:      time.Now,
	}
}

// CacheAnalysis stores record under key, replacing any previous record.
func (s *InMemoryStore) CacheAnalysis(ctx context.Context, key string, record provider.AnalysisRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = NewID()
	}
	record.Data = append([]byte(nil), record.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[key] = record
	s.touch(record.Timestamp)
	return nil
}

// CachedAnalysis returns the record stored under key.
func (s *InMemoryStore) CachedAnalysis(ctx context.Context, key string) (provider.AnalysisRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return provider.AnalysisRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.analyses[key]
	if ok {
		record.Data = append([]byte(nil), record.Data...)
	}
	return record, ok, nil
}

// RecordPattern counts one observation of pattern.
func (s *InMemoryStore) RecordPattern(ctx context.Context, pattern provider.ArchitecturePattern) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[pattern]++
	s.touch(s.now())
	return nil
}

// MostCommonPatterns returns observed patterns, most frequent first.
func (s *InMemoryStore) MostCommonPatterns(ctx context.Context) ([]provider.PatternCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	counts := make([]provider.PatternCount, 0, len(s.patterns))
	for p, n := range s.patterns {
		counts = append(counts, provider.PatternCount{Pattern: p, Count: n})
	}
	s.mu.RUnlock()

	sortPatterns(counts)
	return counts, nil
}

// Evolution summarises the store contents.
func (s *InMemoryStore) Evolution(ctx context.Context) (provider.Evolution, error) {
	if err := ctx.Err(); err != nil {
		return provider.Evolution{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev := provider.Evolution{
		CachedAnalyses:   len(s.analyses),
		DistinctPatterns: len(s.patterns),
		LastActivity:     s.lastActivity,
	}
	for _, n := range s.patterns {
		ev.PatternObservations += n
	}
	return ev, nil
}

// touch must be called with mu held.
func (s *InMemoryStore) touch(t time.Time) {
	if t.After(s.lastActivity) {
		s.lastActivity = t
	}
}
