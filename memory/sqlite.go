package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ClassicalDude/swift-mcp-server/provider"
)

// SQLiteStore is a provider.Memory backed by a SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	journalMode string
	now         func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithJournalMode sets the SQLite journal mode. Default: WAL.
func WithJournalMode(mode string) SQLiteOption {
	return func(s *SQLiteStore) {
		if mode != "" {
			s.journalMode = strings.ToUpper(mode)
		}
	}
}

// WithStoreClock sets the clock used for pattern timestamps.
func WithStoreClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

var _ provider.Memory = (*SQLiteStore)(nil)

// OpenSQLite opens the database at path and prepares its schema.
func OpenSQLite(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db, path: path, journalMode: "WAL", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the underlying SQLite file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = " + s.journalMode + ";",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES ('schemaVersion','1');`,
		`CREATE TABLE IF NOT EXISTS analyses (
			cache_key TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			analysis_type TEXT NOT NULL,
			data BLOB NOT NULL,
			checksum TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS patterns (
			pattern TEXT PRIMARY KEY,
			occurrences INTEGER NOT NULL,
			last_seen INTEGER NOT NULL
		);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// CacheAnalysis stores record under key, replacing any previous record.
func (s *SQLiteStore) CacheAnalysis(ctx context.Context, key string, record provider.AnalysisRecord) error {
	if record.ID == "" {
		record.ID = NewID()
	}
	data := record.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses(cache_key, id, analysis_type, data, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			id = excluded.id,
			analysis_type = excluded.analysis_type,
			data = excluded.data,
			checksum = excluded.checksum,
			created_at = excluded.created_at;
	`, key, record.ID, record.AnalysisType, data, record.Checksum, record.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("cache analysis %q: %w", key, err)
	}
	return nil
}

// CachedAnalysis returns the record stored under key.
func (s *SQLiteStore) CachedAnalysis(ctx context.Context, key string) (provider.AnalysisRecord, bool, error) {
	var (
		record  provider.AnalysisRecord
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, analysis_type, data, checksum, created_at
		FROM analyses WHERE cache_key = ?;
	`, key).Scan(&record.ID, &record.AnalysisType, &record.Data, &record.Checksum, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.AnalysisRecord{}, false, nil
	}
	if err != nil {
		return provider.AnalysisRecord{}, false, fmt.Errorf("load analysis %q: %w", key, err)
	}
	record.Timestamp = time.UnixMilli(created)
	return record, true, nil
}

// RecordPattern counts one observation of pattern.
func (s *SQLiteStore) RecordPattern(ctx context.Context, pattern provider.ArchitecturePattern) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns(pattern, occurrences, last_seen) VALUES (?, 1, ?)
		ON CONFLICT(pattern) DO UPDATE SET
			occurrences = occurrences + 1,
			last_seen = excluded.last_seen;
	`, string(pattern), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record pattern %q: %w", pattern, err)
	}
	return nil
}

// MostCommonPatterns returns observed patterns, most frequent first.
func (s *SQLiteStore) MostCommonPatterns(ctx context.Context) ([]provider.PatternCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, occurrences FROM patterns
		ORDER BY occurrences DESC, pattern ASC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []provider.PatternCount{}
	for rows.Next() {
		var (
			pattern string
			n       int
		)
		if err := rows.Scan(&pattern, &n); err != nil {
			return nil, err
		}
		counts = append(counts, provider.PatternCount{Pattern: provider.ArchitecturePattern(pattern), Count: n})
	}
	return counts, rows.Err()
}

// Evolution summarises the store contents.
func (s *SQLiteStore) Evolution(ctx context.Context) (provider.Evolution, error) {
	var (
		ev           provider.Evolution
		lastAnalysis int64
		lastPattern  int64
	)
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(created_at), 0) FROM analyses;
	`).Scan(&ev.CachedAnalyses, &lastAnalysis); err != nil {
		return provider.Evolution{}, err
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(occurrences), 0), COALESCE(MAX(last_seen), 0) FROM patterns;
	`).Scan(&ev.DistinctPatterns, &ev.PatternObservations, &lastPattern); err != nil {
		return provider.Evolution{}, err
	}

	last := max(lastAnalysis, lastPattern)
	if last > 0 {
		ev.LastActivity = time.UnixMilli(last)
	}
	return ev, nil
}
