package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/vardan201/pitchagent/internal"
	"github.com/vardan201/pitchagent/internal/review"
)

// Store archives pitch requests, critique iterations, and final packages in
// SQLite, and doubles as the research context cache.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pitch_requests (
		id TEXT PRIMARY KEY,
		mvp_description TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pitch_iterations (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		pitch TEXT NOT NULL,
		overall_score REAL,
		decision TEXT,
		feedback TEXT,
		scores TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(request_id, iteration),
		FOREIGN KEY (request_id) REFERENCES pitch_requests(id)
	);

	CREATE TABLE IF NOT EXISTS final_pitches (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		package_json TEXT NOT NULL,
		total_iterations INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES pitch_requests(id)
	);

	-- context_cache reuses gathered market research across runs for the
	-- same MVP description
	CREATE TABLE IF NOT EXISTS context_cache (
		id TEXT PRIMARY KEY,
		mvp_description TEXT NOT NULL UNIQUE,
		research_context TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_iterations_request ON pitch_iterations(request_id);
	CREATE INDEX IF NOT EXISTS idx_finals_request ON final_pitches(request_id);
	CREATE INDEX IF NOT EXISTS idx_context_lookup ON context_cache(mvp_description);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) SaveRequest(ctx context.Context, req internal.PitchRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pitch_requests (id, mvp_description, created_at) VALUES (?, ?, ?)`,
		req.ID, req.MVPDescription, req.Timestamp)
	return err
}

// SaveIteration archives one critique round. Re-saving the same round
// replaces it, which makes recording idempotent under retries.
func (s *Store) SaveIteration(ctx context.Context, requestID string, iteration int, pitch string, crit review.Critique) error {
	scores, err := json.Marshal(crit.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}

	id := fmt.Sprintf("%s_%d", requestID, iteration)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pitch_iterations (id, request_id, iteration, pitch, overall_score, decision, feedback, scores) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, requestID, iteration, pitch, crit.OverallScore, crit.Decision, crit.Feedback, string(scores))
	return err
}

func (s *Store) SaveFinal(ctx context.Context, requestID string, pkg review.FinalPackage, totalIterations int) error {
	payload, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal final package: %w", err)
	}

	id := fmt.Sprintf("%s_final", requestID)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO final_pitches (id, request_id, package_json, total_iterations) VALUES (?, ?, ?, ?)`,
		id, requestID, string(payload), totalIterations)
	return err
}

// GetContext looks up cached research context for an MVP description.
func (s *Store) GetContext(ctx context.Context, mvpDescription string) (string, bool, error) {
	key := normalizeText(mvpDescription)

	var researchContext string
	err := s.db.QueryRowContext(ctx,
		`SELECT research_context FROM context_cache WHERE mvp_description = ?`,
		key).Scan(&researchContext)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE context_cache SET usage_count = usage_count + 1, last_used = ? WHERE mvp_description = ?`,
		time.Now(), key)

	return researchContext, true, err
}

// PutContext stores research context keyed on the normalized description.
func (s *Store) PutContext(ctx context.Context, mvpDescription, researchContext string) error {
	id := fmt.Sprintf("ctx_%d", time.Now().UnixNano())
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO context_cache (id, mvp_description, research_context, usage_count, last_used, created_at) VALUES (?, ?, ?, 1, ?, ?)`,
		id, normalizeText(mvpDescription), researchContext, time.Now(), time.Now())
	return err
}

// ClearContextCache removes all cached research contexts.
func (s *Store) ClearContextCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM context_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FinalEntry is a row from the final_pitches table joined with its request.
type FinalEntry struct {
	RequestID       string
	MVPDescription  string
	Package         review.FinalPackage
	TotalIterations int
	CreatedAt       time.Time
}

// ListFinals returns archived final packages, newest first.
func (s *Store) ListFinals(ctx context.Context) ([]FinalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.request_id, COALESCE(r.mvp_description, ''), f.package_json, f.total_iterations, f.created_at
		FROM final_pitches f
		LEFT JOIN pitch_requests r ON r.id = f.request_id
		ORDER BY f.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FinalEntry
	for rows.Next() {
		var e FinalEntry
		var payload string
		if err := rows.Scan(&e.RequestID, &e.MVPDescription, &payload, &e.TotalIterations, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Package); err != nil {
			return nil, fmt.Errorf("failed to unmarshal final package %s: %w", e.RequestID, err)
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// ArchiveStats summarises archive usage.
type ArchiveStats struct {
	Requests       int
	Iterations     int
	Finals         int
	CachedContexts int
	ContextUsage   int
}

// Stats returns summary statistics for the archive.
func (s *Store) Stats(ctx context.Context) (*ArchiveStats, error) {
	stats := &ArchiveStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pitch_requests),
			(SELECT COUNT(*) FROM pitch_iterations),
			(SELECT COUNT(*) FROM final_pitches),
			(SELECT COUNT(*) FROM context_cache),
			(SELECT COALESCE(SUM(usage_count), 0) FROM context_cache)`).Scan(
		&stats.Requests,
		&stats.Iterations,
		&stats.Finals,
		&stats.CachedContexts,
		&stats.ContextUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
