// Package sources is the SQLite registry of news sources to scrape and the
// history of their runs.
package sources

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/newsgather/discovery"
	"github.com/pevans/newsgather/relevance"
)

// Custom errors for source operations
var (
	ErrSourceNotFound = errors.New("source not found")
	ErrDuplicateURL   = errors.New("source with this feed URL and domain already exists")
	ErrMissingURL     = errors.New("source needs a feed URL or a canonical domain")
)

// SourceStore manages source configurations using SQLite.
type SourceStore struct {
	db  *sql.DB
	now func() time.Time
}

// Source represents a news source configuration.
type Source struct {
	SourceID        uuid.UUID            `json:"source_id"`
	Name            string               `json:"name"`
	FeedURL         string               `json:"feed_url"`
	CanonicalDomain string               `json:"canonical_domain"`
	SourceType      relevance.SourceType `json:"source_type"`
	Region          string               `json:"region"`
	UserSelected    bool                 `json:"user_selected"`
	EnabledAt       *time.Time           `json:"enabled_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	PollingInterval *string              `json:"polling_interval,omitempty"`
	LastRunAt       *time.Time           `json:"last_run_at,omitempty"`
	LastMethod      *string              `json:"last_method,omitempty"`
	LastError       *string              `json:"last_error,omitempty"`
	FailureCount    int                  `json:"failure_count"`
}

// IsEnabled returns true if the source is currently enabled.
func (s *Source) IsEnabled() bool {
	return s.EnabledAt != nil
}

// NewSource holds the fields supplied when registering a source.
type NewSource struct {
	Name            string
	FeedURL         string
	CanonicalDomain string
	SourceType      string
	Region          string
	UserSelected    bool
	EnabledAt       *time.Time
}

// SourceUpdate represents fields that can be updated on a source.
type SourceUpdate struct {
	Name            *string
	FeedURL         *string
	CanonicalDomain *string
	SourceType      *relevance.SourceType
	Region          *string
	UserSelected    *bool
	EnabledAt       *time.Time
	ClearEnabledAt  bool // Set to true to set enabled_at to NULL
	PollingInterval *string
	LastRunAt       *time.Time
	LastMethod      *string
	LastError       *string
	ClearLastError  bool
	FailureCount    *int
}

// SourceFilter represents filtering options for listing sources.
type SourceFilter struct {
	Type    *relevance.SourceType // Filter by source_type
	Region  *string               // Filter by region, case-insensitively
	Enabled *bool                 // Filter by enabled status
	Limit   int                   // Pagination limit
	Offset  int                   // Pagination offset
}

// Run is one recorded orchestrator run for a source.
type Run struct {
	SourceID        uuid.UUID `json:"source_id"`
	RanAt           time.Time `json:"ran_at"`
	Success         bool      `json:"success"`
	Method          string    `json:"method"`
	ArticlesFound   int       `json:"articles_found"`
	ArticlesScraped int       `json:"articles_scraped"`
	Error           string    `json:"error,omitempty"`
}

// NewSourceStore creates a new source store with the given database path.
func NewSourceStore(dbPath string) (*SourceStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SourceStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the sources and runs tables if they don't exist.
func (s *SourceStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		source_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		feed_url TEXT NOT NULL DEFAULT '',
		canonical_domain TEXT NOT NULL DEFAULT '',
		source_type TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		user_selected INTEGER NOT NULL DEFAULT 0,
		enabled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		polling_interval TEXT,
		last_run_at TEXT,
		last_method TEXT,
		last_error TEXT,
		failure_count INTEGER DEFAULT 0,
		UNIQUE (feed_url, canonical_domain)
	);

	CREATE TABLE IF NOT EXISTS source_runs (
		source_id TEXT NOT NULL REFERENCES sources(source_id) ON DELETE CASCADE,
		ran_at TEXT NOT NULL,
		success INTEGER NOT NULL,
		method TEXT NOT NULL,
		articles_found INTEGER NOT NULL DEFAULT 0,
		articles_scraped INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_source_runs_source ON source_runs (source_id, ran_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SourceStore) Close() error {
	return s.db.Close()
}

// CreateSource registers a new source. A missing canonical domain is taken
// from the feed URL.
func (s *SourceStore) CreateSource(in NewSource) (*Source, error) {
	sourceType, err := relevance.ParseSourceType(in.SourceType)
	if err != nil {
		return nil, err
	}

	feedURL := strings.TrimSpace(in.FeedURL)
	domain := discovery.Domain(in.CanonicalDomain)
	if domain == "" {
		domain = discovery.Domain(feedURL)
	}
	if feedURL == "" && domain == "" {
		return nil, ErrMissingURL
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain
	}

	now := s.now()

	source := &Source{
		SourceID:        uuid.New(),
		Name:            name,
		FeedURL:         feedURL,
		CanonicalDomain: domain,
		SourceType:      sourceType,
		Region:          strings.TrimSpace(in.Region),
		UserSelected:    in.UserSelected,
		EnabledAt:       in.EnabledAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	query := `
		INSERT INTO sources (
			source_id, name, feed_url, canonical_domain, source_type,
			region, user_selected, enabled_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		source.SourceID.String(),
		source.Name,
		source.FeedURL,
		source.CanonicalDomain,
		string(source.SourceType),
		source.Region,
		source.UserSelected,
		formatTime(source.EnabledAt),
		formatTime(&source.CreatedAt),
		formatTime(&source.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateURL
		}
		return nil, fmt.Errorf("failed to insert source: %w", err)
	}

	return source, nil
}

const sourceColumns = `
	source_id, name, feed_url, canonical_domain, source_type, region,
	user_selected, enabled_at, created_at, updated_at, polling_interval,
	last_run_at, last_method, last_error, failure_count
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetSource retrieves a source by ID.
func (s *SourceStore) GetSource(sourceID uuid.UUID) (*Source, error) {
	row := s.db.QueryRow("SELECT "+sourceColumns+" FROM sources WHERE source_id = ?", sourceID.String())

	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}
	return source, nil
}

// ListSources lists sources with optional filtering.
func (s *SourceStore) ListSources(filter SourceFilter) ([]Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources"

	var whereClauses []string
	var args []any

	if filter.Type != nil {
		whereClauses = append(whereClauses, "source_type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.Region != nil {
		whereClauses = append(whereClauses, "LOWER(region) = LOWER(?)")
		args = append(args, strings.TrimSpace(*filter.Region))
	}
	if filter.Enabled != nil {
		if *filter.Enabled {
			whereClauses = append(whereClauses, "enabled_at IS NOT NULL")
		} else {
			whereClauses = append(whereClauses, "enabled_at IS NULL")
		}
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}

	return sources, nil
}

// UpdateSource updates a source with the provided fields.
func (s *SourceStore) UpdateSource(sourceID uuid.UUID, update SourceUpdate) error {
	// Build dynamic UPDATE query based on provided fields
	setClauses := []string{"updated_at = ?"}
	now := s.now()
	args := []any{formatTime(&now)}

	set := func(column string, value any) {
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.FeedURL != nil {
		set("feed_url", strings.TrimSpace(*update.FeedURL))
	}
	if update.CanonicalDomain != nil {
		set("canonical_domain", discovery.Domain(*update.CanonicalDomain))
	}
	if update.SourceType != nil {
		set("source_type", string(*update.SourceType))
	}
	if update.Region != nil {
		set("region", strings.TrimSpace(*update.Region))
	}
	if update.UserSelected != nil {
		set("user_selected", *update.UserSelected)
	}
	if update.ClearEnabledAt {
		set("enabled_at", nil)
	} else if update.EnabledAt != nil {
		set("enabled_at", formatTime(update.EnabledAt))
	}
	if update.PollingInterval != nil {
		set("polling_interval", *update.PollingInterval)
	}
	if update.LastRunAt != nil {
		set("last_run_at", formatTime(update.LastRunAt))
	}
	if update.LastMethod != nil {
		set("last_method", *update.LastMethod)
	}
	if update.ClearLastError {
		set("last_error", nil)
	} else if update.LastError != nil {
		set("last_error", *update.LastError)
	}
	if update.FailureCount != nil {
		set("failure_count", *update.FailureCount)
	}

	args = append(args, sourceID.String())
	query := fmt.Sprintf("UPDATE sources SET %s WHERE source_id = ?",
		strings.Join(setClauses, ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to update source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSourceNotFound
	}

	return nil
}

// DeleteSource deletes a source and its run history.
func (s *SourceStore) DeleteSource(sourceID uuid.UUID) error {
	if _, err := s.db.Exec("DELETE FROM source_runs WHERE source_id = ?", sourceID.String()); err != nil {
		return fmt.Errorf("failed to delete source runs: %w", err)
	}

	result, err := s.db.Exec("DELETE FROM sources WHERE source_id = ?", sourceID.String())
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSourceNotFound
	}

	return nil
}

// RecordRun stores a run in the history and updates the source's last-run
// fields. A success resets the failure count; a failure increments it. The
// updated failure count is returned.
func (s *SourceStore) RecordRun(run Run) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var failures int
	err = tx.QueryRow("SELECT failure_count FROM sources WHERE source_id = ?", run.SourceID.String()).Scan(&failures)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSourceNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query source: %w", err)
	}

	var lastError any
	if run.Success {
		failures = 0
	} else {
		failures++
		lastError = run.Error
	}

	now := s.now()
	_, err = tx.Exec(`
		UPDATE sources
		SET last_run_at = ?, last_method = ?, last_error = ?, failure_count = ?, updated_at = ?
		WHERE source_id = ?
	`, formatTime(&run.RanAt), run.Method, lastError, failures, formatTime(&now), run.SourceID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to update source: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO source_runs (
			source_id, ran_at, success, method, articles_found, articles_scraped, error
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.SourceID.String(), formatTime(&run.RanAt), run.Success, run.Method,
		run.ArticlesFound, run.ArticlesScraped, nullString(run.Error))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return failures, nil
}

// ListRuns returns the most recent runs of a source, newest first.
func (s *SourceStore) ListRuns(sourceID uuid.UUID, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT source_id, ran_at, success, method, articles_found, articles_scraped, error
		FROM source_runs
		WHERE source_id = ?
		ORDER BY ran_at DESC
		LIMIT ?
	`, sourceID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var idStr, ranAt string
		var runErr sql.NullString
		var run Run
		if err := rows.Scan(&idStr, &ranAt, &run.Success, &run.Method,
			&run.ArticlesFound, &run.ArticlesScraped, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.SourceID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse source ID: %w", err)
		}
		run.RanAt = parseTime(ranAt)
		run.Error = runErr.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// scanSource parses one row selected with sourceColumns.
func scanSource(row rowScanner) (*Source, error) {
	var sourceIDStr, sourceType, createdAtStr, updatedAtStr string
	var enabledAtStr, pollingInterval, lastRunAtStr, lastMethod, lastError sql.NullString
	source := &Source{}

	err := row.Scan(
		&sourceIDStr, &source.Name, &source.FeedURL, &source.CanonicalDomain, &sourceType, &source.Region,
		&source.UserSelected, &enabledAtStr, &createdAtStr, &updatedAtStr, &pollingInterval,
		&lastRunAtStr, &lastMethod, &lastError, &source.FailureCount,
	)
	if err != nil {
		return nil, err
	}

	source.SourceID, err = uuid.Parse(sourceIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source ID: %w", err)
	}
	source.SourceType = relevance.SourceType(sourceType)
	source.CreatedAt = parseTime(createdAtStr)
	source.UpdatedAt = parseTime(updatedAtStr)

	// Parse optional timestamps
	if enabledAtStr.Valid {
		t := parseTime(enabledAtStr.String)
		source.EnabledAt = &t
	}
	if lastRunAtStr.Valid {
		t := parseTime(lastRunAtStr.String)
		source.LastRunAt = &t
	}

	// Parse optional strings
	if pollingInterval.Valid {
		source.PollingInterval = &pollingInterval.String
	}
	if lastMethod.Valid {
		source.LastMethod = &lastMethod.String
	}
	if lastError.Valid {
		source.LastError = &lastError.String
	}

	return source, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint") ||
		strings.Contains(err.Error(), "unique constraint")
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Try RFC3339Nano first, fall back to RFC3339 for compatibility
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	// Strip monotonic clock for consistent comparisons
	return t.Truncate(0)
}
