// package history persists completed transfers to SQLite so users can
// revisit playlist URLs and missing-track reports after the fact.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playthelist/playtl/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	id TEXT PRIMARY KEY,
	source_url TEXT NOT NULL,
	source_platform TEXT NOT NULL,
	target_platform TEXT NOT NULL,
	playlist_name TEXT NOT NULL,
	playlist_url TEXT NOT NULL,
	total_tracks INTEGER NOT NULL,
	resolved_tracks INTEGER NOT NULL,
	missing TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transfers_created_at ON transfers(created_at);
`

// Record is one completed transfer.
type Record struct {
	ID             string    `json:"id"`
	SourceURL      string    `json:"source_url"`
	SourcePlatform string    `json:"source_platform"`
	TargetPlatform string    `json:"target_platform"`
	PlaylistName   string    `json:"playlist_name"`
	PlaylistURL    string    `json:"playlist_url"`
	TotalTracks    int       `json:"total_tracks"`
	ResolvedTracks int       `json:"resolved_tracks"`
	Missing        []string  `json:"missing"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store provides transfer-history persistence.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the transfers table when it does not exist yet.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run history migration: %w", err)
	}
	return nil
}

// Save inserts a completed transfer. Generates the record's ID and CreatedAt
// when unset.
func (s *Store) Save(rec *Record) error {
	if rec.ID == "" {
		rec.ID = shared.GenerateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	missing, err := json.Marshal(rec.Missing)
	if err != nil {
		return fmt.Errorf("failed to encode missing tracks: %w", err)
	}

	query := `
		INSERT INTO transfers (id, source_url, source_platform, target_platform,
			playlist_name, playlist_url, total_tracks, resolved_tracks, missing, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		rec.ID,
		rec.SourceURL,
		rec.SourcePlatform,
		rec.TargetPlatform,
		rec.PlaylistName,
		rec.PlaylistURL,
		rec.TotalTracks,
		rec.ResolvedTracks,
		string(missing),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer record: %w", err)
	}

	return nil
}

// List returns the most recent transfers, newest first.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, source_url, source_platform, target_platform,
			playlist_name, playlist_url, total_tracks, resolved_tracks, missing, created_at
		FROM transfers
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var missing string
		if err := rows.Scan(
			&rec.ID,
			&rec.SourceURL,
			&rec.SourcePlatform,
			&rec.TargetPlatform,
			&rec.PlaylistName,
			&rec.PlaylistURL,
			&rec.TotalTracks,
			&rec.ResolvedTracks,
			&missing,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transfer record: %w", err)
		}
		if err := json.Unmarshal([]byte(missing), &rec.Missing); err != nil {
			return nil, fmt.Errorf("failed to decode missing tracks: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
