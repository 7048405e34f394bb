// Package storage keeps the upload history in a local sqlite database.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	orig_filename TEXT NOT NULL,
	format TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	label TEXT NOT NULL DEFAULT '',
	score REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_label ON uploads(label);
CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at);
`

type Upload struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OrigFilename string    `json:"orig_filename"`
	Format       string    `json:"format"`
	SizeBytes    int64     `json:"size_bytes"`
	Label        string    `json:"label"`
	Score        float32   `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter narrows List results. Zero values mean "no restriction";
// Limit defaults to 100.
type Filter struct {
	Label  string
	Format string
	Limit  int
	Offset int
}

type Stats struct {
	Total    int            `json:"total"`
	ByLabel  map[string]int `json:"by_label"`
	ByFormat map[string]int `json:"by_format"`
}

type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %v", err)
	}

	// sqlite allows a single writer, funnel everything through one
	// connection instead of relying on busy retries.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %v", err)
	}

	return &Store{conn: conn}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Insert(upload *Upload) (int64, error) {
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}

	res, err := s.conn.Exec(`
		INSERT INTO uploads (filename, orig_filename, format, size_bytes, label, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		upload.Filename, upload.OrigFilename, upload.Format, upload.SizeBytes,
		upload.Label, upload.Score, upload.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert upload: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	upload.ID = id
	return id, nil
}

// List returns uploads matching the filter, newest first.
func (s *Store) List(filter Filter) ([]Upload, error) {
	query := `
		SELECT id, filename, orig_filename, format, size_bytes, label, score, created_at
		FROM uploads
		WHERE 1=1`
	var args []interface{}

	if filter.Label != "" {
		query += " AND label = ?"
		args = append(args, filter.Label)
	}
	if filter.Format != "" {
		query += " AND format = ?"
		args = append(args, filter.Format)
	}

	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %v", err)
	}
	defer rows.Close()

	uploads := []Upload{}
	for rows.Next() {
		var u Upload
		err := rows.Scan(&u.ID, &u.Filename, &u.OrigFilename, &u.Format,
			&u.SizeBytes, &u.Label, &u.Score, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %v", err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// Count returns the number of uploads matching the filter, ignoring
// Limit and Offset.
func (s *Store) Count(filter Filter) (int, error) {
	query := "SELECT COUNT(*) FROM uploads WHERE 1=1"
	var args []interface{}

	if filter.Label != "" {
		query += " AND label = ?"
		args = append(args, filter.Label)
	}
	if filter.Format != "" {
		query += " AND format = ?"
		args = append(args, filter.Format)
	}

	var count int
	if err := s.conn.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count uploads: %v", err)
	}
	return count, nil
}

func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{
		ByLabel:  map[string]int{},
		ByFormat: map[string]int{},
	}

	if err := s.conn.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count uploads: %v", err)
	}

	rows, err := s.conn.Query("SELECT label, COUNT(*) FROM uploads WHERE label != '' GROUP BY label")
	if err != nil {
		return nil, fmt.Errorf("label stats: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, err
		}
		stats.ByLabel[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.conn.Query("SELECT format, COUNT(*) FROM uploads WHERE format != '' GROUP BY format")
	if err != nil {
		return nil, fmt.Errorf("format stats: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var format string
		var count int
		if err := rows.Scan(&format, &count); err != nil {
			return nil, err
		}
		stats.ByFormat[format] = count
	}
	return stats, rows.Err()
}
