package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Record is a single generated QR image stored in the history database.
type Record struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	Path         string `json:"path"`
	Level        string `json:"level"`
	Payload      string `json:"payload"`
	PayloadBytes int    `json:"payload_bytes"`
	Width        int    `json:"width"`
	CreatedAt    int64  `json:"created_at"`
}

// HistoryStore manages SQLite storage for generated QR images.
type HistoryStore struct {
	db *sql.DB
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    path TEXT NOT NULL DEFAULT '',
    level TEXT NOT NULL,
    payload TEXT NOT NULL,
    payload_bytes INTEGER NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
`

const createFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS history_fts USING fts5(
    payload,
    content='history',
    content_rowid='id'
);
`

const createFTSTrigger = `
CREATE TRIGGER IF NOT EXISTS history_ai AFTER INSERT ON history BEGIN
    INSERT INTO history_fts(rowid, payload) VALUES (new.id, new.payload);
END;
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_history_kind ON history(kind);
CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
`

// NewHistoryStore opens (or creates) the SQLite database at dbPath,
// initialises the schema (history table, FTS5 index, sync trigger), and
// returns a ready-to-use HistoryStore.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createHistoryTable,
		createFTSTable,
		createFTSTrigger,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &HistoryStore{db: db}, nil
}

// Save inserts rec and sets rec.ID to the new row id.
func (s *HistoryStore) Save(rec *Record) error {
	const query = `
		INSERT INTO history (kind, path, level, payload, payload_bytes, width, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		rec.Kind,
		rec.Path,
		rec.Level,
		rec.Payload,
		rec.PayloadBytes,
		rec.Width,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	rec.ID = id
	return nil
}

// Recent returns the newest records, optionally filtered by kind.
// An empty kind matches every record.
func (s *HistoryStore) Recent(kind string, limit int) ([]Record, error) {
	const query = `
		SELECT id, kind, path, level, payload, payload_bytes, width, created_at
		FROM history
		WHERE ? = '' OR kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("recent records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Search performs a full-text search over payloads using the FTS5 index.
// Results are ranked by relevance.
func (s *HistoryStore) Search(query string, limit int) ([]Record, error) {
	// Quote the query as a single FTS5 string to avoid syntax errors.
	escaped := strings.ReplaceAll(query, `"`, `""`)
	ftsQuery := fmt.Sprintf(`"%s"`, escaped)

	const q = `
		SELECT h.id, h.kind, h.path, h.level, h.payload, h.payload_bytes, h.width, h.created_at
		FROM history h
		JOIN history_fts fts ON h.id = fts.rowid
		WHERE history_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := s.db.Query(q, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Kind, &r.Path, &r.Level,
			&r.Payload, &r.PayloadBytes, &r.Width, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return recs, nil
}
