package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Devinfern/sanghos-sub001/internal/domain"
)

// SQLiteStore is the internal retreat record store. The recommendation
// pipeline only reads from it; writes exist for seeding and the listings API.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS retreats (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  instructor TEXT NOT NULL DEFAULT 'TBD',
  location TEXT NOT NULL,
  date TEXT NOT NULL,
  time TEXT NOT NULL DEFAULT '',
  duration TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL,
  categories_json TEXT NOT NULL DEFAULT '[]',
  image TEXT NOT NULL DEFAULT '',
  availability TEXT NOT NULL DEFAULT ''
);
`
	if _, err := s.db.Exec(createTable); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_retreats_date ON retreats(date);`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_retreats_location ON retreats(location);`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) CountRetreats() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM retreats`).Scan(&n)
	return n, err
}

// UpsertMany inserts the seed dataset without duplicating by id.
func (s *SQLiteStore) UpsertMany(items []domain.RetreatCandidate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT OR IGNORE INTO retreats
(id, title, description, instructor, location, date, time, duration, price, categories_json, image, availability)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range items {
		cats, _ := json.Marshal(r.Categories)
		if _, err := stmt.Exec(
			r.ID, r.Title, r.Description, instructorOrTBD(r.Instructor), r.Location,
			r.Date.Format("2006-01-02"), r.Time, r.Duration, r.Price,
			string(cats), r.Image, r.AvailabilityHint,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListUpcoming returns all retreats with date >= the given day, ordered by
// date ascending. Provenance is tagged internal.
func (s *SQLiteStore) ListUpcoming(ctx context.Context, from time.Time) ([]domain.RetreatCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, description, instructor, location, date, time, duration, price, categories_json, image, availability
FROM retreats
WHERE date >= ?
ORDER BY date ASC
`, from.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query upcoming retreats: %w", err)
	}
	defer rows.Close()

	var out []domain.RetreatCandidate
	for rows.Next() {
		r, err := scanRetreat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetRetreat(ctx context.Context, id string) (domain.RetreatCandidate, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, description, instructor, location, date, time, duration, price, categories_json, image, availability
FROM retreats WHERE id = ?
`, id)
	r, err := scanRetreat(row)
	if err == sql.ErrNoRows {
		return domain.RetreatCandidate{}, false, nil
	}
	if err != nil {
		return domain.RetreatCandidate{}, false, err
	}
	return r, true, nil
}

func (s *SQLiteStore) ListRetreats(ctx context.Context, limit, offset int) ([]domain.RetreatCandidate, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.CountRetreats()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, description, instructor, location, date, time, duration, price, categories_json, image, availability
FROM retreats
ORDER BY date ASC, id
LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.RetreatCandidate
	for rows.Next() {
		r, err := scanRetreat(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRetreat(row rowScanner) (domain.RetreatCandidate, error) {
	var r domain.RetreatCandidate
	var dateStr, catsJSON string

	if err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Instructor, &r.Location,
		&dateStr, &r.Time, &r.Duration, &r.Price, &catsJSON, &r.Image, &r.AvailabilityHint,
	); err != nil {
		return domain.RetreatCandidate{}, err
	}

	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return domain.RetreatCandidate{}, fmt.Errorf("retreat %s: bad date %q: %w", r.ID, dateStr, err)
	}
	r.Date = d
	_ = json.Unmarshal([]byte(catsJSON), &r.Categories)

	r.Source = domain.SourceInternal
	return r, nil
}

func instructorOrTBD(s string) string {
	if s == "" {
		return "TBD"
	}
	return s
}
