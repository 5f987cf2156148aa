package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/commodex/commodex/errs"
	"github.com/commodex/commodex/internal/schema"
)

// SQLiteStore persists snapshots in a single-file sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the snapshot database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errs.New("snapshot/sqlite", errs.CodeInvalid, errs.WithMessage("path is required"))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.New("snapshot/sqlite", errs.CodeUnavailable,
			errs.WithMessage("open database"), errs.WithCause(err), errs.WithField("path", path))
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get loads the snapshot stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (Record, error) {
	if err := key.Validate(); err != nil {
		return Record{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT quotes, fetched_at, version
		FROM snapshots
		WHERE country = ? AND category = ?
	`, key.Country, key.Category)

	var payload []byte
	var fetchedAt string
	var version uint64
	if err := row.Scan(&payload, &fetchedAt, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, errs.New("snapshot/sqlite", errs.CodeNotFound, errs.WithMessage("snapshot not found"))
		}
		return Record{}, errs.New("snapshot/sqlite", errs.CodeUnavailable,
			errs.WithMessage("read snapshot"), errs.WithCause(err))
	}

	record := Record{Key: key, Version: version}
	if err := json.Unmarshal(payload, &record.Quotes); err != nil {
		return Record{}, errs.New("snapshot/sqlite", errs.CodeMalformedInput,
			errs.WithMessage("decode snapshot payload"), errs.WithCause(err))
	}
	if at, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		record.FetchedAt = at
	}
	return record, nil
}

// Put upserts the snapshot for record.Key, bumping the stored version.
func (s *SQLiteStore) Put(ctx context.Context, record Record) (Record, error) {
	if err := record.Key.Validate(); err != nil {
		return Record{}, err
	}
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now().UTC()
	}
	if record.Quotes == nil {
		record.Quotes = []schema.RawQuote{}
	}

	payload, err := json.Marshal(record.Quotes)
	if err != nil {
		return Record{}, errs.New("snapshot/sqlite", errs.CodeMalformedInput,
			errs.WithMessage("encode snapshot payload"), errs.WithCause(err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (country, category, quotes, fetched_at, version)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(country, category)
		DO UPDATE SET
			quotes = excluded.quotes,
			fetched_at = excluded.fetched_at,
			version = snapshots.version + 1
	`, record.Key.Country, record.Key.Category, payload, record.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, errs.New("snapshot/sqlite", errs.CodeUnavailable,
			errs.WithMessage("write snapshot"), errs.WithCause(err))
	}

	return s.Get(ctx, record.Key)
}

// Keys lists every stored key.
func (s *SQLiteStore) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT country, category FROM snapshots ORDER BY country, category`)
	if err != nil {
		return nil, errs.New("snapshot/sqlite", errs.CodeUnavailable,
			errs.WithMessage("list snapshots"), errs.WithCause(err))
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var key Key
		if err := rows.Scan(&key.Country, &key.Category); err != nil {
			return nil, errs.New("snapshot/sqlite", errs.CodeUnavailable,
				errs.WithMessage("scan snapshot key"), errs.WithCause(err))
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New("snapshot/sqlite", errs.CodeUnavailable,
			errs.WithMessage("iterate snapshot keys"), errs.WithCause(err))
	}
	return keys, nil
}

func (s *SQLiteStore) migrate() error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			country TEXT NOT NULL,
			category TEXT NOT NULL,
			quotes BLOB NOT NULL,
			fetched_at TEXT NOT NULL,
			version INTEGER NOT NULL,
			PRIMARY KEY (country, category)
		);`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return errs.New("snapshot/sqlite", errs.CodeUnavailable,
				errs.WithMessage("migrate schema"), errs.WithCause(err))
		}
	}
	return nil
}
