package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	dbutil "github.com/llehouerou/drift/internal/db"
)

const (
	appName    = "drift"
	dbFileName = "drift.db"

	// DefaultPollInterval is how often Watch checks for new revisions.
	DefaultPollInterval = 500 * time.Millisecond
)

// SQLite is a Store in a local SQLite file. Sessions sharing the file see
// each other's writes through Watch, which polls a per-user revision.
// Every field row carries the origin and revision of its last write.
type SQLite struct {
	db   *sql.DB
	poll time.Duration
}

// DefaultPath returns the database location under the XDG data dir.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db, poll: DefaultPollInterval}, nil
}

// DB exposes the connection for other tables sharing the file.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// SetPollInterval changes how often Watch polls.
func (s *SQLite) SetPollInterval(d time.Duration) {
	s.poll = d
}

func (s *SQLite) Load(ctx context.Context, userID string) (Document, error) {
	doc, _, _, err := s.load(ctx, userID)
	return doc, err
}

func (s *SQLite) load(ctx context.Context, userID string) (Document, int64, map[Field]Stamp, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM user_documents WHERE user_id = ?`, userID,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, 0, nil, ErrNotFound
	}
	if err != nil {
		return Document{}, 0, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value, origin, version FROM user_fields WHERE user_id = ?`, userID)
	if err != nil {
		return Document{}, 0, nil, err
	}
	defer rows.Close()

	var doc Document
	stamps := make(map[Field]Stamp)
	for rows.Next() {
		var field, value string
		var stamp Stamp
		if err := rows.Scan(&field, &value, &stamp.Origin, &stamp.Version); err != nil {
			return Document{}, 0, nil, err
		}
		if err := doc.SetJSON(Field(field), []byte(value)); err != nil {
			return Document{}, 0, nil, fmt.Errorf("decode %s: %w", field, err)
		}
		stamps[Field(field)] = stamp
	}
	return doc, revision, stamps, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, userID string, field Field, value any, origin string) error {
	if _, err := (&Document{}).Value(field); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return dbutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var revision int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO user_documents (user_id, revision, origin, updated_at)
			VALUES (?, 1, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				revision = revision + 1,
				origin = excluded.origin,
				updated_at = excluded.updated_at
			RETURNING revision
		`, userID, origin, time.Now().Unix()).Scan(&revision)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_fields (user_id, field, value, origin, version) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, field) DO UPDATE SET
				value = excluded.value,
				origin = excluded.origin,
				version = excluded.version
		`, userID, string(field), string(data), origin, revision)
		return err
	})
}

func (s *SQLite) revision(ctx context.Context, userID string) (int64, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM user_documents WHERE user_id = ?`, userID,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return revision, err
}

// Watch reports changes made after it started.
func (s *SQLite) Watch(ctx context.Context, userID string, fn func(Snapshot)) error {
	last, err := s.revision(ctx, userID)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		rev, err := s.revision(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if rev == last {
			continue
		}
		doc, rev, stamps, err := s.load(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		last = rev
		fn(Snapshot{Document: doc, Stamps: stamps})
	}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Verify SQLite implements Store at compile time.
var _ Store = (*SQLite)(nil)
