package credman

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/warpdl/delugectl/pkg/credman/encryption"
	_ "modernc.org/sqlite"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    host     TEXT    NOT NULL,
    name     TEXT    NOT NULL,
    value    BLOB    NOT NULL,
    path     TEXT    NOT NULL DEFAULT '/',
    expires  INTEGER NOT NULL DEFAULT 0,
    saved_at INTEGER NOT NULL,
    PRIMARY KEY (host, name)
)`

// SessionStore persists web UI session cookies per daemon host in SQLite.
// Cookie values are encrypted at rest. It satisfies delugerpc.CookieStore.
type SessionStore struct {
	db  *sql.DB
	key []byte
	ttl time.Duration
	now func() time.Time
}

// OpenSessionStore opens (creating if needed) the database at path. Rows
// older than ttl are treated as expired; zero keeps them until the cookie's
// own expiry.
func OpenSessionStore(path string, key []byte, ttl time.Duration) (*SessionStore, error) {
	if len(key) != encryption.KeySize {
		return nil, encryption.ErrInvalidKey
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("error: cannot open session database: %w", err)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot create session table: %w", err)
	}
	return &SessionStore{db: db, key: key, ttl: ttl, now: time.Now}, nil
}

func (s *SessionStore) expired(savedAt, expires int64, now time.Time) bool {
	if expires > 0 && expires <= now.Unix() {
		return true
	}
	return s.ttl > 0 && time.Unix(savedAt, 0).Add(s.ttl).Before(now)
}

// Load returns the live cookies stored for u's host. Rows that fail to
// decrypt are skipped.
func (s *SessionStore) Load(u *url.URL) ([]*http.Cookie, error) {
	rows, err := s.db.Query(`
        SELECT name, value, path, expires, saved_at
        FROM sessions
        WHERE host = ?
        ORDER BY name ASC
    `, u.Host)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query sessions: %w", err)
	}
	defer rows.Close()

	now := s.now()
	var cookies []*http.Cookie
	for rows.Next() {
		var (
			name, path       string
			value            []byte
			expires, savedAt int64
		)
		if err := rows.Scan(&name, &value, &path, &expires, &savedAt); err != nil {
			return nil, fmt.Errorf("error: failed to scan session row: %w", err)
		}
		if s.expired(savedAt, expires, now) {
			continue
		}
		plain, err := encryption.DecryptValue(value, s.key)
		if err != nil {
			continue
		}
		c := &http.Cookie{Name: name, Value: string(plain), Path: path}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate session rows: %w", err)
	}
	return cookies, nil
}

// Save replaces everything stored for u's host with cookies. Saving no
// cookies clears the host.
func (s *SessionStore) Save(u *url.URL, cookies []*http.Cookie) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`DELETE FROM sessions WHERE host = ?`, u.Host); err != nil {
		return err
	}
	now := s.now().Unix()
	for _, c := range cookies {
		sealed, err := encryption.EncryptValue(c.Value, s.key)
		if err != nil {
			return err
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err = tx.Exec(
			`INSERT OR REPLACE INTO sessions (host, name, value, path, expires, saved_at) VALUES (?, ?, ?, ?, ?, ?)`,
			u.Host, c.Name, sealed, path, expires, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Hosts lists every host with a stored session.
func (s *SessionStore) Hosts() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT host FROM sessions ORDER BY host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hosts []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// Purge deletes expired rows and reports how many were removed.
func (s *SessionStore) Purge() (int64, error) {
	now := s.now()
	args := []any{now.Unix()}
	query := `DELETE FROM sessions WHERE (expires > 0 AND expires <= ?)`
	if s.ttl > 0 {
		query += ` OR saved_at < ?`
		args = append(args, now.Add(-s.ttl).Unix())
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SessionStore) Close() error {
	if s.db == nil {
		return errors.New("session store already closed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}
