package cookies

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// chromeEpochOffset is the number of seconds between 1601-01-01 and the Unix
// epoch. Chrome stores expiry as microseconds since the former.
const chromeEpochOffset int64 = 11_644_473_600

type sqliteSchema struct {
	format Format
	table  string
	query  string
	// cutoff converts now into the store's expiry unit.
	cutoff func(time.Time) int64
	expiry func(int64) time.Time
}

var schemas = []sqliteSchema{
	{
		format: FormatFirefox,
		table:  "moz_cookies",
		query: `SELECT name, value, host, path, expiry, isSecure, isHttpOnly
			FROM moz_cookies WHERE expiry > ? ORDER BY name`,
		cutoff: func(t time.Time) int64 { return t.Unix() },
		expiry: func(v int64) time.Time { return time.Unix(v, 0) },
	},
	{
		format: FormatChrome,
		table:  "cookies",
		// encrypted values are skipped; only plain text ones are usable
		query: `SELECT name, value, host_key, path, expires_utc, is_secure, is_httponly
			FROM cookies WHERE value != '' AND (expires_utc = 0 OR expires_utc > ?) ORDER BY name`,
		cutoff: func(t time.Time) int64 { return (t.Unix() + chromeEpochOffset) * 1_000_000 },
		expiry: func(v int64) time.Time {
			if v == 0 {
				return time.Time{}
			}
			return time.Unix(v/1_000_000-chromeEpochOffset, 0)
		},
	},
}

func schemaFor(f Format) (sqliteSchema, bool) {
	for _, s := range schemas {
		if s.format == f {
			return s, true
		}
	}
	return sqliteSchema{}, false
}

// readSQLite returns the unexpired cookies of a browser store. The store is
// copied first so a running browser's lock does not get in the way.
func readSQLite(path string, s sqliteSchema, now time.Time) ([]Cookie, error) {
	dir, err := os.MkdirTemp("", "delugectl-cookies-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, filepath.Base(path))
	if err := copyFile(path, dst); err != nil {
		return nil, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(path + suffix); err == nil {
			_ = copyFile(path+suffix, dst+suffix)
		}
	}

	db, err := sql.Open("sqlite", "file:"+dst+"?immutable=1")
	if err != nil {
		return nil, fmt.Errorf("open %s cookie store: %w", s.format, err)
	}
	defer db.Close()

	rows, err := db.Query(s.query, s.cutoff(now))
	if err != nil {
		return nil, fmt.Errorf("query %s cookie store: %w", s.format, err)
	}
	defer rows.Close()

	var out []Cookie
	for rows.Next() {
		var (
			c              Cookie
			expiry         int64
			secure, htOnly int
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expiry, &secure, &htOnly); err != nil {
			return nil, fmt.Errorf("scan %s cookie: %w", s.format, err)
		}
		c.Expiry = s.expiry(expiry)
		c.Secure = secure != 0
		c.HttpOnly = htOnly != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
