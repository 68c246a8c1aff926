package cookies

import (
	"bufio"
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteMagic = []byte("SQLite format 3\x00")

// ErrUnsupported is returned for files that are not a known cookie store.
var ErrUnsupported = errors.New("unsupported cookie store")

// DetectFormat reports the layout of the cookie store at path.
func DetectFormat(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie store: %w", err)
	}
	if info.IsDir() {
		return FormatUnknown, fmt.Errorf("cookie store %s is a directory", path)
	}
	if info.Size() == 0 {
		return FormatUnknown, fmt.Errorf("cookie store %s is empty", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie store: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	n, err := io.ReadFull(f, header)
	if err == nil && bytes.Equal(header, sqliteMagic) {
		return detectSQLite(path)
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatUnknown, fmt.Errorf("cookie store: %w", err)
	}

	first, _ := bufio.NewReader(io.MultiReader(bytes.NewReader(header[:n]), f)).ReadString('\n')
	first = strings.TrimRight(first, "\r\n")
	if first == "# Netscape HTTP Cookie File" || first == "# HTTP Cookie File" {
		return FormatNetscape, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func detectSQLite(path string) (Format, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return FormatUnknown, fmt.Errorf("cookie store: %w", err)
	}
	defer db.Close()
	for _, s := range schemas {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, s.table).Scan(&name)
		if err == nil {
			return s.format, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return FormatUnknown, fmt.Errorf("cookie store: %w", err)
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s has no cookie table", ErrUnsupported, path)
}
