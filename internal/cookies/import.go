package cookies

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/warpdl/delugectl/pkg/logger"
)

var now = time.Now

// Import returns the cookies from the store at path that a browser would
// send to u, longest path first.
func Import(l logger.Logger, path string, u *url.URL) ([]Cookie, Format, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	format, err := DetectFormat(path)
	if err != nil {
		return nil, FormatUnknown, err
	}

	var all []Cookie
	switch format {
	case FormatNetscape:
		f, err := os.Open(path)
		if err != nil {
			return nil, format, fmt.Errorf("cookie store: %w", err)
		}
		all, err = parseNetscape(f, now(), l)
		f.Close()
		if err != nil {
			return nil, format, fmt.Errorf("read cookies.txt: %w", err)
		}
	default:
		s, ok := schemaFor(format)
		if !ok {
			return nil, format, fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		all, err = readSQLite(path, s, now())
		if err != nil {
			return nil, format, err
		}
	}

	var out []Cookie
	for _, c := range all {
		if c.Matches(u) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Path) > len(out[j].Path)
	})
	l.Debug("cookies: %d of %d %s cookies match %s", len(out), len(all), format, u.Hostname())
	return out, format, nil
}

// Header joins cookies into a Cookie header value. Later cookies with a
// name already seen are dropped.
func Header(cookies []Cookie) string {
	seen := make(map[string]bool, len(cookies))
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
