package cookies

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/warpdl/delugectl/pkg/logger"
)

const httpOnlyPrefix = "#HttpOnly_"

// parseNetscape reads a cookies.txt file. Malformed lines are skipped with
// a warning that names the line number only.
func parseNetscape(r io.Reader, now time.Time, l logger.Logger) ([]Cookie, error) {
	var out []Cookie
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		httpOnly := strings.HasPrefix(line, httpOnlyPrefix)
		switch {
		case httpOnly:
			line = line[len(httpOnlyPrefix):]
		case line == "", strings.HasPrefix(line, "#"):
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			l.Warning("cookies: skipping malformed line %d", lineNo)
			continue
		}
		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			l.Warning("cookies: skipping line %d with invalid expiry", lineNo)
			continue
		}
		c := Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		// 0 marks a session cookie
		if expiry > 0 {
			c.Expiry = time.Unix(expiry, 0)
			if c.Expiry.Before(now) {
				continue
			}
		}
		out = append(out, c)
	}
	return out, sc.Err()
}
