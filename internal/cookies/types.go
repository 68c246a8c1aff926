// Package cookies reads tracker login cookies from browser cookie stores so
// the daemon can fetch .torrent files that sit behind a tracker login.
//
// Firefox and Chrome SQLite stores (unencrypted values only) and Netscape
// cookies.txt files are supported. Cookie values are never logged.
package cookies

import (
	"net/url"
	"strings"
	"time"
)

// Format identifies the layout of a cookie store.
type Format int

const (
	FormatUnknown Format = iota
	FormatFirefox
	FormatChrome
	FormatNetscape
)

func (f Format) String() string {
	switch f {
	case FormatFirefox:
		return "Firefox"
	case FormatChrome:
		return "Chrome"
	case FormatNetscape:
		return "Netscape"
	}
	return "unknown"
}

// Cookie is one stored cookie. Value is sensitive.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expiry   time.Time
	Secure   bool
	HttpOnly bool
}

// Matches reports whether a browser would send c with a request to u.
func (c Cookie) Matches(u *url.URL) bool {
	if c.Secure && u.Scheme != "https" {
		return false
	}
	return domainMatch(u.Hostname(), c.Domain) && pathMatch(u.EscapedPath(), c.Path)
}

func domainMatch(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	if reqPath == "" {
		reqPath = "/"
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return len(reqPath) == len(cookiePath) ||
		strings.HasSuffix(cookiePath, "/") ||
		reqPath[len(cookiePath)] == '/'
}
