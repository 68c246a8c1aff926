package delugerpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/warpdl/delugectl/pkg/logger"
	"golang.org/x/net/publicsuffix"
)

// Transport delivers one request and returns the one response envelope
// received for it.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Envelope, error)
}

// CookieStore persists the web session cookie between processes.
// Save with no cookies clears whatever was stored for u.
type CookieStore interface {
	Load(u *url.URL) ([]*http.Cookie, error)
	Save(u *url.URL, cookies []*http.Cookie) error
}

// HTTPOptions configures an HTTPTransport. The zero value talks directly
// to the daemon with no timeout and an in-memory session.
type HTTPOptions struct {
	// Proxy is an http, https or socks5 URL. Empty uses the environment.
	Proxy string
	// Timeout bounds each round trip. Zero means no timeout.
	Timeout time.Duration
	// Cookies, if set, is loaded on creation and updated after every
	// response so later processes reuse the session.
	Cookies CookieStore
	// Client overrides the HTTP client entirely (Proxy and Timeout are
	// ignored). Its Jar is replaced.
	Client *http.Client
	Logger logger.Logger
}

// HTTPTransport posts requests to the daemon's web JSON endpoint. The
// session cookie set by auth.login lives in its jar and is shared by every
// call made through the transport.
type HTTPTransport struct {
	endpoint *url.URL
	client   *http.Client
	store    CookieStore
	log      logger.Logger

	// guards jar replacement in ResetSession; the jar itself is safe for
	// concurrent use
	mu sync.Mutex
}

// JSONEndpoint turns a daemon base URL such as http://host:8112 into the
// JSON endpoint http://host:8112/json.
func JSONEndpoint(baseURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported daemon url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("daemon url %q has no host", baseURL)
	}
	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, "/json") {
		path += "/json"
	}
	u.Path = path
	return u, nil
}

// NewHTTPTransport creates a transport for the daemon at baseURL.
func NewHTTPTransport(baseURL string, opts *HTTPOptions) (*HTTPTransport, error) {
	if opts == nil {
		opts = &HTTPOptions{}
	}
	endpoint, err := JSONEndpoint(baseURL)
	if err != nil {
		return nil, err
	}
	client := opts.Client
	if client == nil {
		tr, err := newProxyTransport(opts.Proxy)
		if err != nil {
			return nil, err
		}
		client = &http.Client{Transport: tr, Timeout: opts.Timeout}
	}
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	client.Jar = jar

	l := opts.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   client,
		store:    opts.Cookies,
		log:      l,
	}
	if t.store != nil {
		cookies, err := t.store.Load(endpoint)
		if err != nil {
			l.Warning("could not restore session for %s: %v", endpoint.Host, err)
		} else if len(cookies) > 0 {
			jar.SetCookies(endpoint, cookies)
			l.Debug("restored %d session cookie(s) for %s", len(cookies), endpoint.Host)
		}
	}
	return t, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// Endpoint returns the JSON endpoint requests are posted to.
func (t *HTTPTransport) Endpoint() *url.URL {
	u := *t.endpoint
	return &u
}

// Cookies returns the session cookies currently held for the endpoint.
func (t *HTTPTransport) Cookies() []*http.Cookie {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Jar.Cookies(t.endpoint)
}

// ResetSession drops the session cookie from memory and from the store.
func (t *HTTPTransport) ResetSession() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.client.Jar = jar
	t.mu.Unlock()
	if t.store != nil {
		return t.store.Save(t.endpoint, nil)
	}
	return nil
}

// Send posts req and decodes the response envelope. Any failure here is a
// *TransportError.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Envelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	t.mu.Lock()
	client := *t.client
	t.mu.Unlock()

	resp, err := client.Do(hreq)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Method: req.Method, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: err}
	}
	env, err := ParseEnvelope(data)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Err: fmt.Errorf("decode response: %w", err)}
	}
	t.persist(client.Jar)
	return env, nil
}

func (t *HTTPTransport) persist(jar http.CookieJar) {
	if t.store == nil {
		return
	}
	if err := t.store.Save(t.endpoint, jar.Cookies(t.endpoint)); err != nil {
		t.log.Warning("could not persist session for %s: %v", t.endpoint.Host, err)
	}
}

var _ Transport = (*HTTPTransport)(nil)
