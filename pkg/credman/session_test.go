package credman

import (
	"bytes"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func openTestStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	s, err := OpenSessionStore(filepath.Join(t.TempDir(), "sessions.db"), testKey, ttl)
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	return u
}

func TestSessionStoreSaveLoad(t *testing.T) {
	s := openTestStore(t, 0)
	u := mustURL(t, "http://localhost:8112/json")

	if err := s.Save(u, []*http.Cookie{{Name: "_session_id", Value: "abc"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(u)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Name != "_session_id" || got[0].Value != "abc" || got[0].Path != "/" {
		t.Fatalf("Load: %+v", got)
	}

	other, err := s.Load(mustURL(t, "http://remote:8112/json"))
	if err != nil || len(other) != 0 {
		t.Fatalf("other host leaked: %v, %v", other, err)
	}

	hosts, err := s.Hosts()
	if err != nil || len(hosts) != 1 || hosts[0] != "localhost:8112" {
		t.Fatalf("Hosts: %v, %v", hosts, err)
	}
}

func TestSessionStoreEncryptsAtRest(t *testing.T) {
	s := openTestStore(t, 0)
	u := mustURL(t, "http://localhost:8112/json")
	if err := s.Save(u, []*http.Cookie{{Name: "_session_id", Value: "plaintext-secret"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	var raw []byte
	if err := s.db.QueryRow(`SELECT value FROM sessions`).Scan(&raw); err != nil {
		t.Fatalf("QueryRow: %v", err)
	}
	if bytes.Contains(raw, []byte("plaintext-secret")) {
		t.Fatalf("cookie stored in the clear")
	}
}

func TestSessionStoreSaveReplacesAndClears(t *testing.T) {
	s := openTestStore(t, 0)
	u := mustURL(t, "http://localhost:8112/json")
	_ = s.Save(u, []*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}})
	if err := s.Save(u, []*http.Cookie{{Name: "a", Value: "3"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load(u)
	if len(got) != 1 || got[0].Value != "3" {
		t.Fatalf("Save did not replace: %+v", got)
	}
	if err := s.Save(u, nil); err != nil {
		t.Fatalf("Save(nil): %v", err)
	}
	if got, _ := s.Load(u); len(got) != 0 {
		t.Fatalf("Save(nil) did not clear: %+v", got)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	s := openTestStore(t, time.Hour)
	u := mustURL(t, "http://localhost:8112/json")
	base := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return base }

	_ = s.Save(u, []*http.Cookie{
		{Name: "live", Value: "1"},
		{Name: "dead", Value: "2", Expires: base.Add(-time.Minute)},
	})
	got, _ := s.Load(u)
	if len(got) != 1 || got[0].Name != "live" {
		t.Fatalf("expired cookie returned: %+v", got)
	}

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	if got, _ := s.Load(u); len(got) != 0 {
		t.Fatalf("ttl not applied: %+v", got)
	}
	n, err := s.Purge()
	if err != nil || n != 2 {
		t.Fatalf("Purge: %d, %v", n, err)
	}
}

func TestSessionStoreWrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	u := mustURL(t, "http://localhost:8112/json")
	s, err := OpenSessionStore(path, testKey, 0)
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	_ = s.Save(u, []*http.Cookie{{Name: "a", Value: "1"}})
	_ = s.Close()

	s2, err := OpenSessionStore(path, bytes.Repeat([]byte{0x43}, 32), 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if got, err := s2.Load(u); err != nil || len(got) != 0 {
		t.Fatalf("undecryptable rows should be skipped: %v, %v", got, err)
	}
}

func TestOpenSessionStoreBadKey(t *testing.T) {
	if _, err := OpenSessionStore(filepath.Join(t.TempDir(), "s.db"), []byte("short"), 0); err == nil {
		t.Fatalf("expected key length error")
	}
}

func TestSessionStoreDoubleClose(t *testing.T) {
	s, err := OpenSessionStore(filepath.Join(t.TempDir(), "s.db"), testKey, 0)
	if err != nil {
		t.Fatalf("OpenSessionStore: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err == nil {
		t.Fatalf("second Close should fail")
	}
}
