package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	coreCommon "github.com/warpdl/delugectl/common"
)

const (
	testPassword   = "deluge"
	testSessionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

type webCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeWeb imitates the Deluge web UI JSON endpoint. Calls other than
// auth.login are refused until the current session cookie is presented.
type fakeWeb struct {
	t *testing.T

	mu        sync.Mutex
	replies   map[string]string
	connected bool
	calls     []webCall
	logins    int
	session   string
}

func okReply(result string) string {
	return `{"result":` + result + `,"error":null,"id":1}`
}

func failReply(msg string) string {
	return `{"result":null,"error":{"code":4,"message":"` + msg + `"},"id":1}`
}

const notAuthReply = `{"result":null,"error":{"code":1,"message":"Not authenticated"},"id":1}`

func (f *fakeWeb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/json" {
		http.NotFound(w, r)
		return
	}
	body, _ := io.ReadAll(r.Body)
	var call webCall
	if err := json.Unmarshal(body, &call); err != nil {
		f.t.Errorf("bad request %s: %v", body, err)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	w.Header().Set("Content-Type", "application/json")

	cookie, cookieErr := r.Cookie("_session_id")
	switch {
	case call.Method == string(coreCommon.AUTH_LOGIN):
		f.logins++
		var pw string
		_ = json.Unmarshal(call.Params[0], &pw)
		if pw != testPassword {
			io.WriteString(w, okReply("false"))
			return
		}
		f.session = fmt.Sprintf("session-%d", f.logins)
		http.SetCookie(w, &http.Cookie{Name: "_session_id", Value: f.session, Path: "/"})
		io.WriteString(w, okReply("true"))
		return
	case cookieErr != nil || cookie.Value != f.session:
		io.WriteString(w, notAuthReply)
		return
	case call.Method == string(coreCommon.WEB_CONNECTED):
		if f.connected {
			io.WriteString(w, okReply("true"))
		} else {
			io.WriteString(w, okReply("false"))
		}
		return
	case call.Method == string(coreCommon.WEB_CONNECT):
		f.connected = true
		io.WriteString(w, okReply("null"))
		return
	}
	reply, ok := f.replies[call.Method]
	if !ok {
		reply = `{"result":null,"error":{"code":2,"message":"Unknown method"},"id":1}`
	}
	io.WriteString(w, reply)
}

func (f *fakeWeb) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ms []string
	for _, c := range f.calls {
		ms = append(ms, c.Method)
	}
	return ms
}

// paramsOf returns the JSON params of the last call to method.
func (f *fakeWeb) paramsOf(method string) string {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			data, _ := json.Marshal(f.calls[i].Params)
			return string(data)
		}
	}
	f.t.Fatalf("%s was never called (calls: %v)", method, f.calls)
	return ""
}

// expireSession invalidates the current session cookie, as the web UI
// does on session timeout.
func (f *fakeWeb) expireSession() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = ""
}

func (f *fakeWeb) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

// setupWeb starts a fake web UI and points the environment at it with a
// fresh config directory.
func setupWeb(t *testing.T, replies map[string]string) (*fakeWeb, *httptest.Server) {
	t.Helper()
	f := &fakeWeb{t: t, replies: replies, connected: true}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv(coreCommon.ConfigPathEnv, filepath.Join(dir, "config.toml"))
	t.Setenv(coreCommon.DaemonURLEnv, srv.URL)
	t.Setenv(coreCommon.SessionKeyEnv, testSessionKey)
	t.Setenv(coreCommon.PasswordEnv, "")
	t.Setenv(coreCommon.RPCSecretEnv, "")
	t.Setenv(coreCommon.DebugEnv, "")
	return f, srv
}

// run executes delugectl with args and returns what it printed.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var err error
	out, _ := captureOutput(func() {
		err = Execute(append([]string{"delugectl"}, args...), BuildArgs{
			Version:   "1.0.0",
			BuildType: "test",
			Commit:    "abc123",
			Date:      "2026-01-01",
		})
	})
	if err != nil {
		t.Fatalf("Execute(%s): %v", strings.Join(args, " "), err)
	}
	return out
}
