package cmd

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/warpdl/delugectl/pkg/delugerpc"
)

func TestOptionFlagName(t *testing.T) {
	tests := []struct {
		kind delugerpc.OptionKind
		want string
	}{
		{delugerpc.KindMaxConnections, "max-connections"},
		{delugerpc.KindPrioritizeFirstLastPieces, "prioritize-first-last-pieces"},
		{delugerpc.KindName, "name"},
	}
	for _, tt := range tests {
		if got := optionFlagName(tt.kind); got != tt.want {
			t.Errorf("optionFlagName(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if len(optionFlags) != len(delugerpc.OptionKinds()) {
		t.Fatalf("%d option flags for %d kinds", len(optionFlags), len(delugerpc.OptionKinds()))
	}
}

func TestParsePriorities(t *testing.T) {
	opt, err := parsePriorities("0, 1,4,7,")
	if err != nil {
		t.Fatal(err)
	}
	want := []delugerpc.Priority{delugerpc.PrioritySkip, delugerpc.PriorityLow, delugerpc.PriorityNormal, delugerpc.PriorityHigh}
	if !reflect.DeepEqual(opt.Value(), want) {
		t.Fatalf("value = %v, want %v", opt.Value(), want)
	}
	for _, bad := range []string{"2", "high", "0,9"} {
		if _, err := parsePriorities(bad); err == nil {
			t.Errorf("parsePriorities(%q) accepted", bad)
		}
	}
}

func TestParseMappedFiles(t *testing.T) {
	opt, err := parseMappedFiles([]string{"0=a/b.iso", "3=c.txt"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[int32]string{0: "a/b.iso", 3: "c.txt"}
	if !reflect.DeepEqual(opt.Value(), want) {
		t.Fatalf("value = %v, want %v", opt.Value(), want)
	}
	for _, bad := range []string{"a.iso", "x=a.iso", "1=", "99999999999=a"} {
		if _, err := parseMappedFiles([]string{bad}); err == nil {
			t.Errorf("parseMappedFiles(%q) accepted", bad)
		}
	}
}

func TestSourceKind(t *testing.T) {
	tests := map[string]addKind{
		"magnet:?xt=urn:btih:abc":   addMagnet,
		"http://example.com/a":      addURL,
		"https://example.com/a":     addURL,
		"./ubuntu.torrent":          addFile,
		"/srv/http-files/a.torrent": addFile,
	}
	for src, want := range tests {
		if got := sourceKind(src); got != want {
			t.Errorf("sourceKind(%q) = %d, want %d", src, got, want)
		}
	}
}

func TestParseHeaders(t *testing.T) {
	h, err := parseHeaders([]string{"Cookie: uid=1; pass=x", "Referer:https://example.com/"})
	if err != nil {
		t.Fatal(err)
	}
	want := http.Header{"Cookie": {"uid=1; pass=x"}, "Referer": {"https://example.com/"}}
	if !reflect.DeepEqual(h, want) {
		t.Fatalf("headers = %v, want %v", h, want)
	}
	if h, err := parseHeaders(nil); h != nil || err != nil {
		t.Fatalf("parseHeaders(nil) = %v, %v", h, err)
	}
	for _, bad := range []string{"NoColon", ": value"} {
		if _, err := parseHeaders([]string{bad}); err == nil {
			t.Errorf("parseHeaders(%q) accepted", bad)
		}
	}
}

func TestReadTorrentFileEmpty(t *testing.T) {
	memFs := afero.NewMemMapFs()
	_ = afero.WriteFile(memFs, "/empty.torrent", nil, 0o644)
	if _, _, err := readTorrentFile(memFs, "/empty.torrent"); err == nil {
		t.Fatal("empty file accepted")
	}
}

func TestFormatStatus(t *testing.T) {
	out := formatStatus("abc", delugerpc.TorrentStatus{
		"name":                  "ubuntu.iso",
		"ratio":                 1.5,
		"download_payload_rate": float64(2048),
	})
	lines := strings.Split(out, "\n")
	row := func(k, v string) string { return fmt.Sprintf("%-21s : %s", k, v) }
	want := []string{
		row("id", "abc"),
		row("download_payload_rate", "2.0 KiB/s"),
		row("name", "ubuntu.iso"),
		row("ratio", "1.500"),
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("formatStatus:\n%s\nwant:\n%s", out, strings.Join(want, "\n"))
	}
}

func TestFormatList(t *testing.T) {
	out := formatList(map[string]delugerpc.TorrentStatus{
		"id2": {"name": "b", "state": "Paused", "progress": 12.34},
		"id1": {"name": "a-very-long-torrent-name-that-overflows", "state": "Downloading", "progress": 50.0},
	})
	assertContainsAll(t, out, []string{"a-very-long-torre...", "12.3%", "Downloading", "Paused"})
	assertLineCount(t, out, 7)
	if strings.Index(out, "id1") > strings.Index(out, "id2") {
		t.Fatalf("rows not ordered by name:\n%s", out)
	}
}
