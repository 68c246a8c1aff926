package delugerpc

import (
	"encoding/json"
	"fmt"
	"slices"
)

// TorrentStatus holds the status fields returned for one torrent, keyed by
// the requested status key.
type TorrentStatus map[string]any

// GetString returns a string field, or "" if absent or of another type.
func (s TorrentStatus) GetString(key string) string {
	v, _ := s[key].(string)
	return v
}

// GetFloat returns a numeric field, or 0 if absent or not a number.
func (s TorrentStatus) GetFloat(key string) float64 {
	v, _ := s[key].(float64)
	return v
}

// GetInt returns a numeric field truncated to an int64.
func (s TorrentStatus) GetInt(key string) int64 {
	return int64(s.GetFloat(key))
}

// TorrentTracker is one announce URL and its tier.
type TorrentTracker struct {
	URL  string `json:"url"`
	Tier int    `json:"tier"`
}

// TorrentFile is one entry for AddTorrentFiles. It is sent as the
// positional triple [filename, filedump, options].
type TorrentFile struct {
	Filename string
	// Filedump is the base64 encoded .torrent content.
	Filedump string
	Options  *Options
}

func (f TorrentFile) MarshalJSON() ([]byte, error) {
	opts := f.Options
	if opts == nil {
		opts = &Options{}
	}
	return json.Marshal([]any{f.Filename, f.Filedump, opts})
}

// FileRename renames the file at Index within a torrent.
type FileRename struct {
	Index    int
	Filename string
}

func (r FileRename) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Index, r.Filename})
}

// TorrentFailure reports a torrent that a batch call could not process.
type TorrentFailure struct {
	ID  string
	Err DelugeError
}

func (f TorrentFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.ID, f.Err)
}

// MagnetMetadata is the result of prefetching a magnet link.
type MagnetMetadata struct {
	ID string
	// Metadata is the base64 encoded info dictionary, empty if the
	// prefetch timed out.
	Metadata string
}

func (m *MagnetMetadata) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	m.ID, m.Metadata = pair[0], pair[1]
	return nil
}

// FilterItem is one value of a filter tree category with its hit count.
type FilterItem struct {
	Value any
	Count int
}

func (f *FilterItem) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("filter item: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &f.Value); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &f.Count)
}

// Host is a daemon known to the web UI.
type Host struct {
	ID      string
	Address string
	Port    int
	User    string
}

func (h *Host) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 4 {
		return fmt.Errorf("host: expected 4 elements, got %d", len(raw))
	}
	for i, dst := range []any{&h.ID, &h.Address, &h.Port, &h.User} {
		if err := json.Unmarshal(raw[i], dst); err != nil {
			return err
		}
	}
	return nil
}

// Account is a daemon user account.
type Account struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	AuthLevel    string `json:"authlevel"`
	AuthLevelInt int    `json:"authlevel_int"`
}

// AuthLevels maps auth level names to numbers and back.
type AuthLevels struct {
	ByName  map[string]int
	ByLevel map[int]string
}

func (a *AuthLevels) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("auth levels: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.ByName); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &a.ByLevel)
}

// Torrent describes a torrent for the daemon to create with CreateTorrent.
// Build one with NewTorrentBuilder.
type Torrent struct {
	Path        string
	Tracker     string
	PieceLength int
	Comment     string
	Target      string
	Webseeds    []string
	Private     bool
	CreatedBy   string
	Trackers    []string
}

// params returns the positional parameters of core.create_torrent, without
// the trailing add_to_session flag.
func (t *Torrent) params() []any {
	var webseeds, trackers any
	if t.Webseeds != nil {
		webseeds = t.Webseeds
	}
	if t.Trackers != nil {
		trackers = t.Trackers
	}
	return []any{
		t.Path, t.Tracker, t.PieceLength, optString(t.Comment), optString(t.Target),
		webseeds, t.Private, optString(t.CreatedBy), trackers,
	}
}

// optString sends "" as null so the daemon applies its default.
func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// TorrentBuilder assembles a Torrent.
type TorrentBuilder struct {
	t Torrent
}

// NewTorrentBuilder starts a torrent for the content at path announced to
// tracker. pieceLength is in bytes.
func NewTorrentBuilder(path, tracker string, pieceLength int) *TorrentBuilder {
	return &TorrentBuilder{t: Torrent{Path: path, Tracker: tracker, PieceLength: pieceLength}}
}

func (b *TorrentBuilder) WithComment(c string) *TorrentBuilder {
	b.t.Comment = c
	return b
}

func (b *TorrentBuilder) WithTarget(target string) *TorrentBuilder {
	b.t.Target = target
	return b
}

func (b *TorrentBuilder) WithWebseeds(w ...string) *TorrentBuilder {
	b.t.Webseeds = slices.Clone(w)
	return b
}

func (b *TorrentBuilder) WithAuthor(a string) *TorrentBuilder {
	b.t.CreatedBy = a
	return b
}

func (b *TorrentBuilder) WithTrackers(tr ...string) *TorrentBuilder {
	b.t.Trackers = slices.Clone(tr)
	return b
}

func (b *TorrentBuilder) Private(enable bool) *TorrentBuilder {
	b.t.Private = enable
	return b
}

// Build returns a copy of the assembled torrent.
func (b *TorrentBuilder) Build() *Torrent {
	t := b.t
	t.Webseeds = slices.Clone(b.t.Webseeds)
	t.Trackers = slices.Clone(b.t.Trackers)
	return &t
}
