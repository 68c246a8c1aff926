package delugerpc

import (
	"encoding/json"
	"fmt"
	"sort"
)

// OptionKind identifies which torrent setting an Option carries,
// independent of its value.
type OptionKind int

const (
	KindAddPaused OptionKind = iota
	KindAutoManaged
	KindDownloadLocation
	KindFilePriorities
	KindMappedFiles
	KindMaxConnections
	KindMaxDownloadSpeed
	KindMaxUploadSlots
	KindMaxUploadSpeed
	KindMoveCompleted
	KindMoveCompletedPath
	KindName
	KindOwner
	KindPreAllocateStorage
	KindPrioritizeFirstLastPieces
	KindRemoveAtRatio
	KindSeedMode
	KindSequentialDownload
	KindShared
	KindStopAtRatio
	KindStopRatio
	KindSuperSeeding

	numOptionKinds
)

var optionKindNames = [numOptionKinds]string{
	KindAddPaused:                 "add_paused",
	KindAutoManaged:               "auto_managed",
	KindDownloadLocation:          "download_location",
	KindFilePriorities:            "file_priorities",
	KindMappedFiles:               "mapped_files",
	KindMaxConnections:            "max_connections",
	KindMaxDownloadSpeed:          "max_download_speed",
	KindMaxUploadSlots:            "max_upload_slots",
	KindMaxUploadSpeed:            "max_upload_speed",
	KindMoveCompleted:             "move_completed",
	KindMoveCompletedPath:         "move_completed_path",
	KindName:                      "name",
	KindOwner:                     "owner",
	KindPreAllocateStorage:        "pre_allocate_storage",
	KindPrioritizeFirstLastPieces: "prioritize_first_last_pieces",
	KindRemoveAtRatio:             "remove_at_ratio",
	KindSeedMode:                  "seed_mode",
	KindSequentialDownload:        "sequential_download",
	KindShared:                    "shared",
	KindStopAtRatio:               "stop_at_ratio",
	KindStopRatio:                 "stop_ratio",
	KindSuperSeeding:              "super_seeding",
}

// String returns the wire key of the kind, e.g. "max_connections".
func (k OptionKind) String() string {
	if k < 0 || k >= numOptionKinds {
		return fmt.Sprintf("OptionKind(%d)", int(k))
	}
	return optionKindNames[k]
}

// Valid reports whether k names a known torrent option.
func (k OptionKind) Valid() bool {
	return k >= 0 && k < numOptionKinds
}

// ParseOptionKind maps a wire key back to its kind.
func ParseOptionKind(name string) (OptionKind, bool) {
	for k, n := range optionKindNames {
		if n == name {
			return OptionKind(k), true
		}
	}
	return 0, false
}

// OptionKinds returns every known kind in declaration order.
func OptionKinds() []OptionKind {
	kinds := make([]OptionKind, numOptionKinds)
	for i := range kinds {
		kinds[i] = OptionKind(i)
	}
	return kinds
}

// Priority is a libtorrent file priority. Values fit in 7 bits and
// go on the wire as plain integers.
type Priority int8

const (
	PrioritySkip   Priority = 0
	PriorityLow    Priority = 1
	PriorityNormal Priority = 4
	PriorityHigh   Priority = 7
)

func (p Priority) valid() bool {
	switch p {
	case PrioritySkip, PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Option is a single torrent setting. Build one with the constructor named
// after the setting (MaxConnections, MoveCompletedPath, ...); the zero
// Option is not a valid setting.
type Option struct {
	kind  OptionKind
	value any
}

// Kind returns the setting this option carries.
func (o Option) Kind() OptionKind { return o.kind }

// Name returns the wire key of the option.
func (o Option) Name() string { return o.kind.String() }

// Value returns the payload: bool, int64, float64, string, []Priority or
// map[int32]string depending on the kind.
func (o Option) Value() any { return o.value }

func (o Option) String() string {
	return fmt.Sprintf("%s(%v)", o.kind, o.value)
}

func AddPaused(v bool) Option           { return Option{KindAddPaused, v} }
func AutoManaged(v bool) Option         { return Option{KindAutoManaged, v} }
func DownloadLocation(p string) Option  { return Option{KindDownloadLocation, p} }
func MaxConnections(n int64) Option     { return Option{KindMaxConnections, n} }
func MaxDownloadSpeed(v float64) Option { return Option{KindMaxDownloadSpeed, v} }
func MaxUploadSlots(n int64) Option     { return Option{KindMaxUploadSlots, n} }
func MaxUploadSpeed(v float64) Option   { return Option{KindMaxUploadSpeed, v} }
func MoveCompleted(v bool) Option       { return Option{KindMoveCompleted, v} }
func MoveCompletedPath(p string) Option { return Option{KindMoveCompletedPath, p} }
func Name(s string) Option              { return Option{KindName, s} }
func Owner(s string) Option             { return Option{KindOwner, s} }
func PreAllocateStorage(v bool) Option  { return Option{KindPreAllocateStorage, v} }
func RemoveAtRatio(v bool) Option       { return Option{KindRemoveAtRatio, v} }
func SeedMode(v bool) Option            { return Option{KindSeedMode, v} }
func SequentialDownload(v bool) Option  { return Option{KindSequentialDownload, v} }
func Shared(v bool) Option              { return Option{KindShared, v} }
func StopAtRatio(v bool) Option         { return Option{KindStopAtRatio, v} }
func StopRatio(v float64) Option        { return Option{KindStopRatio, v} }
func SuperSeeding(v bool) Option        { return Option{KindSuperSeeding, v} }

func PrioritizeFirstLastPieces(v bool) Option {
	return Option{KindPrioritizeFirstLastPieces, v}
}

// FilePriorities sets per-file priorities in file index order.
func FilePriorities(p ...Priority) Option {
	return Option{KindFilePriorities, append([]Priority(nil), p...)}
}

// MappedFiles renames files by index before the torrent is added.
func MappedFiles(m map[int32]string) Option {
	c := make(map[int32]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return Option{KindMappedFiles, c}
}

// Options holds at most one Option per kind. Inserting an option whose kind
// is already present replaces the stored one. The zero value is an empty set
// ready to use. Options is not safe for concurrent mutation.
type Options struct {
	m map[OptionKind]Option
}

// NewOptions returns a set built by inserting opts in order, so a later
// option wins over an earlier one of the same kind.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		o.Insert(opt)
	}
	return o
}

// Insert stores opt. If an option of the same kind was already stored it is
// evicted and returned with ok set. The zero Option carries no value and is
// ignored.
func (o *Options) Insert(opt Option) (evicted Option, ok bool) {
	if opt.value == nil {
		return Option{}, false
	}
	if o.m == nil {
		o.m = make(map[OptionKind]Option)
	}
	evicted, ok = o.m[opt.kind]
	o.m[opt.kind] = opt
	return evicted, ok
}

// Get returns the stored option of the given kind.
func (o *Options) Get(kind OptionKind) (Option, bool) {
	if o == nil {
		return Option{}, false
	}
	opt, ok := o.m[kind]
	return opt, ok
}

// Remove takes the stored option of the given kind out of the set.
func (o *Options) Remove(kind OptionKind) (Option, bool) {
	if o == nil {
		return Option{}, false
	}
	opt, ok := o.m[kind]
	if ok {
		delete(o.m, kind)
	}
	return opt, ok
}

// Len returns the number of stored options.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.m)
}

// Options returns the stored options ordered by kind.
func (o *Options) Options() []Option {
	if o == nil {
		return nil
	}
	out := make([]Option, 0, len(o.m))
	for _, opt := range o.m {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].kind < out[j].kind })
	return out
}

// Map returns the wire form: one entry per stored option keyed by its name.
func (o *Options) Map() map[string]any {
	out := make(map[string]any, o.Len())
	if o == nil {
		return out
	}
	for k, opt := range o.m {
		out[k.String()] = opt.value
	}
	return out
}

// MarshalJSON encodes the set as a JSON object. A nil or empty set
// encodes as {}.
func (o *Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Map())
}

// UnmarshalJSON decodes the wire object produced by MarshalJSON. Unknown
// keys and payloads of the wrong type are rejected.
func (o *Options) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.m = make(map[OptionKind]Option, len(raw))
	for key, val := range raw {
		kind, ok := ParseOptionKind(key)
		if !ok {
			return fmt.Errorf("unknown torrent option %q", key)
		}
		opt, err := decodeOption(kind, val)
		if err != nil {
			return fmt.Errorf("torrent option %s: %w", key, err)
		}
		o.m[kind] = opt
	}
	return nil
}

func decodeOption(kind OptionKind, data json.RawMessage) (Option, error) {
	switch kind {
	case KindDownloadLocation, KindMoveCompletedPath, KindName, KindOwner:
		var s string
		err := json.Unmarshal(data, &s)
		return Option{kind, s}, err
	case KindMaxConnections, KindMaxUploadSlots:
		var n int64
		err := json.Unmarshal(data, &n)
		return Option{kind, n}, err
	case KindMaxDownloadSpeed, KindMaxUploadSpeed, KindStopRatio:
		var f float64
		err := json.Unmarshal(data, &f)
		return Option{kind, f}, err
	case KindFilePriorities:
		var p []Priority
		if err := json.Unmarshal(data, &p); err != nil {
			return Option{}, err
		}
		for _, v := range p {
			if !v.valid() {
				return Option{}, fmt.Errorf("invalid file priority %d", v)
			}
		}
		return Option{kind, p}, nil
	case KindMappedFiles:
		var m map[int32]string
		err := json.Unmarshal(data, &m)
		return Option{kind, m}, err
	default:
		var b bool
		err := json.Unmarshal(data, &b)
		return Option{kind, b}, err
	}
}
