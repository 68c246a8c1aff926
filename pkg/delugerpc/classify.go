package delugerpc

import "regexp"

// Pattern recognizes one daemon error message shape. Build receives the
// submatches of Regexp and returns the typed error.
type Pattern struct {
	Regexp *regexp.Regexp
	Build  func(match []string) DelugeError
}

// Classifier turns daemon error messages into typed errors. Patterns are
// tried in order and the first match wins; a message matching nothing
// becomes an *OtherError holding the message verbatim.
type Classifier struct {
	patterns []Pattern
}

// NewClassifier creates a classifier over the given patterns. The slice is
// copied, so later changes by the caller have no effect.
func NewClassifier(patterns ...Pattern) *Classifier {
	return &Classifier{patterns: append([]Pattern(nil), patterns...)}
}

// Classify maps msg to a DelugeError. It never fails.
func (c *Classifier) Classify(msg string) DelugeError {
	if c != nil {
		for _, p := range c.patterns {
			if m := p.Regexp.FindStringSubmatch(msg); m != nil {
				return p.Build(m)
			}
		}
	}
	return &OtherError{Message: msg}
}

// DuplicateTorrentPattern matches "Torrent already in session (<id>)."
var DuplicateTorrentPattern = Pattern{
	Regexp: regexp.MustCompile(`Torrent already in session \(([[:alnum:]]+)\)\.`),
	Build: func(m []string) DelugeError {
		return &DuplicateTorrentError{ID: m[1]}
	},
}

var defaultClassifier = NewClassifier(DuplicateTorrentPattern)

// DefaultClassifier returns the classifier holding every known message
// pattern.
func DefaultClassifier() *Classifier {
	return defaultClassifier
}

// Classify maps msg to a DelugeError using the default patterns.
func Classify(msg string) DelugeError {
	return defaultClassifier.Classify(msg)
}
