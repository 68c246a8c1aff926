package delugerpc

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult is returned when a call that must produce a value
	// received a response without one.
	ErrEmptyResult = errors.New("incorrectly empty result")

	// ErrSchema is returned when the response result does not match the
	// shape expected by the call.
	ErrSchema = errors.New("response JSON doesn't satisfy response schema")

	// ErrIncorrectHeaderFormat is returned when header values passed to
	// AddTorrentURL are not ASCII compliant.
	ErrIncorrectHeaderFormat = errors.New("header values are not ASCII compliant")

	// ErrNegativeValue is returned when the daemon reports a negative number
	// where an unsigned one is expected.
	ErrNegativeValue = errors.New("negative value where unsigned expected")
)

// DelugeError is an error reported by the daemon, classified from its
// free-text message. It is either a *DuplicateTorrentError or an *OtherError.
type DelugeError interface {
	error
	delugeError()
}

// DuplicateTorrentError is reported when adding a torrent that is already in
// the session. ID is the info hash of the existing torrent.
type DuplicateTorrentError struct {
	ID string
}

func (e *DuplicateTorrentError) Error() string {
	return fmt.Sprintf("Tried to add torrent already in session (id: %s)", e.ID)
}

func (*DuplicateTorrentError) delugeError() {}

// OtherError carries a daemon message that matched no known pattern.
type OtherError struct {
	Message string
}

func (e *OtherError) Error() string {
	return e.Message
}

func (*OtherError) delugeError() {}

// TransportError wraps a failure to deliver a request or to read its
// response envelope. It is never produced from a daemon message.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
