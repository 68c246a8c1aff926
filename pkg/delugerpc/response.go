package delugerpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorValue is the error member of a response envelope.
type ErrorValue struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope is a response as received from the daemon, with the result
// still encoded. It remembers whether the result field was present at all
// and whether it was JSON null.
type Envelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorValue     `json:"error"`
	ID     int             `json:"id"`
}

// HasResult reports whether the result field was present, null included.
func (e *Envelope) HasResult() bool {
	return e.Result != nil
}

// IsNullResult reports whether the result field was present as null.
func (e *Envelope) IsNullResult() bool {
	return string(e.Result) == "null"
}

// empty reports whether the envelope carries no usable result.
func (e *Envelope) empty() bool {
	return !e.HasResult() || e.IsNullResult()
}

// String renders the envelope for logs, classifying the error if any.
func (e *Envelope) String() string {
	if e.Error != nil {
		return fmt.Sprintf("Response { error: %s }", Classify(e.Error.Message))
	}
	if !e.HasResult() {
		return "Response { result: <absent> }"
	}
	return fmt.Sprintf("Response { result: %s }", e.Result)
}

// ParseEnvelope decodes a raw response body.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Response is an envelope whose result is expected to decode into V.
type Response[V any] struct {
	env        *Envelope
	classifier *Classifier
}

// Decode binds env to the result type V. Daemon errors are classified with
// c, or the default classifier when c is nil.
func Decode[V any](env *Envelope, c *Classifier) *Response[V] {
	if c == nil {
		c = defaultClassifier
	}
	return &Response[V]{env: env, classifier: c}
}

// Envelope returns the underlying envelope.
func (r *Response[V]) Envelope() *Envelope {
	return r.env
}

// IntoResult is for calls documented to always return a value. A daemon
// error is returned classified; a missing or null result yields
// ErrEmptyResult; a result that does not decode into V yields an error
// wrapping ErrSchema.
func (r *Response[V]) IntoResult() (V, error) {
	var v V
	if r.env.Error != nil {
		return v, r.classifier.Classify(r.env.Error.Message)
	}
	if r.env.empty() {
		return v, ErrEmptyResult
	}
	if err := json.Unmarshal(r.env.Result, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return v, nil
}

// IntoEmptyResult is for calls whose success carries no payload. It behaves
// like IntoResult except that an empty result is success. Any payload that
// is present is ignored.
func (r *Response[V]) IntoEmptyResult() error {
	if r.env.Error != nil {
		return r.classifier.Classify(r.env.Error.Message)
	}
	return nil
}

// IsEmptyResult reports whether err is the empty-result condition.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}
