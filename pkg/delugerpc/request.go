package delugerpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestID is sent with every request. The web API answers each HTTP
// request with exactly one response, so ids are never used for matching.
const RequestID = 1

// Request is an outbound call envelope. Params are positional and already
// encoded in the order of the target method's signature.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

// MarshalJSON always emits params as an array, [] when empty.
func (r Request) MarshalJSON() ([]byte, error) {
	type wire Request
	w := wire(r)
	if w.Params == nil {
		w.Params = []json.RawMessage{}
	}
	return json.Marshal(&w)
}

var errNoMethod = errors.New("request has no method")

// RequestBuilder accumulates a method name and its positional parameters.
// Each parameter is encoded when it is added, so later changes to the
// passed value do not affect the request.
//
// Finalize hands the accumulated state to a Request and resets the builder,
// which can then be reused for another method.
type RequestBuilder struct {
	method string
	params []json.RawMessage
	err    error
}

// NewRequestBuilder returns a builder started on method.
func NewRequestBuilder(method string) *RequestBuilder {
	b := &RequestBuilder{}
	return b.Start(method)
}

// Start sets the method name. Parameters added before Start are kept.
func (b *RequestBuilder) Start(method string) *RequestBuilder {
	b.method = method
	return b
}

// Method returns the method name set by Start.
func (b *RequestBuilder) Method() string {
	return b.method
}

// AddParam appends one positional parameter.
func (b *RequestBuilder) AddParam(v any) *RequestBuilder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("param %d of %s: %w", len(b.params), b.method, err)
		return b
	}
	b.params = append(b.params, data)
	return b
}

// AddParams appends each value as its own positional parameter.
func (b *RequestBuilder) AddParams(vs ...any) *RequestBuilder {
	for _, v := range vs {
		b.AddParam(v)
	}
	return b
}

// Len returns the number of parameters added so far.
func (b *RequestBuilder) Len() int {
	return len(b.params)
}

// Finalize moves the method and parameters into a new Request and resets
// the builder. If a parameter failed to encode, that error is returned and
// the builder is reset all the same.
func (b *RequestBuilder) Finalize() (*Request, error) {
	method, params, err := b.method, b.params, b.err
	b.Reset()
	if err != nil {
		return nil, err
	}
	if method == "" {
		return nil, errNoMethod
	}
	return &Request{
		Method: method,
		Params: params,
		ID:     RequestID,
	}, nil
}

// Reset clears the method, the parameters and any pending encode error.
func (b *RequestBuilder) Reset() {
	b.method = ""
	b.params = nil
	b.err = nil
}
