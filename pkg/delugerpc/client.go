// Package delugerpc is a client for the Deluge web JSON-RPC API.
//
// A call is built with a RequestBuilder, delivered by a Transport and its
// response envelope interpreted either as a value (IntoResult) or as a
// bare acknowledgement (IntoEmptyResult). Errors reported by the daemon are
// classified into typed values, so callers match on *DuplicateTorrentError
// with errors.As instead of comparing message strings.
//
// Nothing in this package retries. Transport failures (*TransportError),
// results of the wrong shape (ErrSchema), daemon errors (DelugeError) and
// missing results (ErrEmptyResult) are returned to the caller as they occur.
package delugerpc

import (
	"context"
	"errors"

	"github.com/warpdl/delugectl/pkg/logger"
)

// Client issues calls to a Deluge web daemon through a Transport. Calls may
// be made concurrently; each builds its own request.
//
// Calls that change the session (Login, Disconnect) affect every call
// sharing the transport. Serialize them against in-flight calls if that
// matters to you.
type Client struct {
	t          Transport
	log        logger.Logger
	classifier *Classifier
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request/response debug lines.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClassifier replaces the default error classifier.
func WithClassifier(cl *Classifier) ClientOption {
	return func(c *Client) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// NewClient creates a client over t.
func NewClient(t Transport, opts ...ClientOption) *Client {
	c := &Client{
		t:          t,
		log:        logger.NewNopLogger(),
		classifier: defaultClassifier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial creates a client talking HTTP to the daemon at baseURL. The client's
// logger, if any, is also given to the transport.
func Dial(baseURL string, hopts *HTTPOptions, opts ...ClientOption) (*Client, error) {
	c := NewClient(nil, opts...)
	if hopts == nil {
		hopts = &HTTPOptions{}
	}
	if hopts.Logger == nil {
		hopts.Logger = c.log
	}
	t, err := NewHTTPTransport(baseURL, hopts)
	if err != nil {
		return nil, err
	}
	c.t = t
	return c, nil
}

// Transport returns the transport the client sends through.
func (c *Client) Transport() Transport {
	return c.t
}

func (c *Client) request(method string) *RequestBuilder {
	return NewRequestBuilder(method)
}

// Call sends the request accumulated in b and returns the raw envelope.
// The builder is reset whether or not the call succeeds.
func (c *Client) Call(ctx context.Context, b *RequestBuilder) (*Envelope, error) {
	req, err := b.Finalize()
	if err != nil {
		return nil, err
	}
	c.log.Debug("Sending Request %s (%d params)", req.Method, len(req.Params))
	env, err := c.t.Send(ctx, req)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Method: req.Method, Err: err}
		}
		return nil, err
	}
	c.log.Debug("Got Response for %s: %s", req.Method, env)
	return env, nil
}

// invoke is for calls that must return a value.
func invoke[V any](ctx context.Context, c *Client, b *RequestBuilder) (V, error) {
	env, err := c.Call(ctx, b)
	if err != nil {
		var zero V
		return zero, err
	}
	return Decode[V](env, c.classifier).IntoResult()
}

// invokeEmpty is for calls whose success carries no payload.
func invokeEmpty(ctx context.Context, c *Client, b *RequestBuilder) error {
	env, err := c.Call(ctx, b)
	if err != nil {
		return err
	}
	return Decode[struct{}](env, c.classifier).IntoEmptyResult()
}
