package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/reqkit/client/throttle"
)

// Client wraps the std-lib *http.Client and classifies every response
// into a decoded value or an [*Error].
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs. A Client holds no per-call state
// and is safe for concurrent use.
type Client struct {
	c            *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	decoder      Decoder
	imageDecoder ImageDecoder
}

// Build instantiates a new *Client with the provided options.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger:       slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer("no-op tracer"),
		decoder:      JSONCodec{},
		imageDecoder: StdImageDecoder,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	// Copy so options never mutate a caller's or the default client.
	hc := http.Client{}
	if opts.client != nil {
		hc = *opts.client
	}
	client.c = &hc

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.decoder != nil {
		client.decoder = opts.decoder
	}
	if opts.imageDecoder != nil {
		client.imageDecoder = opts.imageDecoder
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	transport = requireResponse{base: transport}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Do executes req and, when [WithDestination] is given, decodes the body
// into it. Without a destination the success body is discarded, which is
// the variant used for POST, PUT and DELETE calls that return nothing.
func (c *Client) Do(ctx context.Context, req *Request, opts ...DoOption) error {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return err
	}

	doFunc := func(_ int, body []byte) error {
		if settings.responseBody == nil {
			return nil
		}

		if err := c.decoder.Unmarshal(body, settings.responseBody); err != nil {
			return &Error{Kind: KindDecode, Err: err}
		}

		return nil
	}

	_, err = c.exec(ctx, req, settings.statusOK, doFunc)

	return err
}

// Fetch executes req on c and decodes the success body into a T.
func Fetch[T any](ctx context.Context, c *Client, req *Request, opts ...DoOption) (Result[T], error) {
	settings, err := applyDoOpts(opts)
	if err != nil {
		return Result[T]{}, err
	}

	var value T
	fetchFunc := func(_ int, body []byte) error {
		if err := c.decoder.Unmarshal(body, &value); err != nil {
			return &Error{Kind: KindDecode, Err: err}
		}

		return nil
	}

	statusCode, err := c.exec(ctx, req, settings.statusOK, fetchFunc)
	if err != nil {
		return Result[T]{}, err
	}

	return Result[T]{StatusCode: statusCode, Value: value}, nil
}

// exec sends req, validates the status code against statusOK, and runs fn
// on the body of a matching response. Every failure is an [*Error].
func (c *Client) exec(ctx context.Context, req *Request, statusOK int, fn execFn) (statusCode int, err error) {
	if req == nil {
		return 0, errors.New("request must not be nil")
	}

	ctx, cancel := context.WithTimeout(ctx, req.timeout)
	defer cancel()

	hreq, err := req.httpRequest(ctx)
	if err != nil {
		return 0, err
	}

	ctx, span := c.startSpan(ctx, hreq)
	hreq = hreq.WithContext(ctx)
	defer func() { endSpan(span, statusCode, err) }()

	start := time.Now()
	defer func() {
		c.logger.Debug("request completed", "method", req.method, "url", req.url, "statusCode", statusCode, "kind", KindOf(err).String(), "failed", err != nil, "since", time.Since(start).String())
	}()

	resp, err := c.c.Do(hreq)
	if err != nil {
		if errors.Is(err, errNoResponse) {
			return 0, &Error{Kind: KindNonHTTP}
		}
		return 0, transportErr(err)
	}

	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 100 || resp.StatusCode > 599 {
		return 0, &Error{Kind: KindNonHTTP, StatusCode: resp.StatusCode}
	}

	if resp.StatusCode != statusOK {
		return resp.StatusCode, c.classifyFailure(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}

	if err := fn(resp.StatusCode, body); err != nil {
		if e, ok := errors.AsType[*Error](err); ok {
			e.StatusCode = resp.StatusCode
			return resp.StatusCode, e
		}
		return resp.StatusCode, &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Err: err}
	}

	return resp.StatusCode, nil
}

// classifyFailure maps a non-matching response to KindAPI when its body
// is a failure envelope, KindUnexpectedStatus when it is not, and
// KindUnknown when there is no body at all.
func (c *Client) classifyFailure(resp *http.Response) *Error {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		return &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading error body: %w", err)}
	}

	if len(b) == 0 {
		return &Error{Kind: KindUnknown, StatusCode: resp.StatusCode}
	}

	detail, err := c.decodeFailure(b)
	if err != nil {
		return &Error{
			Kind:       KindUnexpectedStatus,
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        err,
		}
	}

	return &Error{Kind: KindAPI, StatusCode: resp.StatusCode, Detail: detail}
}

func (c *Client) decodeFailure(b []byte) (*APIFailure, error) {
	var wire apiFailureWire
	if err := c.decoder.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("decoding failure envelope: %w", err)
	}

	if err := validateStruct(wire); err != nil {
		return nil, fmt.Errorf("validating failure envelope: %w", err)
	}

	return &APIFailure{ErrorFlag: *wire.ErrorFlag, Reason: *wire.Reason}, nil
}
