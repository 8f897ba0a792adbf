package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/reqkit/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	decoder           Decoder
	imageDecoder      ImageDecoder
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall timeout on the underlying [http.Client].
// Each [Request] additionally carries its own [DefaultTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to start a client span per call.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithDecoder replaces the [JSONCodec] used to decode response bodies
// and failure envelopes.
func WithDecoder(d Decoder) Option {
	return func(c *options) error {
		if d == nil {
			return errors.New("decoder must not be nil")
		}
		c.decoder = d
		return nil
	}
}

// WithImageDecoder replaces the [StdImageDecoder] used by [Client.Image].
func WithImageDecoder(d ImageDecoder) Option {
	return func(c *options) error {
		if d == nil {
			return errors.New("image decoder must not be nil")
		}
		c.imageDecoder = d
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// errNoResponse is returned by requireResponse when the base transport
// yields neither a response nor an error.
var errNoResponse = errors.New("transport returned no response")

// requireResponse is an http.RoundTripper that turns a nil response with a
// nil error into errNoResponse, which exec reports as KindNonHTTP.
type requireResponse struct {
	base http.RoundTripper
}

func (rr requireResponse) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := rr.base.RoundTrip(r)
	if err == nil && resp == nil {
		return nil, errNoResponse
	}

	return resp, err
}

// DoOption is a functional option for [Client.Do], [Fetch] and [Client.Image].
type DoOption func(options *doOpts) error

type doOpts struct {
	statusOK     int
	responseBody any
}

// WithStatusOK declares the single status code treated as success.
// It defaults to 200.
func WithStatusOK(code int) DoOption {
	return func(opts *doOpts) error {
		if code < 100 || code > 599 {
			return fmt.Errorf("status code[%d] out of range", code)
		}
		opts.statusOK = code

		return nil
	}
}

// WithDestination decodes the response body into bodyTemplate on success.
// bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

func applyDoOpts(opts []DoOption) (doOpts, error) {
	settings := doOpts{statusOK: http.StatusOK}
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return doOpts{}, err
		}
	}

	return settings, nil
}

// RequestOption is a functional option for the request builders.
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	credential *Credential
	language   string
	headers    [][2]string
	encoder    Encoder
}

// WithCredential sets the Authorization header from c.
func WithCredential(c Credential) RequestOption {
	return func(opts *requestOpts) error {
		if err := validateStruct(c); err != nil {
			return fmt.Errorf("invalid credential: %w", err)
		}
		opts.credential = &c

		return nil
	}
}

// WithLanguage overrides the default "en" Accept-Language header.
func WithLanguage(lang string) RequestOption {
	return func(opts *requestOpts) error {
		if lang == "" {
			return errors.New("cannot use empty language")
		}
		opts.language = lang

		return nil
	}
}

// WithHeader adds a custom header. Headers managed by the builder
// (Accept, Accept-Language, Authorization, Content-Type) take precedence.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOpts) error {
		if key == "" {
			return errors.New("cannot use empty header key")
		}
		opts.headers = append(opts.headers, [2]string{key, value})

		return nil
	}
}

// WithEncoder replaces the [JSONCodec] used to serialize payloads.
func WithEncoder(e Encoder) RequestOption {
	return func(opts *requestOpts) error {
		if e == nil {
			return errors.New("encoder must not be nil")
		}
		opts.encoder = e

		return nil
	}
}
