package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/adamwoolhether/reqkit/client/multipart"
)

// Request is a fully formed outgoing request. It is immutable once built;
// its accessors return copies.
type Request struct {
	method  string
	url     string
	header  http.Header
	body    []byte
	timeout time.Duration
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns the target URL.
func (r *Request) URL() string { return r.url }

// Header returns a copy of the request headers.
func (r *Request) Header() http.Header { return r.header.Clone() }

// Body returns a copy of the request body, nil when there is none.
func (r *Request) Body() []byte { return slices.Clone(r.body) }

// Timeout returns the deadline applied to the call.
func (r *Request) Timeout() time.Duration { return r.timeout }

// httpRequest materialises the descriptor for the transport.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	req.Header = r.header.Clone()

	return req, nil
}

// Get builds a GET request accepting JSON.
func Get(rawURL string, opts ...RequestOption) (*Request, error) {
	settings, err := applyRequestOpts(opts)
	if err != nil {
		return nil, err
	}

	req, err := newRequest(http.MethodGet, rawURL, settings)
	if err != nil {
		return nil, err
	}
	req.header.Set(headerAccept, contentTypeJSON)

	return req, nil
}

// JSON builds a POST, PUT or PATCH request whose body is payload
// serialized by the configured [Encoder]. Serialization failures are
// returned here rather than at send time.
func JSON(rawURL, method string, payload any, opts ...RequestOption) (*Request, error) {
	if !bodyMethods[method] {
		return nil, fmt.Errorf("method[%s] cannot carry a json body", method)
	}

	settings, err := applyRequestOpts(opts)
	if err != nil {
		return nil, err
	}

	b, err := settings.encoder.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	req, err := newRequest(method, rawURL, settings)
	if err != nil {
		return nil, err
	}
	req.header.Set(headerContentType, contentTypeJSONCharset)
	req.header.Set(headerAccept, contentTypeJSON)
	req.body = b

	return req, nil
}

// Delete builds a DELETE request with the same headers as [JSON].
// DELETE requests never carry a body: payload is accepted for symmetry
// with [JSON] and is always ignored.
func Delete(rawURL string, payload any, opts ...RequestOption) (*Request, error) {
	settings, err := applyRequestOpts(opts)
	if err != nil {
		return nil, err
	}

	req, err := newRequest(http.MethodDelete, rawURL, settings)
	if err != nil {
		return nil, err
	}
	req.header.Set(headerContentType, contentTypeJSONCharset)
	req.header.Set(headerAccept, contentTypeJSON)

	return req, nil
}

// PutBinary builds a PUT request carrying data as-is, as used for
// presigned upload URLs. No Content-Type or Accept header is set.
func PutBinary(rawURL string, data []byte, opts ...RequestOption) (*Request, error) {
	settings, err := applyRequestOpts(opts)
	if err != nil {
		return nil, err
	}

	req, err := newRequest(http.MethodPut, rawURL, settings)
	if err != nil {
		return nil, err
	}
	req.body = slices.Clone(data)
	if req.body == nil {
		req.body = []byte{}
	}

	return req, nil
}

// Multipart builds a POST, PUT or PATCH request whose body is fields
// encoded as multipart/form-data with a fresh boundary.
func Multipart(rawURL, method string, fields []multipart.Field, opts ...RequestOption) (*Request, error) {
	if !bodyMethods[method] {
		return nil, fmt.Errorf("method[%s] cannot carry a multipart body", method)
	}

	settings, err := applyRequestOpts(opts)
	if err != nil {
		return nil, err
	}

	req, err := newRequest(method, rawURL, settings)
	if err != nil {
		return nil, err
	}

	body, boundary := multipart.Encode(fields)
	req.header.Set(headerContentType, multipart.ContentType(boundary))
	req.header.Set(headerAccept, contentTypeJSON)
	req.body = body

	return req, nil
}

// newRequest applies the header policy shared by every builder.
func newRequest(method, rawURL string, settings requestOpts) (*Request, error) {
	if !allowedMethods[method] {
		return nil, fmt.Errorf("method[%s] not supported", method)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url[%s] must be absolute", rawURL)
	}

	req := Request{
		method:  method,
		url:     u.String(),
		header:  make(http.Header),
		timeout: DefaultTimeout,
	}

	for _, kv := range settings.headers {
		req.header.Set(kv[0], kv[1])
	}

	req.header.Set(headerAcceptLanguage, settings.language)

	if settings.credential != nil {
		req.header.Set(headerAuthorization, settings.credential.header())
	}

	return &req, nil
}

func applyRequestOpts(opts []RequestOption) (requestOpts, error) {
	settings := requestOpts{
		language: DefaultLanguage,
		encoder:  JSONCodec{},
	}

	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return requestOpts{}, err
		}
	}

	return settings, nil
}
