package client

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout is baked into every [Request] built by this package.
	DefaultTimeout = 30 * time.Second

	// DefaultLanguage is sent as Accept-Language unless overridden.
	DefaultLanguage = "en"

	// maxErrBodySize caps the amount of response body read when
	// classifying a non-matching status code.
	maxErrBodySize = 64 << 10 // 64KB
)

const (
	headerAccept         = "Accept"
	headerAcceptLanguage = "Accept-Language"
	headerAuthorization  = "Authorization"
	headerContentType    = "Content-Type"

	contentTypeJSON        = "application/json"
	contentTypeJSONCharset = "application/json; charset=utf8"
)

// execFn operates on the body of a response whose status matched.
type execFn func(statusCode int, body []byte) error

// Result is the outcome of a successful [Fetch].
type Result[T any] struct {
	StatusCode int
	Value      T
}

// APIFailure is the failure envelope a server returns alongside a
// non-matching status code.
type APIFailure struct {
	ErrorFlag bool   `json:"error"`
	Reason    string `json:"reason"`
}

// apiFailureWire requires both envelope keys to be present.
type apiFailureWire struct {
	ErrorFlag *bool   `json:"error" validate:"required"`
	Reason    *string `json:"reason" validate:"required"`
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}
