package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a call failed.
type Kind int

const (
	// KindUnknown covers failures that fit no other kind, such as a
	// non-matching status with no body at all.
	KindUnknown Kind = iota
	// KindTransport means the transport call itself failed: connection,
	// DNS, TLS, timeout, cancellation or an unreadable body.
	KindTransport
	// KindNonHTTP means the transport returned something that cannot be
	// interpreted as an HTTP response.
	KindNonHTTP
	// KindUnexpectedStatus means the status code did not match and the
	// body was not a failure envelope.
	KindUnexpectedStatus
	// KindDecode means the status code matched but the body could not be
	// decoded into the destination.
	KindDecode
	// KindAPI means the status code did not match and the body was a
	// server failure envelope.
	KindAPI
	// KindInvalidPayload means a successful body could not be converted
	// into a higher-level value, such as an image.
	KindInvalidPayload
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindTransport:        "transport",
	KindNonHTTP:          "non_http",
	KindUnexpectedStatus: "unexpected_status",
	KindDecode:           "decode",
	KindAPI:              "api",
	KindInvalidPayload:   "invalid_payload",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

var (
	// ErrTransport is matched by errors of [KindTransport].
	ErrTransport = errors.New("transport failure")
	// ErrNonHTTPResponse is matched by errors of [KindNonHTTP].
	ErrNonHTTPResponse = errors.New("response is not http")
	// ErrUnexpectedStatusCode is matched by errors of [KindUnexpectedStatus].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrDecode is matched by errors of [KindDecode].
	ErrDecode = errors.New("decoding body")
	// ErrAPI is matched by errors of [KindAPI].
	ErrAPI = errors.New("api failure")
	// ErrInvalidPayload is matched by errors of [KindInvalidPayload].
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrUnknown is matched by errors of [KindUnknown].
	ErrUnknown = errors.New("unknown failure")

	// ErrAuthFailure is additionally matched by status failures carrying
	// 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")

	// ErrEncode is wrapped by builders when the payload cannot be serialized.
	ErrEncode = errors.New("encoding request payload")
)

var kindSentinels = map[Kind]error{
	KindUnknown:          ErrUnknown,
	KindTransport:        ErrTransport,
	KindNonHTTP:          ErrNonHTTPResponse,
	KindUnexpectedStatus: ErrUnexpectedStatusCode,
	KindDecode:           ErrDecode,
	KindAPI:              ErrAPI,
	KindInvalidPayload:   ErrInvalidPayload,
}

// Error is returned by every [Client] call that does not succeed.
type Error struct {
	Kind Kind
	// StatusCode is the received status, zero when no response arrived.
	StatusCode int
	// Detail holds the decoded failure envelope for KindAPI.
	Detail *APIFailure
	// Body is the raw, possibly truncated, body for KindUnexpectedStatus.
	Body string
	// Err is the underlying cause, if any.
	Err error
}

// Error renders the failure. KindAPI renders the server reason verbatim,
// all other kinds use a fixed template.
func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		if e.Detail != nil {
			return e.Detail.Reason
		}
		return ErrAPI.Error()
	case KindTransport:
		return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
	case KindNonHTTP:
		return ErrNonHTTPResponse.Error()
	case KindUnexpectedStatus:
		return fmt.Sprintf("%v: %d", ErrUnexpectedStatusCode, e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
	case KindInvalidPayload:
		return fmt.Sprintf("%v: %v", ErrInvalidPayload, e.Err)
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%v: status %d", ErrUnknown, e.StatusCode)
		}
		return ErrUnknown.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for the error's kind, or
// ErrAuthFailure for a 401/403 status failure.
func (e *Error) Is(target error) bool {
	if target == kindSentinels[e.Kind] {
		return true
	}

	if target == ErrAuthFailure {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}

	return false
}

// KindOf returns the [Kind] of err, or KindUnknown if err is not an [*Error].
func KindOf(err error) Kind {
	e, ok := errors.AsType[*Error](err)
	if !ok {
		return KindUnknown
	}

	return e.Kind
}

// Reason returns the server supplied reason if err is a KindAPI failure.
func Reason(err error) (string, bool) {
	e, ok := errors.AsType[*Error](err)
	if !ok || e.Kind != KindAPI || e.Detail == nil {
		return "", false
	}

	return e.Detail.Reason, true
}

func transportErr(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}
