// Package apitest provides an HTTP test server that speaks the server side
// of the client contract: JSON success bodies and the
// {"error": true, "reason": "..."} failure envelope.
//
//	srv := apitest.New(t)
//	srv.Handle("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) error {
//		if r.PathValue("id") != "1" {
//			return apitest.Abort(http.StatusNotFound, "Not found")
//		}
//		return apitest.RespondJSON(w, http.StatusOK, user)
//	})
//
//	req, _ := client.Get(srv.URL("/users/2"))
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Handler is a http.Handler that returns an error.
type Handler func(w http.ResponseWriter, r *http.Request) error

// Server is an httptest.Server whose handlers render returned errors as
// failure envelopes.
type Server struct {
	*httptest.Server
	mux *http.ServeMux
	log *slog.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for request and error logs.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// New starts a Server that is closed when the test ends. Logs are
// discarded unless [WithLogger] is given.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		mux: http.NewServeMux(),
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.mux)
	t.Cleanup(s.Close)

	return s
}

// Handle registers h for pattern, using [http.ServeMux] pattern syntax.
func (s *Server) Handle(pattern string, h Handler) {
	s.mux.HandleFunc(pattern, s.wrap(h))
}

// URL joins p onto the server's base URL.
func (s *Server) URL(p string) string {
	return s.Server.URL + p
}

// wrap logs each request under a fresh trace id and turns a returned
// error into a failure envelope.
func (s *Server) wrap(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.With("trace_id", uuid.NewString())
		start := time.Now()

		log.Info("request started", "method", r.Method, "path", r.URL.Path)

		err := h(w, r)
		if err != nil {
			abortErr, ok := errors.AsType[*AbortError](err)
			if !ok { // to catch errs that may have escaped, obscure them from public view.
				abortErr = newInternal(err)
			}

			log.Error(err.Error(), "source_err_file", path.Base(abortErr.FileName), "source_err_func", path.Base(abortErr.FuncName))

			if abortErr.internal {
				abortErr.Reason = http.StatusText(abortErr.Code)
			}

			if err := RespondJSON(w, abortErr.Code, Envelope{Error: true, Reason: abortErr.Reason}); err != nil {
				log.Error("responding with envelope", "error", err)
			}
		}

		log.Info("request completed", "method", r.Method, "path", r.URL.Path, "failed", err != nil, "since", time.Since(start).String())
	}
}

// Envelope is the failure body written for a returned error.
type Envelope struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// AbortError makes a handler fail with Code and a client visible Reason.
type AbortError struct {
	Code     int
	Reason   string
	FuncName string
	FileName string
	internal bool
}

// Abort returns an error rendered as a failure envelope with code and reason.
func Abort(code int, reason string) error {
	pc, filename, line, _ := runtime.Caller(1)

	return &AbortError{
		Code:     code,
		Reason:   reason,
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// newInternal wraps an unexpected error whose text must not be exposed.
func newInternal(err error) *AbortError {
	return &AbortError{
		Code:     http.StatusInternalServerError,
		Reason:   err.Error(),
		internal: true,
	}
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return e.Reason
}

// RespondJSON to an HTTP request, setting the status code and body if any.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return RespondRaw(w, statusCode, "application/json", jsonData)
}

// RespondRaw writes body as-is with the given status and content type.
// An empty contentType leaves the header unset.
func RespondRaw(w http.ResponseWriter, statusCode int, contentType string, body []byte) error {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		return err
	}

	return nil
}
