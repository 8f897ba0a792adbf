//go:build integration

package e2e_test

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adamwoolhether/reqkit/client"
	"github.com/adamwoolhether/reqkit/client/apitest"
	"github.com/adamwoolhether/reqkit/client/multipart"
)

// -------------------------------------------------------------------------
// Types
// -------------------------------------------------------------------------

type user struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type avatarResp struct {
	Caption string `json:"caption"`
	Size    int    `json:"size"`
}

const token = "s3cret"

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

// store is the in-memory backend of the test app.
type store struct {
	mu      sync.Mutex
	users   map[string]user
	uploads map[string][]byte
	avatar  []byte
}

func newTestApp(t *testing.T) (*apitest.Server, *store) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s := &store{users: map[string]user{}, uploads: map[string][]byte{}}
	srv := apitest.New(t, apitest.WithLogger(log))

	srv.Handle("POST /users", s.authed(s.createUser))
	srv.Handle("GET /users/{id}", s.authed(s.getUser))
	srv.Handle("DELETE /users/{id}", s.authed(s.deleteUser))
	srv.Handle("POST /users/{id}/avatar", s.authed(s.uploadAvatar))
	srv.Handle("GET /users/{id}/avatar.png", s.getAvatar)
	srv.Handle("PUT /uploads/{key}", s.presignedPut)

	return srv, s
}

func newClient(t *testing.T, opts ...client.Option) *client.Client {
	t.Helper()

	c, err := client.Build(opts...)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	return c
}

// -------------------------------------------------------------------------
// Handlers
// -------------------------------------------------------------------------

func (s *store) authed(h apitest.Handler) apitest.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		if r.Header.Get("Authorization") != "Bearer "+token {
			return apitest.Abort(http.StatusUnauthorized, "Invalid token")
		}

		return h(w, r)
	}
}

func (s *store) createUser(w http.ResponseWriter, r *http.Request) error {
	var (
		u     user
		codec client.JSONCodec
	)
	if err := codec.Unmarshal(mustRead(r), &u); err != nil {
		return apitest.Abort(http.StatusBadRequest, "Malformed body")
	}
	if u.Name == "" {
		return apitest.Abort(http.StatusUnprocessableEntity, "Name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = strings.ToLower(u.Name)
	s.users[u.ID] = u

	return apitest.RespondJSON(w, http.StatusCreated, u)
}

func (s *store) getUser(w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	u, ok := s.users[r.PathValue("id")]
	s.mu.Unlock()

	if !ok {
		if r.Header.Get("Accept-Language") == "es" {
			return apitest.Abort(http.StatusNotFound, "Usuario no encontrado")
		}
		return apitest.Abort(http.StatusNotFound, "User not found")
	}

	return apitest.RespondJSON(w, http.StatusOK, u)
}

func (s *store) deleteUser(w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, r.PathValue("id"))

	return apitest.RespondJSON(w, http.StatusNoContent, nil)
}

func (s *store) uploadAvatar(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return apitest.Abort(http.StatusBadRequest, "Malformed form")
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		return apitest.Abort(http.StatusBadRequest, "Missing image")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if hdr.Header.Get("Content-Type") != "image/jpeg" {
		return apitest.Abort(http.StatusUnsupportedMediaType, "Avatar must be a jpeg")
	}

	s.mu.Lock()
	s.avatar = data
	s.mu.Unlock()

	return apitest.RespondJSON(w, http.StatusOK, avatarResp{Caption: r.FormValue("caption"), Size: len(data)})
}

func (s *store) getAvatar(w http.ResponseWriter, r *http.Request) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 9))); err != nil {
		return err
	}

	return apitest.RespondRaw(w, http.StatusOK, "image/png", buf.Bytes())
}

func (s *store) presignedPut(w http.ResponseWriter, r *http.Request) error {
	if r.Header.Get("Content-Type") != "" {
		return apitest.Abort(http.StatusForbidden, "Signature mismatch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads[r.PathValue("key")] = mustRead(r)
	w.WriteHeader(http.StatusOK)

	return nil
}

func mustRead(r *http.Request) []byte {
	b, _ := io.ReadAll(r.Body)
	return b
}

// -------------------------------------------------------------------------
// Tests
// -------------------------------------------------------------------------

func TestE2E_UserLifecycle(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t)
	auth := client.WithCredential(client.Bearer(token))

	req, err := client.JSON(srv.URL("/users"), http.MethodPost, user{Name: "Alice", Email: "alice@test.com"}, auth)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	created, err := client.Fetch[user](t.Context(), c, req, client.WithStatusOK(http.StatusCreated))
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if created.StatusCode != http.StatusCreated || created.Value.ID != "alice" {
		t.Fatalf("unexpected create result: %+v", created)
	}

	req, err = client.Get(srv.URL("/users/alice"), auth)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	got, err := client.Fetch[user](t.Context(), c, req)
	if err != nil {
		t.Fatalf("getting user: %v", err)
	}
	if got.Value != created.Value {
		t.Errorf("round-trip mismatch:\n  got:  %+v\n  want: %+v", got.Value, created.Value)
	}

	req, err = client.Delete(srv.URL("/users/alice"), nil, auth)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if err := c.Do(t.Context(), req, client.WithStatusOK(http.StatusNoContent)); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	req, err = client.Get(srv.URL("/users/alice"), auth, client.WithLanguage("es"))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	_, err = client.Fetch[user](t.Context(), c, req)
	if reason, ok := client.Reason(err); !ok || reason != "Usuario no encontrado" {
		t.Errorf("expected localized api failure, got %v", err)
	}
}

func TestE2E_ValidationFailure(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t)

	req, err := client.JSON(srv.URL("/users"), http.MethodPost, user{Email: "nobody@test.com"}, client.WithCredential(client.Bearer(token)))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	err = c.Do(t.Context(), req, client.WithStatusOK(http.StatusCreated))

	e, ok := errors.AsType[*client.Error](err)
	if !ok {
		t.Fatalf("expected *client.Error, got %T: %v", err, err)
	}
	if e.Kind != client.KindAPI || e.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("kind = %s status = %d, want api 422", e.Kind, e.StatusCode)
	}
	if e.Error() != "Name is required" {
		t.Errorf("message = %q, want server reason", e.Error())
	}
}

func TestE2E_AuthFailure(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t)

	req, err := client.Get(srv.URL("/users/alice"), client.WithCredential(client.Bearer("wrong")))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	err = c.Do(t.Context(), req)
	if !errors.Is(err, client.ErrAuthFailure) {
		t.Errorf("expected auth failure, got %v", err)
	}
	if !errors.Is(err, client.ErrAPI) {
		t.Errorf("expected api failure, got %v", err)
	}
}

func TestE2E_MultipartAvatar(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t)

	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F', 0x00, 0xff, 0xd9}
	fields := []multipart.Field{
		multipart.Text{Name: "caption", Value: `Me at "the" beach`},
		multipart.JPEG("image", jpeg),
	}

	req, err := client.Multipart(srv.URL("/users/alice/avatar"), http.MethodPost, fields, client.WithCredential(client.Bearer(token)))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	res, err := client.Fetch[avatarResp](t.Context(), c, req)
	if err != nil {
		t.Fatalf("uploading avatar: %v", err)
	}

	if res.Value.Caption != `Me at "the" beach` {
		t.Errorf("caption = %q", res.Value.Caption)
	}
	if res.Value.Size != len(jpeg) {
		t.Errorf("size = %d, want %d", res.Value.Size, len(jpeg))
	}
	if !bytes.Equal(s.avatar, jpeg) {
		t.Error("stored avatar differs from uploaded bytes")
	}
}

func TestE2E_PresignedUpload(t *testing.T) {
	srv, s := newTestApp(t)
	c := newClient(t)

	data := bytes.Repeat([]byte("chunk"), 4096)

	req, err := client.PutBinary(srv.URL("/uploads/report.bin?sig=abc"), data)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	if err := c.Do(t.Context(), req); err != nil {
		t.Fatalf("uploading: %v", err)
	}

	if !bytes.Equal(s.uploads["report.bin"], data) {
		t.Errorf("uploaded %d bytes, stored %d", len(data), len(s.uploads["report.bin"]))
	}
}

func TestE2E_Image(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t)

	req, err := client.Get(srv.URL("/users/alice/avatar.png"))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	img, err := c.Image(t.Context(), req)
	if err != nil {
		t.Fatalf("fetching image: %v", err)
	}

	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 9 {
		t.Errorf("bounds = %v, want 16x9", b)
	}
}

func TestE2E_ThrottledConcurrency(t *testing.T) {
	srv, _ := newTestApp(t)
	c := newClient(t, client.WithThrottle(50, 2))

	var reqs []*client.Request
	for range 6 {
		req, err := client.Get(srv.URL("/users/ghost"), client.WithCredential(client.Bearer(token)))
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		reqs = append(reqs, req)
	}

	start := time.Now()

	var wg sync.WaitGroup
	for _, req := range reqs {
		wg.Go(func() {
			err := c.Do(t.Context(), req)
			if reason, _ := client.Reason(err); reason != "User not found" {
				t.Errorf("expected api failure, got %v", err)
			}
		})
	}
	wg.Wait()

	// 2 immediate, 4 more at 20ms intervals.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("expected throttling, finished in %v", elapsed)
	}
}
