package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/reqkit/client"
	"github.com/adamwoolhether/reqkit/client/multipart"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_ = c
	fmt.Println("client built")
	// Output: client built
}

func ExampleGet() {
	req, err := client.Get("https://example.com/api/v1/users/1",
		client.WithCredential(client.Bearer("token123")),
		client.WithLanguage("es"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method(), req.URL())
	fmt.Println(req.Header().Get("Authorization"))
	fmt.Println(req.Header().Get("Accept-Language"))
	// Output:
	// GET https://example.com/api/v1/users/1
	// Bearer token123
	// es
}

func ExampleJSON() {
	type user struct {
		Name string `json:"name"`
	}

	req, err := client.JSON("https://example.com/api/v1/users", http.MethodPost, user{Name: "alice"})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Header().Get("Content-Type"))
	fmt.Println(string(req.Body()))
	// Output:
	// application/json; charset=utf8
	// {"name":"alice"}
}

func ExampleMultipart() {
	fields := []multipart.Field{
		multipart.Text{Name: "caption", Value: "Sunset"},
		multipart.JPEG("image", []byte{0xff, 0xd8, 0xff}),
	}

	req, err := client.Multipart("https://example.com/api/v1/photos", http.MethodPost, fields)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(req.Method(), req.Header().Get("Accept"))
	// Output: POST application/json
}

func ExampleFetch() {
	type user struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user{Name: "alice", Age: 30})
	}))
	defer srv.Close()

	c, _ := client.Build()
	req, _ := client.Get(srv.URL + "/users/1")

	res, err := client.Fetch[user](context.Background(), c, req)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(res.StatusCode, res.Value.Name, res.Value.Age)
	// Output: 200 alice 30
}

func ExampleClient_Do() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := client.Build()
	req, _ := client.JSON(srv.URL+"/users", http.MethodPost, map[string]string{"name": "bob"})

	if err := c.Do(context.Background(), req, client.WithStatusOK(http.StatusCreated)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("created")
	// Output: created
}

func ExampleReason() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Session expired"}`))
	}))
	defer srv.Close()

	c, _ := client.Build()
	req, _ := client.Get(srv.URL + "/me")

	err := c.Do(context.Background(), req)
	if reason, ok := client.Reason(err); ok {
		fmt.Println(reason)
	}
	fmt.Println(client.KindOf(err), errors.Is(err, client.ErrAuthFailure))
	// Output:
	// Session expired
	// api true
}

func ExampleWithDestination() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c, _ := client.Build()
	req, _ := client.Get(srv.URL)

	var health struct {
		Status string `json:"status"`
	}
	if err := c.Do(context.Background(), req, client.WithDestination(&health)); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(health.Status)
	// Output: ok
}

func ExampleBasicUserPass() {
	c := client.BasicUserPass("user", "pass")

	fmt.Println(c.Scheme, c.Token)
	// Output: Basic dXNlcjpwYXNz
}
