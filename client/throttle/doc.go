// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the bucket is empty, outbound requests block until a token becomes
// available or the request context ends. A request that gives up waiting
// never reaches the wrapped transport, and the error it returns wraps the
// context error.
package throttle
