// Package reqkit exposes the client builder.
package reqkit

import (
	"github.com/adamwoolhether/reqkit/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
