package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds defaults shared across invocations. Flags given on the
// command line override it.
//
//	token: abc123
//	scheme: Bearer
//	lang: es
//	userAgent: myapp/1.0
//	rps: 5
//	burst: 2
//	headers:
//	  X-Api-Key: secret
type Profile struct {
	Token     string            `yaml:"token"`
	Scheme    string            `yaml:"scheme"`
	Lang      string            `yaml:"lang"`
	UserAgent string            `yaml:"userAgent"`
	RPS       int               `yaml:"rps"`
	Burst     int               `yaml:"burst"`
	Headers   map[string]string `yaml:"headers"`
}

// LoadProfile reads the profile at path. An empty path yields the zero
// Profile. Unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return Profile{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("opening profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("decoding profile[%s]: %w", path, err)
	}

	if p.RPS < 0 || p.Burst < 0 {
		return Profile{}, fmt.Errorf("profile[%s]: rps and burst must not be negative", path)
	}

	return p, nil
}
