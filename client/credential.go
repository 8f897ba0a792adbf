package client

import (
	"encoding/base64"
	"fmt"
)

// Scheme is the Authorization scheme of a [Credential].
type Scheme string

const (
	SchemeBearer Scheme = "Bearer"
	SchemeBasic  Scheme = "Basic"
)

// Credential derives the Authorization header of a request. It is never
// stored beyond the [Request] it is applied to.
type Credential struct {
	Scheme Scheme `json:"scheme" validate:"required,oneof=Bearer Basic"`
	Token  string `json:"token" validate:"required"`
}

// Bearer returns a Bearer credential for token.
func Bearer(token string) Credential {
	return Credential{Scheme: SchemeBearer, Token: token}
}

// Basic returns a Basic credential for an already encoded token.
func Basic(token string) Credential {
	return Credential{Scheme: SchemeBasic, Token: token}
}

// BasicUserPass returns a Basic credential encoding user and pass.
func BasicUserPass(user, pass string) Credential {
	return Basic(base64.StdEncoding.EncodeToString([]byte(user + ":" + pass)))
}

// header returns the Authorization header value.
func (c Credential) header() string {
	return fmt.Sprintf("%s %s", c.Scheme, c.Token)
}
