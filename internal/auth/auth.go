// Package auth implements the authorization providers that back the
// resolver IR's Protect combinator (spec §3.2 "Blueprint.server.auth",
// §4.A "Protect").
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hanpama/protograph/internal/evalctx"
)

// ErrUnauthorized is wrapped by every provider's rejection so callers can
// classify it as spec §7's Authentication error kind.
var ErrUnauthorized = errors.New("unauthorized")

// Provider authenticates one request against one configured auth scheme.
// Providers are resolved once at Blueprint-build time (spec §3.2) and are
// safe for concurrent use across requests.
type Provider interface {
	ID() string
	Authenticate(ctx context.Context, req *evalctx.RequestContext) error
}

// Basic implements RFC 7617 Basic auth against an htpasswd-style credential
// set (spec §6 "links ... Htpasswd").
type Basic struct {
	Name        string
	Credentials map[string]string // username -> bcrypt/plain secret, pre-resolved at link time
	Verify      func(username, password, stored string) bool
}

func (b *Basic) ID() string { return b.Name }

func (b *Basic) Authenticate(ctx context.Context, req *evalctx.RequestContext) error {
	header, ok := req.Header("authorization")
	if !ok {
		return fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	}
	user, pass, ok := parseBasicHeader(header)
	if !ok {
		return fmt.Errorf("%w: malformed basic credentials", ErrUnauthorized)
	}
	stored, ok := b.Credentials[user]
	if !ok {
		return fmt.Errorf("%w: unknown user", ErrUnauthorized)
	}
	verify := b.Verify
	if verify == nil {
		verify = func(_, password, stored string) bool { return password == stored }
	}
	if !verify(user, pass, stored) {
		return fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	return nil
}

// JWT validates a bearer token against a JWKS-resolved key set (spec §6
// "links ... Jwks").
type JWT struct {
	Name      string
	KeyFunc   jwt.Keyfunc
	ParseOpts []jwt.ParserOption
}

func (j *JWT) ID() string { return j.Name }

func (j *JWT) Authenticate(ctx context.Context, req *evalctx.RequestContext) error {
	header, ok := req.Header("authorization")
	if !ok {
		return fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	}
	token, ok := parseBearerHeader(header)
	if !ok {
		return fmt.Errorf("%w: malformed bearer token", ErrUnauthorized)
	}
	parser := jwt.NewParser(j.ParseOpts...)
	parsed, err := parser.Parse(token, j.KeyFunc)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

// All requires every named provider to accept the request (spec §4.A
// "short-circuits with an Unauthorized error if the request fails any
// provider in auth").
type All struct {
	Providers []Provider
}

func (a *All) Authenticate(ctx context.Context, req *evalctx.RequestContext) error {
	for _, p := range a.Providers {
		if err := p.Authenticate(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func parseBasicHeader(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", "", false
	}
	return decodeBasic(header[len(prefix):])
}

func parseBearerHeader(header string) (token string, ok bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
