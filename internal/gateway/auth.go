package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// username/password pair.
var ErrInvalidCredentials = errors.New("gateway: invalid credentials")

// Login exchanges a username (or email) and password for a session token.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*LoginResponse, error) {
	body := map[string]string{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}
	var out LoginResponse
	err := c.do(ctx, "", http.MethodPost, "/Auth/login", "/Auth/login", nil, body, &out)
	if errors.Is(err, ErrUnauthorized) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}
	return &out, nil
}

const nameClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"

// TokenClaims holds the identity claims chatr reads from a session token.
// The signature is not verified; the backend does that on every call.
type TokenClaims struct {
	Name   string
	UserID string
}

// ParseTokenClaims decodes the payload segment of a JWT.
func ParseTokenClaims(token string) (TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return TokenClaims{}, fmt.Errorf("token: want 3 segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return TokenClaims{}, fmt.Errorf("token payload: %w", err)
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("token payload: %w", err)
	}
	var tc TokenClaims
	for _, key := range []string{nameClaim, "unique_name", "name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			tc.Name = v
			break
		}
	}
	for _, key := range []string{"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			tc.UserID = v
			break
		}
	}
	return tc, nil
}
