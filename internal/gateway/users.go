package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SearchUsers looks users up by name or email. An empty query lists everyone
// the backend is willing to return.
func (s *Session) SearchUsers(ctx context.Context, query string) ([]UserDTO, error) {
	var q url.Values
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		q = url.Values{"search": {trimmed}}
	}
	var out []UserDTO
	if err := s.do(ctx, http.MethodGet, "/Users", "/Users", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
