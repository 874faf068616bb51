package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/store"
)

// ErrNotLoggedIn is returned by Open when the profile holds no token.
var ErrNotLoggedIn = errors.New("not logged in")

// Service owns the profile's stored login and opens sessions from it.
type Service struct {
	client   *gateway.Client
	db       *store.DB
	baseURL  string
	settings Settings
	bus      *bus.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a service for one profile.
func NewService(client *gateway.Client, db *store.DB, baseURL string, set Settings, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		db:       db,
		baseURL:  baseURL,
		settings: set,
		bus:      b,
		metrics:  m,
		logger:   logger,
	}
}

// Bus returns the bus every session of this service publishes on.
func (s *Service) Bus() *bus.Bus { return s.bus }

// Login exchanges credentials for a token and stores it. The display name
// comes from the token's name claim, then the backend's reply, then what the
// user typed.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) (*store.Credentials, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return nil, notify.Validationf("login", "username and password are required")
	}
	resp, err := s.client.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	creds := store.Credentials{
		BaseURL:   s.baseURL,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	}
	claims, err := gateway.ParseTokenClaims(resp.Token)
	if err != nil {
		s.logger.Warn("token claims unreadable", zap.Error(err))
	}
	creds.UserID = claims.UserID
	creds.DisplayName = firstNonEmpty(claims.Name, resp.Username, usernameOrEmail)

	if err := s.db.SaveCredentials(creds); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", zap.String("user", creds.DisplayName))
	return &creds, nil
}

// Current returns the stored login, or nil.
func (s *Service) Current() (*store.Credentials, error) {
	return s.db.LoadCredentials()
}

// Open builds a session from the stored login. The session is not started.
func (s *Service) Open() (*Session, error) {
	creds, err := s.db.LoadCredentials()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrNotLoggedIn
	}
	if creds.BaseURL != "" && creds.BaseURL != s.baseURL {
		s.logger.Warn("stored login belongs to another backend",
			zap.String("stored", creds.BaseURL),
			zap.String("configured", s.baseURL),
		)
	}
	me := store.Identity{UserID: creds.UserID, DisplayName: creds.DisplayName}
	return NewSession(s.client.Session(creds.Token), me, s.settings, s.bus, s.metrics, s.logger), nil
}

// Logout forgets the stored login.
func (s *Service) Logout() error {
	if err := s.db.ClearCredentials(); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
