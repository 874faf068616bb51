package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/config"
	"github.com/matheus3301/chatr/internal/lock"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/session"
)

func testJWT(name, id string) string {
	payload, _ := json.Marshal(map[string]string{"unique_name": name, "sub": id})
	return "e30." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": testJWT("alice", "u1")})
	})
	mux.HandleFunc("GET /api/Chats", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"chatId":"c1","otherUserName":"bob","unreadCount":1}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestModuleLoginAndReopen(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())
	backend := newBackend(t)
	cfg := config.Default()
	cfg.BaseURL = backend.URL
	params := Params{Profile: "test", Lock: true, ConfigPath: writeConfig(t, cfg)}

	var svc *chat.Service
	app := fxtest.New(t, Options(params), fx.Populate(&svc))
	app.RequireStart()

	_, err := lock.Acquire(session.Dir("test"))
	var inUse *lock.InUseError
	require.True(t, errors.As(err, &inUse), "profile lock should be held, got %v", err)

	creds, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.DisplayName)
	assert.Equal(t, backend.URL, creds.BaseURL)

	sess, err := svc.Open()
	require.NoError(t, err)
	convs, err := sess.LoadConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "bob", convs[0].Name)
	sess.Close()

	app.RequireStop()

	_, err = os.Stat(session.DBPath("test"))
	require.NoError(t, err)
	l, err := lock.Acquire(session.Dir("test"))
	require.NoError(t, err, "lock released on stop")
	require.NoError(t, l.Release())

	// A second process sees the stored login.
	var again *chat.Service
	app2 := fxtest.New(t, Options(Params{Profile: "test", ConfigPath: params.ConfigPath}), fx.Populate(&again))
	app2.RequireStart()
	defer app2.RequireStop()
	stored, err := again.Current()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "u1", stored.UserID)
}

func TestModuleBaseURLOverride(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())
	params := Params{
		Profile:    "test",
		BaseURL:    "http://override.invalid",
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
	}

	var cfg *config.Config
	app := fxtest.New(t, Options(params), fx.Populate(&cfg))
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, "http://override.invalid", cfg.BaseURL)
	assert.Equal(t, config.DefaultPageSize, cfg.PageSize)
}

func TestMetricsServer(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())
	backend := newBackend(t)
	cfg := config.Default()
	cfg.BaseURL = backend.URL
	cfg.MetricsAddr = "127.0.0.1:0"

	var (
		svc *chat.Service
		srv *MetricsServer
	)
	app := fxtest.New(t,
		Options(Params{Profile: "test", ConfigPath: writeConfig(t, cfg)}),
		fx.Populate(&svc, &srv),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)

	require.NotEmpty(t, srv.Addr())
	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `chatr_gateway_requests_total{route="/Auth/login",status="200"} 1`)
}

func TestMetricsServerDisabled(t *testing.T) {
	srv := NewMetricsServer(config.Default(), metrics.New(), zap.NewNop())
	require.NoError(t, srv.Start())
	assert.Equal(t, "", srv.Addr())
	srv.Stop(context.Background())
}

func TestBadConfigFailsStartup(t *testing.T) {
	t.Setenv("CHATR_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`request_timeout = "soon"`), 0600))

	app := fx.New(Module(Params{Profile: "test", ConfigPath: path}), fx.NopLogger)
	require.Error(t, app.Err())
}
