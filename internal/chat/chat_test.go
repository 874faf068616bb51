package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/groups"
	"github.com/matheus3301/chatr/internal/store"
)

// backend is an in-memory stand-in for the chat API.
type backend struct {
	mu    sync.Mutex
	token string
	chats []gateway.ChatDTO
	msgs  map[string][]gateway.MessageDTO
	reads []string
	users []gateway.UserDTO
	next  int
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	be := &backend{
		token: fakeJWT("alice", "u1"),
		chats: []gateway.ChatDTO{
			{ChatID: "c1", OtherUserName: "bob", UnreadCount: 2},
			{ChatID: "g1", Name: "Team", IsGroup: true},
		},
		msgs: map[string][]gateway.MessageDTO{
			"c1": {{ID: "m1", ChatID: "c1", SenderID: "u2", SenderUserName: "bob", Text: "hey"}},
		},
		users: []gateway.UserDTO{
			{ID: "u1", Username: "alice"},
			{ID: "u2", Username: "bob"},
			{ID: "u3", Username: "carol"},
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/Auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gateway.LoginResponse{Token: be.token, Username: "alice"})
	})
	mux.HandleFunc("GET /api/Chats", be.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, be.chats)
	}))
	mux.HandleFunc("GET /api/Chats/{id}/messages", be.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, be.msgs[r.PathValue("id")])
	}))
	mux.HandleFunc("POST /api/Chats/{id}/read", be.authed(func(w http.ResponseWriter, r *http.Request) {
		be.reads = append(be.reads, r.PathValue("id"))
		for i := range be.chats {
			if be.chats[i].ChatID == r.PathValue("id") {
				be.chats[i].UnreadCount = 0
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("POST /api/Chats/{id}/messages", be.authed(func(w http.ResponseWriter, r *http.Request) {
		var req gateway.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		be.next++
		msg := gateway.MessageDTO{
			ID:             "srv-" + string(rune('0'+be.next)),
			ChatID:         r.PathValue("id"),
			SenderID:       "u1",
			SenderUserName: "alice",
			Text:           req.Text,
			GifURL:         req.GifURL,
			CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		be.msgs[msg.ChatID] = append(be.msgs[msg.ChatID], msg)
		writeJSON(w, msg)
	}))
	mux.HandleFunc("GET /api/Users", be.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, be.users)
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return be, srv
}

func (be *backend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+be.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		be.mu.Lock()
		defer be.mu.Unlock()
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fakeJWT(name, id string) string {
	payload, _ := json.Marshal(map[string]string{
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name": name,
		"sub": id,
	})
	return "e30." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func newService(t *testing.T, url string) *Service {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "chatr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(gateway.New(url), db, url, Settings{Debounce: 10 * time.Millisecond}, bus.New(), nil, nil)
}

func TestLoginOpenLogout(t *testing.T) {
	_, srv := newBackend(t)
	svc := newService(t, srv.URL)

	_, err := svc.Open()
	require.ErrorIs(t, err, ErrNotLoggedIn)

	creds, err := svc.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.DisplayName)
	assert.Equal(t, "u1", creds.UserID)

	sess, err := svc.Open()
	require.NoError(t, err)
	assert.Equal(t, store.Identity{UserID: "u1", DisplayName: "alice"}, sess.Me)
	sess.Close()

	require.NoError(t, svc.Logout())
	_, err = svc.Open()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSessionSelectAndSend(t *testing.T) {
	be, srv := newBackend(t)
	svc := newService(t, srv.URL)
	_, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	sess, err := svc.Open()
	require.NoError(t, err)
	defer sess.Close()

	sess.Start(context.Background())
	sess.Engine.Wait()
	require.Len(t, sess.Conversations.List(), 2)
	c1, _ := sess.Conversations.Get("c1")
	assert.Equal(t, "bob", c1.Name)

	require.NoError(t, sess.Select("c1"))
	sess.Engine.Wait()
	c1, _ = sess.Conversations.Get("c1")
	assert.Equal(t, 0, c1.Unread)
	require.Len(t, sess.Messages.List("c1"), 1)

	tempID, ok := sess.Submit(ParseInput("hello there"))
	require.True(t, ok)
	sess.Sender.Wait()
	msgs := sess.Messages.List("c1")
	require.Len(t, msgs, 2)
	assert.NotEqual(t, tempID, msgs[1].ID)
	assert.Equal(t, "hello there", msgs[1].Content.Text())
	assert.True(t, msgs[1].IsMine)

	be.mu.Lock()
	assert.Equal(t, []string{"c1"}, be.reads)
	be.mu.Unlock()
}

func TestOpenConversationAndSendSync(t *testing.T) {
	_, srv := newBackend(t)
	svc := newService(t, srv.URL)
	_, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	sess, err := svc.Open()
	require.NoError(t, err)
	defer sess.Close()

	msgs, err := sess.OpenConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	sent, err := sess.Send(context.Background(), "c1", ParseInput("/gif https://media.example/cat.gif"))
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/cat.gif", sent.Content.GIFURL())
}

func TestPickerExclusions(t *testing.T) {
	_, srv := newBackend(t)
	svc := newService(t, srv.URL)
	_, err := svc.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	sess, err := svc.Open()
	require.NoError(t, err)
	defer sess.Close()

	sess.PickFor("")
	sess.Picker.Update("o")
	sess.Picker.Wait()
	names := func(ms []groups.Member) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Username
		}
		return out
	}
	assert.Equal(t, []string{"bob", "carol"}, names(sess.Picker.Results()))

	sess.TogglePick(groups.Member{ID: "u2", Username: "bob"})
	assert.Equal(t, []string{"carol"}, names(sess.Picker.Results()))
	assert.Len(t, sess.Picked(), 1)

	sess.TogglePick(groups.Member{ID: "u2", Username: "bob"})
	assert.Empty(t, sess.Picked())

	users, err := sess.SearchUsers(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, names(users))
}

func TestParseInput(t *testing.T) {
	cases := []struct {
		line string
		want Input
	}{
		{"hello", Input{Text: "hello"}},
		{"/gif https://g/x.gif", Input{GIFURL: "https://g/x.gif"}},
		{"/gif https://g/x.gif -- lol", Input{GIFURL: "https://g/x.gif", Text: "lol"}},
		{"/attach ./notes.txt", Input{FilePath: "./notes.txt"}},
		{"/unknown thing", Input{Text: "/unknown thing"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseInput(tc.line), tc.line)
	}
	assert.True(t, ParseInput("   ").IsEmpty())
	assert.True(t, ParseInput("/gif").IsEmpty())
}
