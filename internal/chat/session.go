// Package chat assembles the engine components for one logged-in user.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/groups"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/outbox"
	"github.com/matheus3301/chatr/internal/search"
	"github.com/matheus3301/chatr/internal/status"
	"github.com/matheus3301/chatr/internal/store"
	intsync "github.com/matheus3301/chatr/internal/sync"
)

// Settings are the tunables a Session takes from config.
type Settings struct {
	PageSize  int
	Debounce  time.Duration
	Reconcile time.Duration
}

// Session is the engine bound to one session token. Hosts read the stores
// and react to bus events; all mutations go through the components.
type Session struct {
	Me            store.Identity
	Bus           *bus.Bus
	Conversations *store.Conversations
	Messages      *store.Messages
	Banner        *notify.Banner
	Engine        *intsync.Engine
	Sender        *outbox.Sender
	Groups        *groups.Manager
	// Users backs the "start a direct chat" picker.
	Users *search.Debouncer[groups.Member]
	// Picker backs member picking for group creation and "add member".
	Picker *search.Debouncer[groups.Member]

	api        *gateway.Session
	reconciler *intsync.Reconciler
	logger     *zap.Logger

	mu         sync.Mutex
	picked     []groups.Member
	pickerChat string
}

// NewSession wires a session for api acting as me.
func NewSession(api *gateway.Session, me store.Identity, set Settings, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		Me:            me,
		Bus:           b,
		Conversations: store.NewConversations(b),
		Messages:      store.NewMessages(b),
		Banner:        notify.NewBanner(b),
		api:           api,
		logger:        logger,
	}
	s.Engine = intsync.NewEngine(api, s.Conversations, s.Messages, me, intsync.Options{
		PageSize: set.PageSize,
		Bus:      b,
		Banner:   s.Banner,
		Metrics:  m,
		Logger:   logger.Named("sync"),
	})
	s.Sender = outbox.NewSender(api, s.Messages, me, outbox.Options{
		Banner:  s.Banner,
		Metrics: m,
		Logger:  logger.Named("outbox"),
	})
	s.Groups = groups.NewManager(api, s.Engine, groups.Options{
		Bus:    b,
		Banner: s.Banner,
		Logger: logger.Named("groups"),
	})
	s.Users = search.New(s.searchUsers, search.Options{
		Name:     "users",
		Interval: set.Debounce,
		Bus:      b,
		Banner:   s.Banner,
		Metrics:  m,
		Logger:   logger.Named("search"),
	})
	s.Picker = search.New(s.searchUsers, search.Options{
		Name:     "members",
		Interval: set.Debounce,
		Bus:      b,
		Banner:   s.Banner,
		Metrics:  m,
		Logger:   logger.Named("search"),
	})
	s.Users.SetExclude(s.isSelf)
	s.Picker.SetExclude(s.excludeFromPicker)
	s.reconciler = intsync.NewReconciler(s.Engine, set.Reconcile, logger.Named("reconcile"))
	return s
}

// Start loads the conversation list and starts the reconciler.
func (s *Session) Start(ctx context.Context) {
	s.Engine.Start()
	s.reconciler.Start(ctx)
}

// Close stops every component and waits for in-flight work.
func (s *Session) Close() {
	s.reconciler.Stop()
	s.Users.Stop()
	s.Picker.Stop()
	s.Sender.Stop()
	s.Engine.Stop()
}

// Select makes id the current conversation.
func (s *Session) Select(id string) error {
	return s.Engine.Select(id)
}

// Submit sends a message to the selected conversation optimistically.
func (s *Session) Submit(in Input) (string, bool) {
	sub, err := s.submission(s.Conversations.Selected(), in)
	if err != nil {
		s.Banner.Report(err)
		return "", false
	}
	return s.Sender.Submit(sub)
}

// Send delivers a message to convID and waits for the outcome.
func (s *Session) Send(ctx context.Context, convID string, in Input) (store.Message, error) {
	sub, err := s.submission(convID, in)
	if err != nil {
		return store.Message{}, err
	}
	return s.Sender.Send(ctx, sub)
}

func (s *Session) submission(convID string, in Input) (outbox.Submission, error) {
	sub := outbox.Submission{ConversationID: convID, Text: in.Text, GIFURL: in.GIFURL}
	if in.FilePath != "" {
		f, err := gateway.FileFromPath(in.FilePath)
		if err != nil {
			return sub, notify.Wrap(notify.Validation, "attach file", err)
		}
		sub.File = &f
	}
	return sub, nil
}

// LoadConversations reloads the conversation list and waits for it.
func (s *Session) LoadConversations(ctx context.Context) ([]store.Conversation, error) {
	if err := s.Engine.RefreshConversations(ctx); err != nil {
		return nil, err
	}
	return s.Conversations.List(), nil
}

// OpenConversation selects id and waits for its messages to load.
func (s *Session) OpenConversation(ctx context.Context, id string) ([]store.Message, error) {
	if _, ok := s.Conversations.Get(id); !ok {
		if _, err := s.LoadConversations(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.Engine.Select(id); err != nil {
		return nil, err
	}
	s.Engine.Wait()
	if s.Engine.MessageState() == status.Errored {
		return nil, s.Engine.MessageErr()
	}
	return s.Messages.List(id), nil
}

// SearchUsers runs one lookup immediately, without debouncing, and drops
// the current user from the results.
func (s *Session) SearchUsers(ctx context.Context, query string) ([]groups.Member, error) {
	found, err := s.searchUsers(ctx, query)
	if err != nil {
		return nil, notify.Wrap(notify.Transient, "search users", err)
	}
	out := found[:0]
	for _, m := range found {
		if !s.isSelf(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// PickFor scopes the member picker to a group so existing members are
// hidden. An empty chatID is used while composing a new group.
func (s *Session) PickFor(chatID string) {
	s.mu.Lock()
	s.pickerChat = chatID
	s.picked = nil
	s.mu.Unlock()
	s.Picker.Reset()
	s.Picker.SetExclude(s.excludeFromPicker)
}

// TogglePick adds or removes a member from the pending group selection.
func (s *Session) TogglePick(m groups.Member) {
	s.mu.Lock()
	removed := false
	for i, p := range s.picked {
		if p.ID == m.ID {
			s.picked = append(s.picked[:i:i], s.picked[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		s.picked = append(s.picked, m)
	}
	s.mu.Unlock()
	s.Picker.SetExclude(s.excludeFromPicker)
}

// Picked returns the members picked for a new group.
func (s *Session) Picked() []groups.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]groups.Member(nil), s.picked...)
}

// CreatePickedGroup creates a group named name from the picked members.
func (s *Session) CreatePickedGroup(ctx context.Context, name string) (string, error) {
	picked := s.Picked()
	ids := make([]string, len(picked))
	for i, p := range picked {
		ids[i] = p.ID
	}
	id, err := s.Groups.CreateGroup(ctx, name, ids)
	if err == nil {
		s.PickFor("")
	}
	return id, err
}

func (s *Session) searchUsers(ctx context.Context, query string) ([]groups.Member, error) {
	users, err := s.api.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]groups.Member, 0, len(users))
	for _, u := range users {
		if u.ID != "" {
			out = append(out, groups.MemberFromWire(u))
		}
	}
	return out, nil
}

func (s *Session) isSelf(m groups.Member) bool {
	if s.Me.UserID != "" && m.ID == s.Me.UserID {
		return true
	}
	return s.Me.DisplayName != "" && strings.EqualFold(m.Username, s.Me.DisplayName)
}

func (s *Session) excludeFromPicker(m groups.Member) bool {
	if s.isSelf(m) {
		return true
	}
	s.mu.Lock()
	chatID := s.pickerChat
	for _, p := range s.picked {
		if p.ID == m.ID {
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()
	return chatID != "" && s.Groups.IsMember(chatID, m.ID)
}
