// Package groups creates conversations and manages group rosters.
package groups

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/notify"
	"github.com/matheus3301/chatr/internal/store"
)

// Gateway is the part of the backend used for chat creation and rosters.
type Gateway interface {
	CreatePrivateChat(ctx context.Context, targetUserID string) (*gateway.PrivateChatDTO, error)
	CreateGroupChat(ctx context.Context, name string, memberIDs []string) (*gateway.GroupChatDTO, error)
	ListMembers(ctx context.Context, chatID string) ([]gateway.UserDTO, error)
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
}

// Syncer reloads the conversation list and moves the selection. The reload
// must reflect changes made before it was called.
type Syncer interface {
	ReloadConversations(ctx context.Context) error
	Select(id string) error
}

// Member is one user on a group roster.
type Member struct {
	ID       string
	Username string
	Email    string
	Role     string
}

// MemberFromWire maps a user record.
func MemberFromWire(u gateway.UserDTO) Member {
	return Member{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// RosterChange is the payload of bus.MembersChanged.
type RosterChange struct {
	ConversationID string
	Count          int
}

// Options configures a Manager. Zero values are valid.
type Options struct {
	Bus    *bus.Bus
	Banner *notify.Banner
	Logger *zap.Logger
}

// Manager runs create-chat and roster operations and caches rosters.
type Manager struct {
	gw     Gateway
	sync   Syncer
	bus    *bus.Bus
	banner *notify.Banner
	logger *zap.Logger

	mu      sync.RWMutex
	rosters map[string][]Member
}

// NewManager creates a manager.
func NewManager(gw Gateway, s Syncer, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gw:      gw,
		sync:    s,
		bus:     opts.Bus,
		banner:  opts.Banner,
		logger:  logger,
		rosters: make(map[string][]Member),
	}
}

// CreatePrivate opens (or reuses) a direct chat with a user and selects it.
func (m *Manager) CreatePrivate(ctx context.Context, targetUserID string) (string, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" {
		return "", notify.Validationf("create direct chat", "a user is required")
	}
	chat, err := m.gw.CreatePrivateChat(ctx, targetUserID)
	if err != nil {
		return "", m.report("create direct chat", err)
	}
	m.logger.Info("direct chat created", zap.String("conversation_id", chat.ID))
	m.refreshAndSelect(ctx, chat.ID)
	return chat.ID, nil
}

// CreateGroup creates a named group with at least one other member and
// selects it.
func (m *Manager) CreateGroup(ctx context.Context, name string, memberIDs []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", notify.Validationf("create group", "group name is required")
	}
	ids := dedupe(memberIDs)
	if len(ids) == 0 {
		return "", notify.Validationf("create group", "pick at least one member")
	}
	chat, err := m.gw.CreateGroupChat(ctx, name, ids)
	if err != nil {
		return "", m.report("create group", err)
	}
	if len(chat.Members) > 0 {
		m.setRoster(chat.ID, membersFromWire(chat.Members))
	}
	m.logger.Info("group created", zap.String("conversation_id", chat.ID), zap.Int("members", len(ids)))
	m.refreshAndSelect(ctx, chat.ID)
	return chat.ID, nil
}

// Members fetches and caches the roster of a group.
func (m *Manager) Members(ctx context.Context, chatID string) ([]Member, error) {
	users, err := m.gw.ListMembers(ctx, chatID)
	if err != nil {
		return nil, m.report("list members", err)
	}
	roster := membersFromWire(users)
	m.setRoster(chatID, roster)
	return copyMembers(roster), nil
}

// Cached returns the last fetched roster of a group.
func (m *Manager) Cached(chatID string) []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyMembers(m.rosters[chatID])
}

// IsMember reports whether userID is on the cached roster of chatID.
func (m *Manager) IsMember(chatID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return containsMember(m.rosters[chatID], userID)
}

// AddMember adds a user to a group, updates the cached roster and refreshes
// the conversation list.
func (m *Manager) AddMember(ctx context.Context, chatID string, user Member) error {
	if strings.TrimSpace(user.ID) == "" {
		return notify.Validationf("add member", "a user is required")
	}
	if err := m.gw.AddMember(ctx, chatID, user.ID); err != nil {
		return m.report("add member", err)
	}
	m.mu.Lock()
	roster := m.rosters[chatID]
	if !containsMember(roster, user.ID) {
		m.rosters[chatID] = append(roster, user)
	}
	n := len(m.rosters[chatID])
	m.mu.Unlock()
	m.bus.Emit(bus.MembersChanged, RosterChange{ConversationID: chatID, Count: n})

	m.refresh(ctx)
	return nil
}

// RemoveMember removes a user from a group, updates the cached roster and
// refreshes the conversation list.
func (m *Manager) RemoveMember(ctx context.Context, chatID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return notify.Validationf("remove member", "a user is required")
	}
	if err := m.gw.RemoveMember(ctx, chatID, userID); err != nil {
		return m.report("remove member", err)
	}
	m.mu.Lock()
	roster := m.rosters[chatID]
	kept := roster[:0:0]
	for _, mem := range roster {
		if mem.ID != userID {
			kept = append(kept, mem)
		}
	}
	m.rosters[chatID] = kept
	m.mu.Unlock()
	m.bus.Emit(bus.MembersChanged, RosterChange{ConversationID: chatID, Count: len(kept)})

	m.refresh(ctx)
	return nil
}

func (m *Manager) refreshAndSelect(ctx context.Context, chatID string) {
	if err := m.sync.ReloadConversations(ctx); err != nil {
		return
	}
	if err := m.sync.Select(chatID); err != nil && !errors.Is(err, store.ErrUnknownConversation) {
		m.logger.Warn("select new chat failed", zap.String("conversation_id", chatID), zap.Error(err))
	}
}

func (m *Manager) refresh(ctx context.Context) {
	if err := m.sync.ReloadConversations(ctx); err != nil {
		m.logger.Debug("list refresh after roster change failed", zap.Error(err))
	}
}

func (m *Manager) setRoster(chatID string, roster []Member) {
	m.mu.Lock()
	m.rosters[chatID] = roster
	m.mu.Unlock()
	m.bus.Emit(bus.MembersChanged, RosterChange{ConversationID: chatID, Count: len(roster)})
}

func (m *Manager) report(op string, err error) error {
	err = notify.Wrap(notify.Transient, op, err)
	m.banner.Report(err)
	m.logger.Warn("group operation failed", zap.String("op", op), zap.Error(err))
	return err
}

func membersFromWire(users []gateway.UserDTO) []Member {
	out := make([]Member, 0, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		out = append(out, MemberFromWire(u))
	}
	return out
}

func copyMembers(in []Member) []Member {
	out := make([]Member, len(in))
	copy(out, in)
	return out
}

func containsMember(roster []Member, id string) bool {
	for _, mem := range roster {
		if mem.ID == id {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
