package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListChats returns the caller's conversation summaries with unread counts.
func (s *Session) ListChats(ctx context.Context) ([]ChatDTO, error) {
	var out []ChatDTO
	if err := s.do(ctx, http.MethodGet, "/Chats", "/Chats", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMessages returns up to take messages of a chat, oldest first.
func (s *Session) ListMessages(ctx context.Context, chatID string, skip, take int) ([]MessageDTO, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("take", strconv.Itoa(take))
	var out []MessageDTO
	if err := s.do(ctx, http.MethodGet, "/Chats/{id}/messages", chatPath(chatID, "messages"), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a message and returns the created record.
func (s *Session) SendMessage(ctx context.Context, chatID string, req SendMessageRequest) (*MessageDTO, error) {
	var out MessageDTO
	if err := s.do(ctx, http.MethodPost, "/Chats/{id}/messages", chatPath(chatID, "messages"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead acknowledges every message of a chat as read.
func (s *Session) MarkRead(ctx context.Context, chatID string) error {
	return s.do(ctx, http.MethodPost, "/Chats/{id}/read", chatPath(chatID, "read"), nil, nil, nil)
}

// CreatePrivateChat creates, or returns the existing, direct chat with a user.
func (s *Session) CreatePrivateChat(ctx context.Context, targetUserID string) (*PrivateChatDTO, error) {
	body := map[string]string{"targetUserId": targetUserID}
	var out PrivateChatDTO
	if err := s.do(ctx, http.MethodPost, "/Chats/private", "/Chats/private", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGroupChat creates a named group with the given members.
func (s *Session) CreateGroupChat(ctx context.Context, name string, memberIDs []string) (*GroupChatDTO, error) {
	body := struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"memberIds"`
	}{name, memberIDs}
	var out GroupChatDTO
	if err := s.do(ctx, http.MethodPost, "/Chats/group", "/Chats/group", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMembers returns the members of a group chat.
func (s *Session) ListMembers(ctx context.Context, chatID string) ([]UserDTO, error) {
	var out []UserDTO
	if err := s.do(ctx, http.MethodGet, "/Chats/{id}/members", chatPath(chatID, "members"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddMember adds a user to a group chat.
func (s *Session) AddMember(ctx context.Context, chatID, userID string) error {
	body := map[string]string{"userId": userID}
	return s.do(ctx, http.MethodPost, "/Chats/{id}/members", chatPath(chatID, "members"), nil, body, nil)
}

// RemoveMember removes a user from a group chat.
func (s *Session) RemoveMember(ctx context.Context, chatID, userID string) error {
	return s.do(ctx, http.MethodDelete, "/Chats/{id}/members/{memberId}", chatPath(chatID, "members", userID), nil, nil, nil)
}
