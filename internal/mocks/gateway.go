// Package mocks holds testify mocks of the backend gateway.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/matheus3301/chatr/internal/gateway"
)

// GatewayMock mocks the authenticated gateway session.
type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) ListChats(ctx context.Context) ([]gateway.ChatDTO, error) {
	args := m.Called(ctx)
	return args.Get(0).([]gateway.ChatDTO), args.Error(1)
}

func (m *GatewayMock) ListMessages(ctx context.Context, chatID string, skip, take int) ([]gateway.MessageDTO, error) {
	args := m.Called(ctx, chatID, skip, take)
	return args.Get(0).([]gateway.MessageDTO), args.Error(1)
}

func (m *GatewayMock) MarkRead(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *GatewayMock) SendMessage(ctx context.Context, chatID string, req gateway.SendMessageRequest) (*gateway.MessageDTO, error) {
	args := m.Called(ctx, chatID, req)
	return args.Get(0).(*gateway.MessageDTO), args.Error(1)
}

func (m *GatewayMock) Upload(ctx context.Context, chatID string, f gateway.FileUpload) (string, error) {
	args := m.Called(ctx, chatID, f.FileName)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) SearchUsers(ctx context.Context, query string) ([]gateway.UserDTO, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]gateway.UserDTO), args.Error(1)
}

func (m *GatewayMock) CreatePrivateChat(ctx context.Context, targetUserID string) (*gateway.PrivateChatDTO, error) {
	args := m.Called(ctx, targetUserID)
	return args.Get(0).(*gateway.PrivateChatDTO), args.Error(1)
}

func (m *GatewayMock) CreateGroupChat(ctx context.Context, name string, memberIDs []string) (*gateway.GroupChatDTO, error) {
	args := m.Called(ctx, name, memberIDs)
	return args.Get(0).(*gateway.GroupChatDTO), args.Error(1)
}

func (m *GatewayMock) ListMembers(ctx context.Context, chatID string) ([]gateway.UserDTO, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).([]gateway.UserDTO), args.Error(1)
}

func (m *GatewayMock) AddMember(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *GatewayMock) RemoveMember(ctx context.Context, chatID, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}
