package gateway

import (
	"encoding/json"
	"time"
)

// ChatDTO is one entry of GET /Chats.
type ChatDTO struct {
	ChatID        string `json:"chatId"`
	Name          string `json:"name"`
	IsGroup       bool   `json:"isGroup"`
	UnreadCount   int    `json:"unreadCount"`
	OtherUserName string `json:"otherUserName"`
	IsOnline      *bool  `json:"isOnline,omitempty"`
}

// AttachmentDTO describes a stored attachment on a message.
type AttachmentDTO struct {
	AttachmentID string `json:"attachmentId"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size,omitempty"`
}

// MessageDTO is a message record as returned by list and send.
type MessageDTO struct {
	ID             string         `json:"id"`
	ChatID         string         `json:"chatId"`
	SenderID       string         `json:"senderId"`
	SenderUserName string         `json:"senderUserName"`
	Text           string         `json:"text"`
	GifURL         string         `json:"gifUrl"`
	AttachmentID   string         `json:"attachmentId"`
	Attachment     *AttachmentDTO `json:"attachment,omitempty"`
	CreatedAt      string         `json:"createdAt"`
}

// SendMessageRequest is the body of POST /Chats/{id}/messages. Empty fields
// are omitted from the wire.
type SendMessageRequest struct {
	Text         string `json:"text,omitempty"`
	GifURL       string `json:"gifUrl,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
}

// PrivateChatDTO is the response of POST /Chats/private.
type PrivateChatDTO struct {
	ID              string `json:"id"`
	IsGroup         bool   `json:"isGroup"`
	Name            string `json:"name"`
	CreatedByUserID string `json:"createdByUserId"`
	CreatedAt       string `json:"createdAt"`
}

// GroupChatDTO is the response of POST /Chats/group.
type GroupChatDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IsGroup         bool      `json:"isGroup"`
	CreatedByUserID string    `json:"createdByUserId"`
	CreatedAt       string    `json:"createdAt"`
	Members         []UserDTO `json:"members"`
}

// UserDTO is a user record from search and member listings.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// UnmarshalJSON accepts the member listing variants that name the identifier
// "userId" or "user_id" instead of "id".
func (u *UserDTO) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string `json:"id"`
		UserID    string `json:"userId"`
		UserIDAlt string `json:"user_id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Role      string `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	if u.ID == "" {
		u.ID = raw.UserID
	}
	if u.ID == "" {
		u.ID = raw.UserIDAlt
	}
	u.Username = raw.Username
	u.Email = raw.Email
	u.Role = raw.Role
	return nil
}

// LoginResponse is the response of POST /Auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// PresignRequest asks the backend for a direct upload target.
type PresignRequest struct {
	ChatID      string `json:"chatId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

// PresignResponse is a time-limited upload target.
type PresignResponse struct {
	UploadURL    string `json:"uploadUrl"`
	AttachmentID string `json:"attachmentId"`
	ContentType  string `json:"contentType"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// ParseTime parses backend timestamps. Values without a zone are UTC.
// Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
