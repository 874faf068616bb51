package store

import (
	"github.com/matheus3301/chatr/internal/gateway"
)

// ConversationFromWire maps a list entry, applying the name fallback.
func ConversationFromWire(dto gateway.ChatDTO) Conversation {
	kind := KindDirect
	if dto.IsGroup {
		kind = KindGroup
	}
	c := Conversation{
		ID:     dto.ChatID,
		Name:   DisplayName(dto.Name, dto.OtherUserName, dto.IsGroup),
		Kind:   kind,
		Unread: max(dto.UnreadCount, 0),
	}
	if !dto.IsGroup && dto.IsOnline != nil {
		online := *dto.IsOnline
		c.Online = &online
	}
	return c
}

// ConversationsFromWire maps a full list in order.
func ConversationsFromWire(dtos []gateway.ChatDTO) []Conversation {
	out := make([]Conversation, len(dtos))
	for i, dto := range dtos {
		out[i] = ConversationFromWire(dto)
	}
	return out
}

// MessageFromWire maps an authoritative message record. convID is used when
// the record omits its chat id.
func MessageFromWire(convID string, dto gateway.MessageDTO, me Identity) Message {
	if dto.ChatID != "" {
		convID = dto.ChatID
	}
	senderName := dto.SenderUserName
	if senderName == "" {
		senderName = dto.SenderID
	}
	content := Content{text: dto.Text, gifURL: dto.GifURL}
	switch {
	case dto.Attachment != nil:
		content.attachment = &AttachmentRef{
			ID:          dto.Attachment.AttachmentID,
			FileName:    dto.Attachment.FileName,
			ContentType: dto.Attachment.ContentType,
			Size:        dto.Attachment.Size,
		}
	case dto.AttachmentID != "":
		content.attachment = &AttachmentRef{ID: dto.AttachmentID}
	}
	return Message{
		ID:             dto.ID,
		ConversationID: convID,
		SenderID:       dto.SenderID,
		SenderName:     senderName,
		Content:        content,
		CreatedAt:      gateway.ParseTime(dto.CreatedAt),
		IsMine:         me.Authored(dto.SenderID, senderName),
		Status:         StatusConfirmed,
	}
}

// MessagesFromWire maps a page of history in order.
func MessagesFromWire(convID string, dtos []gateway.MessageDTO, me Identity) []Message {
	out := make([]Message, len(dtos))
	for i, dto := range dtos {
		out[i] = MessageFromWire(convID, dto, me)
	}
	return out
}
