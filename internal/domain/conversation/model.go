package conversation

import (
	"context"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is an ordered exchange between a user and one provider.
// The provider binding is fixed at creation and never changes.
type Conversation struct {
	ID        uint
	PublicID  string
	OwnerID   string
	Title     string
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is an append-only entry inside a conversation.
type Message struct {
	ID             uint
	ConversationID uint
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// Repository provides persistence for conversations and their messages.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Conversation, error)
	Touch(ctx context.Context, id uint) error
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID uint) ([]*Message, error)
}
