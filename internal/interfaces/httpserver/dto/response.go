package dto

import (
	"encoding/json"
	"time"

	"clippost-server/services/assistant-api/internal/domain/conversation"
)

// StreamEvent is one SSE data frame emitted during a turn. Exactly one
// field is set per frame.
type StreamEvent struct {
	Chunk         string              `json:"chunk,omitempty"`
	ToolCall      *ToolCallEvent      `json:"toolCall,omitempty"`
	WriteProposal *WriteProposalEvent `json:"writeProposal,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// ToolCallEvent announces a tool invocation by name only.
type ToolCallEvent struct {
	Name string `json:"name"`
}

// WriteProposalEvent announces a staged write awaiting confirmation.
type WriteProposalEvent struct {
	ConfirmationID string          `json:"confirmationId"`
	ToolName       string          `json:"toolName"`
	Proposal       json.RawMessage `json:"proposal"`
}

// ExecuteConfirmationResponse reports the outcome of an approved write.
type ExecuteConfirmationResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
}

// ConversationPayload is the API shape of a conversation.
type ConversationPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessagePayload is the API shape of a conversation message.
type MessagePayload struct {
	ID        uint      `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FromConversation maps a domain conversation to its API shape.
func FromConversation(conv *conversation.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:        conv.PublicID,
		Title:     conv.Title,
		Provider:  conv.Provider,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

// FromMessage maps a domain message to its API shape.
func FromMessage(msg *conversation.Message) MessagePayload {
	return MessagePayload{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
