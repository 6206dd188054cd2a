package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

const (
	maxTitleLength       = 60
	minTitleWordBoundary = 30
)

// Service coordinates conversation lifecycle and message persistence.
type Service struct {
	repo Repository
}

// NewService builds a conversation service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Begin creates a conversation bound to the given provider, titling it
// from the opening user message.
func (s *Service) Begin(ctx context.Context, ownerID, providerID, firstMessage string) (*Conversation, error) {
	conv := &Conversation{
		PublicID: fmt.Sprintf("conv_%s", uuid.NewString()),
		OwnerID:  ownerID,
		Title:    TitleFromMessage(firstMessage),
		Provider: providerID,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// GetOwned fetches a conversation and enforces ownership. A conversation
// owned by another user is reported as not found.
func (s *Service) GetOwned(ctx context.Context, publicID, ownerID string) (*Conversation, error) {
	conv, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if conv.OwnerID != ownerID {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", publicID),
			nil,
			"get-owned-wrong-owner",
		)
	}
	return conv, nil
}

// List returns the caller's conversations, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*Conversation, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// AppendMessage stores a message and bumps the conversation's updated time.
func (s *Service) AppendMessage(ctx context.Context, conv *Conversation, role Role, content string) (*Message, error) {
	msg := &Message{
		ConversationID: conv.ID,
		Role:           role,
		Content:        content,
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.repo.Touch(ctx, conv.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the conversation's messages in creation order.
func (s *Service) History(ctx context.Context, conv *Conversation) ([]*Message, error) {
	return s.repo.ListMessages(ctx, conv.ID)
}

// TitleFromMessage derives a conversation title from the first user
// message, truncating long content at a word boundary where one exists.
func TitleFromMessage(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return "New Conversation"
	}
	if len(title) <= maxTitleLength {
		return title
	}

	cut := title[:maxTitleLength]
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > minTitleWordBoundary {
		cut = cut[:lastSpace]
	}
	return cut + "..."
}
