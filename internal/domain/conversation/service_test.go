package conversation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clippost-server/services/assistant-api/internal/domain/conversation"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

type mockRepository struct {
	createFn        func(ctx context.Context, conv *conversation.Conversation) error
	findByPublicFn  func(ctx context.Context, publicID string) (*conversation.Conversation, error)
	listByOwnerFn   func(ctx context.Context, ownerID string) ([]*conversation.Conversation, error)
	touchFn         func(ctx context.Context, id uint) error
	appendMessageFn func(ctx context.Context, msg *conversation.Message) error
	listMessagesFn  func(ctx context.Context, conversationID uint) ([]*conversation.Message, error)
}

func (m *mockRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	return m.createFn(ctx, conv)
}

func (m *mockRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	return m.findByPublicFn(ctx, publicID)
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID string) ([]*conversation.Conversation, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockRepository) Touch(ctx context.Context, id uint) error {
	return m.touchFn(ctx, id)
}

func (m *mockRepository) AppendMessage(ctx context.Context, msg *conversation.Message) error {
	return m.appendMessageFn(ctx, msg)
}

func (m *mockRepository) ListMessages(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	return m.listMessagesFn(ctx, conversationID)
}

func TestTitleFromMessage(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "short message kept verbatim",
			input:    "find me funny cat videos",
			expected: "find me funny cat videos",
		},
		{
			name:     "empty message gets default",
			input:    "   ",
			expected: "New Conversation",
		},
		{
			name:     "whitespace collapsed",
			input:    "hello\n\n  world",
			expected: "hello world",
		},
		{
			name:     "long message truncated at word boundary with ellipsis",
			input:    "please search the board for every post about woodworking jigs and clamps",
			expected: "please search the board for every post about woodworking..."},
		{
			name:     "long unbroken token truncated hard",
			input:    strings.Repeat("a", 70),
			expected: strings.Repeat("a", 60) + "...",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, conversation.TitleFromMessage(tc.input))
		})
	}
}

func TestBeginDerivesTitleAndProvider(t *testing.T) {
	var created *conversation.Conversation
	repo := &mockRepository{
		createFn: func(_ context.Context, conv *conversation.Conversation) error {
			conv.ID = 7
			created = conv
			return nil
		},
	}

	svc := conversation.NewService(repo)
	conv, err := svc.Begin(context.Background(), "user-1", "anthropic", "show me cat videos")
	require.NoError(t, err)

	assert.Equal(t, created, conv)
	assert.Equal(t, "user-1", conv.OwnerID)
	assert.Equal(t, "anthropic", conv.Provider)
	assert.Equal(t, "show me cat videos", conv.Title)
	assert.Contains(t, conv.PublicID, "conv_")
}

func TestGetOwnedHidesOtherUsersConversations(t *testing.T) {
	repo := &mockRepository{
		findByPublicFn: func(_ context.Context, publicID string) (*conversation.Conversation, error) {
			return &conversation.Conversation{PublicID: publicID, OwnerID: "owner-a"}, nil
		},
	}

	svc := conversation.NewService(repo)

	conv, err := svc.GetOwned(context.Background(), "conv_1", "owner-a")
	require.NoError(t, err)
	assert.Equal(t, "owner-a", conv.OwnerID)

	_, err = svc.GetOwned(context.Background(), "conv_1", "owner-b")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestAppendMessageTouchesConversation(t *testing.T) {
	touched := false
	repo := &mockRepository{
		appendMessageFn: func(_ context.Context, msg *conversation.Message) error {
			msg.ID = 42
			return nil
		},
		touchFn: func(_ context.Context, id uint) error {
			assert.Equal(t, uint(3), id)
			touched = true
			return nil
		},
	}

	svc := conversation.NewService(repo)
	msg, err := svc.AppendMessage(context.Background(), &conversation.Conversation{ID: 3}, conversation.RoleAssistant, "done")
	require.NoError(t, err)

	assert.True(t, touched)
	assert.Equal(t, uint(42), msg.ID)
	assert.Equal(t, conversation.RoleAssistant, msg.Role)
}
