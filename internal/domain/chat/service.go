package chat

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/conversation"
	"clippost-server/services/assistant-api/internal/domain/credential"
	"clippost-server/services/assistant-api/internal/domain/provider"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// AdapterRegistry resolves provider adapters by ID.
type AdapterRegistry interface {
	Lookup(providerID string) (provider.Adapter, bool)
}

// TurnRequest is a user message submitted against a conversation. An empty
// ConversationID starts a new conversation bound to Provider (or the
// configured default when Provider is empty too).
type TurnRequest struct {
	ConversationID string
	Content        string
	Provider       string
}

// Turn is a prepared turn ready to stream. Preparation resolves everything
// that can fail before the response stream opens, so transports can still
// answer with a plain status code.
type Turn struct {
	Conversation *conversation.Conversation
	adapter      provider.Adapter
	apiKey       string
	history      []provider.Message
}

// Options tunes loop behavior. Zero values fall back to the defaults below.
type Options struct {
	MaxToolRounds   int
	ChunkSize       int
	DefaultProvider string
}

const (
	defaultMaxToolRounds = 8
	defaultChunkSize     = 64
)

// Service runs conversational turns against the bound provider, executing
// tools between rounds until the model produces a final answer.
type Service struct {
	conversations *conversation.Service
	credentials   *credential.Service
	adapters      AdapterRegistry
	registry      *tool.Registry
	executor      *tool.Executor
	opts          Options
	logger        zerolog.Logger
}

// NewService builds a chat service.
func NewService(
	conversations *conversation.Service,
	credentials *credential.Service,
	adapters AdapterRegistry,
	registry *tool.Registry,
	executor *tool.Executor,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	return &Service{
		conversations: conversations,
		credentials:   credentials,
		adapters:      adapters,
		registry:      registry,
		executor:      executor,
		opts:          opts,
		logger:        logger.With().Str("component", "chat_service").Logger(),
	}
}

// PrepareTurn validates the request, resolves the conversation, provider and
// credential, and persists the user message. Returned errors map cleanly to
// HTTP statuses because nothing has been streamed yet.
func (s *Service) PrepareTurn(ctx context.Context, userID string, req TurnRequest) (*Turn, error) {
	if req.Content == "" {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			"message content is required",
			nil,
			"prepare-empty-content",
		)
	}

	conv, err := s.resolveConversation(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.adapters.Lookup(conv.Provider)
	if !ok {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown provider: %s", conv.Provider),
			nil,
			"prepare-unknown-provider",
		)
	}

	apiKey, err := s.credentials.Resolve(ctx, userID, conv.Provider)
	if err != nil {
		return nil, err
	}

	prior, err := s.conversations.History(ctx, conv)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, conv, conversation.RoleUser, req.Content); err != nil {
		return nil, err
	}

	history := make([]provider.Message, 0, len(prior)+1)
	for _, msg := range prior {
		history = append(history, provider.Message{
			Role:    provider.Role(msg.Role),
			Content: msg.Content,
		})
	}
	history = append(history, provider.Message{Role: provider.RoleUser, Content: req.Content})

	return &Turn{
		Conversation: conv,
		adapter:      adapter,
		apiKey:       apiKey,
		history:      history,
	}, nil
}

func (s *Service) resolveConversation(ctx context.Context, userID string, req TurnRequest) (*conversation.Conversation, error) {
	if req.ConversationID != "" {
		return s.conversations.GetOwned(ctx, req.ConversationID, userID)
	}

	providerID := req.Provider
	if providerID == "" {
		providerID = s.opts.DefaultProvider
	}
	if _, ok := s.adapters.Lookup(providerID); !ok {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown provider: %s", providerID),
			nil,
			"resolve-unknown-provider",
		)
	}
	return s.conversations.Begin(ctx, userID, providerID, req.Content)
}

// Run streams the prepared turn into the sink. Every outcome terminates the
// stream exactly once, either with an error event or with a done marker
// after the assistant reply has been persisted.
func (s *Service) Run(ctx context.Context, userID string, turn *Turn, sink EventSink) {
	switch adapter := turn.adapter.(type) {
	case provider.ToolCapable:
		s.runToolLoop(ctx, userID, turn, adapter, sink)
	case provider.TextStreamer:
		s.runPassThrough(ctx, turn, adapter, sink)
	default:
		sink.OnError(fmt.Sprintf("provider %s supports no known completion mode", turn.adapter.ID()))
	}
}

func (s *Service) runToolLoop(ctx context.Context, userID string, turn *Turn, adapter provider.ToolCapable, sink EventSink) {
	var rounds []provider.ToolRound

	for round := 0; round < s.opts.MaxToolRounds; round++ {
		result, err := adapter.CompleteTurn(ctx, turn.history, rounds, s.registry.Specs(), turn.apiKey)
		if err != nil {
			s.logger.Error().Err(err).
				Str("conversation_id", turn.Conversation.PublicID).
				Int("round", round).
				Msg("provider completion failed")
			sink.OnError(fmt.Sprintf("provider error: %s", errorMessage(err)))
			return
		}

		if len(result.ToolCalls) == 0 {
			if err := s.finishTurn(ctx, turn, result.Text, sink); err != nil {
				sink.OnError(errorMessage(err))
			}
			return
		}

		executed := provider.ToolRound{Calls: result.ToolCalls}
		for _, call := range result.ToolCalls {
			if !s.registry.Contains(call.Name) {
				s.logger.Warn().
					Str("conversation_id", turn.Conversation.PublicID).
					Str("tool", call.Name).
					Msg("provider requested a tool outside the advertised catalog")
			}
			sink.OnToolCall(call.Name)

			execution := s.executor.Execute(ctx, userID, call.Name, call.Arguments)
			if execution.Proposal != nil {
				sink.OnWriteProposal(execution.Proposal.ConfirmationID, execution.Proposal.ToolName, execution.Proposal.Payload)
			}
			executed.Results = append(executed.Results, provider.ToolResult{
				CallID: call.ID,
				Output: execution.ResultJSON,
			})
		}
		rounds = append(rounds, executed)
	}

	s.logger.Warn().
		Str("conversation_id", turn.Conversation.PublicID).
		Int("max_rounds", s.opts.MaxToolRounds).
		Msg("tool round limit exhausted")
	sink.OnError(fmt.Sprintf("provider error: tool round limit of %d exhausted", s.opts.MaxToolRounds))
}

func (s *Service) runPassThrough(ctx context.Context, turn *Turn, adapter provider.TextStreamer, sink EventSink) {
	stream, err := adapter.StreamText(ctx, turn.history, turn.apiKey)
	if err != nil {
		s.logger.Error().Err(err).
			Str("conversation_id", turn.Conversation.PublicID).
			Msg("provider stream failed to open")
		sink.OnError(fmt.Sprintf("provider error: %s", errorMessage(err)))
		return
	}
	defer stream.Close()

	var full string
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Error().Err(err).
				Str("conversation_id", turn.Conversation.PublicID).
				Msg("provider stream failed mid-flight")
			sink.OnError(fmt.Sprintf("provider error: %s", errorMessage(err)))
			return
		}
		full += fragment
		sink.OnChunk(fragment)
	}

	if _, err := s.conversations.AppendMessage(ctx, turn.Conversation, conversation.RoleAssistant, full); err != nil {
		sink.OnError(errorMessage(err))
		return
	}
	sink.OnDone()
}

// finishTurn persists the final assistant text, then re-chunks it for the
// stream so the concatenated chunks always equal the stored message.
func (s *Service) finishTurn(ctx context.Context, turn *Turn, text string, sink EventSink) error {
	if _, err := s.conversations.AppendMessage(ctx, turn.Conversation, conversation.RoleAssistant, text); err != nil {
		return err
	}
	for _, chunk := range chunkText(text, s.opts.ChunkSize) {
		sink.OnChunk(chunk)
	}
	sink.OnDone()
	return nil
}

// chunkText splits text into fragments of at most size runes.
func chunkText(text string, size int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func errorMessage(err error) string {
	if pe, ok := err.(*platformerrors.PlatformError); ok {
		return pe.Message
	}
	return err.Error()
}
