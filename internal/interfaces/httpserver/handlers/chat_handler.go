package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/chat"
	"clippost-server/services/assistant-api/internal/infrastructure/metrics"
	"clippost-server/services/assistant-api/internal/infrastructure/observability"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/dto"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/middlewares"
)

const doneMarker = "[DONE]"

// ChatHandler exposes the turn submission endpoint.
type ChatHandler struct {
	service *chat.Service
	log     zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service *chat.Service, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// SubmitTurn handles POST /v1/chat/turns. Failures before the stream opens
// are reported as plain status codes; once streaming starts every outcome
// arrives as an SSE event.
func (h *ChatHandler) SubmitTurn(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	var req dto.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	turn, err := h.service.PrepareTurn(c.Request.Context(), userID, chat.TurnRequest{
		ConversationID: req.ConversationID,
		Content:        req.Content,
		Provider:       req.Provider,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}
	c.Writer.WriteHeader(http.StatusOK)

	spanCtx, span := observability.StartTurnSpan(
		c.Request.Context(),
		turn.Conversation.PublicID,
		turn.Conversation.Provider,
	)
	defer span.End()

	sink := newSSESink(c.Writer, flusher, h.log)
	h.service.Run(spanCtx, userID, turn, sink)

	status := "completed"
	if sink.failed {
		status = "failed"
		observability.RecordError(span, errors.New(sink.failure))
	}
	metrics.RecordTurn(turn.Conversation.Provider, status)
}

// sseSink streams turn events as data-only SSE frames.
type sseSink struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	log     zerolog.Logger
	mu      sync.Mutex
	failed  bool
	failure string
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher, log zerolog.Logger) *sseSink {
	return &sseSink{
		writer:  w,
		flusher: flusher,
		log:     log,
	}
}

func (s *sseSink) OnChunk(text string) {
	s.sendEvent(dto.StreamEvent{Chunk: text})
}

func (s *sseSink) OnToolCall(name string) {
	metrics.RecordToolCall(name)
	s.sendEvent(dto.StreamEvent{ToolCall: &dto.ToolCallEvent{Name: name}})
}

func (s *sseSink) OnWriteProposal(confirmationID, toolName string, proposal json.RawMessage) {
	s.sendEvent(dto.StreamEvent{WriteProposal: &dto.WriteProposalEvent{
		ConfirmationID: confirmationID,
		ToolName:       toolName,
		Proposal:       proposal,
	}})
}

func (s *sseSink) OnError(message string) {
	s.failed = true
	s.failure = message
	s.sendEvent(dto.StreamEvent{Error: message})
}

func (s *sseSink) OnDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.writer, "data: %s\n\n", doneMarker)
	s.flusher.Flush()
}

func (s *sseSink) sendEvent(event dto.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal SSE payload")
		return
	}

	fmt.Fprintf(s.writer, "data: %s\n\n", data)
	s.flusher.Flush()
}

var _ chat.EventSink = (*sseSink)(nil)
