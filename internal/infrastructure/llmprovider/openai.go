package llmprovider

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"clippost-server/services/assistant-api/internal/domain/provider"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// OpenAICompatible streams text through any Chat Completions compatible
// endpoint. It carries no tool awareness; fragments pass through verbatim.
type OpenAICompatible struct {
	id      string
	baseURL string
	model   string
}

// NewOpenAICompatible builds a pass-through adapter for the given provider ID.
func NewOpenAICompatible(id, baseURL, model string) *OpenAICompatible {
	return &OpenAICompatible{id: id, baseURL: baseURL, model: model}
}

// ID implements provider.Adapter.
func (o *OpenAICompatible) ID() string {
	return o.id
}

// StreamText implements provider.TextStreamer.
func (o *OpenAICompatible) StreamText(ctx context.Context, history []provider.Message, apiKey string) (provider.Stream, error) {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = o.baseURL
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			"failed to open completion stream",
			err,
			o.id+"-stream-open-error",
		)
	}

	return &completionStream{inner: stream}, nil
}

type completionStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next non-empty text fragment, or io.EOF at end of stream.
func (s *completionStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if err == io.EOF {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
}

func (s *completionStream) Close() error {
	return s.inner.Close()
}
