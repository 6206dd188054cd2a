package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"clippost-server/services/assistant-api/internal/domain/provider"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

const anthropicVersion = "2023-06-01"

// Anthropic is the tool-capable adapter. It drives the Messages API in
// non-streaming mode; the chat loop re-chunks final answers itself.
type Anthropic struct {
	client *resty.Client
	model  string
}

// NewAnthropic builds the Anthropic adapter.
func NewAnthropic(baseURL, model string, timeout time.Duration) *Anthropic {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("anthropic-version", anthropicVersion)

	return &Anthropic{client: client, model: model}
}

// ID implements provider.Adapter.
func (a *Anthropic) ID() string {
	return "anthropic"
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CompleteTurn implements provider.ToolCapable. Accumulated tool rounds are
// replayed as assistant tool_use blocks paired with user tool_result blocks
// so the model sees the whole exchange.
func (a *Anthropic) CompleteTurn(ctx context.Context, history []provider.Message, rounds []provider.ToolRound, tools []provider.ToolSpec, apiKey string) (*provider.TurnResult, error) {
	req := anthropicRequest{
		Model:     a.model,
		MaxTokens: 4096,
		Messages:  buildAnthropicMessages(history, rounds),
	}
	for _, spec := range tools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		})
	}

	var parsed anthropicResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", apiKey).
		SetBody(req).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/v1/messages")
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			"anthropic request failed",
			err,
			"anthropic-request-error",
		)
	}
	if resp.IsError() {
		message := fmt.Sprintf("anthropic returned status %d", resp.StatusCode())
		if parsed.Error != nil {
			message = fmt.Sprintf("anthropic: %s", parsed.Error.Message)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeExternal,
			message,
			nil,
			"anthropic-status-error",
		)
	}

	result := &provider.TurnResult{}
	var text string
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}

	// a turn resolves to tool calls or final text, never both
	if len(result.ToolCalls) == 0 {
		result.Text = text
	}
	return result, nil
}

func buildAnthropicMessages(history []provider.Message, rounds []provider.ToolRound) []anthropicMessage {
	messages := make([]anthropicMessage, 0, len(history)+2*len(rounds))
	for _, msg := range history {
		messages = append(messages, anthropicMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	for _, round := range rounds {
		uses := make([]anthropicContentBlock, len(round.Calls))
		for i, call := range round.Calls {
			uses[i] = anthropicContentBlock{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: call.Arguments,
			}
		}
		messages = append(messages, anthropicMessage{Role: "assistant", Content: uses})

		results := make([]anthropicContentBlock, len(round.Results))
		for i, res := range round.Results {
			results[i] = anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: res.CallID,
				Content:   string(res.Output),
			}
		}
		messages = append(messages, anthropicMessage{Role: "user", Content: results})
	}

	return messages
}
