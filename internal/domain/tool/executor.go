package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Stager stages a write proposal for later confirmation and returns the
// confirmation ID the user must present to execute it.
type Stager interface {
	Stage(ctx context.Context, userID, toolName string, payload json.RawMessage) (string, error)
}

// StagedProposal surfaces a staged write so the transport can announce it.
type StagedProposal struct {
	ConfirmationID string
	ToolName       string
	Payload        json.RawMessage
}

// ExecutionResult is the outcome of one tool invocation. ResultJSON is
// always populated and is what gets replayed to the model; Proposal is
// set only when a write tool staged a confirmation.
type ExecutionResult struct {
	ResultJSON json.RawMessage
	Proposal   *StagedProposal
}

// Executor runs catalog tools on behalf of the model. Failures never
// escape as errors; they are folded into error-shaped result JSON so the
// model can react to them.
type Executor struct {
	posts  catalog.Repository
	stager Stager
	logger zerolog.Logger
}

// NewExecutor builds a tool executor.
func NewExecutor(posts catalog.Repository, stager Stager, logger zerolog.Logger) *Executor {
	return &Executor{
		posts:  posts,
		stager: stager,
		logger: logger.With().Str("component", "tool_executor").Logger(),
	}
}

// Execute dispatches a tool call by name.
func (e *Executor) Execute(ctx context.Context, userID, name string, args json.RawMessage) ExecutionResult {
	var result ExecutionResult
	var err error

	switch name {
	case NameSearchPosts:
		result, err = e.searchPosts(ctx, args)
	case NameGetPost:
		result, err = e.getPost(ctx, args)
	case NameListCategories:
		result, err = e.listCategories(ctx)
	case NameTopHashtags:
		result, err = e.topHashtags(ctx, args)
	case NameProposeCreatePost:
		result, err = e.proposeCreatePost(ctx, userID, args)
	case NameProposeUpdateStatus:
		result, err = e.proposeUpdateStatus(ctx, userID, args)
	default:
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	if err != nil {
		e.logger.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
		if pe, ok := err.(*platformerrors.PlatformError); ok {
			return errorResult(pe.Message)
		}
		return errorResult(err.Error())
	}
	return result
}

func (e *Executor) searchPosts(ctx context.Context, args json.RawMessage) (ExecutionResult, error) {
	var input searchPostsInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return ExecutionResult{}, fmt.Errorf("invalid search_posts arguments: %w", err)
		}
	}

	posts, err := e.posts.SearchPosts(ctx, catalog.SearchFilter{
		Query:    input.Query,
		Category: input.Category,
		Limit:    clampLimit(input.Limit, defaultSearchLimit, maxSearchLimit),
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	views := make([]postView, len(posts))
	for i, post := range posts {
		views[i] = newPostView(post)
	}
	return jsonResult(map[string]any{"posts": views, "count": len(views)})
}

func (e *Executor) getPost(ctx context.Context, args json.RawMessage) (ExecutionResult, error) {
	var input getPostInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return ExecutionResult{}, fmt.Errorf("invalid get_post arguments: %w", err)
		}
	}
	if input.ID == "" {
		return jsonResult(map[string]any{"found": false, "id": ""})
	}

	post, err := e.posts.FindByPublicID(ctx, input.ID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return jsonResult(map[string]any{"found": false, "id": input.ID})
		}
		return ExecutionResult{}, err
	}
	return jsonResult(map[string]any{"found": true, "post": newPostView(post)})
}

func (e *Executor) listCategories(ctx context.Context) (ExecutionResult, error) {
	categories, err := e.posts.ListCategories(ctx)
	if err != nil {
		return ExecutionResult{}, err
	}

	views := make([]map[string]any, len(categories))
	for i, cat := range categories {
		views[i] = map[string]any{"name": cat.Name, "post_count": cat.PostCount}
	}
	return jsonResult(map[string]any{"categories": views})
}

func (e *Executor) topHashtags(ctx context.Context, args json.RawMessage) (ExecutionResult, error) {
	var input topHashtagsInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return ExecutionResult{}, fmt.Errorf("invalid top_hashtags arguments: %w", err)
		}
	}

	tags, err := e.posts.TopHashtags(ctx, clampLimit(input.Limit, defaultHashtagLimit, maxHashtagLimit))
	if err != nil {
		return ExecutionResult{}, err
	}

	views := make([]map[string]any, len(tags))
	for i, tag := range tags {
		views[i] = map[string]any{"tag": tag.Tag, "count": tag.Count}
	}
	return jsonResult(map[string]any{"hashtags": views})
}

func (e *Executor) proposeCreatePost(ctx context.Context, userID string, args json.RawMessage) (ExecutionResult, error) {
	var proposal CreatePostProposal
	if err := json.Unmarshal(args, &proposal); err != nil {
		return ExecutionResult{}, fmt.Errorf("invalid propose_create_post arguments: %w", err)
	}
	if proposal.Title == "" || proposal.URL == "" {
		return errorResult("propose_create_post requires title and url"), nil
	}
	if !catalog.ValidType(proposal.Type) {
		return errorResult(fmt.Sprintf("unknown post type: %s", proposal.Type)), nil
	}

	return e.stage(ctx, userID, NameProposeCreatePost, proposal,
		fmt.Sprintf("Proposed creating post %q. The user must confirm before it is created.", proposal.Title))
}

func (e *Executor) proposeUpdateStatus(ctx context.Context, userID string, args json.RawMessage) (ExecutionResult, error) {
	var proposal UpdateStatusProposal
	if err := json.Unmarshal(args, &proposal); err != nil {
		return ExecutionResult{}, fmt.Errorf("invalid propose_update_post_status arguments: %w", err)
	}
	if proposal.ID == "" {
		return errorResult("propose_update_post_status requires an id"), nil
	}
	if !catalog.ValidStatus(proposal.Status) {
		return errorResult(fmt.Sprintf("unknown post status: %s", proposal.Status)), nil
	}

	return e.stage(ctx, userID, NameProposeUpdateStatus, proposal,
		fmt.Sprintf("Proposed setting post %s to %s. The user must confirm before it changes.", proposal.ID, proposal.Status))
}

func (e *Executor) stage(ctx context.Context, userID, toolName string, proposal any, summary string) (ExecutionResult, error) {
	payload, err := json.Marshal(proposal)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("marshal proposal: %w", err)
	}

	confirmationID, err := e.stager.Stage(ctx, userID, toolName, payload)
	if err != nil {
		return ExecutionResult{}, err
	}

	result, err := jsonResult(map[string]any{
		"staged":          true,
		"confirmation_id": confirmationID,
		"proposal":        json.RawMessage(payload),
		"message":         summary,
	})
	if err != nil {
		return ExecutionResult{}, err
	}

	result.Proposal = &StagedProposal{
		ConfirmationID: confirmationID,
		ToolName:       toolName,
		Payload:        payload,
	}
	return result, nil
}

type postView struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Type     string   `json:"type"`
	Status   string   `json:"status"`
	Category string   `json:"category,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

func newPostView(post *catalog.Post) postView {
	return postView{
		ID:       post.PublicID,
		Title:    post.Title,
		URL:      post.URL,
		Type:     string(post.Type),
		Status:   string(post.Status),
		Category: post.Category,
		Hashtags: post.Hashtags,
	}
}

func jsonResult(payload any) (ExecutionResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("marshal tool result: %w", err)
	}
	return ExecutionResult{ResultJSON: raw}, nil
}

func errorResult(message string) ExecutionResult {
	raw, _ := json.Marshal(map[string]string{"error": message})
	return ExecutionResult{ResultJSON: raw}
}
