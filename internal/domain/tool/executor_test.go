package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

type mockCatalog struct {
	searchPostsFn    func(ctx context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error)
	findByPublicFn   func(ctx context.Context, publicID string) (*catalog.Post, error)
	listCategoriesFn func(ctx context.Context) ([]*catalog.CategoryCount, error)
	topHashtagsFn    func(ctx context.Context, limit int) ([]*catalog.HashtagCount, error)
	createPostFn     func(ctx context.Context, post catalog.NewPost) (*catalog.Post, error)
	updateStatusFn   func(ctx context.Context, publicID, ownerID string, status catalog.PostStatus) (*catalog.Post, error)
}

func (m *mockCatalog) SearchPosts(ctx context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error) {
	return m.searchPostsFn(ctx, filter)
}

func (m *mockCatalog) FindByPublicID(ctx context.Context, publicID string) (*catalog.Post, error) {
	return m.findByPublicFn(ctx, publicID)
}

func (m *mockCatalog) ListCategories(ctx context.Context) ([]*catalog.CategoryCount, error) {
	return m.listCategoriesFn(ctx)
}

func (m *mockCatalog) TopHashtags(ctx context.Context, limit int) ([]*catalog.HashtagCount, error) {
	return m.topHashtagsFn(ctx, limit)
}

func (m *mockCatalog) CreatePost(ctx context.Context, post catalog.NewPost) (*catalog.Post, error) {
	return m.createPostFn(ctx, post)
}

func (m *mockCatalog) UpdateStatus(ctx context.Context, publicID, ownerID string, status catalog.PostStatus) (*catalog.Post, error) {
	return m.updateStatusFn(ctx, publicID, ownerID, status)
}

type mockStager struct {
	stageFn func(ctx context.Context, userID, toolName string, payload json.RawMessage) (string, error)
}

func (m *mockStager) Stage(ctx context.Context, userID, toolName string, payload json.RawMessage) (string, error) {
	return m.stageFn(ctx, userID, toolName, payload)
}

func decodeResult(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestExecuteUnknownToolReturnsErrorJSON(t *testing.T) {
	executor := tool.NewExecutor(&mockCatalog{}, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", "delete_everything", nil)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, "unknown tool: delete_everything", out["error"])
	assert.Nil(t, result.Proposal)
}

func TestExecuteSearchPostsClampsLimitAndIgnoresUnknownFields(t *testing.T) {
	var gotFilter catalog.SearchFilter
	posts := &mockCatalog{
		searchPostsFn: func(_ context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error) {
			gotFilter = filter
			return []*catalog.Post{
				{PublicID: "post_1", Title: "Cat compilation", URL: "https://example.com/v/1", Type: catalog.PostTypeVideo, Status: catalog.PostStatusActive},
			}, nil
		},
	}
	executor := tool.NewExecutor(posts, &mockStager{}, zerolog.Nop())

	args := json.RawMessage(`{"query": "cats", "limit": 999, "surprise_field": true}`)
	result := executor.Execute(context.Background(), "user-1", tool.NameSearchPosts, args)

	assert.Equal(t, "cats", gotFilter.Query)
	assert.Equal(t, 25, gotFilter.Limit)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, float64(1), out["count"])
}

func TestExecuteSearchPostsDefaultsLimit(t *testing.T) {
	var gotFilter catalog.SearchFilter
	posts := &mockCatalog{
		searchPostsFn: func(_ context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	executor := tool.NewExecutor(posts, &mockStager{}, zerolog.Nop())

	executor.Execute(context.Background(), "user-1", tool.NameSearchPosts, json.RawMessage(`{"query": "x"}`))
	assert.Equal(t, 10, gotFilter.Limit)

	executor.Execute(context.Background(), "user-1", tool.NameSearchPosts, json.RawMessage(`{"query": "x", "limit": -3}`))
	assert.Equal(t, 10, gotFilter.Limit)
}

func TestExecuteGetPostMissingIDIsNotFoundPayload(t *testing.T) {
	posts := &mockCatalog{
		findByPublicFn: func(ctx context.Context, publicID string) (*catalog.Post, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "post not found", nil, "test-not-found")
		},
	}
	executor := tool.NewExecutor(posts, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", tool.NameGetPost, json.RawMessage(`{"id": "post_missing"}`))

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, false, out["found"])
	assert.Equal(t, "post_missing", out["id"])
	assert.NotContains(t, out, "error")
}

func TestExecuteGetPostWithoutArgumentsIsNotFoundPayload(t *testing.T) {
	executor := tool.NewExecutor(&mockCatalog{}, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", tool.NameGetPost, nil)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, false, out["found"])
	assert.NotContains(t, out, "error")
}

func TestExecuteRepositoryFailureBecomesErrorJSON(t *testing.T) {
	posts := &mockCatalog{
		listCategoriesFn: func(ctx context.Context) ([]*catalog.CategoryCount, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "connection refused", nil, "test-db-error")
		},
	}
	executor := tool.NewExecutor(posts, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", tool.NameListCategories, nil)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, "connection refused", out["error"])
}

func TestExecuteProposeCreatePostStagesConfirmation(t *testing.T) {
	var stagedUser, stagedTool string
	var stagedPayload json.RawMessage
	stager := &mockStager{
		stageFn: func(_ context.Context, userID, toolName string, payload json.RawMessage) (string, error) {
			stagedUser = userID
			stagedTool = toolName
			stagedPayload = payload
			return "cnf_123", nil
		},
	}
	executor := tool.NewExecutor(&mockCatalog{}, stager, zerolog.Nop())

	args := json.RawMessage(`{"title": "Cat compilation", "url": "https://example.com/v/1", "type": "video"}`)
	result := executor.Execute(context.Background(), "user-1", tool.NameProposeCreatePost, args)

	assert.Equal(t, "user-1", stagedUser)
	assert.Equal(t, tool.NameProposeCreatePost, stagedTool)

	var proposal tool.CreatePostProposal
	require.NoError(t, json.Unmarshal(stagedPayload, &proposal))
	assert.Equal(t, "Cat compilation", proposal.Title)
	assert.Equal(t, "video", proposal.Type)

	require.NotNil(t, result.Proposal)
	assert.Equal(t, "cnf_123", result.Proposal.ConfirmationID)
	assert.Equal(t, tool.NameProposeCreatePost, result.Proposal.ToolName)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, true, out["staged"])
	assert.Equal(t, "cnf_123", out["confirmation_id"])
}

func TestExecuteProposeCreatePostValidatesType(t *testing.T) {
	executor := tool.NewExecutor(&mockCatalog{}, &mockStager{}, zerolog.Nop())

	args := json.RawMessage(`{"title": "t", "url": "https://example.com", "type": "hologram"}`)
	result := executor.Execute(context.Background(), "user-1", tool.NameProposeCreatePost, args)

	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, "unknown post type: hologram", out["error"])
	assert.Nil(t, result.Proposal)
}

func TestExecuteProposeUpdateStatusValidates(t *testing.T) {
	executor := tool.NewExecutor(&mockCatalog{}, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", tool.NameProposeUpdateStatus, json.RawMessage(`{"status": "hidden"}`))
	out := decodeResult(t, result.ResultJSON)
	assert.Equal(t, "propose_update_post_status requires an id", out["error"])

	result = executor.Execute(context.Background(), "user-1", tool.NameProposeUpdateStatus, json.RawMessage(`{"id": "post_1", "status": "vanished"}`))
	out = decodeResult(t, result.ResultJSON)
	assert.Equal(t, "unknown post status: vanished", out["error"])
}

func TestExecuteMalformedArgumentsBecomeErrorJSON(t *testing.T) {
	executor := tool.NewExecutor(&mockCatalog{}, &mockStager{}, zerolog.Nop())

	result := executor.Execute(context.Background(), "user-1", tool.NameGetPost, json.RawMessage(`{"id": 7}`))

	out := decodeResult(t, result.ResultJSON)
	assert.Contains(t, out["error"], "invalid get_post arguments")
}
