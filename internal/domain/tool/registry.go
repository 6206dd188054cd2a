package tool

import (
	"encoding/json"

	"clippost-server/services/assistant-api/internal/domain/provider"
)

// Tool names exposed to the model.
const (
	NameSearchPosts         = "search_posts"
	NameGetPost             = "get_post"
	NameListCategories      = "list_categories"
	NameTopHashtags         = "top_hashtags"
	NameProposeCreatePost   = "propose_create_post"
	NameProposeUpdateStatus = "propose_update_post_status"
)

// IsWriteTool reports whether the named tool proposes a catalog mutation
// instead of executing immediately.
func IsWriteTool(name string) bool {
	return name == NameProposeCreatePost || name == NameProposeUpdateStatus
}

// Registry describes the fixed tool catalog advertised to providers.
type Registry struct {
	specs []provider.ToolSpec
}

// NewRegistry builds the catalog.
func NewRegistry() *Registry {
	return &Registry{specs: []provider.ToolSpec{
		{
			Name:        NameSearchPosts,
			Description: "Search shared posts by free-text query, optionally narrowed to a category.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Free-text search over titles"},
					"category": {"type": "string", "description": "Restrict results to one category"},
					"limit": {"type": "integer", "description": "Maximum results, 1-25"}
				}
			}`),
		},
		{
			Name:        NameGetPost,
			Description: "Fetch a single post by its public ID.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {"type": "string", "description": "Public post ID"}
				},
				"required": ["id"]
			}`),
		},
		{
			Name:        NameListCategories,
			Description: "List every category on the board with its post count.",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		},
		{
			Name:        NameTopHashtags,
			Description: "List the most used hashtags with their usage counts.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Maximum hashtags, 1-20"}
				}
			}`),
		},
		{
			Name:        NameProposeCreatePost,
			Description: "Propose creating a new post. The user must confirm before anything is written.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"url": {"type": "string"},
					"type": {"type": "string", "enum": ["link", "video", "image", "article"]},
					"category": {"type": "string"},
					"hashtags": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["title", "url", "type"]
			}`),
		},
		{
			Name:        NameProposeUpdateStatus,
			Description: "Propose changing the status of one of the user's posts. The user must confirm before anything is written.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"id": {"type": "string", "description": "Public post ID"},
					"status": {"type": "string", "enum": ["active", "hidden", "archived"]}
				},
				"required": ["id", "status"]
			}`),
		},
	}}
}

// Specs returns the provider-neutral tool descriptions.
func (r *Registry) Specs() []provider.ToolSpec {
	return r.specs
}

// Contains reports whether the catalog includes the named tool.
func (r *Registry) Contains(name string) bool {
	for _, spec := range r.specs {
		if spec.Name == name {
			return true
		}
	}
	return false
}
