package tool

// Argument shapes for each tool. Unknown fields in model-supplied JSON
// are ignored during decoding.

type searchPostsInput struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

type getPostInput struct {
	ID string `json:"id"`
}

type topHashtagsInput struct {
	Limit int `json:"limit"`
}

// CreatePostProposal is the materialized payload staged for a
// propose_create_post confirmation.
type CreatePostProposal struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Type     string   `json:"type"`
	Category string   `json:"category,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// UpdateStatusProposal is the materialized payload staged for a
// propose_update_post_status confirmation.
type UpdateStatusProposal struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

const (
	defaultSearchLimit  = 10
	maxSearchLimit      = 25
	defaultHashtagLimit = 10
	maxHashtagLimit     = 20
)

func clampLimit(requested, fallback, max int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > max {
		return max
	}
	return requested
}
