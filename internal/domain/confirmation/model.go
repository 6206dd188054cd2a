package confirmation

import (
	"context"
	"encoding/json"
	"time"
)

// Confirmation is a staged write proposal awaiting the user's approval.
// It moves from pending to executed exactly once; expiry is derived from
// ExpiresAt at read time rather than stored as state.
type Confirmation struct {
	ID         uint
	PublicID   string
	UserID     string
	ToolName   string
	Payload    json.RawMessage
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ExecutedAt *time.Time
}

// Expired reports whether the confirmation's TTL has lapsed. The expiry
// instant itself already counts as expired.
func (c *Confirmation) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Executed reports whether the confirmation has already been consumed.
func (c *Confirmation) Executed() bool {
	return c.ExecutedAt != nil
}

// Repository provides persistence for confirmations. FindForUpdate must
// take a row lock when called inside a transaction so concurrent execute
// attempts serialize on the same confirmation.
type Repository interface {
	Create(ctx context.Context, conf *Confirmation) error
	FindForUpdate(ctx context.Context, publicID string) (*Confirmation, error)
	MarkExecuted(ctx context.Context, id uint, executedAt time.Time) error
}
