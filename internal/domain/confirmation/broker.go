package confirmation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Transactor runs fn inside a database transaction. Repository calls made
// with the context fn receives join that transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier announces catalog mutations to interested parties. Delivery is
// best effort and never blocks or fails the confirmation flow.
type Notifier interface {
	PostCreated(ctx context.Context, post *catalog.Post)
}

// Outcome is the result of executing a confirmation.
type Outcome struct {
	PostID string
}

// Broker stages write proposals and executes them on user approval. Each
// confirmation mutates the catalog exactly once: the row is locked, checked,
// mutated, and marked executed within a single transaction.
type Broker struct {
	repo     Repository
	posts    catalog.Repository
	tx       Transactor
	notifier Notifier
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewBroker builds a confirmation broker.
func NewBroker(repo Repository, posts catalog.Repository, tx Transactor, notifier Notifier, ttl time.Duration, logger zerolog.Logger) *Broker {
	return &Broker{
		repo:     repo,
		posts:    posts,
		tx:       tx,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger.With().Str("component", "confirmation_broker").Logger(),
		now:      time.Now,
	}
}

// WithClock overrides the broker's clock. Intended for tests.
func (b *Broker) WithClock(now func() time.Time) *Broker {
	b.now = now
	return b
}

// Stage persists a pending confirmation for the proposal and returns its ID.
func (b *Broker) Stage(ctx context.Context, userID, toolName string, payload json.RawMessage) (string, error) {
	if !tool.IsWriteTool(toolName) {
		return "", platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("tool %s does not stage confirmations", toolName),
			nil,
			"stage-non-write-tool",
		)
	}

	now := b.now()
	conf := &Confirmation{
		PublicID:  fmt.Sprintf("cnf_%s", uuid.NewString()),
		UserID:    userID,
		ToolName:  toolName,
		Payload:   payload,
		ExpiresAt: now.Add(b.ttl),
	}
	if err := b.repo.Create(ctx, conf); err != nil {
		return "", err
	}

	b.logger.Info().
		Str("confirmation_id", conf.PublicID).
		Str("tool", toolName).
		Time("expires_at", conf.ExpiresAt).
		Msg("staged write confirmation")
	return conf.PublicID, nil
}

// Execute applies a staged confirmation on behalf of the user. Confirmations
// belonging to other users are indistinguishable from missing ones.
func (b *Broker) Execute(ctx context.Context, confirmationID, userID string) (*Outcome, error) {
	var outcome *Outcome
	var createdPost *catalog.Post

	err := b.tx.Transaction(ctx, func(txCtx context.Context) error {
		conf, err := b.repo.FindForUpdate(txCtx, confirmationID)
		if err != nil {
			return err
		}
		if conf.UserID != userID {
			return platformerrors.NewError(
				txCtx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("confirmation not found: %s", confirmationID),
				nil,
				"execute-wrong-owner",
			)
		}
		if conf.Executed() {
			return platformerrors.NewError(
				txCtx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeConflict,
				fmt.Sprintf("confirmation already executed: %s", confirmationID),
				nil,
				"execute-already-executed",
			)
		}
		if conf.Expired(b.now()) {
			return platformerrors.NewError(
				txCtx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeExpired,
				fmt.Sprintf("confirmation expired: %s", confirmationID),
				nil,
				"execute-expired",
			)
		}

		outcome, createdPost, err = b.apply(txCtx, conf)
		if err != nil {
			return err
		}

		return b.repo.MarkExecuted(txCtx, conf.ID, b.now())
	})
	if err != nil {
		return nil, err
	}

	if createdPost != nil {
		b.notifyPostCreated(createdPost)
	}
	return outcome, nil
}

func (b *Broker) apply(ctx context.Context, conf *Confirmation) (*Outcome, *catalog.Post, error) {
	switch conf.ToolName {
	case tool.NameProposeCreatePost:
		var proposal tool.CreatePostProposal
		if err := json.Unmarshal(conf.Payload, &proposal); err != nil {
			return nil, nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeInternal,
				"failed to decode staged proposal",
				err,
				"apply-decode-create",
			)
		}
		post, err := b.posts.CreatePost(ctx, catalog.NewPost{
			OwnerID:  conf.UserID,
			Title:    proposal.Title,
			URL:      proposal.URL,
			Type:     catalog.PostType(proposal.Type),
			Category: proposal.Category,
			Hashtags: proposal.Hashtags,
		})
		if err != nil {
			return nil, nil, err
		}
		return &Outcome{PostID: post.PublicID}, post, nil

	case tool.NameProposeUpdateStatus:
		var proposal tool.UpdateStatusProposal
		if err := json.Unmarshal(conf.Payload, &proposal); err != nil {
			return nil, nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerDomain,
				platformerrors.ErrorTypeInternal,
				"failed to decode staged proposal",
				err,
				"apply-decode-update",
			)
		}
		post, err := b.posts.UpdateStatus(ctx, proposal.ID, conf.UserID, catalog.PostStatus(proposal.Status))
		if err != nil {
			return nil, nil, err
		}
		return &Outcome{PostID: post.PublicID}, nil, nil

	default:
		return nil, nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown confirmation tool: %s", conf.ToolName),
			nil,
			"apply-unknown-tool",
		)
	}
}

// notifyPostCreated fires the creation notification without blocking the
// caller. Failures are logged and never retried.
func (b *Broker) notifyPostCreated(post *catalog.Post) {
	if b.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.notifier.PostCreated(ctx, post)
	}()
}
