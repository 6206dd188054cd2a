package confirmation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// memoryRepo serializes access the way a row lock would.
type memoryRepo struct {
	mu    sync.Mutex
	seq   uint
	items map[string]*confirmation.Confirmation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[string]*confirmation.Confirmation{}}
}

func (r *memoryRepo) Create(_ context.Context, conf *confirmation.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	conf.ID = r.seq
	conf.CreatedAt = time.Now()
	stored := *conf
	r.items[conf.PublicID] = &stored
	return nil
}

func (r *memoryRepo) FindForUpdate(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[publicID]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("confirmation not found: %s", publicID), nil, "test-not-found")
	}
	copied := *stored
	return &copied, nil
}

func (r *memoryRepo) MarkExecuted(_ context.Context, id uint, executedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.items {
		if stored.ID == id {
			at := executedAt
			stored.ExecutedAt = &at
			return nil
		}
	}
	return fmt.Errorf("confirmation %d not found", id)
}

// serialTx emulates transactional execution by holding one lock for the
// whole callback, matching the serialization a FOR UPDATE lock provides.
type serialTx struct {
	mu sync.Mutex
}

func (t *serialTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

type countingCatalog struct {
	mu          sync.Mutex
	createCalls int
	updateCalls int
	updateErr   error
}

func (c *countingCatalog) SearchPosts(context.Context, catalog.SearchFilter) ([]*catalog.Post, error) {
	return nil, nil
}

func (c *countingCatalog) FindByPublicID(context.Context, string) (*catalog.Post, error) {
	return nil, nil
}

func (c *countingCatalog) ListCategories(context.Context) ([]*catalog.CategoryCount, error) {
	return nil, nil
}

func (c *countingCatalog) TopHashtags(context.Context, int) ([]*catalog.HashtagCount, error) {
	return nil, nil
}

func (c *countingCatalog) CreatePost(_ context.Context, post catalog.NewPost) (*catalog.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	return &catalog.Post{PublicID: "post_new", OwnerID: post.OwnerID, Title: post.Title, URL: post.URL, Type: post.Type, Status: catalog.PostStatusActive}, nil
}

func (c *countingCatalog) UpdateStatus(_ context.Context, publicID, ownerID string, status catalog.PostStatus) (*catalog.Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++
	if c.updateErr != nil {
		return nil, c.updateErr
	}
	return &catalog.Post{PublicID: publicID, OwnerID: ownerID, Status: status}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	posts []*catalog.Post
	done  chan struct{}
}

func (n *recordingNotifier) PostCreated(_ context.Context, post *catalog.Post) {
	n.mu.Lock()
	n.posts = append(n.posts, post)
	n.mu.Unlock()
	if n.done != nil {
		close(n.done)
	}
}

func newBroker(t *testing.T, repo confirmation.Repository, posts catalog.Repository, notifier confirmation.Notifier, ttl time.Duration) *confirmation.Broker {
	t.Helper()
	return confirmation.NewBroker(repo, posts, &serialTx{}, notifier, ttl, zerolog.Nop())
}

func createPayload(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(tool.CreatePostProposal{Title: "Cat compilation", URL: "https://example.com/v/1", Type: "video"})
	require.NoError(t, err)
	return raw
}

func TestStageRejectsReadTools(t *testing.T) {
	broker := newBroker(t, newMemoryRepo(), &countingCatalog{}, nil, time.Minute)

	_, err := broker.Stage(context.Background(), "user-1", tool.NameSearchPosts, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestExecuteCreatePostExactlyOnce(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}
	notifier := &recordingNotifier{done: make(chan struct{})}
	broker := newBroker(t, repo, posts, notifier, time.Minute)

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeCreatePost, createPayload(t))
	require.NoError(t, err)

	outcome, err := broker.Execute(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "post_new", outcome.PostID)

	_, err = broker.Execute(context.Background(), id, "user-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))

	assert.Equal(t, 1, posts.createCalls)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never fired")
	}
	assert.Len(t, notifier.posts, 1)
	assert.Equal(t, "user-1", notifier.posts[0].OwnerID)
}

func TestExecuteConcurrentAttemptsMutateOnce(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}
	broker := newBroker(t, repo, posts, nil, time.Minute)

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeCreatePost, createPayload(t))
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	conflicts := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := broker.Execute(context.Background(), id, "user-1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, posts.createCalls)
}

func TestExecuteExpiredConfirmationDoesNotMutate(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}

	current := time.Now()
	broker := confirmation.NewBroker(repo, posts, &serialTx{}, nil, time.Minute, zerolog.Nop()).
		WithClock(func() time.Time { return current })

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeCreatePost, createPayload(t))
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = broker.Execute(context.Background(), id, "user-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExpired))
	assert.Equal(t, 0, posts.createCalls)
}

func TestExecuteAtExpiryInstantDoesNotMutate(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}

	current := time.Now()
	broker := confirmation.NewBroker(repo, posts, &serialTx{}, nil, time.Minute, zerolog.Nop()).
		WithClock(func() time.Time { return current })

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeCreatePost, createPayload(t))
	require.NoError(t, err)

	// now == expires_at: already expired, the window is half-open.
	current = current.Add(time.Minute)

	_, err = broker.Execute(context.Background(), id, "user-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExpired))
	assert.Equal(t, 0, posts.createCalls)
}

func TestExecuteOtherUsersConfirmationIsNotFound(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}
	broker := newBroker(t, repo, posts, nil, time.Minute)

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeCreatePost, createPayload(t))
	require.NoError(t, err)

	_, err = broker.Execute(context.Background(), id, "user-2")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.False(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
	assert.Equal(t, 0, posts.createCalls)
}

func TestExecuteMissingConfirmationIsNotFound(t *testing.T) {
	broker := newBroker(t, newMemoryRepo(), &countingCatalog{}, nil, time.Minute)

	_, err := broker.Execute(context.Background(), "cnf_does_not_exist", "user-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestExecuteUpdateStatusRechecksOwnership(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{
		updateErr: platformerrors.NewError(context.Background(), platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "post not found: post_9", nil, "test-update-not-found"),
	}
	broker := newBroker(t, repo, posts, nil, time.Minute)

	payload, err := json.Marshal(tool.UpdateStatusProposal{ID: "post_9", Status: "hidden"})
	require.NoError(t, err)

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeUpdateStatus, payload)
	require.NoError(t, err)

	_, err = broker.Execute(context.Background(), id, "user-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Equal(t, 1, posts.updateCalls)
}

func TestExecuteUpdateStatusDoesNotNotify(t *testing.T) {
	repo := newMemoryRepo()
	posts := &countingCatalog{}
	notifier := &recordingNotifier{}
	broker := newBroker(t, repo, posts, notifier, time.Minute)

	payload, err := json.Marshal(tool.UpdateStatusProposal{ID: "post_1", Status: "archived"})
	require.NoError(t, err)

	id, err := broker.Stage(context.Background(), "user-1", tool.NameProposeUpdateStatus, payload)
	require.NoError(t, err)

	outcome, err := broker.Execute(context.Background(), id, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "post_1", outcome.PostID)

	time.Sleep(50 * time.Millisecond)
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Empty(t, notifier.posts)
}
