package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/catalog"
	"clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/domain/tool"
	"clippost-server/services/assistant-api/internal/infrastructure/auth"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/handlers"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// MockConfirmationRepository is a mock implementation of confirmation.Repository.
type MockConfirmationRepository struct {
	CreateFunc        func(ctx context.Context, conf *confirmation.Confirmation) error
	FindForUpdateFunc func(ctx context.Context, publicID string) (*confirmation.Confirmation, error)
	MarkExecutedFunc  func(ctx context.Context, id uint, executedAt time.Time) error
}

func (m *MockConfirmationRepository) Create(ctx context.Context, conf *confirmation.Confirmation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conf)
	}
	return nil
}

func (m *MockConfirmationRepository) FindForUpdate(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
	if m.FindForUpdateFunc != nil {
		return m.FindForUpdateFunc(ctx, publicID)
	}
	return nil, nil
}

func (m *MockConfirmationRepository) MarkExecuted(ctx context.Context, id uint, executedAt time.Time) error {
	if m.MarkExecutedFunc != nil {
		return m.MarkExecutedFunc(ctx, id, executedAt)
	}
	return nil
}

// MockCatalogRepository is a mock implementation of catalog.Repository.
type MockCatalogRepository struct {
	SearchPostsFunc    func(ctx context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error)
	FindByPublicIDFunc func(ctx context.Context, publicID string) (*catalog.Post, error)
	ListCategoriesFunc func(ctx context.Context) ([]*catalog.CategoryCount, error)
	TopHashtagsFunc    func(ctx context.Context, limit int) ([]*catalog.HashtagCount, error)
	CreatePostFunc     func(ctx context.Context, post catalog.NewPost) (*catalog.Post, error)
	UpdateStatusFunc   func(ctx context.Context, publicID, ownerID string, status catalog.PostStatus) (*catalog.Post, error)
}

func (m *MockCatalogRepository) SearchPosts(ctx context.Context, filter catalog.SearchFilter) ([]*catalog.Post, error) {
	if m.SearchPostsFunc != nil {
		return m.SearchPostsFunc(ctx, filter)
	}
	return nil, nil
}

func (m *MockCatalogRepository) FindByPublicID(ctx context.Context, publicID string) (*catalog.Post, error) {
	if m.FindByPublicIDFunc != nil {
		return m.FindByPublicIDFunc(ctx, publicID)
	}
	return nil, nil
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]*catalog.CategoryCount, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalogRepository) TopHashtags(ctx context.Context, limit int) ([]*catalog.HashtagCount, error) {
	if m.TopHashtagsFunc != nil {
		return m.TopHashtagsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockCatalogRepository) CreatePost(ctx context.Context, post catalog.NewPost) (*catalog.Post, error) {
	if m.CreatePostFunc != nil {
		return m.CreatePostFunc(ctx, post)
	}
	return nil, nil
}

func (m *MockCatalogRepository) UpdateStatus(ctx context.Context, publicID, ownerID string, status catalog.PostStatus) (*catalog.Post, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, publicID, ownerID, status)
	}
	return nil, nil
}

// passthroughTx runs the closure directly; row locking is exercised in the
// broker's own tests.
type passthroughTx struct{}

func (passthroughTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopNotifier struct{}

func (nopNotifier) PostCreated(ctx context.Context, post *catalog.Post) {}

func withSubject(subject string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextTokenKey, &jwt.Token{
			Claims: jwt.MapClaims{"sub": subject},
		})
		c.Next()
	}
}

func setupConfirmationTestRouter(handler *handlers.ConfirmationHandler, subject string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if subject != "" {
		r.Use(withSubject(subject))
	}
	r.POST("/v1/confirmations/execute", handler.Execute)
	return r
}

func pendingCreateConfirmation(userID string) *confirmation.Confirmation {
	payload, _ := json.Marshal(tool.CreatePostProposal{
		Title: "Zero-downtime Postgres upgrades",
		URL:   "https://example.com/pg-upgrades",
		Type:  "article",
	})
	return &confirmation.Confirmation{
		ID:        7,
		PublicID:  "cnf_abc",
		UserID:    userID,
		ToolName:  tool.NameProposeCreatePost,
		Payload:   payload,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

func newTestBroker(repo confirmation.Repository, posts catalog.Repository) *confirmation.Broker {
	return confirmation.NewBroker(repo, posts, passthroughTx{}, nopNotifier{}, 5*time.Minute, zerolog.Nop())
}

func executeRequest(router *gin.Engine, confirmationID string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"confirmationId": confirmationID})
	req, _ := http.NewRequest("POST", "/v1/confirmations/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConfirmationHandler_Execute(t *testing.T) {
	repo := &MockConfirmationRepository{
		FindForUpdateFunc: func(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
			return pendingCreateConfirmation("user_1"), nil
		},
	}
	posts := &MockCatalogRepository{
		CreatePostFunc: func(ctx context.Context, post catalog.NewPost) (*catalog.Post, error) {
			return &catalog.Post{PublicID: "post_new", OwnerID: post.OwnerID, Title: post.Title}, nil
		},
	}

	handler := handlers.NewConfirmationHandler(newTestBroker(repo, posts), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_1")

	w := executeRequest(router, "cnf_abc")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["success"] != true {
		t.Errorf("Expected success true, got %v", response["success"])
	}
	if response["postId"] != "post_new" {
		t.Errorf("Expected postId 'post_new', got %v", response["postId"])
	}
}

func TestConfirmationHandler_Execute_Missing(t *testing.T) {
	repo := &MockConfirmationRepository{
		FindForUpdateFunc: func(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerInfrastructure,
				platformerrors.ErrorTypeNotFound,
				"confirmation not found",
				nil,
				"test-not-found",
			)
		},
	}

	handler := handlers.NewConfirmationHandler(newTestBroker(repo, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_1")

	w := executeRequest(router, "cnf_missing")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConfirmationHandler_Execute_WrongOwner(t *testing.T) {
	repo := &MockConfirmationRepository{
		FindForUpdateFunc: func(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
			return pendingCreateConfirmation("user_1"), nil
		},
	}

	handler := handlers.NewConfirmationHandler(newTestBroker(repo, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_2")

	w := executeRequest(router, "cnf_abc")

	// Other users' confirmations look missing, not forbidden.
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConfirmationHandler_Execute_AlreadyExecuted(t *testing.T) {
	executedAt := time.Now().Add(-time.Minute)
	repo := &MockConfirmationRepository{
		FindForUpdateFunc: func(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
			conf := pendingCreateConfirmation("user_1")
			conf.ExecutedAt = &executedAt
			return conf, nil
		},
	}

	handler := handlers.NewConfirmationHandler(newTestBroker(repo, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_1")

	w := executeRequest(router, "cnf_abc")

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestConfirmationHandler_Execute_Expired(t *testing.T) {
	repo := &MockConfirmationRepository{
		FindForUpdateFunc: func(ctx context.Context, publicID string) (*confirmation.Confirmation, error) {
			conf := pendingCreateConfirmation("user_1")
			conf.ExpiresAt = time.Now().Add(-time.Minute)
			return conf, nil
		},
	}

	handler := handlers.NewConfirmationHandler(newTestBroker(repo, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_1")

	w := executeRequest(router, "cnf_abc")

	if w.Code != http.StatusGone {
		t.Errorf("Expected status 410, got %d", w.Code)
	}
}

func TestConfirmationHandler_Execute_Unauthenticated(t *testing.T) {
	handler := handlers.NewConfirmationHandler(newTestBroker(&MockConfirmationRepository{}, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "")

	w := executeRequest(router, "cnf_abc")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestConfirmationHandler_Execute_MissingBody(t *testing.T) {
	handler := handlers.NewConfirmationHandler(newTestBroker(&MockConfirmationRepository{}, &MockCatalogRepository{}), zerolog.Nop())
	router := setupConfirmationTestRouter(handler, "user_1")

	req, _ := http.NewRequest("POST", "/v1/confirmations/execute", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
