package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/handler"
	"github.com/3stan1104/GeneFlow/internal/identity"
	"github.com/3stan1104/GeneFlow/internal/model"
	"github.com/3stan1104/GeneFlow/internal/router"
	"github.com/3stan1104/GeneFlow/internal/service"
	"github.com/3stan1104/GeneFlow/internal/validator"
)

const testSecret = "test-api-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type testEnv struct {
	engine   *gin.Engine
	provider *identity.MemoryProvider
	store    *docstore.MemoryStore
	auth     *service.AuthService
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		GinMode:            gin.TestMode,
		JWTSecret:          "test-jwt-secret",
		JWTExpiry:          time.Hour,
		AdminAPISecret:     testSecret,
		SetupAdminEmail:    "admin@email.dev",
		SetupAdminPassword: "123456",
		SetupAdminName:     "Administrator",
	}

	provider := identity.NewMemoryProvider()
	store := docstore.NewMemoryStore()
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(provider, store, nil, zerolog.Nop())

	handlers := &router.Handlers{
		Auth:  handler.NewAuthHandler(authService, userService),
		User:  handler.NewUserHandler(userService),
		Setup: handler.NewSetupHandler(userService, cfg),
		Login: handler.NewLoginHandler(userService),
	}

	return &testEnv{
		engine:   router.SetupRouter(authService, handlers, cfg),
		provider: provider,
		store:    store,
		auth:     authService,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}

func secretHeader() map[string]string {
	return map[string]string{"X-API-Secret": testSecret}
}

func TestCreateRequiresAuth(t *testing.T) {
	env := newTestEnv()

	w := env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "a@x.com", "password": "secret1"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}

	w = env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "a@x.com", "password": "secret1"},
		map[string]string{"X-API-Secret": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a bad secret, got %d", w.Code)
	}
}

func TestCreateWithSecret(t *testing.T) {
	env := newTestEnv()

	w := env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "stu@x.com", "password": "secret1", "section": "Harvey"},
		secretHeader())
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	user := decodeData(t, w)["user"].(map[string]interface{})
	if user["role"] != model.RoleStudent {
		t.Fatalf("role should default to student, got %v", user["role"])
	}
	if user["curriculum"] != "LSHS" {
		t.Fatalf("curriculum should resolve to LSHS, got %v", user["curriculum"])
	}
}

func TestCreateWithBearerToken(t *testing.T) {
	env := newTestEnv()

	token, err := env.auth.GenerateToken("admin-uid", model.RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "b@x.com", "password": "secret1"},
		map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with bearer token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateDuplicateEmailReturns200(t *testing.T) {
	env := newTestEnv()

	w := env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "dup@x.com", "password": "secret1"}, secretHeader())
	if w.Code != http.StatusCreated {
		t.Fatalf("first create: %d", w.Code)
	}
	first := decodeData(t, w)["user"].(map[string]interface{})

	w = env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "dup@x.com", "password": "secret1"}, secretHeader())
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate create should be 200, got %d", w.Code)
	}
	data := decodeData(t, w)
	if data["uid"] != first["uid"] {
		t.Fatalf("duplicate create should return the existing uid")
	}
}

func TestCreateInvalidPayload(t *testing.T) {
	env := newTestEnv()

	w := env.request(t, http.MethodPost, "/api/user/create",
		gin.H{"email": "not-an-email", "password": "secret1"}, secretHeader())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad email, got %d", w.Code)
	}
}

func TestUpdateStatusCodes(t *testing.T) {
	env := newTestEnv()
	env.provider.Seed(identity.Account{UID: "u1", Email: "u1@x.com"})

	w := env.request(t, http.MethodPut, "/api/user/update",
		gin.H{"uid": "ghost", "firstName": "X"}, secretHeader())
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown uid, got %d", w.Code)
	}

	w = env.request(t, http.MethodPut, "/api/user/update",
		gin.H{"uid": "u1", "password": "123"}, secretHeader())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a short password, got %d", w.Code)
	}

	w = env.request(t, http.MethodPatch, "/api/user/update",
		gin.H{"uid": "u1", "firstName": "Ana"}, secretHeader())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	user := decodeData(t, w)["user"].(map[string]interface{})
	if user["firstName"] != "Ana" {
		t.Fatalf("firstName not applied: %v", user)
	}
}

func TestDeleteStatusCodes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.provider.Seed(identity.Account{
		UID:          "only-admin",
		Email:        "root@x.com",
		CustomClaims: map[string]interface{}{model.ClaimRole: model.RoleAdmin},
	})
	env.provider.Seed(identity.Account{UID: "plain", Email: "p@x.com"})

	w := env.request(t, http.MethodDelete, "/api/user/delete", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without uid, got %d", w.Code)
	}

	w = env.request(t, http.MethodDelete, "/api/user/delete?uid=ghost", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown uid, got %d", w.Code)
	}

	w = env.request(t, http.MethodDelete, "/api/user/delete?uid=only-admin", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for the last admin, got %d", w.Code)
	}
	if _, err := env.provider.GetAccount(ctx, "only-admin"); err != nil {
		t.Fatalf("protected admin must survive: %v", err)
	}

	w = env.request(t, http.MethodDelete, "/api/user/delete?uid=plain", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetAllJoinsRoster(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.provider.Seed(identity.Account{
		UID:          "stu-1",
		Email:        "s@x.com",
		CustomClaims: map[string]interface{}{model.ClaimRole: model.RoleStudent},
	})
	_ = env.store.Set(ctx, model.CollectionStudents, "stu-1", map[string]interface{}{
		"lastPlayedAt": "2025-05-05T10:00:00Z",
	})

	w := env.request(t, http.MethodGet, "/api/user/getAll", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	users := decodeData(t, w)["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("expected 1 roster row, got %d", len(users))
	}
	row := users[0].(map[string]interface{})
	if row["lastLogin"] != "2025-05-05T10:00:00Z" {
		t.Fatalf("student lastLogin should come from the document, got %v", row["lastLogin"])
	}
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv()
	env.provider.Seed(identity.Account{UID: "u1", Email: "u1@x.com"})

	w := env.request(t, http.MethodPost, "/api/user/resetPassword",
		gin.H{"email": "u1@x.com"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	link, _ := data["resetLink"].(string)
	if !strings.Contains(link, "?token=") {
		t.Fatalf("reset link should carry a token, got %q", link)
	}

	w = env.request(t, http.MethodPost, "/api/user/resetPassword",
		gin.H{"email": "nobody@x.com"}, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unknown email surfaces as a dependency failure, got %d", w.Code)
	}
}

func TestEnsureAdminEndpoint(t *testing.T) {
	env := newTestEnv()

	w := env.request(t, http.MethodPost, "/api/setup/ensureAdmin", nil, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("first call should create, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	if data["created"] != true || data["email"] != "admin@email.dev" {
		t.Fatalf("unexpected create response: %v", data)
	}

	w = env.request(t, http.MethodPost, "/api/setup/ensureAdmin", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second call should report existing, got %d", w.Code)
	}
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Create through the service so a real password hash exists.
	userService := service.NewUserService(env.provider, env.store, nil, zerolog.Nop())
	if _, _, err := userService.Create(ctx, model.CreateUserRequest{
		Email:    "login@x.com",
		Password: "secret1",
		Role:     model.RoleAdmin,
	}); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	w := env.request(t, http.MethodPost, "/api/auth/token",
		gin.H{"email": "login@x.com", "password": "secret1"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeData(t, w)
	token, _ := data["token"].(string)
	claims, err := env.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("issued token should validate: %v", err)
	}
	if claims.Role != model.RoleAdmin {
		t.Fatalf("token role wrong: %+v", claims)
	}

	w = env.request(t, http.MethodPost, "/api/auth/token",
		gin.H{"email": "login@x.com", "password": "wrong99"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password should be 401, got %d", w.Code)
	}
}

func TestLegacyLoginPage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_ = env.store.Set(ctx, model.CollectionUsers, "legacy", map[string]interface{}{
		"email":    "teacher@x.com",
		"password": "letmein",
	})
	_ = env.store.Set(ctx, model.CollectionStudents, "stu", map[string]interface{}{
		"name":          map[string]interface{}{"first": "Ana", "last": "<Reyes>"},
		"studentNumber": "stu",
		"progress":      7,
		"score":         88,
	})

	w := env.request(t, http.MethodPost, "/api/login", gin.H{"email": "teacher@x.com"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password should be 400, got %d", w.Code)
	}

	w = env.request(t, http.MethodPost, "/api/login",
		gin.H{"email": "teacher@x.com", "password": "nope"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password should be 401, got %d", w.Code)
	}

	w = env.request(t, http.MethodPost, "/api/login",
		gin.H{"email": "teacher@x.com", "password": "letmein"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected an HTML response, got %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(page, "Ana &lt;Reyes&gt;") {
		t.Fatalf("student name should be escaped into the table: %s", page)
	}
	if !strings.Contains(page, "<td>7</td>") || !strings.Contains(page, "<td>88</td>") {
		t.Fatalf("progress/score cells missing: %s", page)
	}
}
