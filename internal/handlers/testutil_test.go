package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/teamshare/backend/internal/database"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/middleware"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/internal/storage/storagetest"
	"github.com/teamshare/backend/pkg/logger"
	"github.com/teamshare/backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	blobs      *storagetest.Memory
	federation *fakeFederation
	accounts   *docstore.GormAccounts
	identities *identity.Service
}

var testSetupOnce sync.Once

// fakeFederation stands in for Google/GitHub. Codes map to profiles.
type fakeFederation struct {
	mu       sync.Mutex
	profiles map[string]*identity.FederatedProfile
}

func (f *fakeFederation) AuthCodeURL(provider, state string) (string, error) {
	return "https://idp.test/authorize?provider=" + provider + "&state=" + state, nil
}

func (f *fakeFederation) Exchange(_ context.Context, provider, code string) (*identity.FederatedProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[code]
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	copied := *profile
	return &copied, nil
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEnvWithConfig(t, AppConfig(10*1024*1024))
}

func setupTestEnvWithConfig(t *testing.T, appConfig fiber.Config) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 24)
		utils.ConfigurePasswordCost(bcrypt.MinCost)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	federation := &fakeFederation{profiles: map[string]*identity.FederatedProfile{}}
	blobs := storagetest.NewMemory()
	files := docstore.NewGormFiles(db)
	accounts := docstore.NewGormAccounts(db)
	identities := identity.NewService(db, federation)

	panels := NewPanelRegistry(PanelRegistryConfig{
		Files:           files,
		Blobs:           blobs,
		SignedURLExpiry: time.Hour,
		Size:            16,
		IdleTimeout:     time.Minute,
	})

	authHandler := NewAuthHandler(identities, accounts, panels)
	router := &Router{
		Auth:           authHandler,
		SSO:            NewSSOHandler(authHandler, []models.AuthProvider{models.AuthProviderGoogle}, "http://localhost:3000", time.Minute),
		Files:          NewFilesHandler(files, blobs, panels, time.Hour),
		AuthMiddleware: middleware.NewAuthMiddleware(identities),
	}

	app := fiber.New(appConfig)
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	router.Mount(app)

	return &testEnv{
		app:        app,
		db:         db,
		blobs:      blobs,
		federation: federation,
		accounts:   accounts,
		identities: identities,
	}
}

func createTestUser(t *testing.T, env *testEnv, email, password string, role models.UserRole) (identity.Identity, string) {
	t.Helper()

	id, err := env.identities.CreateAccount(context.Background(), email, password)
	if err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}
	if err := env.accounts.Put(context.Background(), &models.UserAccount{ID: id.ID, Email: id.Email, Role: role}); err != nil {
		t.Fatalf("failed writing account record: %v", err)
	}

	token, err := utils.GenerateToken(id.ID, id.Email)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return id, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func performUpload(t *testing.T, app *fiber.App, path, filename, content string, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed creating form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed writing form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
