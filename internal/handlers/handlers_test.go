package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridianlabs/sessiond/internal/datastore"
	"github.com/veridianlabs/sessiond/internal/handlers"
	"github.com/veridianlabs/sessiond/internal/models"
	"github.com/veridianlabs/sessiond/internal/routes"
	"github.com/veridianlabs/sessiond/internal/services"
	"github.com/veridianlabs/sessiond/internal/tokencache"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}))

	users := datastore.New(db)
	tokens := tokencache.NewMemoryStore(time.Hour)
	t.Cleanup(tokens.Stop)

	authService := services.NewAuthService(users, tokens)
	noteService := services.NewNoteService(db, tokens)

	app := fiber.New()
	routes.Setup(app,
		handlers.NewAuthHandler(authService),
		handlers.NewNoteHandler(noteService),
		handlers.NewHealthHandler(users),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func register(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/user", fiber.Map{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndCheck(t *testing.T) {
	app := newTestApp(t)

	token := register(t, app, "alice@example.com", "pw123")

	resp, body := doJSON(t, app, http.MethodGet, "/auth?token="+token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])
}

func TestRegisterDuplicate(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "alice@example.com", "pw123")

	resp, body := doJSON(t, app, http.MethodPost, "/user", fiber.Map{
		"email": "alice@example.com", "password": "pw123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, float64(401), body["status"])
	assert.Equal(t, "A user with that email already exists", body["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "alice@example.com", "pw123")

	resp, body := doJSON(t, app, http.MethodPost, "/auth", fiber.Map{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, float64(401), body["status"])
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestLoginSuccess(t *testing.T) {
	app := newTestApp(t)

	register(t, app, "alice@example.com", "pw123")

	resp, body := doJSON(t, app, http.MethodPost, "/auth", fiber.Map{
		"email": "alice@example.com", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = doJSON(t, app, http.MethodGet, "/auth?token="+token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", body["email"])
}

func TestCheckUnknownToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/auth?token=not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, float64(401), body["status"])
	assert.Equal(t, "User doesn't exist", body["message"])
}

func TestCheckMissingToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/auth", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Token is required", body["message"])
}

func TestRegisterMissingFields(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/user", fiber.Map{"password": "pw123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email is required", body["message"])

	resp, body = doJSON(t, app, http.MethodPost, "/user", fiber.Map{"email": "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Password is required", body["message"])
}

func TestSaveNote(t *testing.T) {
	app := newTestApp(t)

	token := register(t, app, "alice@example.com", "pw123")

	resp, body := doJSON(t, app, http.MethodPost, "/db", fiber.Map{
		"token": token, "text": "remember the milk",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "successful", body["status"])
}

func TestSaveNoteBadToken(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/db", fiber.Map{
		"token": "not-a-real-token", "text": "remember the milk",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, float64(401), body["status"])
	assert.Equal(t, "User doesn't exist", body["message"])
}

func TestHealthStatus(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "database OK", body["db"])
}
