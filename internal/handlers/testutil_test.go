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
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/config"
	"github.com/example/markethub/internal/database"
	"github.com/example/markethub/internal/models"
	"github.com/example/markethub/internal/routes"
	"github.com/example/markethub/internal/utils"
)

const testPassword = "pw1234"

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *config.Config) {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	cfg := &config.Config{
		AppPort:      "0",
		JWTSecret:    "test-secret",
		TokenExpires: time.Hour,
		GuestAccounts: map[string]config.GuestAccount{
			"andrey": {Password: "asdasd", Role: models.RoleCustomer},
			"kevin":  {Password: "asdasd24", Role: models.RoleBusiness},
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperr.Handler(false)})
	routes.Register(app, db, cfg)

	return app, db, cfg
}

type userOption func(*models.User, *models.Profile)

func asStaff() userOption {
	return func(u *models.User, _ *models.Profile) { u.IsStaff = true }
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role, opts ...userOption) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@mail.de",
		PasswordHash: hash,
	}
	profile := models.Profile{
		Username: username,
		Email:    user.Email,
		Role:     role,
	}
	for _, opt := range opts {
		opt(&user, &profile)
	}

	require.NoError(t, db.Create(&user).Error)
	profile.UserID = user.ID
	require.NoError(t, db.Create(&profile).Error)

	user.Profile = &profile
	return &user
}

func authToken(t *testing.T, cfg *config.Config, user *models.User) string {
	t.Helper()

	token, err := utils.GenerateToken(cfg.JWTSecret, user.ID, cfg.TokenExpires)
	require.NoError(t, err)
	return token
}

// doRequest round-trips a JSON request through the app and decodes the
// response body into target (when non-nil).
func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}, target interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	if target != nil {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, target), "body: %s", raw)
		}
	}

	return resp
}

func createOfferPayload(title string) fiber.Map {
	details := make([]fiber.Map, 0, 3)
	for i, tier := range []string{"basic", "standard", "premium"} {
		details = append(details, fiber.Map{
			"title":                 fmt.Sprintf("%s %s", title, tier),
			"revisions":             i + 1,
			"delivery_time_in_days": (i + 1) * 3,
			"price":                 float64(50 * (i + 1)),
			"features":              []string{"Logo", "Visitenkarte"},
			"offer_type":            tier,
		})
	}
	return fiber.Map{
		"title":       title,
		"description": "Grafikdesign-Paket in drei Stufen.",
		"details":     details,
	}
}

// createOffer posts a complete three-tier offer as the given business
// user and returns the decoded response body.
func createOffer(t *testing.T, app *fiber.App, token, title string) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	resp := doRequest(t, app, fiber.MethodPost, "/api/offers", token, createOfferPayload(title), &body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return body
}

// detailIDByType digs the offer detail id for a tier out of a decoded
// offer response with embedded details.
func detailIDByType(t *testing.T, offer map[string]interface{}, offerType string) string {
	t.Helper()

	details, ok := offer["details"].([]interface{})
	require.True(t, ok, "offer has no details array")
	for _, raw := range details {
		detail := raw.(map[string]interface{})
		if detail["offer_type"] == offerType {
			return detail["id"].(string)
		}
	}
	t.Fatalf("no detail with offer_type %q", offerType)
	return ""
}
