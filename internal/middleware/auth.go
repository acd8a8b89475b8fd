package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/config"
	"github.com/example/markethub/internal/models"
	"github.com/example/markethub/internal/utils"
)

const userContextKey = "currentUser"

// AuthRequired validates the bearer token and loads the authenticated
// user (with profile) into the request context. Missing or invalid
// credentials terminate the request with 401.
func AuthRequired(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userFromRequest(c, cfg, db)
		if err != nil {
			return err
		}
		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// AuthOptional loads the authenticated user when a valid token is
// present and continues anonymously otherwise. Used on routes whose
// read verbs are open to everyone.
func AuthOptional(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, err := userFromRequest(c, cfg, db); err == nil {
			c.Locals(userContextKey, user)
		}
		return c.Next()
	}
}

func userFromRequest(c *fiber.Ctx, cfg *config.Config, db *gorm.DB) (*models.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, apperr.NotAuthenticated("Authentication credentials were not provided.")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperr.NotAuthenticated("Invalid authorization header.")
	}

	userID, err := utils.ParseToken(cfg.JWTSecret, parts[1])
	if err != nil {
		return nil, apperr.NotAuthenticated("Invalid token.")
	}

	var user models.User
	if err := db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotAuthenticated("Invalid token.")
		}
		return nil, err
	}

	return &user, nil
}

// GetCurrentUser extracts the authenticated user from context.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return nil, false
	}

	if user, ok := value.(*models.User); ok {
		return user, true
	}

	return nil, false
}
