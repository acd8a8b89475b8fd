package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/middleware"
	"github.com/example/markethub/internal/models"
	"github.com/example/markethub/internal/permissions"
)

// ProfileHandler manages profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the profile keyed by its user id.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	profile, err := h.loadProfile(c)
	if err != nil {
		return err
	}

	if err := permissions.ProfileObject(user, profile, c.Method()); err != nil {
		return err
	}

	return c.JSON(serializeProfile(profile))
}

type updateProfileRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	File         *string `json:"file"`
	Location     *string `json:"location"`
	Tel          *string `json:"tel"`
	Description  *string `json:"description"`
	WorkingHours *string `json:"working_hours"`
	Email        *string `json:"email"`
}

// UpdateProfile applies a partial update to the profile. Name and email
// changes propagate onto the user record in the same transaction, and
// uploaded_at moves only when the file reference actually changes.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	profile, err := h.loadProfile(c)
	if err != nil {
		return err
	}

	if err := permissions.ProfileObject(user, profile, c.Method()); err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if req.FirstName != nil {
		profile.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		profile.LastName = *req.LastName
	}
	if req.File != nil && *req.File != profile.File {
		profile.File = *req.File
		now := time.Now()
		profile.UploadedAt = &now
	}
	if req.Location != nil {
		profile.Location = *req.Location
	}
	if req.Tel != nil {
		profile.Tel = *req.Tel
	}
	if req.Description != nil {
		profile.Description = *req.Description
	}
	if req.WorkingHours != nil {
		profile.WorkingHours = *req.WorkingHours
	}
	if req.Email != nil {
		profile.Email = *req.Email
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", profile.UserID).Updates(map[string]interface{}{
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
			"email":      profile.Email,
		}).Error
	}); err != nil {
		return err
	}

	return c.JSON(serializeProfile(profile))
}

// ListCustomerProfiles returns all customer profiles in a trimmed form.
func (h *ProfileHandler) ListCustomerProfiles(c *fiber.Ctx) error {
	var profiles []models.Profile
	if err := h.db.Where("type = ?", models.RoleCustomer).Find(&profiles).Error; err != nil {
		return err
	}

	results := make([]fiber.Map, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		results = append(results, fiber.Map{
			"user":        p.UserID,
			"username":    p.Username,
			"first_name":  p.FirstName,
			"last_name":   p.LastName,
			"file":        p.File,
			"uploaded_at": p.UploadedAt,
			"type":        p.Role,
		})
	}

	return c.JSON(results)
}

// ListBusinessProfiles returns all business profiles.
func (h *ProfileHandler) ListBusinessProfiles(c *fiber.Ctx) error {
	var profiles []models.Profile
	if err := h.db.Where("type = ?", models.RoleBusiness).Find(&profiles).Error; err != nil {
		return err
	}

	results := make([]fiber.Map, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		results = append(results, fiber.Map{
			"user":          p.UserID,
			"username":      p.Username,
			"first_name":    p.FirstName,
			"last_name":     p.LastName,
			"file":          p.File,
			"location":      p.Location,
			"tel":           p.Tel,
			"description":   p.Description,
			"working_hours": p.WorkingHours,
			"type":          p.Role,
		})
	}

	return c.JSON(results)
}

func (h *ProfileHandler) loadProfile(c *fiber.Ctx) (*models.Profile, error) {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return nil, apperr.NotFound("Profile not found.")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Profile not found.")
		}
		return nil, err
	}

	return &profile, nil
}

func serializeProfile(p *models.Profile) fiber.Map {
	return fiber.Map{
		"user":          p.UserID,
		"username":      p.Username,
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"file":          p.File,
		"uploaded_at":   p.UploadedAt,
		"location":      p.Location,
		"tel":           p.Tel,
		"description":   p.Description,
		"working_hours": p.WorkingHours,
		"type":          p.Role,
		"email":         p.Email,
		"created_at":    p.CreatedAt,
	}
}
