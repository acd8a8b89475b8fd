package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/models"
)

// InfoHandler serves the public platform statistics.
type InfoHandler struct {
	db *gorm.DB
}

// NewInfoHandler constructs an InfoHandler.
func NewInfoHandler(db *gorm.DB) *InfoHandler {
	return &InfoHandler{db: db}
}

// BaseInfo returns platform-wide rollups, computed fresh on each request.
func (h *InfoHandler) BaseInfo(c *fiber.Ctx) error {
	var reviewCount int64
	if err := h.db.Model(&models.Review{}).Count(&reviewCount).Error; err != nil {
		return err
	}

	averageRating := 0.0
	if reviewCount > 0 {
		var avg float64
		if err := h.db.Model(&models.Review{}).
			Select("AVG(rating)").Scan(&avg).Error; err != nil {
			return err
		}
		averageRating = math.Round(avg*10) / 10
	}

	var businessProfileCount int64
	if err := h.db.Model(&models.Profile{}).
		Where("type = ?", models.RoleBusiness).
		Count(&businessProfileCount).Error; err != nil {
		return err
	}

	var offerCount int64
	if err := h.db.Model(&models.Offer{}).Count(&offerCount).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"review_count":           reviewCount,
		"average_rating":         averageRating,
		"business_profile_count": businessProfileCount,
		"offer_count":            offerCount,
	})
}
