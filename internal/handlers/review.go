package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/middleware"
	"github.com/example/markethub/internal/models"
	"github.com/example/markethub/internal/permissions"
)

// ReviewHandler manages review endpoints.
type ReviewHandler struct {
	db *gorm.DB
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

// ListReviews returns reviews with optional filters and ordering.
func (h *ReviewHandler) ListReviews(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.ReviewRequest(user, c.Method()); err != nil {
		return err
	}

	query := h.db.Model(&models.Review{})

	if v := c.Query("business_user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationField("business_user_id", "Enter a valid value.")
		}
		query = query.Where("business_user_id = ?", id)
	}

	if v := c.Query("reviewer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationField("reviewer_id", "Enter a valid value.")
		}
		query = query.Where("reviewer_id = ?", id)
	}

	switch ordering := c.Query("ordering"); ordering {
	case "", "-updated_at":
		query = query.Order("updated_at desc")
	case "updated_at":
		query = query.Order("updated_at asc")
	case "rating":
		query = query.Order("rating asc")
	case "-rating":
		query = query.Order("rating desc")
	default:
		return apperr.ValidationField("ordering", "Invalid value.")
	}

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return err
	}

	return c.JSON(reviews)
}

type createReviewRequest struct {
	BusinessUser string `json:"business_user"`
	Rating       int    `json:"rating"`
	Description  string `json:"description"`
}

// CreateReview posts a review of a business. A reviewer gets one review
// per business and cannot review themselves.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.ReviewRequest(user, c.Method()); err != nil {
		return err
	}

	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	fields := map[string][]string{}
	if req.BusinessUser == "" {
		fields["business_user"] = append(fields["business_user"], "This field is required.")
	}
	if req.Rating < 1 || req.Rating > 5 {
		fields["rating"] = append(fields["rating"], "Rating must be between 1 and 5.")
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}

	businessUserID, err := uuid.Parse(req.BusinessUser)
	if err != nil {
		return apperr.ValidationField("business_user", "Enter a valid value.")
	}

	if businessUserID == user.ID {
		return apperr.ValidationField("business_user", "You cannot review yourself.")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "user_id = ?", businessUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ValidationField("business_user", "The selected user does not have an associated profile.")
		}
		return err
	}
	if profile.Role != models.RoleBusiness {
		return apperr.ValidationField("business_user", "The selected user does not have a business profile.")
	}

	var existing int64
	if err := h.db.Model(&models.Review{}).
		Where("reviewer_id = ? AND business_user_id = ?", user.ID, businessUserID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return apperr.NonFieldError("You have already reviewed this business.")
	}

	review := models.Review{
		BusinessUserID: businessUserID,
		ReviewerID:     user.ID,
		Rating:         req.Rating,
		Description:    req.Description,
	}

	if err := h.db.Create(&review).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}

type updateReviewRequest struct {
	Rating      *int    `json:"rating"`
	Description *string `json:"description"`
}

// UpdateReview lets the reviewer edit rating and description. The
// business_user reference is immutable after creation.
func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.ReviewRequest(user, c.Method()); err != nil {
		return err
	}

	review, err := h.loadReview(c)
	if err != nil {
		return err
	}

	if err := permissions.ReviewObject(user, review, c.Method()); err != nil {
		return err
	}

	var req updateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return apperr.ValidationField("rating", "Rating must be between 1 and 5.")
		}
		review.Rating = *req.Rating
	}
	if req.Description != nil {
		review.Description = *req.Description
	}

	if err := h.db.Save(review).Error; err != nil {
		return err
	}

	return c.JSON(review)
}

// DeleteReview removes a review. Reviewer only.
func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.ReviewRequest(user, c.Method()); err != nil {
		return err
	}

	review, err := h.loadReview(c)
	if err != nil {
		return err
	}

	if err := permissions.ReviewObject(user, review, c.Method()); err != nil {
		return err
	}

	if err := h.db.Delete(review).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReviewHandler) loadReview(c *fiber.Ctx) (*models.Review, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, apperr.NotFound("Review not found.")
	}

	var review models.Review
	if err := h.db.First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Review not found.")
		}
		return nil, err
	}

	return &review, nil
}
