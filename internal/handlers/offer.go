package handlers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/middleware"
	"github.com/example/markethub/internal/models"
	"github.com/example/markethub/internal/permissions"
	"github.com/example/markethub/internal/utils"
)

const offerPageSize = 6

// OfferHandler manages offer endpoints, including the tier-upsert update
// protocol.
type OfferHandler struct {
	db *gorm.DB
}

// NewOfferHandler constructs an OfferHandler.
func NewOfferHandler(db *gorm.DB) *OfferHandler {
	return &OfferHandler{db: db}
}

type offerDetailRequest struct {
	Title              string   `json:"title" validate:"required"`
	Revisions          int      `json:"revisions"`
	DeliveryTimeInDays int      `json:"delivery_time_in_days" validate:"required,min=1"`
	Price              float64  `json:"price" validate:"gte=0"`
	Features           []string `json:"features"`
	OfferType          string   `json:"offer_type" validate:"required,oneof=basic standard premium"`
}

type createOfferRequest struct {
	Title       string               `json:"title" validate:"required"`
	Image       string               `json:"image"`
	Description string               `json:"description" validate:"required"`
	Details     []offerDetailRequest `json:"details" validate:"dive"`
}

// ListOffers returns paginated offers with filters and ordering.
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OfferRequest(user, c.Method()); err != nil {
		return err
	}

	query := h.db.Model(&models.Offer{})

	if v := c.Query("creator_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.ValidationField("creator_id", "Enter a valid value.")
		}
		query = query.Where("user_id = ?", id)
	}

	if v := c.Query("min_price"); v != "" {
		minPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperr.ValidationField("min_price", "Enter a valid value.")
		}
		query = query.Where("id IN (?)", h.db.Model(&models.OfferDetail{}).
			Select("offer_id").Where("price >= ?", minPrice))
	}

	if v := c.Query("max_delivery_time"); v != "" {
		maxDelivery, err := strconv.Atoi(v)
		if err != nil {
			return apperr.ValidationField("max_delivery_time", "Enter a valid value.")
		}
		query = query.Where("id IN (?)", h.db.Model(&models.OfferDetail{}).
			Select("offer_id").Where("delivery_time_in_days <= ?", maxDelivery))
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		var conditions []string
		var args []interface{}
		for _, term := range strings.Fields(search) {
			conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
			pattern := "%" + strings.ToLower(term) + "%"
			args = append(args, pattern, pattern)
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	order, err := offerOrdering(c.Query("ordering"))
	if err != nil {
		return err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	pg := utils.ParsePagination(c, offerPageSize)
	var offers []models.Offer
	if err := query.Preload("Details").Preload("User").
		Order(order).
		Limit(pg.Size).Offset(pg.Offset).
		Find(&offers).Error; err != nil {
		return err
	}

	results := make([]fiber.Map, 0, len(offers))
	for i := range offers {
		results = append(results, serializeOffer(&offers[i], false))
	}

	return c.JSON(fiber.Map{
		"count":    total,
		"next":     pg.NextPage(total),
		"previous": pg.PreviousPage(),
		"results":  results,
	})
}

const minPriceExpr = "(SELECT MIN(price) FROM offer_details WHERE offer_details.offer_id = offers.id)"

func offerOrdering(ordering string) (string, error) {
	switch ordering {
	case "", "-updated_at":
		return "updated_at desc", nil
	case "updated_at":
		return "updated_at asc", nil
	case "min_price":
		return minPriceExpr + " asc", nil
	case "-min_price":
		return minPriceExpr + " desc", nil
	default:
		return "", apperr.ValidationField("ordering", "Invalid value.")
	}
}

// GetOffer returns a single offer with detail links.
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OfferRequest(user, c.Method()); err != nil {
		return err
	}

	offer, err := h.loadOffer(c)
	if err != nil {
		return err
	}

	if err := permissions.OfferObject(user, offer, c.Method()); err != nil {
		return err
	}

	return c.JSON(serializeOffer(offer, false))
}

// CreateOffer creates an offer with exactly one detail per tier. The
// offer row and all three children commit in a single transaction.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OfferRequest(user, c.Method()); err != nil {
		return err
	}

	var req createOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if err := validateDetailSet(req.Details); err != nil {
		return err
	}

	if fields := utils.ValidateStruct(req); fields != nil {
		return apperr.Validation(fields)
	}

	offer := models.Offer{
		UserID:      user.ID,
		Title:       req.Title,
		Image:       req.Image,
		Description: req.Description,
	}
	for _, d := range req.Details {
		offer.Details = append(offer.Details, models.OfferDetail{
			Title:              d.Title,
			Revisions:          d.Revisions,
			DeliveryTimeInDays: d.DeliveryTimeInDays,
			Price:              round2(d.Price),
			Features:           datatypes.JSONSlice[string](d.Features),
			OfferType:          models.OfferType(d.OfferType),
		})
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&offer).Error
	}); err != nil {
		return err
	}

	offer.User = user
	return c.Status(fiber.StatusCreated).JSON(serializeOffer(&offer, true))
}

func validateDetailSet(details []offerDetailRequest) error {
	if len(details) != 3 {
		return apperr.ValidationField("details", "Exactly 3 details (basic, standard, premium) are required.")
	}
	seen := map[models.OfferType]bool{}
	for _, d := range details {
		seen[models.OfferType(d.OfferType)] = true
	}
	if !seen[models.OfferTypeBasic] || !seen[models.OfferTypeStandard] || !seen[models.OfferTypePremium] {
		return apperr.ValidationField("details", "You must provide one detail for each type: basic, standard, premium.")
	}
	return nil
}

type offerDetailChange struct {
	ID                 *uuid.UUID `json:"id"`
	Title              *string    `json:"title"`
	Revisions          *int       `json:"revisions"`
	DeliveryTimeInDays *int       `json:"delivery_time_in_days"`
	Price              *float64   `json:"price"`
	Features           *[]string  `json:"features"`
	OfferType          *string    `json:"offer_type"`
}

type updateOfferRequest struct {
	Title       *string              `json:"title"`
	Image       *string              `json:"image"`
	Description *string              `json:"description"`
	Details     *[]offerDetailChange `json:"details"`
}

// UpdateOffer applies a partial update to the offer and upserts detail
// changes by tier (or by child id). A change targeting a tier the offer
// does not have is rejected; the update protocol can only edit children
// in place, never create or remove them. Everything commits atomically.
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OfferRequest(user, c.Method()); err != nil {
		return err
	}

	offer, err := h.loadOffer(c)
	if err != nil {
		return err
	}

	if err := permissions.OfferObject(user, offer, c.Method()); err != nil {
		return err
	}

	var req updateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if req.Details != nil && len(*req.Details) == 0 {
		return apperr.ValidationField("details", "At least one detail is required when providing the 'details' field for update.")
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if req.Title != nil {
			offer.Title = *req.Title
		}
		if req.Image != nil {
			offer.Image = *req.Image
		}
		if req.Description != nil {
			offer.Description = *req.Description
		}
		if err := tx.Omit("Details").Save(offer).Error; err != nil {
			return err
		}

		if req.Details == nil {
			return nil
		}
		for _, change := range *req.Details {
			detail, err := matchDetail(offer, change)
			if err != nil {
				return err
			}
			if err := applyDetailChange(detail, change); err != nil {
				return err
			}
			if err := tx.Save(detail).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	fresh, err := h.loadOffer(c)
	if err != nil {
		return err
	}
	return c.JSON(serializeOffer(fresh, true))
}

// matchDetail locates the child a change targets: by id when one is
// given, by tier otherwise. Both misses are validation failures naming
// the details field, and either aborts the whole update.
func matchDetail(offer *models.Offer, change offerDetailChange) (*models.OfferDetail, error) {
	if change.ID != nil {
		for i := range offer.Details {
			if offer.Details[i].ID == *change.ID {
				return &offer.Details[i], nil
			}
		}
		return nil, apperr.ValidationField("details",
			fmt.Sprintf("No detail with id '%s' found for this offer.", change.ID))
	}

	if change.OfferType == nil {
		return nil, apperr.ValidationField("details", "Each detail must include an 'id' or an 'offer_type'.")
	}
	offerType := models.OfferType(*change.OfferType)
	if !offerType.IsValid() {
		return nil, apperr.ValidationField("details",
			fmt.Sprintf("Invalid offer_type '%s'.", *change.OfferType))
	}
	for i := range offer.Details {
		if offer.Details[i].OfferType == offerType {
			return &offer.Details[i], nil
		}
	}
	return nil, apperr.ValidationField("details",
		fmt.Sprintf("No existing detail with offer_type '%s' found. Cannot create new details on update.", offerType))
}

func applyDetailChange(detail *models.OfferDetail, change offerDetailChange) error {
	if change.OfferType != nil && models.OfferType(*change.OfferType) != detail.OfferType {
		return apperr.ValidationField("details", "The offer_type of an existing detail cannot be changed.")
	}
	if change.Title != nil {
		detail.Title = *change.Title
	}
	if change.Revisions != nil {
		detail.Revisions = *change.Revisions
	}
	if change.DeliveryTimeInDays != nil {
		if *change.DeliveryTimeInDays < 1 {
			return apperr.ValidationField("details", "Ensure delivery_time_in_days is greater than or equal to 1.")
		}
		detail.DeliveryTimeInDays = *change.DeliveryTimeInDays
	}
	if change.Price != nil {
		if *change.Price < 0 {
			return apperr.ValidationField("details", "Ensure price is greater than or equal to 0.")
		}
		detail.Price = round2(*change.Price)
	}
	if change.Features != nil {
		detail.Features = datatypes.JSONSlice[string](*change.Features)
	}
	return nil
}

// DeleteOffer removes the offer and all its details.
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OfferRequest(user, c.Method()); err != nil {
		return err
	}

	offer, err := h.loadOffer(c)
	if err != nil {
		return err
	}

	if err := permissions.OfferObject(user, offer, c.Method()); err != nil {
		return err
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", offer.ID).Delete(&models.OfferDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(offer).Error
	}); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListOfferDetails returns every offer detail, unpaginated.
func (h *OfferHandler) ListOfferDetails(c *fiber.Ctx) error {
	var details []models.OfferDetail
	if err := h.db.Find(&details).Error; err != nil {
		return err
	}
	return c.JSON(details)
}

// GetOfferDetail returns a single offer detail by id.
func (h *OfferHandler) GetOfferDetail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.NotFound("Offer detail not found.")
	}

	var detail models.OfferDetail
	if err := h.db.First(&detail, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Offer detail not found.")
		}
		return err
	}

	return c.JSON(detail)
}

func (h *OfferHandler) loadOffer(c *fiber.Ctx) (*models.Offer, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, apperr.NotFound("Offer not found.")
	}

	var offer models.Offer
	if err := h.db.Preload("Details").Preload("User").First(&offer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Offer not found.")
		}
		return nil, err
	}

	return &offer, nil
}

// serializeOffer shapes the API form of an offer. min_price and
// min_delivery_time are computed here from the current children and are
// never persisted. fullDetails switches between embedded detail records
// (write responses) and id/url links (read responses).
func serializeOffer(offer *models.Offer, fullDetails bool) fiber.Map {
	var details interface{}
	if fullDetails {
		details = offer.Details
	} else {
		links := make([]fiber.Map, 0, len(offer.Details))
		for _, d := range offer.Details {
			links = append(links, fiber.Map{
				"id":  d.ID,
				"url": fmt.Sprintf("/api/offerdetails/%s/", d.ID),
			})
		}
		details = links
	}

	userDetails := fiber.Map{"first_name": "", "last_name": "", "username": ""}
	if offer.User != nil {
		userDetails = fiber.Map{
			"first_name": offer.User.FirstName,
			"last_name":  offer.User.LastName,
			"username":   offer.User.Username,
		}
	}

	return fiber.Map{
		"id":                offer.ID,
		"user":              offer.UserID,
		"title":             offer.Title,
		"image":             offer.Image,
		"description":       offer.Description,
		"created_at":        offer.CreatedAt,
		"updated_at":        offer.UpdatedAt,
		"details":           details,
		"min_price":         minPrice(offer.Details),
		"min_delivery_time": minDeliveryTime(offer.Details),
		"user_details":      userDetails,
	}
}

func minPrice(details []models.OfferDetail) *float64 {
	var min *float64
	for i := range details {
		if min == nil || details[i].Price < *min {
			min = &details[i].Price
		}
	}
	return min
}

func minDeliveryTime(details []models.OfferDetail) *int {
	var min *int
	for i := range details {
		if min == nil || details[i].DeliveryTimeInDays < *min {
			min = &details[i].DeliveryTimeInDays
		}
	}
	return min
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
