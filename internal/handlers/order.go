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

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

type createOrderRequest struct {
	OfferDetailID string `json:"offer_detail_id"`
}

// CreateOrder places an order for the given offer detail. All pricing,
// feature and tier fields are copied by value at this moment; later
// edits to the source detail never change the order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OrderRequest(user, c.Method()); err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if req.OfferDetailID == "" {
		return apperr.ValidationField("offer_detail_id", "This field is required.")
	}

	detailID, err := uuid.Parse(req.OfferDetailID)
	if err != nil {
		return apperr.NotFound("Offer detail not found.")
	}

	var detail models.OfferDetail
	if err := h.db.First(&detail, "id = ?", detailID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Offer detail not found.")
		}
		return err
	}

	var offer models.Offer
	if err := h.db.First(&offer, "id = ?", detail.OfferID).Error; err != nil {
		return err
	}

	order := models.Order{
		CustomerUserID:     user.ID,
		BusinessUserID:     offer.UserID,
		Title:              detail.Title,
		Revisions:          detail.Revisions,
		DeliveryTimeInDays: detail.DeliveryTimeInDays,
		Price:              detail.Price,
		Features:           detail.Features,
		OfferType:          detail.OfferType,
		Status:             models.OrderStatusInProgress,
	}

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// ListOrders returns the actor's orders, newest first. Staff see all
// orders; everyone else sees orders they are a party to.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OrderRequest(user, c.Method()); err != nil {
		return err
	}

	query := h.db.Model(&models.Order{}).Order("created_at desc")
	if !user.IsStaff {
		query = query.Where("customer_user_id = ? OR business_user_id = ?", user.ID, user.ID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(orders)
}

type updateOrderRequest struct {
	Status *string `json:"status"`
}

// UpdateOrder lets the business user change the order status.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OrderRequest(user, c.Method()); err != nil {
		return err
	}

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if err := permissions.OrderObject(user, order, c.Method()); err != nil {
		return err
	}

	var req updateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("Malformed request body.")
	}

	if req.Status != nil {
		status := models.OrderStatus(*req.Status)
		if !status.IsValid() {
			return apperr.ValidationField("status", "Value must be one of: in_progress, completed, cancelled.")
		}
		order.Status = status
	}

	if err := h.db.Save(order).Error; err != nil {
		return err
	}

	return c.JSON(order)
}

// DeleteOrder removes an order. Staff only.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)
	if err := permissions.OrderRequest(user, c.Method()); err != nil {
		return err
	}

	order, err := h.loadOrder(c)
	if err != nil {
		return err
	}

	if err := permissions.OrderObject(user, order, c.Method()); err != nil {
		return err
	}

	if err := h.db.Delete(order).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// BusinessOrderCount returns the number of orders for a business user.
func (h *OrderHandler) BusinessOrderCount(c *fiber.Ctx) error {
	businessUserID, err := h.businessUserID(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Order{}).
		Where("business_user_id = ?", businessUserID).
		Count(&count).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"order_count": count})
}

// BusinessCompletedOrderCount returns the number of completed orders for
// a business user.
func (h *OrderHandler) BusinessCompletedOrderCount(c *fiber.Ctx) error {
	businessUserID, err := h.businessUserID(c)
	if err != nil {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Order{}).
		Where("business_user_id = ? AND status = ?", businessUserID, models.OrderStatusCompleted).
		Count(&count).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"completed_order_count": count})
}

// businessUserID resolves the path parameter and verifies it names a
// user with a business profile.
func (h *OrderHandler) businessUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("business_user_id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("Business user not found.")
	}

	var profile models.Profile
	if err := h.db.First(&profile, "user_id = ? AND type = ?", id, models.RoleBusiness).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperr.NotFound("Business user not found.")
		}
		return uuid.Nil, err
	}

	return id, nil
}

func (h *OrderHandler) loadOrder(c *fiber.Ctx) (*models.Order, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, apperr.NotFound("Order not found.")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found.")
		}
		return nil, err
	}

	return &order, nil
}
