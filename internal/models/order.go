package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderStatus is the lifecycle state of an order. Transitions are
// unconstrained; only membership in the enum is validated.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid reports whether the OrderStatus is one of the known values.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order is a snapshot of the chosen offer detail at purchase time. The
// copied fields stay fixed even when the source detail is edited later.
type Order struct {
	BaseModel
	CustomerUserID     uuid.UUID                   `gorm:"type:uuid;index" json:"customer_user"`
	CustomerUser       *User                       `json:"-"`
	BusinessUserID     uuid.UUID                   `gorm:"type:uuid;index" json:"business_user"`
	BusinessUser       *User                       `json:"-"`
	Title              string                      `json:"title"`
	Revisions          int                         `json:"revisions"`
	DeliveryTimeInDays int                         `json:"delivery_time_in_days"`
	Price              float64                     `json:"price"`
	Features           datatypes.JSONSlice[string] `json:"features"`
	OfferType          OfferType                   `json:"offer_type"`
	Status             OrderStatus                 `json:"status"`
}
