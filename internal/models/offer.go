package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OfferType is the tier of an offer detail. Every offer carries exactly
// one detail per tier.
type OfferType string

const (
	OfferTypeBasic    OfferType = "basic"
	OfferTypeStandard OfferType = "standard"
	OfferTypePremium  OfferType = "premium"
)

// String returns the string representation of the OfferType.
func (t OfferType) String() string {
	return string(t)
}

// IsValid reports whether the OfferType is one of the known tiers.
func (t OfferType) IsValid() bool {
	switch t {
	case OfferTypeBasic, OfferTypeStandard, OfferTypePremium:
		return true
	default:
		return false
	}
}

// Offer is a business-owned listing with three tiered detail children.
// min_price and min_delivery_time are derived per read, never stored.
type Offer struct {
	BaseModel
	UserID      uuid.UUID     `gorm:"type:uuid;index" json:"user"`
	User        *User         `json:"-"`
	Title       string        `json:"title"`
	Image       string        `json:"image"`
	Description string        `json:"description"`
	Details     []OfferDetail `gorm:"constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// OfferDetail is one tier of an offer. It is owned exclusively by its
// parent offer and cascade-deleted with it.
type OfferDetail struct {
	BaseModel
	OfferID            uuid.UUID                   `gorm:"type:uuid;index" json:"-"`
	Title              string                      `json:"title"`
	Revisions          int                         `json:"revisions"`
	DeliveryTimeInDays int                         `json:"delivery_time_in_days"`
	Price              float64                     `json:"price"`
	Features           datatypes.JSONSlice[string] `json:"features"`
	OfferType          OfferType                   `json:"offer_type"`
}
