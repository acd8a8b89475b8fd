package models

import (
	"github.com/google/uuid"
)

// Review is a rating of a business by a customer. A reviewer may leave at
// most one review per business.
type Review struct {
	BaseModel
	BusinessUserID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_reviewer_business" json:"business_user"`
	BusinessUser   *User     `json:"-"`
	ReviewerID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_reviews_reviewer_business" json:"reviewer"`
	Reviewer       *User     `json:"-"`
	Rating         int       `json:"rating"`
	Description    string    `json:"description"`
}
