package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is a tracked item. ProductRef is the external identifier (an Amazon
// ASIN) and is unique across all products. Title and CurrentPrice reflect the
// most recent successful fetch. Version is an optimistic-lock counter bumped
// on every observed-price write so a slow refresh can never overwrite a newer
// one.
type Product struct {
	ID           uuid.UUID `json:"id"`
	ProductRef   string    `json:"product_ref"`
	Title        string    `json:"title"`
	CurrentPrice float64   `json:"current_price"`
	TargetPrice  *float64  `json:"target_price,omitempty"`
	Version      int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsBelowTarget reports whether the product's current price is at or below
// its target price. Products without a target price are never below target.
func (p Product) IsBelowTarget() bool {
	return p.TargetPrice != nil && p.CurrentPrice <= *p.TargetPrice
}
