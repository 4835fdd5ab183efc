// Package domain holds shared types used across the market data layer.
// It is pure: no infrastructure dependencies.
package domain

import "time"

// Category classifies a holding. Only tradable categories are priced
// against a market data provider; everything else is valued at cost.
type Category string

const (
	CategoryStock       Category = "stock"
	CategoryETF         Category = "etf"
	CategoryFixedIncome Category = "fixed_income"
	CategorySavings     Category = "savings"
	CategoryRealEstate  Category = "real_estate"
	CategoryOther       Category = "other"
)

// IsTradable reports whether holdings in this category have a quoted
// market price worth resolving.
func (c Category) IsTradable() bool {
	switch c {
	case CategoryStock, CategoryETF:
		return true
	default:
		return false
	}
}

// Account groups holdings. SortOrder is an explicit ordering key so that
// repeated dashboard renders list accounts identically.
type Account struct {
	ID        int64
	UserID    int64
	Name      string
	SortOrder int
}

// Holding is an investment position. This layer never writes holdings;
// they are owned by the CRUD layer and read here for valuation.
type Holding struct {
	ID            int64
	AccountID     int64
	Name          string
	Category      Category
	Quantity      float64
	PurchaseValue float64 // unit purchase price in Currency
	Currency      string
	PurchaseDate  time.Time
}
