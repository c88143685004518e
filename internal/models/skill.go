package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Skill categories accepted at input. Stored upper-case.
const (
	CategoryAcademic = "ACADEMIC"
	CategoryArts     = "ARTS"
	CategoryBusiness = "BUSINESS"
	CategoryCooking  = "COOKING"
	CategoryFitness  = "FITNESS"
	CategoryLanguage = "LANGUAGE"
	CategoryMusic    = "MUSIC"
	CategoryTech     = "TECH"
	CategoryTrades   = "TRADES"
	CategoryOther    = "OTHER"
)

// CategoryAll is the query value that disables category filtering.
const CategoryAll = "all"

var Categories = []string{
	CategoryAcademic, CategoryArts, CategoryBusiness, CategoryCooking, CategoryFitness,
	CategoryLanguage, CategoryMusic, CategoryTech, CategoryTrades, CategoryOther,
}

// NormalizeCategory returns the canonical category for c and whether it is known.
func NormalizeCategory(c string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(c))
	for _, known := range Categories {
		if up == known {
			return known, true
		}
	}
	return "", false
}

type Skill struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	PriceCredits int       `json:"price_credits"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	AvgRating    float64   `json:"avg_rating"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
