package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

// Sort keys accepted by nearby search. Anything else sorts by distance.
const (
	SortDistance  = "distance"
	SortRating    = "rating"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortNewest    = "newest"
)

const DefaultRadiusKm = 5.0

// SearchOptions are the filters and ordering for a nearby search.
type SearchOptions struct {
	Lat       float64
	Lng       float64
	RadiusKm  float64
	Category  string
	MinRating float64
	MaxPrice  int
	SortBy    string
	Limit     int
}

// DefaultSearchOptions returns options centred on lat/lng with every other
// filter disabled.
func DefaultSearchOptions(lat, lng float64) SearchOptions {
	return SearchOptions{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: DefaultRadiusKm,
		Category: models.CategoryAll,
		MaxPrice: math.MaxInt,
		SortBy:   SortDistance,
	}
}

// Normalize validates o and rewrites Category to its stored form ("" for all)
// and SortBy to a known key.
func (o *SearchOptions) Normalize() error {
	if err := validateCoordinates(o.Lat, o.Lng); err != nil {
		return err
	}
	if o.RadiusKm <= 0 || math.IsNaN(o.RadiusKm) || math.IsInf(o.RadiusKm, 0) {
		return apperr.Invalid("radius must be a positive number")
	}
	if math.IsNaN(o.MinRating) || o.MinRating < 0 || o.MinRating > 5 {
		return apperr.Invalid("minRating must be between 0 and 5")
	}
	if o.MaxPrice < 0 {
		return apperr.Invalid("maxPrice must not be negative")
	}
	if o.Limit < 0 {
		return apperr.Invalid("limit must not be negative")
	}
	cat, err := normalizeCategoryFilter(o.Category)
	if err != nil {
		return err
	}
	o.Category = cat
	switch o.SortBy {
	case SortDistance, SortRating, SortPriceLow, SortPriceHigh, SortNewest:
	default:
		o.SortBy = SortDistance
	}
	return nil
}

func validateCoordinates(lat, lng float64) error {
	if lat == 0 || lng == 0 || math.IsNaN(lat) || math.IsNaN(lng) {
		return apperr.Invalid("valid latitude and longitude are required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.Invalid("latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	return nil
}

// normalizeCategoryFilter maps "all"/"" to "" and canonicalises known categories.
func normalizeCategoryFilter(c string) (string, error) {
	if c == "" || strings.EqualFold(c, models.CategoryAll) {
		return "", nil
	}
	cat, ok := models.NormalizeCategory(c)
	if !ok {
		return "", apperr.Invalid("unknown category %q", c)
	}
	return cat, nil
}

// RankedSkill is a skill annotated with its distance from the search origin.
type RankedSkill struct {
	models.Skill
	Distance *float64 `json:"distance,omitempty"`
}

type rankCandidate struct {
	skill    *models.Skill
	distance float64
}

// Rank filters skills by category, rating, price and radius around the origin
// in opts, then sorts them stably by opts.SortBy. opts must be normalized.
func Rank(skills []*models.Skill, opts SearchOptions) []RankedSkill {
	candidates := make([]rankCandidate, 0, len(skills))
	for _, s := range skills {
		if opts.Category != "" && s.Category != opts.Category {
			continue
		}
		if s.AvgRating < opts.MinRating || s.PriceCredits > opts.MaxPrice {
			continue
		}
		d := Haversine(opts.Lat, opts.Lng, s.Lat, s.Lng)
		if d > opts.RadiusKm {
			continue
		}
		candidates = append(candidates, rankCandidate{skill: s, distance: d})
	}

	sortCandidates(candidates, opts.SortBy)

	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	out := make([]RankedSkill, len(candidates))
	for i, c := range candidates {
		d := c.distance
		out[i] = RankedSkill{Skill: *c.skill, Distance: &d}
	}
	return out
}

func sortCandidates(c []rankCandidate, sortBy string) {
	var less func(i, j int) bool
	switch sortBy {
	case SortRating:
		less = func(i, j int) bool { return c[i].skill.AvgRating > c[j].skill.AvgRating }
	case SortPriceLow:
		less = func(i, j int) bool { return c[i].skill.PriceCredits < c[j].skill.PriceCredits }
	case SortPriceHigh:
		less = func(i, j int) bool { return c[i].skill.PriceCredits > c[j].skill.PriceCredits }
	case SortNewest:
		less = func(i, j int) bool { return c[i].skill.CreatedAt.After(c[j].skill.CreatedAt) }
	default:
		less = func(i, j int) bool { return c[i].distance < c[j].distance }
	}
	sort.SliceStable(c, less)
}

// SkillLister is the minimal skill repository needed for search.
type SkillLister interface {
	ListActive(ctx context.Context, category string) ([]*models.Skill, error)
}

// SkillFinder runs searches over active skills. Search is a full scan of the
// category's active skills; there is no spatial index.
type SkillFinder struct {
	Skills SkillLister
}

func NewSkillFinder(skills SkillLister) *SkillFinder {
	return &SkillFinder{Skills: skills}
}

// Nearby returns active skills around opts' origin, filtered and ranked.
func (f *SkillFinder) Nearby(ctx context.Context, opts SearchOptions) ([]RankedSkill, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	skills, err := f.Skills.ListActive(ctx, opts.Category)
	if err != nil {
		return nil, err
	}
	out := Rank(skills, opts)
	metrics.NearbyResults.Observe(float64(len(out)))
	return out, nil
}

// ListOptions filter the plain skill listing. Lat/Lng are optional; when both
// are set only skills within RadiusKm (default 5) are returned, with distances.
type ListOptions struct {
	Category string
	Lat      *float64
	Lng      *float64
	RadiusKm float64
	Limit    int
}

// List returns active skills newest first.
func (f *SkillFinder) List(ctx context.Context, opts ListOptions) ([]RankedSkill, error) {
	if opts.Limit < 0 {
		return nil, apperr.Invalid("limit must not be negative")
	}
	if (opts.Lat == nil) != (opts.Lng == nil) {
		return nil, apperr.Invalid("lat and lng must be provided together")
	}
	if opts.Lat != nil {
		so := DefaultSearchOptions(*opts.Lat, *opts.Lng)
		so.Category = opts.Category
		so.SortBy = SortNewest
		so.Limit = opts.Limit
		if opts.RadiusKm != 0 {
			so.RadiusKm = opts.RadiusKm
		}
		return f.Nearby(ctx, so)
	}

	cat, err := normalizeCategoryFilter(opts.Category)
	if err != nil {
		return nil, err
	}
	skills, err := f.Skills.ListActive(ctx, cat)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(skills) > opts.Limit {
		skills = skills[:opts.Limit]
	}
	out := make([]RankedSkill, len(skills))
	for i, s := range skills {
		out[i] = RankedSkill{Skill: *s}
	}
	return out, nil
}
