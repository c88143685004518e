package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/testutil"
)

const (
	nycLat = 40.7128
	nycLng = -74.0060
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeSkill(title, category string, price int, rating, lat, lng float64, age time.Duration) *models.Skill {
	return &models.Skill{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Title:        title,
		Category:     category,
		PriceCredits: price,
		Lat:          lat,
		Lng:          lng,
		AvgRating:    rating,
		IsActive:     true,
		CreatedAt:    epoch.Add(-age),
	}
}

func titles(rs []RankedSkill) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

// ---------------------------------------------------------------------------
// Haversine
// ---------------------------------------------------------------------------

func TestHaversine(t *testing.T) {
	if d := Haversine(nycLat, nycLng, nycLat, nycLng); d != 0 {
		t.Errorf("same point distance = %v", d)
	}
	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	if d := Haversine(0, 10, 1, 10); math.Abs(d-111.19) > 0.01 {
		t.Errorf("1 degree latitude = %v km", d)
	}
	a := Haversine(nycLat, nycLng, 40.7489, -73.9680)
	b := Haversine(40.7489, -73.9680, nycLat, nycLng)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}

// ---------------------------------------------------------------------------
// Rank
// ---------------------------------------------------------------------------

func TestRank_RadiusScenario(t *testing.T) {
	near := makeSkill("near", models.CategoryMusic, 10, 4, 40.7344, nycLng, 0)   // ~2.4 km
	far := makeSkill("far", models.CategoryMusic, 10, 4, 40.7704, nycLng, 0)     // ~6.4 km
	opts := DefaultSearchOptions(nycLat, nycLng)
	if err := opts.Normalize(); err != nil {
		t.Fatal(err)
	}

	got := Rank([]*models.Skill{far, near}, opts)
	if len(got) != 1 || got[0].ID != near.ID {
		t.Fatalf("got %v, want only the 2.4 km skill", titles(got))
	}
	if d := *got[0].Distance; math.Abs(d-2.40) > 0.01 {
		t.Errorf("distance = %v, want ~2.40", d)
	}
}

func TestRank_MidtownScenario(t *testing.T) {
	timesSquare := makeSkill("times-square", models.CategoryMusic, 10, 4, 40.7580, -73.9855, 0)
	eastVillage := makeSkill("east-village", models.CategoryMusic, 10, 4, 40.7260, -73.9897, 0)
	opts := DefaultSearchOptions(nycLat, nycLng)
	if err := opts.Normalize(); err != nil {
		t.Fatal(err)
	}

	if d := Haversine(nycLat, nycLng, timesSquare.Lat, timesSquare.Lng); d <= opts.RadiusKm {
		t.Fatalf("Times Square at %.2f km should lie outside %v km", d, opts.RadiusKm)
	}
	got := Rank([]*models.Skill{timesSquare, eastVillage}, opts)
	if len(got) != 1 || got[0].ID != eastVillage.ID {
		t.Fatalf("got %v, want [east-village]", titles(got))
	}
	if d := *got[0].Distance; d <= 0 || d > opts.RadiusKm {
		t.Errorf("distance = %v", d)
	}
}

func TestRank_Filters(t *testing.T) {
	skills := []*models.Skill{
		makeSkill("cheap-low", models.CategoryTech, 10, 3.0, 40.7200, nycLng, 0),
		makeSkill("cheap-high", models.CategoryTech, 20, 4.8, 40.7150, nycLng, 0),
		makeSkill("pricey-high", models.CategoryTech, 80, 4.9, 40.7180, nycLng, 0),
		makeSkill("other-cat", models.CategoryArts, 15, 4.9, 40.7130, nycLng, 0),
	}
	opts := DefaultSearchOptions(nycLat, nycLng)
	opts.Category = "tech"
	opts.MinRating = 4
	opts.MaxPrice = 50
	if err := opts.Normalize(); err != nil {
		t.Fatal(err)
	}

	got := Rank(skills, opts)
	if len(got) != 1 || got[0].Title != "cheap-high" {
		t.Fatalf("got %v, want [cheap-high]", titles(got))
	}
	for _, r := range got {
		if r.AvgRating < opts.MinRating || r.PriceCredits > opts.MaxPrice || *r.Distance > opts.RadiusKm {
			t.Errorf("result %q violates filters", r.Title)
		}
	}
}

func TestRank_SortOrders(t *testing.T) {
	a := makeSkill("a", models.CategoryMusic, 30, 4.1, 40.7300, nycLng, 3*time.Hour)
	b := makeSkill("b", models.CategoryMusic, 10, 4.9, 40.7200, nycLng, 1*time.Hour)
	c := makeSkill("c", models.CategoryMusic, 50, 4.5, 40.7140, nycLng, 2*time.Hour)
	skills := []*models.Skill{a, b, c}

	tests := []struct {
		sortBy string
		want   []string
	}{
		{SortDistance, []string{"c", "b", "a"}},
		{SortRating, []string{"b", "c", "a"}},
		{SortPriceLow, []string{"b", "a", "c"}},
		{SortPriceHigh, []string{"c", "a", "b"}},
		{SortNewest, []string{"b", "c", "a"}},
		{"bogus", []string{"c", "b", "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.sortBy, func(t *testing.T) {
			opts := DefaultSearchOptions(nycLat, nycLng)
			opts.SortBy = tc.sortBy
			if err := opts.Normalize(); err != nil {
				t.Fatal(err)
			}
			got := titles(Rank(skills, opts))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestRank_StableOnTies(t *testing.T) {
	first := makeSkill("first", models.CategoryMusic, 10, 4.5, 40.7200, nycLng, 0)
	second := makeSkill("second", models.CategoryMusic, 10, 4.5, 40.7300, nycLng, 0)
	opts := DefaultSearchOptions(nycLat, nycLng)
	opts.SortBy = SortPriceLow
	_ = opts.Normalize()

	got := titles(Rank([]*models.Skill{first, second}, opts))
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("ties should keep input order, got %v", got)
	}
}

func TestRank_LimitAndEmpty(t *testing.T) {
	opts := DefaultSearchOptions(nycLat, nycLng)
	_ = opts.Normalize()
	if got := Rank(nil, opts); got == nil || len(got) != 0 {
		t.Errorf("empty input should give empty non-nil slice, got %#v", got)
	}

	opts.Limit = 2
	var skills []*models.Skill
	for i := 0; i < 5; i++ {
		skills = append(skills, makeSkill("s", models.CategoryMusic, i, 4, nycLat+float64(i)*0.001, nycLng, 0))
	}
	if got := Rank(skills, opts); len(got) != 2 {
		t.Errorf("limit ignored: %d results", len(got))
	}
}

// ---------------------------------------------------------------------------
// Normalize
// ---------------------------------------------------------------------------

func TestSearchOptions_Normalize(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SearchOptions)
		ok     bool
	}{
		{"defaults", func(*SearchOptions) {}, true},
		{"zero lat", func(o *SearchOptions) { o.Lat = 0 }, false},
		{"zero lng", func(o *SearchOptions) { o.Lng = 0 }, false},
		{"lat out of range", func(o *SearchOptions) { o.Lat = 91 }, false},
		{"lng out of range", func(o *SearchOptions) { o.Lng = -181 }, false},
		{"negative radius", func(o *SearchOptions) { o.RadiusKm = -1 }, false},
		{"infinite radius", func(o *SearchOptions) { o.RadiusKm = math.Inf(1) }, false},
		{"NaN radius", func(o *SearchOptions) { o.RadiusKm = math.NaN() }, false},
		{"NaN rating", func(o *SearchOptions) { o.MinRating = math.NaN() }, false},
		{"unknown category", func(o *SearchOptions) { o.Category = "JUGGLING" }, false},
		{"lower-case category", func(o *SearchOptions) { o.Category = "music" }, true},
		{"rating too high", func(o *SearchOptions) { o.MinRating = 6 }, false},
		{"negative price", func(o *SearchOptions) { o.MaxPrice = -1 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultSearchOptions(nycLat, nycLng)
			tc.mutate(&o)
			err := o.Normalize()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				var ve *apperr.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// SkillFinder
// ---------------------------------------------------------------------------

func TestSkillFinder_Nearby(t *testing.T) {
	inactive := makeSkill("inactive", models.CategoryMusic, 10, 5, 40.7130, nycLng, 0)
	inactive.IsActive = false
	repo := testutil.NewSkills(
		makeSkill("guitar", models.CategoryMusic, 30, 4.8, 40.7130, nycLng, 0),
		makeSkill("web", models.CategoryTech, 50, 4.9, 40.7260, -73.9897, 0),
		inactive,
	)
	f := NewSkillFinder(repo)

	opts := DefaultSearchOptions(nycLat, nycLng)
	opts.Category = "MUSIC"
	got, err := f.Nearby(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "guitar" {
		t.Errorf("got %v, want [guitar]", titles(got))
	}

	if _, err := f.Nearby(context.Background(), DefaultSearchOptions(0, 0)); err == nil {
		t.Error("expected validation error for 0,0 origin")
	}
}

func TestSkillFinder_List(t *testing.T) {
	repo := testutil.NewSkills(
		makeSkill("old", models.CategoryMusic, 30, 4.8, 40.7130, nycLng, 2*time.Hour),
		makeSkill("new", models.CategoryTech, 50, 4.9, 40.7704, nycLng, time.Hour),
	)
	f := NewSkillFinder(repo)
	ctx := context.Background()

	all, err := f.List(ctx, ListOptions{Category: "all"})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(all); len(got) != 2 || got[0] != "new" {
		t.Errorf("got %v, want newest first", got)
	}
	if all[0].Distance != nil {
		t.Error("distance should be absent without coordinates")
	}

	lat, lng := nycLat, nycLng
	geo, err := f.List(ctx, ListOptions{Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatal(err)
	}
	if got := titles(geo); len(got) != 1 || got[0] != "old" {
		t.Errorf("got %v, want only the skill within 5 km", got)
	}

	if _, err := f.List(ctx, ListOptions{Lat: &lat}); err == nil {
		t.Error("expected error when only lat is given")
	}
	if _, err := f.List(ctx, ListOptions{Category: "nope"}); err == nil {
		t.Error("expected error for unknown category")
	}
}
