package settings

import (
	"fmt"
	"math"
	"strings"
)

const (
	MinRadiusMeters     = 500
	MaxRadiusMeters     = 40000
	DefaultRadiusMeters = 3000
	RatingStep          = 0.5
)

// Category is one of the fixed food categories offered to the user.
type Category string

const (
	CategoryAll        Category = "all"
	CategoryRestaurant Category = "restaurant"
	CategoryJapanese   Category = "japanese"
	CategoryKorean     Category = "korean"
	CategoryItalian    Category = "italian"
	CategoryThai       Category = "thai"
	CategoryChinese    Category = "chinese"
	CategoryAmerican   Category = "american"
	CategoryCafe       Category = "cafe"
	CategoryFastFood   Category = "fastFood"
	CategoryHotpot     Category = "hotpot"
	CategoryBBQ        Category = "bbq"
	CategoryRamen      Category = "ramen"
	CategoryIzakaya    Category = "izakaya"
	CategoryBreakfast  Category = "breakfast"
	CategoryDessert    Category = "dessert"
	CategoryBubbleTea  Category = "bubbleTea"
	CategoryVegetarian Category = "vegetarian"
)

type categoryInfo struct {
	label string
	token string
}

// Categories lists every category in display order.
var Categories = []Category{
	CategoryAll, CategoryRestaurant, CategoryJapanese, CategoryKorean, CategoryItalian,
	CategoryThai, CategoryChinese, CategoryAmerican, CategoryCafe, CategoryFastFood,
	CategoryHotpot, CategoryBBQ, CategoryRamen, CategoryIzakaya, CategoryBreakfast,
	CategoryDessert, CategoryBubbleTea, CategoryVegetarian,
}

var categoryTable = map[Category]categoryInfo{
	CategoryAll:        {label: "All", token: "restaurants"},
	CategoryRestaurant: {label: "Restaurants", token: "restaurants"},
	CategoryJapanese:   {label: "Japanese", token: "japanese"},
	CategoryKorean:     {label: "Korean", token: "korean"},
	CategoryItalian:    {label: "Italian", token: "italian"},
	CategoryThai:       {label: "Thai", token: "thai"},
	CategoryChinese:    {label: "Chinese", token: "chinese"},
	CategoryAmerican:   {label: "American", token: "newamerican,tradamerican"},
	CategoryCafe:       {label: "Cafe", token: "cafes"},
	CategoryFastFood:   {label: "Fast food", token: "hotdogs"},
	CategoryHotpot:     {label: "Hot pot", token: "hotpot"},
	CategoryBBQ:        {label: "BBQ", token: "bbq"},
	CategoryRamen:      {label: "Ramen", token: "ramen"},
	CategoryIzakaya:    {label: "Izakaya", token: "izakaya"},
	CategoryBreakfast:  {label: "Brunch", token: "breakfast_brunch"},
	CategoryDessert:    {label: "Dessert", token: "desserts"},
	CategoryBubbleTea:  {label: "Bubble tea", token: "bubbletea"},
	CategoryVegetarian: {label: "Vegetarian", token: "vegetarian"},
}

// Token is the upstream category filter.
func (c Category) Token() string {
	if info, ok := categoryTable[c]; ok {
		return info.token
	}
	return categoryTable[CategoryAll].token
}

func (c Category) Label() string {
	if info, ok := categoryTable[c]; ok {
		return info.label
	}
	return string(c)
}

func (c Category) Valid() bool {
	_, ok := categoryTable[c]
	return ok
}

// Next cycles through Categories.
func (c Category) Next() Category {
	for i, cat := range Categories {
		if cat == c {
			return Categories[(i+1)%len(Categories)]
		}
	}
	return CategoryAll
}

// ParseCategory matches a category by name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// SortMode selects how candidates are ordered.
type SortMode string

const (
	SortBestMatch SortMode = "bestMatch"
	SortDistance  SortMode = "distance"
)

func (s SortMode) Token() string {
	switch s {
	case SortBestMatch:
		return "best_match"
	default:
		return "distance"
	}
}

func (s SortMode) Label() string {
	switch s {
	case SortBestMatch:
		return "Best match"
	default:
		return "Distance"
	}
}

func (s SortMode) Valid() bool {
	return s == SortBestMatch || s == SortDistance
}

// Toggle switches between the two sort modes.
func (s SortMode) Toggle() SortMode {
	if s == SortBestMatch {
		return SortDistance
	}
	return SortBestMatch
}

func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bestmatch", "best_match":
		return SortBestMatch, nil
	case "distance", "":
		return SortDistance, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Settings are the tunable parameters of a browsing session.
type Settings struct {
	RadiusMeters  int      `json:"radiusMeters"`
	Category      Category `json:"category"`
	SortMode      SortMode `json:"sortMode"`
	OpenOnly      bool     `json:"openOnly"`
	MinimumRating float64  `json:"minimumRating"`
}

// Default returns the settings a fresh install starts with.
func Default() Settings {
	return Settings{
		RadiusMeters: DefaultRadiusMeters,
		Category:     CategoryAll,
		SortMode:     SortDistance,
	}
}

// Normalize clamps every field into its legal range.
func (s Settings) Normalize() Settings {
	if s.RadiusMeters < MinRadiusMeters {
		s.RadiusMeters = MinRadiusMeters
	}
	if s.RadiusMeters > MaxRadiusMeters {
		s.RadiusMeters = MaxRadiusMeters
	}
	if !s.Category.Valid() {
		s.Category = CategoryAll
	}
	if !s.SortMode.Valid() {
		s.SortMode = SortDistance
	}
	s.MinimumRating = math.Round(s.MinimumRating/RatingStep) * RatingStep
	if s.MinimumRating < 0 {
		s.MinimumRating = 0
	}
	if s.MinimumRating > 5 {
		s.MinimumRating = 5
	}
	return s
}

// Effect is what a settings change requires from the pipeline.
type Effect int

const (
	NoChange Effect = iota
	// Refilter re-ranks the already fetched pool without a network call.
	Refilter
	// Refetch issues a new upstream query and keeps the seen set.
	Refetch
	// Restart issues a new upstream query and forgets the seen set.
	Restart
)

func (e Effect) String() string {
	switch e {
	case Refilter:
		return "refilter"
	case Refetch:
		return "refetch"
	case Restart:
		return "restart"
	default:
		return "none"
	}
}

// Classify decides how the pipeline reacts to moving from old to next.
// A new category starts over; open-only and radius tweaks refetch within the
// same session; sort and rating are local.
func Classify(old, next Settings) Effect {
	old, next = old.Normalize(), next.Normalize()
	switch {
	case old.Category != next.Category:
		return Restart
	case old.OpenOnly != next.OpenOnly, old.RadiusMeters != next.RadiusMeters:
		return Refetch
	case old.SortMode != next.SortMode, old.MinimumRating != next.MinimumRating:
		return Refilter
	}
	return NoChange
}

// WithLocal returns s with the ranking-only fields taken from from.
func (s Settings) WithLocal(from Settings) Settings {
	s.SortMode = from.SortMode
	s.MinimumRating = from.MinimumRating
	return s
}

// WithQuery returns s with the fields that shape the upstream query taken
// from from.
func (s Settings) WithQuery(from Settings) Settings {
	s.Category = from.Category
	s.OpenOnly = from.OpenOnly
	s.RadiusMeters = from.RadiusMeters
	return s
}
