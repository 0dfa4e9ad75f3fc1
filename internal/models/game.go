package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
)

// Game represents a game in the catalog.
type Game struct {
	ID          uint   `gorm:"primaryKey"`
	Code        int    `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"size:300;not null"`
	Slug        string `gorm:"size:320;index"`
	Description string
	Image       string      `gorm:"size:500"`
	Categories  []*Category `gorm:"many2many:game_categories;"`
	Developer   string      `gorm:"size:300"`
	Publisher   string      `gorm:"size:300"`
	ReleaseDate *time.Time
	Platforms   datatypes.JSONSlice[string]
	Price       float64
	AgeRating   string `gorm:"size:50"`
	Duration    int    // approximate hours to finish
	Multiplayer bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryCodes returns the codes of the loaded categories in load order.
func (g Game) CategoryCodes() []int {
	codes := make([]int, 0, len(g.Categories))
	for _, c := range g.Categories {
		if c != nil {
			codes = append(codes, c.Code)
		}
	}
	return codes
}

// InCategory reports whether the game belongs to the category with the given code.
func (g Game) InCategory(code int) bool {
	for _, c := range g.Categories {
		if c != nil && c.Code == code {
			return true
		}
	}
	return false
}

// OnPlatform reports whether the game lists the given platform.
func (g Game) OnPlatform(platform string) bool {
	for _, p := range g.Platforms {
		if p == platform {
			return true
		}
	}
	return false
}

// GamePatch is a partial update; nil fields keep their current value.
// Categories is resolved by the store, since it needs category lookups.
// ClearReleaseDate removes the date and wins over ReleaseDate.
type GamePatch struct {
	Name        *string
	Description *string
	Image       *string
	Categories  *[]int
	Developer   *string
	Publisher   *string
	ReleaseDate *time.Time
	Platforms   *[]string
	Price       *float64
	AgeRating   *string
	Duration    *int
	Multiplayer *bool

	ClearReleaseDate bool
}

// Apply copies the set scalar fields onto g and refreshes the slug.
func (p GamePatch) Apply(g *Game) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Image != nil {
		g.Image = *p.Image
	}
	if p.Developer != nil {
		g.Developer = *p.Developer
	}
	if p.Publisher != nil {
		g.Publisher = *p.Publisher
	}
	switch {
	case p.ClearReleaseDate:
		g.ReleaseDate = nil
	case p.ReleaseDate != nil:
		d := *p.ReleaseDate
		g.ReleaseDate = &d
	}
	if p.Platforms != nil {
		g.Platforms = datatypes.JSONSlice[string](append([]string{}, (*p.Platforms)...))
	}
	if p.Price != nil {
		g.Price = *p.Price
	}
	if p.AgeRating != nil {
		g.AgeRating = *p.AgeRating
	}
	if p.Duration != nil {
		g.Duration = *p.Duration
	}
	if p.Multiplayer != nil {
		g.Multiplayer = *p.Multiplayer
	}
	if g.Platforms == nil {
		g.Platforms = datatypes.JSONSlice[string]{}
	}
	g.Slug = slug.Make(g.Name)
}

// GameFilter selects games for listing. Within a dimension any selected value
// matches; across dimensions all non-empty selections must match.
type GameFilter struct {
	CategoryCodes []int
	Platforms     []string
	Query         string
}

// Match reports whether g passes the category and platform selections.
// Query is applied by the store.
func (f GameFilter) Match(g Game) bool {
	if len(f.CategoryCodes) > 0 {
		ok := false
		for _, code := range f.CategoryCodes {
			if g.InCategory(code) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Platforms) > 0 {
		ok := false
		for _, p := range f.Platforms {
			if g.OnPlatform(p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
