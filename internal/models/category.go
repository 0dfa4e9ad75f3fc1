package models

import (
	"time"

	"github.com/gosimple/slug"
)

// Category groups games (e.g., "RPG", "Shooter", "Co-op").
// Code is the public natural key; ID is internal to the SQL store.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Code        int    `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"size:300;uniqueIndex;not null"`
	Slug        string `gorm:"size:320;index"`
	Description string
	Image       string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CategoryPatch is a partial update; nil fields keep their current value.
type CategoryPatch struct {
	Name        *string
	Description *string
	Image       *string
}

// Apply copies the set fields onto c and refreshes the slug.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	c.Slug = slug.Make(c.Name)
}

// NewCategory builds a category with the given code from a patch.
func NewCategory(code int, p CategoryPatch) Category {
	c := Category{Code: code}
	p.Apply(&c)
	return c
}

var tagPalette = []string{"is-primary", "is-link", "is-info", "is-success", "is-warning", "is-danger", "is-dark"}

// TagColor picks a stable display color for a category code.
func TagColor(code int) string {
	if code < 0 {
		code = -code
	}
	return tagPalette[code%len(tagPalette)]
}
