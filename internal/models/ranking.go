package models

import (
	"time"

	"gorm.io/datatypes"
)

// Ranking is a user's ordered tier list for one category.
// There is at most one per (Author, CategoryCode).
type Ranking struct {
	ID           uint                     `gorm:"primaryKey"`
	Code         int                      `gorm:"uniqueIndex;not null"`
	Author       string                   `gorm:"size:150;not null;uniqueIndex:idx_ranking_author_category"`
	CategoryCode int                      `gorm:"not null;index;uniqueIndex:idx_ranking_author_category"`
	RankedAt     time.Time
	RankedGames  datatypes.JSONSlice[int] `gorm:"not null"`
}

// Sequence is a named counter used to hand out codes and series.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:100"`
	Value int    `gorm:"not null"`
}
