package models

import "time"

// Review is one author's rating of one game. Serie numbers reviews within a game.
type Review struct {
	ID         uint   `gorm:"primaryKey"`
	GameCode   int    `gorm:"not null;uniqueIndex:idx_review_game_serie;uniqueIndex:idx_review_game_author"`
	Serie      int    `gorm:"not null;uniqueIndex:idx_review_game_serie"`
	Author     string `gorm:"size:150;not null;uniqueIndex:idx_review_game_author"`
	ReviewedAt time.Time
	Rating     int `gorm:"not null;check:rating >= 0 AND rating <= 5"`
	Comment    string
}

const (
	MinRating = 0
	MaxRating = 5
)

// ReviewPatch is a partial update of a review.
type ReviewPatch struct {
	Rating  *int
	Comment *string
}

// Apply copies the set fields onto r.
func (p ReviewPatch) Apply(r *Review) {
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
}

// ReviewStats summarizes the reviews of one game.
type ReviewStats struct {
	GameCode int
	Count    int
	Average  float64
}
