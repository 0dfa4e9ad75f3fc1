// Package store defines the persistence contract shared by the SQL and MongoDB
// backends. Records are addressed by their natural keys (codes, usernames,
// game/serie pairs), never by backend identifiers.
package store

import (
	"context"
	"errors"
	"strconv"

	"gamerank/backend/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("record already exists")
)

// Store groups the repositories of one backend.
type Store interface {
	Categories() CategoryRepo
	Games() GameRepo
	Reviews() ReviewRepo
	Rankings() RankingRepo
	Users() UserRepo
	Close(ctx context.Context) error
}

// CategoryRepo stores categories keyed by code.
type CategoryRepo interface {
	// List returns all categories ordered by code.
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, code int) (models.Category, error)
	GetBySlug(ctx context.Context, slug string) (models.Category, error)
	// Create assigns the next code when c.Code is zero.
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, error)
	// Upsert updates the category with the given code or creates it.
	Upsert(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, bool, error)
	// Delete removes the category, its game memberships and its rankings.
	Delete(ctx context.Context, code int) error
}

// GameRepo stores games keyed by code.
type GameRepo interface {
	// List returns matching games ordered by code, with categories loaded.
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	Get(ctx context.Context, code int) (models.Game, error)
	GetBySlug(ctx context.Context, slug string) (models.Game, error)
	// Platforms returns the distinct platform names, sorted.
	Platforms(ctx context.Context) ([]string, error)
	// Create assigns the next code when code is zero. Unknown category codes are ignored.
	Create(ctx context.Context, code int, patch models.GamePatch) (models.Game, error)
	Update(ctx context.Context, code int, patch models.GamePatch) (models.Game, error)
	Upsert(ctx context.Context, code int, patch models.GamePatch) (models.Game, bool, error)
	// Delete removes the game and its reviews.
	Delete(ctx context.Context, code int) error
}

// ReviewRepo stores reviews keyed by game code and serie.
type ReviewRepo interface {
	// ListByGame returns the reviews of a game, newest first.
	ListByGame(ctx context.Context, gameCode int) ([]models.Review, error)
	Get(ctx context.Context, gameCode, serie int) (models.Review, error)
	// Create assigns the next serie of the game. A second review by the same
	// author for the same game returns ErrConflict.
	Create(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, gameCode, serie int, patch models.ReviewPatch) (models.Review, error)
	Delete(ctx context.Context, gameCode, serie int) error
	// Stats returns review count and average rating keyed by game code.
	Stats(ctx context.Context) (map[int]models.ReviewStats, error)
}

// RankingRepo stores one ranking per author and category.
type RankingRepo interface {
	ListByCategory(ctx context.Context, categoryCode int) ([]models.Ranking, error)
	ListByAuthor(ctx context.Context, author string) ([]models.Ranking, error)
	Get(ctx context.Context, author string, categoryCode int) (models.Ranking, error)
	// Upsert replaces the author's list for the category, creating the ranking
	// with the next code when none exists. The bool reports creation.
	Upsert(ctx context.Context, author string, categoryCode int, games []int) (models.Ranking, bool, error)
	Delete(ctx context.Context, author string, categoryCode int) error
	// CountByCategory returns the number of rankings keyed by category code.
	CountByCategory(ctx context.Context) (map[int]int, error)
}

// UserRepo stores accounts keyed by username.
type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
	// GetByLogin matches either the username or the email.
	GetByLogin(ctx context.Context, login string) (models.User, error)
	// List returns users, newest first.
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, username string, patch models.UserPatch) (models.User, error)
	Delete(ctx context.Context, username string) error
}

// Sequence names for code assignment.
const (
	SeqCategories = "categories"
	SeqGames      = "games"
	SeqRankings   = "rankings"
)

// ReviewSeq is the sequence name for the series of one game.
func ReviewSeq(gameCode int) string {
	return "reviews." + strconv.Itoa(gameCode)
}
