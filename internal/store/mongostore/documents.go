package mongostore

import (
	"sort"
	"time"

	"gamerank/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
)

// Documents use the natural key as _id wherever one exists.

type categoryDoc struct {
	Code        int       `bson:"_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	Image       string    `bson:"image"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func fromCategory(c models.Category) categoryDoc {
	return categoryDoc{
		Code:        c.Code,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d categoryDoc) model() models.Category {
	return models.Category{
		Code:        d.Code,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Image:       d.Image,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type gameDoc struct {
	Code        int        `bson:"_id"`
	Name        string     `bson:"name"`
	Slug        string     `bson:"slug"`
	Description string     `bson:"description"`
	Image       string     `bson:"image"`
	Categories  []int      `bson:"categories"`
	Developer   string     `bson:"developer"`
	Publisher   string     `bson:"publisher"`
	ReleaseDate *time.Time `bson:"release_date,omitempty"`
	Platforms   []string   `bson:"platforms"`
	Price       float64    `bson:"price"`
	AgeRating   string     `bson:"age_rating"`
	Duration    int        `bson:"duration"`
	Multiplayer bool       `bson:"multiplayer"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func fromGame(g models.Game) gameDoc {
	platforms := []string(g.Platforms)
	if platforms == nil {
		platforms = []string{}
	}
	return gameDoc{
		Code:        g.Code,
		Name:        g.Name,
		Slug:        g.Slug,
		Description: g.Description,
		Image:       g.Image,
		Categories:  g.CategoryCodes(),
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		ReleaseDate: g.ReleaseDate,
		Platforms:   platforms,
		Price:       g.Price,
		AgeRating:   g.AgeRating,
		Duration:    g.Duration,
		Multiplayer: g.Multiplayer,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// model resolves the stored category codes against known, ordered by code.
// Codes of deleted categories are dropped.
func (d gameDoc) model(known map[int]models.Category) models.Game {
	return models.Game{
		Code:        d.Code,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Image:       d.Image,
		Categories:  resolveCategories(d.Categories, known),
		Developer:   d.Developer,
		Publisher:   d.Publisher,
		ReleaseDate: d.ReleaseDate,
		Platforms:   datatypes.JSONSlice[string](append([]string{}, d.Platforms...)),
		Price:       d.Price,
		AgeRating:   d.AgeRating,
		Duration:    d.Duration,
		Multiplayer: d.Multiplayer,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func resolveCategories(codes []int, known map[int]models.Category) []*models.Category {
	out := []*models.Category{}
	seen := make(map[int]bool, len(codes))
	for _, code := range codes {
		c, ok := known[code]
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

type reviewDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	GameCode   int                `bson:"game_code"`
	Serie      int                `bson:"serie"`
	Author     string             `bson:"author"`
	ReviewedAt time.Time          `bson:"reviewed_at"`
	Rating     int                `bson:"rating"`
	Comment    string             `bson:"comment"`
}

func fromReview(r models.Review) reviewDoc {
	return reviewDoc{
		GameCode:   r.GameCode,
		Serie:      r.Serie,
		Author:     r.Author,
		ReviewedAt: r.ReviewedAt,
		Rating:     r.Rating,
		Comment:    r.Comment,
	}
}

func (d reviewDoc) model() models.Review {
	return models.Review{
		GameCode:   d.GameCode,
		Serie:      d.Serie,
		Author:     d.Author,
		ReviewedAt: d.ReviewedAt,
		Rating:     d.Rating,
		Comment:    d.Comment,
	}
}

type rankingDoc struct {
	Code         int       `bson:"_id"`
	Author       string    `bson:"author"`
	CategoryCode int       `bson:"category_code"`
	RankedAt     time.Time `bson:"ranked_at"`
	RankedGames  []int     `bson:"ranked_games"`
}

func (d rankingDoc) model() models.Ranking {
	return models.Ranking{
		Code:         d.Code,
		Author:       d.Author,
		CategoryCode: d.CategoryCode,
		RankedAt:     d.RankedAt,
		RankedGames:  datatypes.JSONSlice[int](append([]int{}, d.RankedGames...)),
	}
}

type userDoc struct {
	Username     string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	IsStaff      bool      `bson:"is_staff"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func fromUser(u models.User) userDoc {
	return userDoc{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsStaff:      u.IsStaff,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) model() models.User {
	return models.User{
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		IsStaff:      d.IsStaff,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type counterDoc struct {
	Name  string `bson:"_id"`
	Value int    `bson:"value"`
}
