package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamerank/backend/internal/models"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// region --- DTOs ---

type GameInput struct {
	Name        string   `json:"name" binding:"required,max=300" example:"Elden Ring"`
	Description string   `json:"description"`
	Image       string   `json:"image" binding:"omitempty,url"`
	Categories  []int    `json:"categories" example:"1,2"` // codes of the categories to associate with the game
	Developer   string   `json:"developer" example:"FromSoftware"`
	Publisher   string   `json:"publisher" example:"Bandai Namco"`
	ReleaseDate string   `json:"release_date" example:"2022-02-25"`
	Platforms   []string `json:"platforms" example:"PC,PlayStation 5"`
	Price       float64  `json:"price" binding:"min=0" example:"59.99"`
	AgeRating   string   `json:"age_rating" example:"PEGI 16"`
	Duration    int      `json:"duration" binding:"min=0" example:"60"`
	Multiplayer bool     `json:"multiplayer"`
}

// GameUpdateInput is a partial update; omitted fields are kept.
type GameUpdateInput struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=300"`
	Description *string   `json:"description"`
	Image       *string   `json:"image" binding:"omitempty,url"`
	Categories  *[]int    `json:"categories"`
	Developer   *string   `json:"developer"`
	Publisher   *string   `json:"publisher"`
	ReleaseDate *string   `json:"release_date"` // "" clears the date
	Platforms   *[]string `json:"platforms"`
	Price       *float64  `json:"price" binding:"omitempty,min=0"`
	AgeRating   *string   `json:"age_rating"`
	Duration    *int      `json:"duration" binding:"omitempty,min=0"`
	Multiplayer *bool     `json:"multiplayer"`
}

type GameResponse struct {
	Code          int           `json:"code" example:"1"`
	Name          string        `json:"name" example:"Elden Ring"`
	Slug          string        `json:"slug" example:"elden-ring"`
	Description   string        `json:"description"`
	Image         string        `json:"image"`
	Categories    []CategoryTag `json:"categories"`
	Developer     string        `json:"developer"`
	Publisher     string        `json:"publisher"`
	ReleaseDate   *string       `json:"release_date" example:"2022-02-25"`
	Platforms     []string      `json:"platforms"`
	Price         float64       `json:"price"`
	AgeRating     string        `json:"age_rating"`
	Duration      int           `json:"duration"`
	Multiplayer   bool          `json:"multiplayer"`
	ReviewCount   int           `json:"review_count" example:"3"`
	AverageRating float64       `json:"average_rating" example:"4.3"`
}

type GameDetailResponse struct {
	GameResponse
	Reviews []ReviewResponse `json:"reviews"`
	// Serie of the caller's review, when signed in and reviewed.
	MyReview *int `json:"my_review,omitempty"`
}

type CategoryGamesResponse struct {
	Category CategoryResponse `json:"category"`
	Games    []GameResponse   `json:"games"`
}

func newGameResponse(game models.Game, stats models.ReviewStats) GameResponse {
	var released *string
	if game.ReleaseDate != nil {
		s := game.ReleaseDate.Format(dateLayout)
		released = &s
	}
	platforms := []string(game.Platforms)
	if platforms == nil {
		platforms = []string{}
	}

	return GameResponse{
		Code:          game.Code,
		Name:          game.Name,
		Slug:          game.Slug,
		Description:   game.Description,
		Image:         game.Image,
		Categories:    newCategoryTags(game.Categories),
		Developer:     game.Developer,
		Publisher:     game.Publisher,
		ReleaseDate:   released,
		Platforms:     platforms,
		Price:         game.Price,
		AgeRating:     game.AgeRating,
		Duration:      game.Duration,
		Multiplayer:   game.Multiplayer,
		ReviewCount:   stats.Count,
		AverageRating: math.Round(stats.Average*10) / 10,
	}
}

func newGameResponses(games []models.Game, stats map[int]models.ReviewStats) []GameResponse {
	response := make([]GameResponse, 0, len(games))
	for _, game := range games {
		response = append(response, newGameResponse(game, stats[game.Code]))
	}
	return response
}

// endregion

// region --- Public Handlers ---

// GetGames godoc
// @Summary      List games
// @Description  Lists games with optional category, platform and name filters. Several values of one
// @Description  filter match any of them; different filters must all match.
// @Tags         games
// @Produce      json
// @Param        category query    []int    false  "Category codes (repeat or comma-separate)" collectionFormat(multi)
// @Param        platform query    []string false  "Platforms (repeat or comma-separate)" collectionFormat(multi)
// @Param        q        query    string   false  "Search in the game name"
// @Param        page     query    int      false  "Page number" default(1)
// @Param        limit    query    int      false  "Items per page" default(10)
// @Success      200      {object} PaginatedResponse[GameResponse]
// @Failure      400      {object} ErrorResponse
// @Router       /games [get]
func (h *Handler) GetGames(c *gin.Context) {
	codes, err := intList(c.QueryArray("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	filter := models.GameFilter{
		CategoryCodes: codes,
		Platforms:     stringList(c.QueryArray("platform")),
		Query:         c.Query("q"),
	}
	page, limit := pageParams(c)

	ctx := c.Request.Context()
	games, err := h.Store.Games().List(ctx, filter)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}
	stats, err := h.Store.Reviews().Stats(ctx)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	c.JSON(http.StatusOK, Paginate(newGameResponses(games, stats), page, limit))
}

// GetPlatforms godoc
// @Summary      List platforms
// @Description  Lists the distinct platforms of the catalog, sorted.
// @Tags         games
// @Produce      json
// @Success      200  {array}   string
// @Router       /platforms [get]
func (h *Handler) GetPlatforms(c *gin.Context) {
	platforms, err := h.Store.Games().Platforms(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}
	c.JSON(http.StatusOK, platforms)
}

// GetGame godoc
// @Summary      Get a game
// @Description  Retrieves a game by code or slug with its reviews, newest first.
// @Tags         games
// @Produce      json
// @Param        code path      string  true  "Game code or slug"
// @Success      200  {object}  GameDetailResponse
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{code} [get]
func (h *Handler) GetGame(c *gin.Context) {
	ctx := c.Request.Context()
	ref := strings.TrimSpace(c.Param("code"))

	var (
		game models.Game
		err  error
	)
	if code, convErr := strconv.Atoi(ref); convErr == nil {
		game, err = h.Store.Games().Get(ctx, code)
	} else {
		game, err = h.Store.Games().GetBySlug(ctx, ref)
	}
	if err != nil {
		respondStoreError(c, err, "Game not found", "")
		return
	}

	reviews, err := h.Store.Reviews().ListByGame(ctx, game.Code)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	stats := models.ReviewStats{GameCode: game.Code}
	response := GameDetailResponse{Reviews: make([]ReviewResponse, 0, len(reviews))}
	caller, signedIn := callerName(c)
	total := 0
	for _, review := range reviews {
		response.Reviews = append(response.Reviews, newReviewResponse(review))
		total += review.Rating
		if signedIn && review.Author == caller {
			serie := review.Serie
			response.MyReview = &serie
		}
	}
	if len(reviews) > 0 {
		stats.Count = len(reviews)
		stats.Average = float64(total) / float64(len(reviews))
	}
	response.GameResponse = newGameResponse(game, stats)

	c.JSON(http.StatusOK, response)
}

// GetCategoryGames godoc
// @Summary      List the games of a category
// @Tags         categories
// @Produce      json
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  CategoryGamesResponse
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /categories/{code}/games [get]
func (h *Handler) GetCategoryGames(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	games, err := h.Store.Games().List(ctx, models.GameFilter{CategoryCodes: []int{category.Code}})
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}
	stats, err := h.Store.Reviews().Stats(ctx)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	c.JSON(http.StatusOK, CategoryGamesResponse{
		Category: newCategoryResponse(category),
		Games:    newGameResponses(games, stats),
	})
}

// endregion

// region --- Admin Handlers ---

// CreateGame godoc
// @Summary      Create a new game
// @Description  Creates a new game with the next free code and associates it with the given categories.
// @Description  Unknown category codes are ignored.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  GameResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Staff access required"
// @Router       /admin/games [post]
func (h *Handler) CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	categories := input.Categories
	if categories == nil {
		categories = []int{}
	}
	platforms := stringList(input.Platforms)
	patch := models.GamePatch{
		Name:        &name,
		Description: &input.Description,
		Image:       &input.Image,
		Categories:  &categories,
		Developer:   &input.Developer,
		Publisher:   &input.Publisher,
		Platforms:   &platforms,
		Price:       &input.Price,
		AgeRating:   &input.AgeRating,
		Duration:    &input.Duration,
		Multiplayer: &input.Multiplayer,
	}
	if input.ReleaseDate != "" {
		released, err := time.Parse(dateLayout, input.ReleaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "release_date must be YYYY-MM-DD"})
			return
		}
		patch.ReleaseDate = &released
	}

	game, err := h.Store.Games().Create(c.Request.Context(), 0, patch)
	if err != nil {
		respondStoreError(c, err, "", "Game already exists")
		return
	}

	c.JSON(http.StatusCreated, newGameResponse(game, models.ReviewStats{}))
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Updates the given fields of a game. Sending categories replaces the whole set; an empty release_date clears it.
// @Tags         admin-games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      int              true  "Game code"
// @Param        input body      GameUpdateInput  true  "Fields to change"
// @Success      200   {object}  GameResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Staff access required"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /admin/games/{code} [put]
func (h *Handler) UpdateGame(c *gin.Context) {
	code, ok := codeParam(c, "code")
	if !ok {
		return
	}

	var input GameUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := models.GamePatch{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
		Categories:  input.Categories,
		Developer:   input.Developer,
		Publisher:   input.Publisher,
		Price:       input.Price,
		AgeRating:   input.AgeRating,
		Duration:    input.Duration,
		Multiplayer: input.Multiplayer,
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		patch.Name = &name
	}
	if input.Platforms != nil {
		platforms := stringList(*input.Platforms)
		patch.Platforms = &platforms
	}
	switch {
	case input.ReleaseDate == nil:
	case strings.TrimSpace(*input.ReleaseDate) == "":
		patch.ClearReleaseDate = true
	default:
		released, err := time.Parse(dateLayout, *input.ReleaseDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "release_date must be YYYY-MM-DD"})
			return
		}
		patch.ReleaseDate = &released
	}

	ctx := c.Request.Context()
	game, err := h.Store.Games().Update(ctx, code, patch)
	if err != nil {
		respondStoreError(c, err, "Game not found", "Game already exists")
		return
	}
	stats, err := h.Store.Reviews().Stats(ctx)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	c.JSON(http.StatusOK, newGameResponse(game, stats[game.Code]))
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes a game and its reviews.
// @Tags         admin-games
// @Produce      json
// @Security     BearerAuth
// @Param        code path int true "Game code"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Staff access required"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /admin/games/{code} [delete]
func (h *Handler) DeleteGame(c *gin.Context) {
	code, ok := codeParam(c, "code")
	if !ok {
		return
	}

	if err := h.Store.Games().Delete(c.Request.Context(), code); err != nil {
		respondStoreError(c, err, "Game not found", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

// endregion

// region --- Helpers ---

// stringList splits comma-separated values, trims them and drops empties.
func stringList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intList(values []string) ([]int, error) {
	parts := stringList(values)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// endregion
