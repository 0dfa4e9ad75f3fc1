package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/hub"
	"gamerank/backend/internal/models"
	"gamerank/backend/internal/ranking"
	"gamerank/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type RankingInput struct {
	// Game codes, best first.
	Games []int `json:"games" binding:"required" example:"3,1,2"`
}

type GameSummary struct {
	Code  int    `json:"code" example:"1"`
	Name  string `json:"name" example:"Elden Ring"`
	Slug  string `json:"slug" example:"elden-ring"`
	Image string `json:"image"`
}

type RankingCategoryResponse struct {
	Category CategoryResponse `json:"category"`
	Rankings int              `json:"rankings" example:"12"`
}

type RankingEntryResponse struct {
	Position        int         `json:"position" example:"1"`
	Game            GameSummary `json:"game"`
	Score           float64     `json:"score" example:"2.5"`
	AveragePosition float64     `json:"average_position" example:"1.5"`
	Votes           int         `json:"votes" example:"2"`
}

type GlobalRankingResponse struct {
	Category      CategoryResponse       `json:"category"`
	Entries       []RankingEntryResponse `json:"entries"`
	TotalRankings int                    `json:"total_rankings" example:"2"`
}

type MyRankingResponse struct {
	Category CategoryResponse `json:"category"`
	Ranked   []GameSummary    `json:"ranked"`
	Unranked []GameSummary    `json:"unranked"`
	IsEdit   bool             `json:"is_edit"`
	RankedAt *time.Time       `json:"ranked_at,omitempty"`
}

// RankingEvent is the payload of live ranking events.
type RankingEvent struct {
	CategoryCode int    `json:"category_code" example:"1"`
	Author       string `json:"author" example:"ana"`
}

type RankingResponse struct {
	Code         int       `json:"code" example:"4"`
	CategoryCode int       `json:"category_code" example:"1"`
	Author       string    `json:"author" example:"ana"`
	RankedAt     time.Time `json:"ranked_at"`
	Games        []int     `json:"games" example:"3,1,2"`
}

func newGameSummary(game models.Game) GameSummary {
	return GameSummary{Code: game.Code, Name: game.Name, Slug: game.Slug, Image: game.Image}
}

func newGameSummaries(games []models.Game) []GameSummary {
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, newGameSummary(g))
	}
	return out
}

func newRankingResponse(r models.Ranking) RankingResponse {
	games := []int(r.RankedGames)
	if games == nil {
		games = []int{}
	}
	return RankingResponse{
		Code:         r.Code,
		CategoryCode: r.CategoryCode,
		Author:       r.Author,
		RankedAt:     r.RankedAt,
		Games:        games,
	}
}

// endregion

// region --- Public Handlers ---

// GetRankingCategories godoc
// @Summary      List ranking categories
// @Description  Lists every category with the number of tier lists submitted for it.
// @Tags         rankings
// @Produce      json
// @Success      200  {array}   RankingCategoryResponse
// @Router       /rankings [get]
func (h *Handler) GetRankingCategories(c *gin.Context) {
	ctx := c.Request.Context()
	categories, err := h.Store.Categories().List(ctx)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}
	counts, err := h.Store.Rankings().CountByCategory(ctx)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	response := make([]RankingCategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, RankingCategoryResponse{
			Category: newCategoryResponse(category),
			Rankings: counts[category.Code],
		})
	}
	c.JSON(http.StatusOK, response)
}

// GetGlobalRanking godoc
// @Summary      Global ranking of a category
// @Description  Merges every user's tier list of the category. A game at index i of a list of N earns
// @Description  N-i points; entries are sorted by average points, then by game code.
// @Tags         rankings
// @Produce      json
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  GlobalRankingResponse
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /rankings/categories/{code} [get]
func (h *Handler) GetGlobalRanking(c *gin.Context) {
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
	rankings, err := h.Store.Rankings().ListByCategory(ctx, category.Code)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	entries := ranking.Aggregate(rankings, games)
	response := GlobalRankingResponse{
		Category:      newCategoryResponse(category),
		Entries:       make([]RankingEntryResponse, 0, len(entries)),
		TotalRankings: len(rankings),
	}
	for i, e := range entries {
		response.Entries = append(response.Entries, RankingEntryResponse{
			Position:        i + 1,
			Game:            newGameSummary(e.Game),
			Score:           e.Score,
			AveragePosition: e.AveragePosition,
			Votes:           e.Votes,
		})
	}
	c.JSON(http.StatusOK, response)
}

const keepAliveInterval = 15 * time.Second

// StreamRankingEvents godoc
// @Summary      Watch a category's rankings
// @Description  Server-sent events stream. Emits a "ranking" event whenever a tier list of the
// @Description  category is saved or deleted, so clients can refresh the global ranking.
// @Tags         rankings
// @Produce      text/event-stream
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  RankingEvent
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /rankings/categories/{code}/events [get]
func (h *Handler) StreamRankingEvents(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}

	client := h.Hub.Subscribe(category.Code)
	defer h.Hub.Unsubscribe(category.Code, client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.SSEvent("ready", fmt.Sprintf(`{"category_code":%d}`, category.Code))
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-client:
			if !open {
				return false
			}
			c.SSEvent("ranking", string(msg))
			return true
		case <-ticker.C:
			c.SSEvent("ping", "")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// endregion

// region --- Authenticated Handlers ---

// GetMyRanking godoc
// @Summary      Get my tier list for a category
// @Description  Returns the caller's ranked games in order and the category games not ranked yet.
// @Tags         rankings
// @Produce      json
// @Security     BearerAuth
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  MyRankingResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /rankings/categories/{code}/mine [get]
func (h *Handler) GetMyRanking(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}
	id, _ := auth.Current(c)

	ctx := c.Request.Context()
	games, err := h.Store.Games().List(ctx, models.GameFilter{CategoryCodes: []int{category.Code}})
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	response := MyRankingResponse{Category: newCategoryResponse(category)}
	var codes []int
	existing, err := h.Store.Rankings().Get(ctx, id.Username, category.Code)
	switch {
	case err == nil:
		codes = existing.RankedGames
		response.IsEdit = true
		response.RankedAt = &existing.RankedAt
	case errors.Is(err, store.ErrNotFound):
	default:
		respondStoreError(c, err, "", "")
		return
	}

	ranked, unranked := ranking.Split(codes, games)
	response.Ranked = newGameSummaries(ranked)
	response.Unranked = newGameSummaries(unranked)
	c.JSON(http.StatusOK, response)
}

// SaveMyRanking godoc
// @Summary      Save my tier list for a category
// @Description  Creates or replaces the caller's ranking of the category. Codes must be distinct games
// @Description  of the category.
// @Tags         rankings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      string        true  "Category code or slug"
// @Param        input body      RankingInput  true  "Ordered game codes"
// @Success      200   {object}  RankingResponse "Updated"
// @Success      201   {object}  RankingResponse "Created"
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Category not found"
// @Router       /rankings/categories/{code}/mine [put]
func (h *Handler) SaveMyRanking(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}
	id, _ := auth.Current(c)

	var input RankingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	games, err := h.Store.Games().List(ctx, models.GameFilter{CategoryCodes: []int{category.Code}})
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}
	if bad, valid := ranking.Validate(input.Games, games); !valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Game %d is repeated or not in category %d", bad, category.Code),
		})
		return
	}

	saved, created, err := h.Store.Rankings().Upsert(ctx, id.Username, category.Code, input.Games)
	if err != nil {
		respondStoreError(c, err, "", "Ranking was saved concurrently, try again")
		return
	}

	h.Hub.Publish(category.Code, hub.Event{
		Type:    hub.RankingSaved,
		Payload: RankingEvent{CategoryCode: category.Code, Author: id.Username},
	})

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, newRankingResponse(saved))
}

// DeleteMyRanking godoc
// @Summary      Delete my tier list for a category
// @Tags         rankings
// @Produce      json
// @Security     BearerAuth
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Ranking not found"
// @Router       /rankings/categories/{code}/mine [delete]
func (h *Handler) DeleteMyRanking(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}
	id, _ := auth.Current(c)

	if err := h.Store.Rankings().Delete(c.Request.Context(), id.Username, category.Code); err != nil {
		respondStoreError(c, err, "Ranking not found", "")
		return
	}
	h.Hub.Publish(category.Code, hub.Event{
		Type:    hub.RankingDeleted,
		Payload: RankingEvent{CategoryCode: category.Code, Author: id.Username},
	})
	c.JSON(http.StatusOK, gin.H{"message": "Ranking deleted"})
}

// GetMyRankings godoc
// @Summary      List my tier lists
// @Tags         rankings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   RankingResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/rankings [get]
func (h *Handler) GetMyRankings(c *gin.Context) {
	id, _ := auth.Current(c)

	rankings, err := h.Store.Rankings().ListByAuthor(c.Request.Context(), id.Username)
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	response := make([]RankingResponse, 0, len(rankings))
	for _, r := range rankings {
		response = append(response, newRankingResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// endregion
