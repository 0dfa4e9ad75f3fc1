package handler

import (
	"net/http"
	"time"

	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type ReviewInput struct {
	Rating  *int   `json:"rating" binding:"required,min=0,max=5" example:"4"`
	Comment string `json:"comment" binding:"max=2000" example:"Great exploration"`
}

// ReviewUpdateInput is a partial update; omitted fields are kept.
type ReviewUpdateInput struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=0,max=5" example:"5"`
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

type ReviewResponse struct {
	GameCode   int       `json:"game_code" example:"1"`
	Serie      int       `json:"serie" example:"2"`
	Author     string    `json:"author" example:"ana"`
	ReviewedAt time.Time `json:"reviewed_at"`
	Rating     int       `json:"rating" example:"4"`
	Comment    string    `json:"comment"`
}

func newReviewResponse(review models.Review) ReviewResponse {
	return ReviewResponse{
		GameCode:   review.GameCode,
		Serie:      review.Serie,
		Author:     review.Author,
		ReviewedAt: review.ReviewedAt,
		Rating:     review.Rating,
		Comment:    review.Comment,
	}
}

// endregion

// CreateReview godoc
// @Summary      Review a game
// @Description  Adds the caller's review to a game. Each user may review a game once.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      int          true  "Game code"
// @Param        input body      ReviewInput  true  "Review"
// @Success      201   {object}  ReviewResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Failure      409   {object}  ErrorResponse "Already reviewed"
// @Router       /games/{code}/reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	code, ok := codeParam(c, "code")
	if !ok {
		return
	}
	id, _ := auth.Current(c)

	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.Games().Get(ctx, code); err != nil {
		respondStoreError(c, err, "Game not found", "")
		return
	}

	review := models.Review{
		GameCode: code,
		Author:   id.Username,
		Rating:   *input.Rating,
		Comment:  input.Comment,
	}
	if err := h.Store.Reviews().Create(ctx, &review); err != nil {
		respondStoreError(c, err, "", "You have already reviewed this game")
		return
	}

	c.JSON(http.StatusCreated, newReviewResponse(review))
}

// UpdateReview godoc
// @Summary      Edit a review
// @Description  Changes the rating or comment of a review. Only its author or an admin may edit it.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      int                true  "Game code"
// @Param        serie path      int                true  "Review serie"
// @Param        input body      ReviewUpdateInput  true  "Fields to change"
// @Success      200   {object}  ReviewResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Not your review"
// @Failure      404   {object}  ErrorResponse "Review not found"
// @Router       /games/{code}/reviews/{serie} [put]
func (h *Handler) UpdateReview(c *gin.Context) {
	code, serie, ok := h.authorizeReview(c)
	if !ok {
		return
	}

	var input ReviewUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.Store.Reviews().Update(c.Request.Context(), code, serie, models.ReviewPatch{
		Rating:  input.Rating,
		Comment: input.Comment,
	})
	if err != nil {
		respondStoreError(c, err, "Review not found", "")
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

// DeleteReview godoc
// @Summary      Delete a review
// @Description  Deletes a review. Only its author or an admin may delete it.
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      int  true  "Game code"
// @Param        serie path      int  true  "Review serie"
// @Success      200   {object}  MessageResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Not your review"
// @Failure      404   {object}  ErrorResponse "Review not found"
// @Router       /games/{code}/reviews/{serie} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	code, serie, ok := h.authorizeReview(c)
	if !ok {
		return
	}

	if err := h.Store.Reviews().Delete(c.Request.Context(), code, serie); err != nil {
		respondStoreError(c, err, "Review not found", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}

// authorizeReview loads the addressed review and checks that the caller is
// its author or an admin.
func (h *Handler) authorizeReview(c *gin.Context) (int, int, bool) {
	code, ok := codeParam(c, "code")
	if !ok {
		return 0, 0, false
	}
	serie, ok := codeParam(c, "serie")
	if !ok {
		return 0, 0, false
	}

	review, err := h.Store.Reviews().Get(c.Request.Context(), code, serie)
	if err != nil {
		respondStoreError(c, err, "Review not found", "")
		return 0, 0, false
	}

	id, _ := auth.Current(c)
	if review.Author != id.Username && !id.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only change your own reviews"})
		return 0, 0, false
	}
	return code, serie, true
}

// callerName returns the signed-in username, if any.
func callerName(c *gin.Context) (string, bool) {
	id, ok := auth.Current(c)
	if !ok {
		return "", false
	}
	return id.Username, true
}
