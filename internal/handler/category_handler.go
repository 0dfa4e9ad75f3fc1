package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamerank/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=300" example:"RPG"`
	Description string `json:"description" example:"Role playing games"`
	Image       string `json:"image" binding:"omitempty,url" example:"https://cdn.example.com/rpg.png"`
}

// CategoryUpdateInput is a partial update; omitted fields are kept.
type CategoryUpdateInput struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=300"`
	Description *string `json:"description"`
	Image       *string `json:"image" binding:"omitempty,url"`
}

type CategoryResponse struct {
	Code        int       `json:"code" example:"1"`
	Name        string    `json:"name" example:"RPG"`
	Slug        string    `json:"slug" example:"rpg"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Color       string    `json:"color" example:"is-link"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryTag is the compact form embedded in game listings.
type CategoryTag struct {
	Code  int    `json:"code" example:"1"`
	Name  string `json:"name" example:"RPG"`
	Color string `json:"color" example:"is-link"`
}

func newCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		Code:        category.Code,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		Image:       category.Image,
		Color:       models.TagColor(category.Code),
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func newCategoryTags(categories []*models.Category) []CategoryTag {
	tags := []CategoryTag{}
	for _, category := range categories {
		if category != nil {
			tags = append(tags, CategoryTag{Code: category.Code, Name: category.Name, Color: models.TagColor(category.Code)})
		}
	}
	return tags
}

// endregion

// region --- Public Handlers ---

// GetCategories godoc
// @Summary      List categories
// @Description  Retrieves every category ordered by code.
// @Tags         categories
// @Produce      json
// @Success      200  {array}   CategoryResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /categories [get]
func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.Store.Categories().List(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, newCategoryResponse(category))
	}
	c.JSON(http.StatusOK, response)
}

// GetCategory godoc
// @Summary      Get a category
// @Description  Retrieves a category by numeric code or by slug.
// @Tags         categories
// @Produce      json
// @Param        code path      string  true  "Category code or slug"
// @Success      200  {object}  CategoryResponse
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /categories/{code} [get]
func (h *Handler) GetCategory(c *gin.Context) {
	category, ok := h.lookupCategory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

// lookupCategory resolves the :code parameter as a code first, then as a slug.
func (h *Handler) lookupCategory(c *gin.Context) (models.Category, bool) {
	ref := strings.TrimSpace(c.Param("code"))
	ctx := c.Request.Context()

	var (
		category models.Category
		err      error
	)
	if code, convErr := strconv.Atoi(ref); convErr == nil {
		category, err = h.Store.Categories().Get(ctx, code)
	} else {
		category, err = h.Store.Categories().GetBySlug(ctx, ref)
	}
	if err != nil {
		respondStoreError(c, err, "Category not found", "")
		return category, false
	}
	return category, true
}

// endregion

// region --- Admin Handlers ---

// CreateCategory godoc
// @Summary      Create a new category
// @Description  Creates a category with the next free code.
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CategoryInput true "Category Info"
// @Success      201  {object}  CategoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Staff access required"
// @Failure      409  {object}  ErrorResponse "Category already exists"
// @Router       /admin/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
		return
	}
	category := models.NewCategory(0, models.CategoryPatch{
		Name:        &name,
		Description: &input.Description,
		Image:       &input.Image,
	})
	if err := h.Store.Categories().Create(c.Request.Context(), &category); err != nil {
		respondStoreError(c, err, "", "A category with that name already exists")
		return
	}

	c.JSON(http.StatusCreated, newCategoryResponse(category))
}

// UpdateCategory godoc
// @Summary      Update a category
// @Description  Updates the given fields of an existing category.
// @Tags         admin-categories
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code  path      int                  true  "Category code"
// @Param        input body      CategoryUpdateInput  true  "Fields to change"
// @Success      200   {object}  CategoryResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Staff access required"
// @Failure      404   {object}  ErrorResponse "Category not found"
// @Failure      409   {object}  ErrorResponse "Category already exists"
// @Router       /admin/categories/{code} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	code, ok := codeParam(c, "code")
	if !ok {
		return
	}

	var input CategoryUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		input.Name = &name
	}

	category, err := h.Store.Categories().Update(c.Request.Context(), code, models.CategoryPatch{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
	})
	if err != nil {
		respondStoreError(c, err, "Category not found", "A category with that name already exists")
		return
	}
	c.JSON(http.StatusOK, newCategoryResponse(category))
}

// DeleteCategory godoc
// @Summary      Delete a category
// @Description  Deletes a category, removing it from its games and dropping its rankings.
// @Tags         admin-categories
// @Produce      json
// @Security     BearerAuth
// @Param        code path      int  true  "Category code"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Staff access required"
// @Failure      404  {object}  ErrorResponse "Category not found"
// @Router       /admin/categories/{code} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	code, ok := codeParam(c, "code")
	if !ok {
		return
	}

	if err := h.Store.Categories().Delete(c.Request.Context(), code); err != nil {
		respondStoreError(c, err, "Category not found", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// endregion
