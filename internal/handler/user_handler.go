package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"
	"gamerank/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username       string `json:"username" binding:"required,min=3,max=150,alphanumunicode" example:"testuser"`
	Email          string `json:"email" binding:"required,email" example:"test@example.com"`
	Password       string `json:"password" binding:"required,min=8" example:"password123"`
	RepeatPassword string `json:"repeat_password" binding:"required" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Login    string `json:"login" binding:"required" example:"testuser"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// UserResponse defines the structure for a user's profile.
type UserResponse struct {
	Username  string      `json:"username" example:"testuser"`
	Email     string      `json:"email" example:"test@example.com"`
	Role      models.Role `json:"role" example:"client"`
	IsStaff   bool        `json:"is_staff"`
	CreatedAt time.Time   `json:"created_at"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsStaff:   user.IsStaff,
		CreatedAt: user.CreatedAt,
	}
}

// endregion

// region --- Auth Handlers ---

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new client account and returns an authentication token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Password != input.RepeatPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hashedPassword,
		Role:         models.RoleClient,
	}
	if err := h.Store.Users().Create(c.Request.Context(), &user); err != nil {
		respondStoreError(c, err, "", "Username or email already exists")
		return
	}

	h.respondToken(c, http.StatusCreated, user.Username)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user with username/email and password, and returns a new token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  TokenResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Failure      429  {object}  ErrorResponse "Too many attempts"
// @Failure      500  {object}  ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	login := strings.TrimSpace(input.Login)
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
	}
	user, err := h.Store.Users().GetByLogin(c.Request.Context(), login)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, input.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	h.respondToken(c, http.StatusOK, user.Username)
}

func (h *Handler) respondToken(c *gin.Context, status int, username string) {
	token, err := jwt.GenerateToken(h.Config.JWTSecret, username, h.Config.JWTTTL)
	if err != nil {
		log.Printf("generate token for %s: %v", username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, TokenResponse{Token: token})
}

// GetMe godoc
// @Summary      Get current user's info
// @Description  Retrieves the profile of the currently authenticated user.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	id, _ := auth.Current(c)

	user, err := h.Store.Users().GetByUsername(c.Request.Context(), id.Username)
	if err != nil {
		respondStoreError(c, err, "User not found", "")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// endregion

// region --- Admin Handlers ---

// GetUsers godoc
// @Summary      List users
// @Description  Lists every account, newest first.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        page  query     int     false  "Page number" default(1)
// @Param        limit query     int     false  "Items per page" default(10)
// @Success      200   {object}  PaginatedResponse[UserResponse]
// @Failure      403   {object}  ErrorResponse "Staff access required"
// @Router       /admin/users [get]
func (h *Handler) GetUsers(c *gin.Context) {
	page, limit := pageParams(c)

	users, err := h.Store.Users().List(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "", "")
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, newUserResponse(user))
	}
	c.JSON(http.StatusOK, Paginate(response, page, limit))
}

// DeleteUser godoc
// @Summary      Delete a user
// @Description  Deletes an account. Its reviews and rankings are kept. Staff cannot delete themselves.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        username path      string  true  "Username"
// @Success      200      {object}  MessageResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse "User not found"
// @Router       /admin/users/{username} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	username, ok := otherUser(c, "You cannot delete yourself")
	if !ok {
		return
	}

	if err := h.Store.Users().Delete(c.Request.Context(), username); err != nil {
		respondStoreError(c, err, "User not found", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// ToggleStaff godoc
// @Summary      Toggle staff rights
// @Description  Grants or revokes staff rights. Staff cannot change their own rights.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        username path      string  true  "Username"
// @Success      200      {object}  UserResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse "User not found"
// @Router       /admin/users/{username}/toggle-staff [post]
func (h *Handler) ToggleStaff(c *gin.Context) {
	username, ok := otherUser(c, "You cannot change your own permissions")
	if !ok {
		return
	}

	h.toggleUser(c, username, func(u models.User) models.UserPatch {
		staff := !u.IsStaff
		return models.UserPatch{IsStaff: &staff}
	})
}

// ToggleRole godoc
// @Summary      Toggle role
// @Description  Switches a user between the admin and client roles. Staff cannot change their own role.
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        username path      string  true  "Username"
// @Success      200      {object}  UserResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse "User not found"
// @Router       /admin/users/{username}/toggle-role [post]
func (h *Handler) ToggleRole(c *gin.Context) {
	username, ok := otherUser(c, "You cannot change your own role")
	if !ok {
		return
	}

	h.toggleUser(c, username, func(u models.User) models.UserPatch {
		role := models.RoleAdmin
		if u.Role == models.RoleAdmin {
			role = models.RoleClient
		}
		return models.UserPatch{Role: &role}
	})
}

func (h *Handler) toggleUser(c *gin.Context, username string, next func(models.User) models.UserPatch) {
	ctx := c.Request.Context()
	user, err := h.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		respondStoreError(c, err, "User not found", "")
		return
	}

	user, err = h.Store.Users().Update(ctx, username, next(user))
	if err != nil {
		respondStoreError(c, err, "User not found", "")
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// otherUser returns the :username parameter, refusing with 403 when it names the caller.
func otherUser(c *gin.Context, selfMessage string) (string, bool) {
	username := c.Param("username")
	if id, _ := auth.Current(c); id.Username == username {
		c.JSON(http.StatusForbidden, gin.H{"error": selfMessage})
		return "", false
	}
	return username, true
}

// endregion
