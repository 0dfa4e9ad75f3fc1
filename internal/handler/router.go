package handler

import (
	"net/http"

	"gamerank/backend/internal/auth"
	"gamerank/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires every route of the API onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	users := h.Store.Users()
	requireAuth := auth.AuthMiddleware(h.Config.JWTSecret, users)
	optionalAuth := auth.OptionalAuthMiddleware(h.Config.JWTSecret, users)

	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			limited := middleware.Limiter(middleware.PerMinute(h.Config.AuthRatePerMinute), h.Config.AuthRateBurst)
			authRoutes.POST("/register", limited, h.RegisterUser)
			authRoutes.POST("/login", limited, h.LoginUser)
			authRoutes.GET("/me", requireAuth, h.GetMe)
		}

		// Catalog routes (public)
		apiV1.GET("/platforms", h.GetPlatforms)

		categoryRoutes := apiV1.Group("/categories")
		categoryRoutes.Use(optionalAuth)
		{
			categoryRoutes.GET("", h.GetCategories)
			categoryRoutes.GET("/:code", h.GetCategory)
			categoryRoutes.GET("/:code/games", h.GetCategoryGames)
		}

		gameRoutes := apiV1.Group("/games")
		{
			gameRoutes.GET("", optionalAuth, h.GetGames)
			gameRoutes.GET("/:code", optionalAuth, h.GetGame)
			gameRoutes.POST("/:code/reviews", requireAuth, h.CreateReview)
			gameRoutes.PUT("/:code/reviews/:serie", requireAuth, h.UpdateReview)
			gameRoutes.DELETE("/:code/reviews/:serie", requireAuth, h.DeleteReview)
		}

		// Ranking routes
		rankingRoutes := apiV1.Group("/rankings")
		{
			rankingRoutes.GET("", optionalAuth, h.GetRankingCategories)
			rankingRoutes.GET("/categories/:code", optionalAuth, h.GetGlobalRanking)
			rankingRoutes.GET("/categories/:code/events", h.StreamRankingEvents)
			rankingRoutes.GET("/categories/:code/mine", requireAuth, h.GetMyRanking)
			rankingRoutes.PUT("/categories/:code/mine", requireAuth, h.SaveMyRanking)
			rankingRoutes.DELETE("/categories/:code/mine", requireAuth, h.DeleteMyRanking)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(requireAuth)
		{
			userRoutes.GET("/me/rankings", h.GetMyRankings)
		}

		// Admin routes (protected by auth and staff check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(requireAuth, auth.AdminMiddleware())
		{
			categories := adminRoutes.Group("/categories")
			{
				categories.POST("", h.CreateCategory)
				categories.PUT("/:code", h.UpdateCategory)
				categories.DELETE("/:code", h.DeleteCategory)
			}

			games := adminRoutes.Group("/games")
			{
				games.POST("", h.CreateGame)
				games.PUT("/:code", h.UpdateGame)
				games.DELETE("/:code", h.DeleteGame)
			}

			adminUsers := adminRoutes.Group("/users")
			{
				adminUsers.GET("", h.GetUsers)
				adminUsers.DELETE("/:username", h.DeleteUser)
				adminUsers.POST("/:username/toggle-staff", h.ToggleStaff)
				adminUsers.POST("/:username/toggle-role", h.ToggleRole)
			}

			adminRoutes.POST("/import", h.ImportCatalog)
			adminRoutes.POST("/media", h.UploadImage)
		}
	}

	return router
}
