package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"gamerank/backend/internal/bootstrap"
	"gamerank/backend/internal/config"
	"gamerank/backend/internal/handler"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "gamerank/backend/docs" // registers the OpenAPI document for /swagger
)

// @title           Gamerank API
// @version         1.0
// @description     Game catalog with reviews and community tier-list rankings.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect to the database
	s, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.DatabaseDriver, err)
	}
	defer s.Close(context.Background())

	if err := bootstrap.EnsureAdmin(ctx, s.Users(), cfg); err != nil {
		log.Fatalf("Failed to seed administrator: %v", err)
	}

	uploader, err := bootstrap.NewMedia(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}

	router := handler.NewRouter(handler.New(s, cfg, uploader))

	fmt.Printf("Server is running on %s\n", cfg.HTTPAddr)
	fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
