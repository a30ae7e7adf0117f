package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/clay-spfmlp/agile-hub-sub000/internal/config"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/handlers"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/middleware"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/services"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/store"
	"github.com/clay-spfmlp/agile-hub-sub000/internal/ws"

	_ "github.com/clay-spfmlp/agile-hub-sub000/docs"
)

// @title           Planning Poker API
// @version         1.0
// @description     Real-time collaborative story estimation: sessions, hidden voting, simultaneous reveal
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	hub := ws.NewHub()
	sessionStore := store.New(cfg.SessionTTL)

	authService := services.NewAuthService(cfg.JWTSecret)
	statsService := services.NewStatsService()
	sessionService := services.NewSessionService(sessionStore, statsService, hub)

	sessionHandler := handlers.NewSessionHandler(sessionService)
	wsHandler := handlers.NewWSHandler(sessionService, hub)

	// Evicted rooms get a session_expired broadcast before their code stops
	// resolving; there is no persistence fallback.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			if n := sessionService.EvictExpired(); n > 0 {
				log.Printf("store: evicted %d expired sessions", n)
			}
		}
	}()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		{
			sessions.POST("", middleware.JWTAuth(authService), sessionHandler.CreateSession)
			sessions.GET("/:code", sessionHandler.GetSession)
			sessions.POST("/:code/join", sessionHandler.JoinSession)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
