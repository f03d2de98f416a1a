package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DealLensHQ/deallens-api/cache"
	"github.com/DealLensHQ/deallens-api/config"
	"github.com/DealLensHQ/deallens-api/handlers"
	"github.com/DealLensHQ/deallens-api/middleware"
	"github.com/DealLensHQ/deallens-api/routes"
	"github.com/DealLensHQ/deallens-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	aiService := services.NewClaudeAIService()
	if aiService.Available() {
		log.Println("✅ Claude AI configured (dealer simulator + market valuation)")
	} else {
		log.Println("⚠️  ANTHROPIC_API_KEY not set - dealer simulator will use canned replies, market valuation cache-only")
	}

	// Redis is optional; without it quotes are cached in-process.
	var quoteCache cache.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		quoteCache = cache.NewRedisCache(addr)
		log.Printf("✅ Redis quote cache at %s", addr)
	} else {
		quoteCache = cache.NewMemoryCache()
		log.Println("⚠️  REDIS_ADDR not set - using in-memory quote cache")
	}

	marketService := services.NewMarketValueService(db, aiService)
	negotiationService := services.NewNegotiationService(db, aiService)
	go scheduleMaintenance(marketService, negotiationService)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	allowedOrigins := []string{
		frontendURL,
		"https://deallens.app",
		"https://www.deallens.app",
	}

	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowedOrigins {
		log.Printf("   - %s", origin)
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		log.Printf("📨 %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.Next()
		duration := time.Since(start)
		log.Printf("✅ %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	})

	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ws/negotiations/:id", wsHandler.HandleWS)

		routes.SetupDealRoutes(v1, db)
		routes.SetupEvaluationRoutes(v1, db, quoteCache)
		routes.SetupNegotiationRoutes(v1, db, aiService, wsHandler)
		routes.SetupMarketRoutes(v1, db, aiService)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Forced shutdown: %v", err)
	}
	log.Println("✅ Server stopped")
}

// scheduleMaintenance runs the daily sweeps: expired market valuations and
// abandoned negotiation sessions.
func scheduleMaintenance(market *services.MarketValueService, negotiations *services.NegotiationService) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	runMaintenance(market, negotiations)
	for range ticker.C {
		runMaintenance(market, negotiations)
	}
}

func runMaintenance(market *services.MarketValueService, negotiations *services.NegotiationService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := market.CleanExpiredCache(ctx); err != nil {
		log.Printf("❌ Valuation cache cleanup failed: %v", err)
	}
	if err := negotiations.CloseStaleSessions(ctx); err != nil {
		log.Printf("❌ Stale session cleanup failed: %v", err)
	}
}
