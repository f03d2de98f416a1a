package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/cache"
	"github.com/DealLensHQ/deallens-api/handlers"
	"github.com/DealLensHQ/deallens-api/middleware"
	"github.com/DealLensHQ/deallens-api/services"
)

// SetupDealRoutes sets up deal CRUD, the working blob, pipeline movement,
// and stage assessments.
func SetupDealRoutes(rg *gin.RouterGroup, db *sql.DB) {
	dealService := services.NewDealService(db)

	h := handlers.NewDealHandler(dealService)

	// Deal routes
	rg.GET("/deals", h.GetDeals)
	rg.POST("/deals", h.CreateDeal)
	rg.GET("/deals/:id", h.GetDeal)
	rg.DELETE("/deals/:id", h.DeleteDeal)

	// Deal data routes (encrypted working blob)
	rg.GET("/deals/:id/data", h.GetDealData)
	rg.PUT("/deals/:id/data", h.UpdateDealData)

	// Pipeline + final-report checklist
	rg.POST("/deals/:id/advance", h.AdvanceStep)
	rg.POST("/deals/:id/actions/toggle", h.ToggleReportAction)

	// Stage assessments pushed in by the evaluation producer
	rg.PUT("/deals/:id/assessments/:step", h.PutAssessment)
	rg.GET("/deals/:id/assessments/:step", h.GetAssessment)
}

// SetupEvaluationRoutes sets up the stateless evaluation endpoints and the
// assembled deal report.
func SetupEvaluationRoutes(rg *gin.RouterGroup, db *sql.DB, c cache.Cache) {
	dealService := services.NewDealService(db)
	financingService := services.NewFinancingService(c, services.DefaultRateTable)

	h := handlers.NewEvaluationHandler(dealService, financingService)

	rg.GET("/pipeline/steps", h.GetPipelineSteps)
	rg.POST("/evaluate/scores", h.EvaluateScores)
	rg.POST("/evaluate/financing", h.EvaluateFinancing)
	rg.POST("/evaluate/affordability", h.EvaluateAffordability)

	rg.GET("/deals/:id/report", h.GetDealReport)
}

// SetupNegotiationRoutes sets up negotiation sessions and the dealer
// simulator. Message sends go through the tighter AI rate limit.
func SetupNegotiationRoutes(rg *gin.RouterGroup, db *sql.DB, ai *services.ClaudeAIService, ws *handlers.WSHandler) {
	negotiationService := services.NewNegotiationService(db, ai)
	dealService := services.NewDealService(db)

	h := handlers.NewNegotiationHandler(negotiationService, dealService, ws)

	rg.POST("/deals/:id/negotiations", h.StartSession)
	rg.GET("/negotiations/:id", h.GetSession)
	rg.POST("/negotiations/:id/messages", middleware.AIRateLimiter(), h.SendMessage)
	rg.GET("/negotiations/:id/price", h.GetLatestPrice)
	rg.POST("/negotiations/:id/close", h.CloseSession)
}

// SetupMarketRoutes sets up the fair-market-value lookup.
func SetupMarketRoutes(rg *gin.RouterGroup, db *sql.DB, ai *services.ClaudeAIService) {
	marketService := services.NewMarketValueService(db, ai)

	h := handlers.NewMarketHandler(marketService)

	rg.POST("/market/value", middleware.AIRateLimiter(), h.GetMarketValue)
}
