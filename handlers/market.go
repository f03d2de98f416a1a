package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/services"
	"github.com/DealLensHQ/deallens-api/utils"
)

type MarketHandler struct {
	Market *services.MarketValueService
}

func NewMarketHandler(market *services.MarketValueService) *MarketHandler {
	return &MarketHandler{Market: market}
}

type marketValueRequest struct {
	Make        string  `json:"make" binding:"required"`
	Model       string  `json:"model" binding:"required"`
	Year        int     `json:"year" binding:"required"`
	Region      string  `json:"region"`
	AskingPrice float64 `json:"asking_price" binding:"required"`
}

// GetMarketValue resolves the fair-market-value reference for a vehicle.
// Served from the valuation cache when fresh; otherwise one AI call.
func (h *MarketHandler) GetMarketValue(c *gin.Context) {
	var req marketValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Year < 1950 || req.Year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year out of range"})
		return
	}

	valuation, err := h.Market.Valuate(c.Request.Context(), req.Make, req.Model, req.Year, req.Region, req.AskingPrice)
	if err != nil {
		utils.SafeError("Market valuation failed for %d %s %s: %v", req.Year, req.Make, req.Model, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Market valuation unavailable"})
		return
	}

	c.JSON(http.StatusOK, valuation)
}
