package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/models"
	"github.com/DealLensHQ/deallens-api/services"
	"github.com/DealLensHQ/deallens-api/utils"
)

// EvaluationHandler exposes the pure deal-evaluation engine. Everything
// here recomputes from the request (or the stored deal) on every call;
// nothing is stateful.
type EvaluationHandler struct {
	Deals     *services.DealService
	Financing *services.FinancingService
}

func NewEvaluationHandler(deals *services.DealService, financing *services.FinancingService) *EvaluationHandler {
	return &EvaluationHandler{Deals: deals, Financing: financing}
}

// GetPipelineSteps projects a current step + completed list onto the fixed
// pipeline for the stepper display
func (h *EvaluationHandler) GetPipelineSteps(c *gin.Context) {
	current := services.PipelineStep(c.Query("current"))
	if services.StepIndex(current) == services.StepNotFound {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pipeline step"})
		return
	}

	var completed []services.PipelineStep
	for _, s := range c.QueryArray("completed") {
		completed = append(completed, services.PipelineStep(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"current_index": services.StepIndex(current),
		"steps":         services.ProjectSteps(current, completed),
	})
}

type evaluateScoresRequest struct {
	models.ScoreSummary
	NextSteps []string `json:"next_steps"`
}

// EvaluateScores aggregates up to four dimension scores into the overall
// verdict
func (h *EvaluationHandler) EvaluateScores(c *gin.Context) {
	var req evaluateScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := services.AggregateScores(req.ScoreSummary, req.NextSteps)
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"assessment": nil})
		return
	}

	c.JSON(http.StatusOK, result)
}

type evaluateFinancingRequest struct {
	VehiclePrice float64                 `json:"vehicle_price" binding:"required"`
	Financing    *models.FinancingParams `json:"financing"`
}

// EvaluateFinancing computes the amortized payment for a price + optional
// params. No params means no calculation, which is a normal answer, not an
// error.
func (h *EvaluationHandler) EvaluateFinancing(c *gin.Context) {
	var req evaluateFinancingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.Financing.Quote(req.VehiclePrice, req.Financing)
	c.JSON(http.StatusOK, gin.H{"payment": result})
}

type evaluateAffordabilityRequest struct {
	VehiclePrice   float64  `json:"vehicle_price" binding:"required"`
	MonthlyPayment *float64 `json:"monthly_payment"`
	BudgetMax      *float64 `json:"budget_max"`
	MonthlyBudget  *float64 `json:"monthly_budget"`
}

// EvaluateAffordability compares a price/payment against the optional
// ceilings
func (h *EvaluationHandler) EvaluateAffordability(c *gin.Context) {
	var req evaluateAffordabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := services.EvaluateAffordability(req.VehiclePrice, req.MonthlyPayment, models.BudgetParams{
		BudgetMax:     req.BudgetMax,
		MonthlyBudget: req.MonthlyBudget,
	})

	c.JSON(http.StatusOK, report)
}

// dealReportBlob is the slice of the working blob the report needs.
type dealReportBlob struct {
	CompletedActions []int                   `json:"completed_actions"`
	Financing        *models.FinancingParams `json:"financing,omitempty"`
	Budget           *models.BudgetParams    `json:"budget,omitempty"`
}

// GetDealReport assembles the full final-report payload for a deal: score
// aggregation over the stored stage assessments, the financing quote, and
// affordability against the saved ceilings.
func (h *EvaluationHandler) GetDealReport(c *gin.Context) {
	ctx := c.Request.Context()
	dealID := c.Param("id")

	deal, err := h.Deals.GetByID(ctx, dealID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deal"})
		return
	}

	assessments, err := h.Deals.GetAssessments(ctx, dealID)
	if err != nil {
		utils.SafeError("Failed to fetch assessments for %s: %v", utils.MaskID(dealID), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessments"})
		return
	}

	summary := models.ScoreSummary{}
	var nextSteps []string
	if a, ok := assessments[string(services.StepVehicleCondition)]; ok {
		score := a.Score
		summary.ConditionScore = &score
	}
	if a, ok := assessments[string(services.StepPrice)]; ok {
		score := a.Score
		summary.PriceScore = &score
	}
	if a, ok := assessments[string(services.StepFinancing)]; ok {
		score := a.Score
		summary.FinancingScore = &score
	}
	if a, ok := assessments[string(services.StepRisk)]; ok {
		score := a.Score
		summary.RiskScore = &score
		nextSteps = append(nextSteps, a.NextSteps...)
	}

	overall := services.AggregateScores(summary, nextSteps)

	var blob dealReportBlob
	if raw, err := h.Deals.GetData(ctx, dealID); err == nil {
		// A malformed blob only costs the report its financing/budget
		// sections.
		if err := json.Unmarshal(raw, &blob); err != nil {
			utils.SafeWarn("Malformed deal data blob for %s: %v", utils.MaskID(dealID), err)
		}
	}

	payment := h.Financing.Quote(deal.AskingPrice, blob.Financing)

	var monthly *float64
	if payment != nil {
		monthly = &payment.MonthlyPayment
	}
	budget := models.BudgetParams{}
	if blob.Budget != nil {
		budget = *blob.Budget
	}
	affordability := services.EvaluateAffordability(deal.AskingPrice, monthly, budget)

	c.JSON(http.StatusOK, gin.H{
		"deal":              deal,
		"overall":           overall,
		"payment":           payment,
		"affordability":     affordability,
		"completed_actions": blob.CompletedActions,
		"steps": services.ProjectSteps(
			services.PipelineStep(deal.CurrentStep),
			toPipelineSteps(deal.CompletedSteps),
		),
	})
}

func toPipelineSteps(steps []string) []services.PipelineStep {
	out := make([]services.PipelineStep, len(steps))
	for i, s := range steps {
		out[i] = services.PipelineStep(s)
	}
	return out
}
