package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/models"
	"github.com/DealLensHQ/deallens-api/services"
	"github.com/DealLensHQ/deallens-api/utils"
)

type DealHandler struct {
	Deals *services.DealService
}

func NewDealHandler(deals *services.DealService) *DealHandler {
	return &DealHandler{Deals: deals}
}

// CreateDeal creates a new deal
func (h *DealHandler) CreateDeal(c *gin.Context) {
	var req models.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AskingPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asking_price must be greater than zero"})
		return
	}

	deal, err := h.Deals.Create(c.Request.Context(), req)
	if err != nil {
		utils.SafeError("Failed to create deal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create deal"})
		return
	}

	c.JSON(http.StatusCreated, deal)
}

// GetDeals returns all deals, newest first
func (h *DealHandler) GetDeals(c *gin.Context) {
	deals, err := h.Deals.List(c.Request.Context())
	if err != nil {
		utils.SafeError("Failed to fetch deals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deals"})
		return
	}

	c.JSON(http.StatusOK, deals)
}

// GetDeal returns a single deal by ID
func (h *DealHandler) GetDeal(c *gin.Context) {
	deal, err := h.Deals.GetByID(c.Request.Context(), c.Param("id"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deal"})
		return
	}

	c.JSON(http.StatusOK, deal)
}

// DeleteDeal deletes a deal and everything attached to it
func (h *DealHandler) DeleteDeal(c *gin.Context) {
	if err := h.Deals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.SafeError("Failed to delete deal %s: %v", utils.MaskID(c.Param("id")), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete deal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted"})
}

// GetDealData returns the decrypted working blob
func (h *DealHandler) GetDealData(c *gin.Context) {
	data, err := h.Deals.GetData(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SafeError("Failed to fetch deal data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deal data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

// UpdateDealData replaces the working blob (stored encrypted)
func (h *DealHandler) UpdateDealData(c *gin.Context) {
	var req models.UpdateDealDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Deals.UpdateData(c.Request.Context(), c.Param("id"), req.Data); err != nil {
		utils.SafeError("Failed to update deal data: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update deal data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal data updated"})
}

type advanceStepRequest struct {
	Step string `json:"step" binding:"required"`
}

// AdvanceStep marks the current step completed and moves the deal to the
// requested step
func (h *DealHandler) AdvanceStep(c *gin.Context) {
	var req advanceStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Deals.AdvanceStep(c.Request.Context(), c.Param("id"), services.PipelineStep(req.Step))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Step advanced", "current_step": req.Step})
}

type toggleActionRequest struct {
	ActionIndex *int `json:"action_index" binding:"required"`
}

// ToggleReportAction flips one entry of the final-report checklist
func (h *DealHandler) ToggleReportAction(c *gin.Context) {
	var req toggleActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	completed, err := h.Deals.ToggleReportAction(c.Request.Context(), c.Param("id"), *req.ActionIndex)
	if err != nil {
		utils.SafeError("Failed to toggle report action: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"completed_actions": completed})
}

// PutAssessment stores the external evaluation service's output for a step
func (h *DealHandler) PutAssessment(c *gin.Context) {
	var assessment models.StageAssessment
	if err := c.ShouldBindJSON(&assessment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assessment.DealID = c.Param("id")
	assessment.Step = c.Param("step")

	if err := h.Deals.PutAssessment(c.Request.Context(), assessment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assessment stored"})
}

// GetAssessment serves the stored assessment for one step
func (h *DealHandler) GetAssessment(c *gin.Context) {
	assessment, err := h.Deals.GetAssessment(c.Request.Context(), c.Param("id"), c.Param("step"))
	if err == sql.ErrNoRows {
		// Missing assessment is a normal branch, not a server fault.
		c.JSON(http.StatusNotFound, gin.H{"error": "No assessment for this step yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessment"})
		return
	}

	c.JSON(http.StatusOK, assessment)
}
