package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/models"
	"github.com/DealLensHQ/deallens-api/services"
	"github.com/DealLensHQ/deallens-api/utils"
)

type NegotiationHandler struct {
	Negotiations *services.NegotiationService
	Deals        *services.DealService
	WS           *WSHandler
}

func NewNegotiationHandler(negotiations *services.NegotiationService, deals *services.DealService, ws *WSHandler) *NegotiationHandler {
	return &NegotiationHandler{Negotiations: negotiations, Deals: deals, WS: ws}
}

// StartSession opens a negotiation for a deal. The asking price comes from
// the stored deal, not from the caller; the request only sets the target.
func (h *NegotiationHandler) StartSession(c *gin.Context) {
	ctx := c.Request.Context()
	dealID := c.Param("id")

	var req models.StartNegotiationRequest
	// The body is optional: an empty start means negotiate at the deal's
	// asking price with no target.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	deal, err := h.Deals.GetByID(ctx, dealID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deal"})
		return
	}

	askingPrice := deal.AskingPrice
	if req.AskingPrice > 0 {
		askingPrice = req.AskingPrice
	}

	session, err := h.Negotiations.StartSession(ctx, dealID, askingPrice, req.TargetPrice)
	if err != nil {
		utils.SafeError("Failed to start negotiation for %s: %v", utils.MaskID(dealID), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start negotiation"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns one session with its transcript.
func (h *NegotiationHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.Negotiations.GetSession(ctx, c.Param("id"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	transcript, err := h.Negotiations.Transcript(ctx, session.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transcript"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "messages": transcript})
}

// SendMessage appends the user's turn, gets the simulated dealer's reply,
// and pushes both (plus any new latest price) to websocket watchers.
func (h *NegotiationHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Negotiations.GetSession(ctx, c.Param("id"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	messages, err := h.Negotiations.SendUserMessage(ctx, session, req)
	if err != nil {
		if session.Status != "open" {
			c.JSON(http.StatusConflict, gin.H{"error": "Negotiation session is closed"})
			return
		}
		utils.SafeError("Failed to send message in session %s: %v", utils.MaskID(session.ID), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	for _, msg := range messages {
		h.WS.BroadcastMessage(session.ID, msg.Role, msg.RoundNumber)
	}
	if info := services.LatestNegotiatedPrice(messages); info != nil {
		h.WS.BroadcastPriceUpdate(session.ID, info)
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetLatestPrice returns the engine's view of the current offer on the
// table, with validation against the session's guardrails.
func (h *NegotiationHandler) GetLatestPrice(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.Negotiations.GetSession(ctx, c.Param("id"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch session"})
		return
	}

	info, validation, err := h.Negotiations.ValidateLatestPrice(ctx, session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract price"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"latest_price": info, "validation": validation})
}

// CloseSession ends the negotiation.
func (h *NegotiationHandler) CloseSession(c *gin.Context) {
	err := h.Negotiations.CloseSession(c.Request.Context(), c.Param("id"))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close session"})
		return
	}

	h.WS.BroadcastEvent(c.Param("id"), wsEvent{Type: "session_closed"})
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}
