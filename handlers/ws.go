package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// WSHandler pushes live negotiation events (new messages, price updates) to
// every dashboard tab watching a session.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024

	// Keep-Alive Configuration (Critical for cloud hosting)
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		sessionID, _ := s.Get("session_id")
		log.Printf("✅ Client connected to negotiation: %v", sessionID)
	})

	m.HandleDisconnect(func(s *melody.Session) {
		sessionID, _ := s.Get("session_id")
		log.Printf("🔌 Client disconnected from negotiation: %v", sessionID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket Error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades the request and tags the connection with its session so
// broadcasts can be filtered per negotiation.
func (h *WSHandler) HandleWS(c *gin.Context) {
	sessionID := c.Param("id")

	err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"session_id": sessionID,
	})
	if err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// wsEvent is the envelope every broadcast uses.
type wsEvent struct {
	Type  string      `json:"type"`
	Role  string      `json:"role,omitempty"`
	Round int         `json:"round,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// BroadcastEvent sends an event to every client watching sessionID.
func (h *WSHandler) BroadcastEvent(sessionID string, event wsEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to marshal ws event: %v", err)
		return
	}

	err = h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get("session_id")
		return exists && id == sessionID
	})

	if err != nil {
		log.Printf("⚠️ Error broadcasting to negotiation %s: %v", sessionID, err)
	}
}

// BroadcastMessage announces a new transcript entry.
func (h *WSHandler) BroadcastMessage(sessionID, role string, round int) {
	h.BroadcastEvent(sessionID, wsEvent{Type: "message", Role: role, Round: round})
}

// BroadcastPriceUpdate announces a newly extracted latest price.
func (h *WSHandler) BroadcastPriceUpdate(sessionID string, price interface{}) {
	h.BroadcastEvent(sessionID, wsEvent{Type: "price_update", Data: price})
}
