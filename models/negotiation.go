package models

import "time"

// NegotiationSession is one back-and-forth price negotiation for a deal.
type NegotiationSession struct {
	ID          string    `json:"id"`
	DealID      string    `json:"deal_id"`
	AskingPrice float64   `json:"asking_price"`
	TargetPrice *float64  `json:"target_price,omitempty"`
	Status      string    `json:"status"` // "open" or "closed"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MessageMetadata carries any price a message proposes. Within one message
// the extraction priority is SuggestedPrice, then CounterOffer, then Price.
type MessageMetadata struct {
	SuggestedPrice *float64 `json:"suggested_price,omitempty"`
	CounterOffer   *float64 `json:"counter_offer,omitempty"`
	Price          *float64 `json:"price,omitempty"`
}

// NegotiationMessage is one transcript entry. Array order is arrival order;
// no timestamp re-sort is ever performed.
type NegotiationMessage struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	Role        string           `json:"role"` // "user", "dealer_sim", "ai", ...
	RoundNumber int              `json:"round_number"`
	Content     string           `json:"content"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// PriceSource attributes an extracted price. Any role other than user and
// dealer_sim is treated as AI-originated.
type PriceSource string

const (
	PriceSourceUser   PriceSource = "user"
	PriceSourceDealer PriceSource = "dealer"
	PriceSourceAI     PriceSource = "ai"
)

// LatestPriceInfo is the most recent proposed price found in a transcript.
type LatestPriceInfo struct {
	Price     float64     `json:"price"`
	Source    PriceSource `json:"source"`
	Round     int         `json:"round"`
	Timestamp time.Time   `json:"timestamp"`
}

// PriceValidation reports whether a negotiated price passes the guardrails.
// IsValid with a non-empty Error is an advisory, not a rejection; callers
// must branch on the bool, never on message presence.
type PriceValidation struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}

type StartNegotiationRequest struct {
	AskingPrice float64  `json:"asking_price" binding:"required"`
	TargetPrice *float64 `json:"target_price"`
}

type SendMessageRequest struct {
	Content  string           `json:"content" binding:"required"`
	Metadata *MessageMetadata `json:"metadata"`
}
