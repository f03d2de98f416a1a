package services

import (
	"fmt"

	"github.com/DealLensHQ/deallens-api/models"
)

// ============================================================================
// NEGOTIATION PRICE TRACKING
// Finds the running negotiated price in a transcript and validates it
// against the asking-price guardrails.
// ============================================================================

// AskingPriceCeiling is the hard validity bound: a negotiated price more
// than 10% above asking is rejected.
const AskingPriceCeiling = 1.10

// priceSourceForRole maps a message role to its price attribution. Unknown
// roles attribute to AI: every non-user, non-dealer participant is some form
// of assistant.
func priceSourceForRole(role string) models.PriceSource {
	switch role {
	case "user":
		return models.PriceSourceUser
	case "dealer_sim":
		return models.PriceSourceDealer
	default:
		return models.PriceSourceAI
	}
}

// messagePrice returns the first present price on a message, honoring the
// key priority suggested_price > counter_offer > price. Priority order
// disambiguates when several keys coexist on one message.
func messagePrice(meta *models.MessageMetadata) *float64 {
	if meta == nil {
		return nil
	}
	if meta.SuggestedPrice != nil {
		return meta.SuggestedPrice
	}
	if meta.CounterOffer != nil {
		return meta.CounterOffer
	}
	return meta.Price
}

// LatestNegotiatedPrice scans the transcript from most recent to oldest and
// returns the first price it finds, or nil when the transcript is empty or
// carries no price. Array order is trusted as arrival order.
func LatestNegotiatedPrice(messages []models.NegotiationMessage) *models.LatestPriceInfo {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		price := messagePrice(msg.Metadata)
		if price == nil {
			continue
		}
		return &models.LatestPriceInfo{
			Price:     *price,
			Source:    priceSourceForRole(msg.Role),
			Round:     msg.RoundNumber,
			Timestamp: msg.CreatedAt,
		}
	}
	return nil
}

// ValidateNegotiatedPrice applies the guardrails. A price above the target
// but within the asking ceiling stays valid and returns an advisory message;
// callers distinguish advisory from rejection by IsValid, not by Error
// presence.
func ValidateNegotiatedPrice(negotiatedPrice *float64, askingPrice float64, targetPrice *float64) models.PriceValidation {
	if negotiatedPrice == nil {
		return models.PriceValidation{IsValid: false, Error: "No price available"}
	}

	price := *negotiatedPrice

	if price <= 0 {
		return models.PriceValidation{IsValid: false, Error: "Price must be greater than zero"}
	}

	if price > askingPrice*AskingPriceCeiling {
		return models.PriceValidation{IsValid: false, Error: "Price is significantly higher than asking price"}
	}

	if targetPrice != nil && price > *targetPrice {
		return models.PriceValidation{
			IsValid: true,
			Error:   fmt.Sprintf("Price is $%.0f above your target of $%.0f", price-*targetPrice, *targetPrice),
		}
	}

	return models.PriceValidation{IsValid: true}
}
