package services

import (
	"testing"
	"time"

	"github.com/DealLensHQ/deallens-api/models"
)

func msg(role string, round int, meta *models.MessageMetadata) models.NegotiationMessage {
	return models.NegotiationMessage{
		Role:        role,
		RoundNumber: round,
		Metadata:    meta,
		CreatedAt:   time.Date(2026, 3, 1, 12, round, 0, 0, time.UTC),
	}
}

func TestLatestNegotiatedPrice_TakesMostRecent(t *testing.T) {
	messages := []models.NegotiationMessage{
		msg("user", 1, &models.MessageMetadata{Price: ptr(24000)}),
		msg("dealer_sim", 2, &models.MessageMetadata{CounterOffer: ptr(25000)}),
	}

	info := LatestNegotiatedPrice(messages)
	if info == nil {
		t.Fatal("expected a price")
	}
	if info.Price != 25000 {
		t.Errorf("price = %.0f, want 25000", info.Price)
	}
	if info.Source != models.PriceSourceDealer {
		t.Errorf("source = %s, want dealer", info.Source)
	}
	if info.Round != 2 {
		t.Errorf("round = %d, want 2", info.Round)
	}
}

func TestLatestNegotiatedPrice_SkipsMessagesWithoutPrice(t *testing.T) {
	messages := []models.NegotiationMessage{
		msg("user", 1, &models.MessageMetadata{SuggestedPrice: ptr(23500)}),
		msg("dealer_sim", 2, nil),
		msg("ai", 2, &models.MessageMetadata{}),
	}

	info := LatestNegotiatedPrice(messages)
	if info == nil {
		t.Fatal("expected the older priced message to win")
	}
	if info.Price != 23500 || info.Source != models.PriceSourceUser {
		t.Errorf("got %+v, want user's 23500", info)
	}
}

func TestLatestNegotiatedPrice_KeyPriorityWithinOneMessage(t *testing.T) {
	// All three keys on one message: suggested_price wins, then
	// counter_offer, then price.
	messages := []models.NegotiationMessage{
		msg("ai", 3, &models.MessageMetadata{
			SuggestedPrice: ptr(22000),
			CounterOffer:   ptr(22500),
			Price:          ptr(23000),
		}),
	}

	info := LatestNegotiatedPrice(messages)
	if info.Price != 22000 {
		t.Errorf("suggested_price must win the tie, got %.0f", info.Price)
	}
}

func TestLatestNegotiatedPrice_RoleAttribution(t *testing.T) {
	cases := []struct {
		role string
		want models.PriceSource
	}{
		{"user", models.PriceSourceUser},
		{"dealer_sim", models.PriceSourceDealer},
		{"ai", models.PriceSourceAI},
		{"coach", models.PriceSourceAI}, // unknown roles fall back to ai
	}

	for _, c := range cases {
		messages := []models.NegotiationMessage{
			msg(c.role, 1, &models.MessageMetadata{Price: ptr(20000)}),
		}
		if info := LatestNegotiatedPrice(messages); info.Source != c.want {
			t.Errorf("role %q attributed to %s, want %s", c.role, info.Source, c.want)
		}
	}
}

func TestLatestNegotiatedPrice_EmptyTranscript(t *testing.T) {
	if info := LatestNegotiatedPrice(nil); info != nil {
		t.Errorf("expected nil for empty transcript, got %+v", info)
	}
}

func TestValidateNegotiatedPrice_NoPrice(t *testing.T) {
	result := ValidateNegotiatedPrice(nil, 25000, nil)
	if result.IsValid {
		t.Errorf("nil price must be invalid")
	}
	if result.Error != "No price available" {
		t.Errorf("reason = %q", result.Error)
	}
}

func TestValidateNegotiatedPrice_NonPositive(t *testing.T) {
	for _, price := range []float64{0, -500} {
		result := ValidateNegotiatedPrice(&price, 25000, nil)
		if result.IsValid {
			t.Errorf("price %.0f must be invalid", price)
		}
	}
}

func TestValidateNegotiatedPrice_AskingCeilingBoundary(t *testing.T) {
	// Ceiling is strictly greater-than: 25000 * 1.10 = 27500 is still valid,
	// one dollar more is not.
	atBound := 27500.0
	if result := ValidateNegotiatedPrice(&atBound, 25000, nil); !result.IsValid {
		t.Errorf("price exactly at asking*1.10 must be valid: %+v", result)
	}

	overBound := 27501.0
	if result := ValidateNegotiatedPrice(&overBound, 25000, nil); result.IsValid {
		t.Errorf("price above asking*1.10 must be invalid")
	}
}

func TestValidateNegotiatedPrice_AboveTargetIsAdvisory(t *testing.T) {
	target := 22000.0
	price := 23000.0
	result := ValidateNegotiatedPrice(&price, 25000, &target)

	if !result.IsValid {
		t.Fatalf("above target but under ceiling must stay valid: %+v", result)
	}
	if result.Error == "" {
		t.Errorf("expected an advisory message quantifying the overage")
	}
}

func TestValidateNegotiatedPrice_FullyValid(t *testing.T) {
	target := 24000.0
	price := 23500.0
	result := ValidateNegotiatedPrice(&price, 25000, &target)

	if !result.IsValid || result.Error != "" {
		t.Errorf("expected clean validity, got %+v", result)
	}
}
