package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/DealLensHQ/deallens-api/models"

	"github.com/google/uuid"
)

// ============================================================================
// MARKET VALUE SERVICE
// Resolves a fair-market-value reference for a make/model/year. Valuations
// are expensive (one AI call each), so they are cached in Postgres with a
// 30-day expiry and swept by the scheduled cleanup.
// ============================================================================

const valuationTTL = 30 * 24 * time.Hour

type MarketValueService struct {
	DB        *sql.DB
	AIService *ClaudeAIService
}

func NewMarketValueService(db *sql.DB, aiService *ClaudeAIService) *MarketValueService {
	return &MarketValueService{
		DB:        db,
		AIService: aiService,
	}
}

// Valuate returns the fair-market-value reference for a vehicle, preferring
// the cache. PotentialSavings is always recomputed against the caller's
// asking price, even on a cache hit.
func (s *MarketValueService) Valuate(ctx context.Context, vehicleMake, vehicleModel string, year int, region string, askingPrice float64) (*models.MarketValuation, error) {
	vehicleMake = strings.TrimSpace(vehicleMake)
	vehicleModel = strings.TrimSpace(vehicleModel)
	if region == "" {
		region = "US"
	}

	log.Printf("[MarketValue] Valuating: %d %s %s, region=%s, asking=$%.0f",
		year, vehicleMake, vehicleModel, region, askingPrice)

	cached, err := s.getCachedValuation(ctx, vehicleMake, vehicleModel, year, region)
	if err == nil && cached != nil {
		log.Printf("[MarketValue] ✅ Cache HIT")
		s.recalculateSavings(cached, askingPrice)
		return cached, nil
	}

	if !s.AIService.Available() {
		return nil, fmt.Errorf("no cached valuation and AI service not configured")
	}

	log.Printf("[MarketValue] ⚠️  Cache MISS - Calling Claude AI...")

	valuation, err := s.searchMarket(ctx, vehicleMake, vehicleModel, year, region)
	if err != nil {
		return nil, fmt.Errorf("failed to search market: %w", err)
	}

	valuation.Make = vehicleMake
	valuation.Model = vehicleModel
	valuation.Year = year
	valuation.Region = region
	valuation.LastUpdated = time.Now()
	valuation.ExpiresAt = time.Now().Add(valuationTTL)

	if err := s.saveValuationToCache(ctx, valuation); err != nil {
		log.Printf("[MarketValue] ⚠️  Failed to save to cache: %v", err)
	}

	s.recalculateSavings(valuation, askingPrice)
	return valuation, nil
}

// recalculateSavings derives the asking-price overage from the cached fair
// value. A below-market asking price reports zero savings, not negative.
func (s *MarketValueService) recalculateSavings(valuation *models.MarketValuation, askingPrice float64) {
	savings := askingPrice - valuation.FairMarketValue
	if savings < 0 {
		savings = 0
	}
	valuation.PotentialSavings = savings
}

// CleanExpiredCache removes valuations past their expiry.
func (s *MarketValueService) CleanExpiredCache(ctx context.Context) error {
	query := `DELETE FROM market_valuations WHERE expires_at < NOW()`

	result, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to clean cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	log.Printf("[MarketValue] 🧹 Cleaned %d expired valuations", rows)

	return nil
}

func (s *MarketValueService) searchMarket(ctx context.Context, vehicleMake, vehicleModel string, year int, region string) (*models.MarketValuation, error) {
	prompt := buildValuationPrompt(vehicleMake, vehicleModel, year, region)

	response, err := s.AIService.CallClaude(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("AI call failed: %w", err)
	}

	valuation, err := parseValuationFromResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return valuation, nil
}

func buildValuationPrompt(vehicleMake, vehicleModel string, year int, region string) string {
	return fmt.Sprintf(`You are a used-vehicle market analyst for the %s market.

VEHICLE:
- %d %s %s

Your mission: estimate the current fair market value and find 3-5 REALISTIC comparable listings.

STRICT RULES:
1. Prices must reflect REAL current used-market conditions for this exact year/make/model
2. fair_market_value is the typical private-party transaction price, not the dealer sticker
3. price_range_low / price_range_high bound the realistic negotiation window
4. Comparables should vary in mileage and price the way real listings do
5. Be honest: if the model year is too new or too obscure to price confidently, widen the range

Respond ONLY with valid JSON (no markdown, no backticks), format EXACT:
{
  "fair_market_value": 23500,
  "price_range_low": 21800,
  "price_range_high": 25200,
  "comparables": [
    {
      "source": "Listing site or dealer type",
      "price": 23900,
      "mileage": 42000,
      "distance": "12 mi",
      "listing_note": "One owner, clean history"
    }
  ]
}`,
		region,
		year, vehicleMake, vehicleModel,
	)
}

func parseValuationFromResponse(content string) (*models.MarketValuation, error) {
	content = StripCodeFences(content)

	var valuation models.MarketValuation
	if err := json.Unmarshal([]byte(content), &valuation); err != nil {
		log.Printf("[Parser] ❌ JSON parse error: %v | Content: %s", err, content)
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if valuation.FairMarketValue <= 0 {
		return nil, fmt.Errorf("valuation missing fair_market_value")
	}
	if valuation.Comparables == nil {
		valuation.Comparables = []models.ComparableListing{}
	}

	return &valuation, nil
}

func (s *MarketValueService) getCachedValuation(ctx context.Context, vehicleMake, vehicleModel string, year int, region string) (*models.MarketValuation, error) {
	query := `SELECT id, valuation, last_updated, expires_at
			  FROM market_valuations
			  WHERE make=$1 AND model=$2 AND year=$3 AND region=$4 AND expires_at > $5
			  ORDER BY last_updated DESC LIMIT 1`

	var id string
	var payload []byte
	var lastUpdated, expiresAt time.Time

	err := s.DB.QueryRowContext(ctx, query, vehicleMake, vehicleModel, year, region, time.Now()).Scan(
		&id, &payload, &lastUpdated, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	var valuation models.MarketValuation
	if err := json.Unmarshal(payload, &valuation); err != nil {
		return nil, err
	}

	valuation.ID = id
	valuation.LastUpdated = lastUpdated
	valuation.ExpiresAt = expiresAt
	return &valuation, nil
}

func (s *MarketValueService) saveValuationToCache(ctx context.Context, valuation *models.MarketValuation) error {
	payload, err := json.Marshal(valuation)
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO market_valuations (id, make, model, year, region, valuation, last_updated, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		uuid.New().String(), valuation.Make, valuation.Model, valuation.Year, valuation.Region,
		payload, valuation.LastUpdated, valuation.ExpiresAt,
	)

	return err
}
