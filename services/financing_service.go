package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/DealLensHQ/deallens-api/cache"
	"github.com/DealLensHQ/deallens-api/models"
)

// quoteCacheTTL bounds staleness of cached quotes; the math is pure, so a
// hit and a recompute are always identical and the cache is purely a
// shortcut.
const quoteCacheTTL = 24 * time.Hour

// FinancingService fronts the pure payment calculator with a best-effort
// cache keyed by the full input.
type FinancingService struct {
	cache cache.Cache
	rates RateTable
}

func NewFinancingService(c cache.Cache, rates RateTable) *FinancingService {
	return &FinancingService{cache: c, rates: rates}
}

// Quote computes (or recalls) the payment calculation for a price and
// optional params. A nil params short-circuits to nil: financing is
// optional context, not required.
func (s *FinancingService) Quote(vehiclePrice float64, params *models.FinancingParams) *models.PaymentCalculation {
	if params == nil {
		return nil
	}

	key := quoteKey(vehiclePrice, *params)

	if cached, ok := s.cache.Get(key); ok {
		var result models.PaymentCalculation
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return &result
		}
		// Corrupt entry: fall through and recompute.
	}

	result := CalculatePayment(vehiclePrice, params, s.rates)
	if result == nil {
		return nil
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(key, string(payload), quoteCacheTTL); err != nil {
			log.Printf("[Financing] ⚠️  Failed to cache quote: %v", err)
		}
	}

	return result
}

func quoteKey(vehiclePrice float64, params models.FinancingParams) string {
	rate := "tier"
	if params.InterestRate != nil {
		rate = fmt.Sprintf("%.4f", *params.InterestRate)
	}
	return fmt.Sprintf("quote:%.2f:%.2f:%d:%s:%s",
		vehiclePrice, params.DownPayment, params.LoanTerm, params.CreditScore, rate)
}
