package services

import (
	"testing"

	"github.com/DealLensHQ/deallens-api/cache"
	"github.com/DealLensHQ/deallens-api/models"
)

func TestFinancingServiceQuote_NoParams(t *testing.T) {
	svc := NewFinancingService(cache.NewMemoryCache(), DefaultRateTable)

	if got := svc.Quote(25000, nil); got != nil {
		t.Errorf("expected nil quote without params, got %+v", got)
	}
}

func TestFinancingServiceQuote_CacheRoundTrip(t *testing.T) {
	svc := NewFinancingService(cache.NewMemoryCache(), DefaultRateTable)

	params := &models.FinancingParams{
		DownPayment: 5000,
		LoanTerm:    60,
		CreditScore: models.CreditGood,
	}

	first := svc.Quote(25000, params)
	if first == nil {
		t.Fatal("expected a quote")
	}

	// Second call serves from cache and must be identical to the computed one.
	second := svc.Quote(25000, params)
	if second == nil {
		t.Fatal("expected a cached quote")
	}
	if *first != *second {
		t.Errorf("cached quote differs from computed: %+v vs %+v", first, second)
	}
}

func TestFinancingServiceQuote_KeyDistinguishesInputs(t *testing.T) {
	svc := NewFinancingService(cache.NewMemoryCache(), DefaultRateTable)

	good := svc.Quote(25000, &models.FinancingParams{LoanTerm: 60, CreditScore: models.CreditGood})
	poor := svc.Quote(25000, &models.FinancingParams{LoanTerm: 60, CreditScore: models.CreditPoor})

	if good.MonthlyPayment == poor.MonthlyPayment {
		t.Errorf("different credit tiers must not collide in the cache")
	}
}

func TestFinancingServiceQuote_CorruptCacheEntryRecomputes(t *testing.T) {
	c := cache.NewMemoryCache()
	svc := NewFinancingService(c, DefaultRateTable)

	params := &models.FinancingParams{LoanTerm: 60, CreditScore: models.CreditGood}

	if err := c.Set(quoteKey(25000, *params), "{not-json", 0); err != nil {
		t.Fatal(err)
	}

	result := svc.Quote(25000, params)
	if result == nil || result.MonthlyPayment <= 0 {
		t.Errorf("corrupt cache entry must fall back to recompute, got %+v", result)
	}
}
