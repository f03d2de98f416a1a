package services

import (
	"math"
	"testing"

	"github.com/DealLensHQ/deallens-api/models"
)

func TestCalculatePayment_NoParams(t *testing.T) {
	if got := CalculatePayment(25000, nil, DefaultRateTable); got != nil {
		t.Errorf("expected nil when no financing params are supplied, got %+v", got)
	}
}

func TestCalculatePayment_ObservedFixture(t *testing.T) {
	// price=25000, down=5000, term=60, good credit (5.9%)
	params := &models.FinancingParams{
		DownPayment: 5000,
		LoanTerm:    60,
		CreditScore: models.CreditGood,
	}

	result := CalculatePayment(25000, params, DefaultRateTable)
	if result == nil {
		t.Fatal("expected a calculation")
	}

	if result.MonthlyPayment <= 0 {
		t.Errorf("expected monthly payment > 0, got %.2f", result.MonthlyPayment)
	}
	if result.TotalCost <= 25000 {
		t.Errorf("expected total cost > vehicle price, got %.2f", result.TotalCost)
	}
	if result.TotalInterest <= 0 {
		t.Errorf("expected total interest > 0, got %.2f", result.TotalInterest)
	}

	// The invariant holds exactly because totals derive from the rounded
	// payment.
	want := result.MonthlyPayment*60 + 5000
	if result.TotalCost != want {
		t.Errorf("total cost invariant broken: %.2f != %.2f", result.TotalCost, want)
	}
	if result.TotalInterest != result.TotalCost-25000 {
		t.Errorf("total interest invariant broken")
	}
	if result.EffectiveInterestRate != 5.9 {
		t.Errorf("expected good-tier rate 5.9, got %.2f", result.EffectiveInterestRate)
	}
}

func TestCalculatePayment_ZeroRate(t *testing.T) {
	zero := 0.0
	params := &models.FinancingParams{
		LoanTerm:     12,
		CreditScore:  models.CreditExcellent,
		InterestRate: &zero,
	}

	result := CalculatePayment(1200, params, DefaultRateTable)
	if result == nil {
		t.Fatal("expected a calculation")
	}
	if result.MonthlyPayment != math.Round(1200.0/12) {
		t.Errorf("zero-rate payment = %.2f, want %.2f", result.MonthlyPayment, math.Round(1200.0/12))
	}
	if result.TotalInterest != 0 {
		t.Errorf("zero-rate loan should carry no interest, got %.2f", result.TotalInterest)
	}
}

func TestCalculatePayment_RateOverride(t *testing.T) {
	override := 2.5
	params := &models.FinancingParams{
		LoanTerm:     36,
		CreditScore:  models.CreditPoor,
		InterestRate: &override,
	}

	result := CalculatePayment(18000, params, DefaultRateTable)
	if result.EffectiveInterestRate != 2.5 {
		t.Errorf("explicit rate must override the tier default, got %.2f", result.EffectiveInterestRate)
	}
}

func TestCalculatePayment_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name   string
		price  float64
		params models.FinancingParams
	}{
		{"zero term", 20000, models.FinancingParams{LoanTerm: 0, CreditScore: models.CreditGood}},
		{"negative term", 20000, models.FinancingParams{LoanTerm: -6, CreditScore: models.CreditGood}},
		{"down payment covers price", 20000, models.FinancingParams{DownPayment: 20000, LoanTerm: 48, CreditScore: models.CreditGood}},
		{"down payment exceeds price", 20000, models.FinancingParams{DownPayment: 25000, LoanTerm: 48, CreditScore: models.CreditGood}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := CalculatePayment(c.price, &c.params, DefaultRateTable)
			if result == nil {
				t.Fatal("degenerate input must still return a calculation")
			}
			if result.MonthlyPayment != 0 {
				t.Errorf("expected zero payment, got %.2f", result.MonthlyPayment)
			}
		})
	}
}

// Worse credit never pays less per month.
func TestCalculatePayment_MonotonicAcrossTiers(t *testing.T) {
	tiers := []models.CreditTier{
		models.CreditExcellent,
		models.CreditGood,
		models.CreditFair,
		models.CreditPoor,
	}

	var previous float64
	for i, tier := range tiers {
		params := &models.FinancingParams{LoanTerm: 60, CreditScore: tier}
		result := CalculatePayment(30000, params, DefaultRateTable)
		if i > 0 && result.MonthlyPayment < previous {
			t.Errorf("payment for %s (%.2f) below better tier (%.2f)", tier, result.MonthlyPayment, previous)
		}
		previous = result.MonthlyPayment
	}
}

func TestCalculatePayment_SubstituteRateTable(t *testing.T) {
	table := RateTable{
		models.CreditExcellent: 0,
		models.CreditGood:      0,
		models.CreditFair:      0,
		models.CreditPoor:      0,
	}

	params := &models.FinancingParams{LoanTerm: 10, CreditScore: models.CreditGood}
	result := CalculatePayment(1000, params, table)
	if result.MonthlyPayment != 100 {
		t.Errorf("substituted table not honored: payment = %.2f", result.MonthlyPayment)
	}

	// The default table must be untouched by any calculation.
	if DefaultRateTable[models.CreditGood] != 5.9 {
		t.Errorf("default rate table was mutated")
	}
}
