package services

import (
	"math"

	"github.com/DealLensHQ/deallens-api/models"
)

// ============================================================================
// FINANCING CALCULATOR
// Standard amortized loan math. Payments round to the nearest whole currency
// unit; totals are derived from the rounded payment so
// TotalCost == MonthlyPayment*term + DownPayment holds exactly.
// ============================================================================

// RateTable maps a credit tier to its default annual interest rate (%).
// Passed explicitly so tests can substitute their own table; never mutated.
type RateTable map[models.CreditTier]float64

// DefaultRateTable holds the shipped tier defaults.
var DefaultRateTable = RateTable{
	models.CreditExcellent: 3.9,
	models.CreditGood:      5.9,
	models.CreditFair:      8.9,
	models.CreditPoor:      12.9,
}

// AnnualRate resolves the effective annual rate: an explicit override wins,
// otherwise the tier default. Unknown tiers fall back to the poor-credit
// rate rather than zero-interest.
func AnnualRate(params models.FinancingParams, rates RateTable) float64 {
	if params.InterestRate != nil {
		return *params.InterestRate
	}
	if rate, ok := rates[params.CreditScore]; ok {
		return rate
	}
	return rates[models.CreditPoor]
}

// CalculatePayment computes the amortized monthly payment and derived totals
// for a vehicle price under the given financing params. A nil params means
// financing was not requested and the result is nil, not an error.
//
// Degenerate inputs never fault: non-positive term or principal yields a
// zero payment, and a zero (or numerically vanishing) monthly rate falls
// back to straight division.
func CalculatePayment(vehiclePrice float64, params *models.FinancingParams, rates RateTable) *models.PaymentCalculation {
	if params == nil {
		return nil
	}

	annualRate := AnnualRate(*params, rates)
	principal := vehiclePrice - params.DownPayment
	term := params.LoanTerm
	monthlyRate := annualRate / 100 / 12

	monthly := monthlyPayment(principal, monthlyRate, term)

	totalCost := monthly*float64(term) + params.DownPayment
	totalInterest := totalCost - vehiclePrice

	return &models.PaymentCalculation{
		MonthlyPayment:        monthly,
		TotalCost:             totalCost,
		TotalInterest:         totalInterest,
		EffectiveInterestRate: annualRate,
	}
}

// monthlyPayment applies the amortization formula
// P * r * (1+r)^n / ((1+r)^n - 1), rounded to the nearest whole unit.
func monthlyPayment(principal, monthlyRate float64, term int) float64 {
	if term <= 0 || principal <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		return math.Round(principal / float64(term))
	}

	factor := math.Pow(1+monthlyRate, float64(term))
	denominator := factor - 1
	if denominator == 0 {
		// Extreme rate/term combinations can underflow the denominator.
		return math.Round(principal / float64(term))
	}

	return math.Round(principal * monthlyRate * factor / denominator)
}
