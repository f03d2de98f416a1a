package services

import "github.com/DealLensHQ/deallens-api/models"

// ============================================================================
// AFFORDABILITY
// Compares a price (and optionally a monthly payment) against the user's
// ceilings. A missing ceiling means unconstrained, never unaffordable.
// ============================================================================

// EvaluateAffordability builds the affordability report for a vehicle price,
// optional monthly payment, and optional budget ceilings.
func EvaluateAffordability(vehiclePrice float64, monthlyPayment *float64, budget models.BudgetParams) models.AffordabilityReport {
	report := models.AffordabilityReport{
		IsAffordable:      true,
		MonthlyAffordable: true,
	}

	if budget.BudgetMax != nil {
		report.IsAffordable = vehiclePrice <= *budget.BudgetMax
		if over := vehiclePrice - *budget.BudgetMax; over > 0 {
			report.OverBudgetAmount = over
		}
	}

	// Nothing to check unless both a monthly ceiling and a payment exist.
	if budget.MonthlyBudget != nil && monthlyPayment != nil {
		report.MonthlyAffordable = *monthlyPayment <= *budget.MonthlyBudget
		if over := *monthlyPayment - *budget.MonthlyBudget; over > 0 {
			report.OverMonthlyBudget = over
		}
	}

	report.WithinBudget = report.IsAffordable && report.MonthlyAffordable
	return report
}
