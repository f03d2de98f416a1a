package models

import (
	"encoding/json"
	"time"
)

// Deal is one vehicle purchase under research. The evaluation engine never
// owns a deal; it only derives values from it per request.
type Deal struct {
	ID             string    `json:"id"`
	Make           string    `json:"make" binding:"required"`
	Model          string    `json:"model" binding:"required"`
	Year           int       `json:"year"`
	Mileage        int       `json:"mileage"`
	VIN            string    `json:"vin,omitempty"`
	AskingPrice    float64   `json:"asking_price"`
	CurrentStep    string    `json:"current_step"`
	CompletedSteps []string  `json:"completed_steps"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DealData is the per-deal working blob (financing params, budget ceilings,
// report checklist, notes). Stored encrypted, round-tripped as raw JSON.
type DealData struct {
	ID        string          `json:"id"`
	DealID    string          `json:"deal_id"`
	Data      json.RawMessage `json:"data"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type CreateDealRequest struct {
	Make        string  `json:"make" binding:"required"`
	Model       string  `json:"model" binding:"required"`
	Year        int     `json:"year" binding:"required"`
	Mileage     int     `json:"mileage"`
	VIN         string  `json:"vin"`
	AskingPrice float64 `json:"asking_price" binding:"required"`
}

type UpdateDealDataRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}

// CreditTier is the coarse creditworthiness proxy used to pick a default
// annual interest rate.
type CreditTier string

const (
	CreditExcellent CreditTier = "excellent"
	CreditGood      CreditTier = "good"
	CreditFair      CreditTier = "fair"
	CreditPoor      CreditTier = "poor"
)

// FinancingParams is optional context: a nil *FinancingParams means the user
// is not financing and no payment math applies.
type FinancingParams struct {
	DownPayment  float64    `json:"down_payment"`
	LoanTerm     int        `json:"loan_term"`
	CreditScore  CreditTier `json:"credit_score"`
	InterestRate *float64   `json:"interest_rate,omitempty"` // annual %, overrides the tier default
}

// PaymentCalculation is derived, never persisted as authoritative state.
type PaymentCalculation struct {
	MonthlyPayment        float64 `json:"monthly_payment"`
	TotalCost             float64 `json:"total_cost"`
	TotalInterest         float64 `json:"total_interest"`
	EffectiveInterestRate float64 `json:"effective_interest_rate"`
}

// BudgetParams are the user-supplied ceilings. Absent ceilings mean
// unconstrained, not unaffordable.
type BudgetParams struct {
	BudgetMax     *float64 `json:"budget_max,omitempty"`
	MonthlyBudget *float64 `json:"monthly_budget,omitempty"`
}

// AffordabilityReport quantifies a price/payment against the ceilings.
type AffordabilityReport struct {
	IsAffordable      bool    `json:"is_affordable"`
	OverBudgetAmount  float64 `json:"over_budget_amount"`
	MonthlyAffordable bool    `json:"monthly_affordable"`
	OverMonthlyBudget float64 `json:"over_monthly_budget"`
	WithinBudget      bool    `json:"within_budget"`
}
