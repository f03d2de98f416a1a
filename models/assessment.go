package models

import "time"

// StageAssessment is the per-step record produced by the external evaluation
// service. We store and serve it; we never generate it. Scores are 0-10,
// validated upstream. Optional collections default to empty, never nil on
// the wire.
type StageAssessment struct {
	DealID        string    `json:"deal_id"`
	Step          string    `json:"step"`
	Score         float64   `json:"score"`
	Notes         string    `json:"notes,omitempty"`
	Insights      []string  `json:"insights"`
	TalkingPoints []string  `json:"talking_points"`
	RiskFactors   []string  `json:"risk_factors"`
	NextSteps     []string  `json:"next_steps"`
	ReceivedAt    time.Time `json:"received_at"`
}

// ScoreSummary is the per-dimension breakdown inside an overall assessment.
type ScoreSummary struct {
	ConditionScore *float64 `json:"condition_score,omitempty"`
	PriceScore     *float64 `json:"price_score,omitempty"`
	FinancingScore *float64 `json:"financing_score,omitempty"`
	RiskScore      *float64 `json:"risk_score,omitempty"`
}

// OverallAssessment is the aggregated verdict shown on the final report.
type OverallAssessment struct {
	OverallScore   float64        `json:"overall_score"`
	Recommendation string         `json:"recommendation"`
	Summary        ScoreSummary   `json:"summary"`
	Breakdown      []BreakdownRow `json:"breakdown"`
	NextSteps      []string       `json:"next_steps"`
}

// BreakdownRow is one displayed dimension. Absent dimensions are omitted
// entirely, never rendered as zero.
type BreakdownRow struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	// DisplayScore differs from Score only for risk, which is shown on the
	// inverted higher-is-better scale.
	DisplayScore float64 `json:"display_score"`
	Percent      float64 `json:"percent"`
	Label        string  `json:"label"`
	Color        string  `json:"color"`
	Icon         string  `json:"icon"`
}
