package services

import (
	"math"

	"github.com/DealLensHQ/deallens-api/models"
)

// ============================================================================
// SCORE AGGREGATION
// Classifies 0-10 scores into qualitative bands and assembles the final
// report breakdown. Two near-identical threshold tables exist on purpose:
// the deal-quality scale and the recommendation scale diverged upstream and
// are kept as separate axes. Do not merge them.
// ============================================================================

// Rating is a qualitative band with its presentation tokens. Color and Icon
// are abstract categories (success, warning, info, error), not UI values.
type Rating struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type ratingBand struct {
	min    float64
	rating Rating
}

// Deal-quality scale, evaluated top-down, inclusive lower bounds.
var dealQualityBands = []ratingBand{
	{8.5, Rating{Label: "Excellent Deal", Color: "success", Icon: "success"}},
	{7, Rating{Label: "Good Deal", Color: "success", Icon: "success"}},
	{5.5, Rating{Label: "Fair Deal", Color: "warning", Icon: "warning"}},
}

var dealQualityFallback = Rating{Label: "Reconsider", Color: "error", Icon: "error"}

// Recommendation scale. Slightly different cutoffs than deal quality; both
// are exercised on the final report.
var recommendationBands = []ratingBand{
	{8, Rating{Label: "Highly Recommended", Color: "success", Icon: "success"}},
	{6.5, Rating{Label: "Recommended", Color: "info", Icon: "info"}},
	{5, Rating{Label: "Fair Deal", Color: "warning", Icon: "warning"}},
}

var recommendationFallback = Rating{Label: "Not Recommended", Color: "error", Icon: "error"}

// DealQualityRating classifies an overall 0-10 score. Out-of-range input is
// not rejected; it lands in the boundary band (upstream keeps scores in
// range).
func DealQualityRating(score float64) Rating {
	return classify(score, dealQualityBands, dealQualityFallback)
}

// RecommendationRating classifies a score on the recommendation scale.
func RecommendationRating(score float64) Rating {
	return classify(score, recommendationBands, recommendationFallback)
}

func classify(score float64, bands []ratingBand, fallback Rating) Rating {
	for _, b := range bands {
		if score >= b.min {
			return b.rating
		}
	}
	return fallback
}

// RiskLevelRating classifies a risk score where LOWER is better.
func RiskLevelRating(riskScore float64) Rating {
	switch {
	case riskScore < 4:
		return Rating{Label: "Low Risk", Color: "success", Icon: "success"}
	case riskScore < 7:
		return Rating{Label: "Medium Risk", Color: "warning", Icon: "warning"}
	default:
		return Rating{Label: "High Risk", Color: "error", Icon: "error"}
	}
}

// RiskDisplayScore inverts a lower-is-better risk score onto the shared
// higher-is-better visual scale.
func RiskDisplayScore(riskScore float64) float64 {
	return 10 - riskScore
}

// ScorePercent is the progress-bar fraction for a 0-10 display score.
func ScorePercent(displayScore float64) float64 {
	return displayScore / 10 * 100
}

// roundTo1Decimal keeps aggregated scores on the same precision the
// evaluation service uses.
func roundTo1Decimal(value float64) float64 {
	return math.Round(value*10) / 10
}

// AggregateScores assembles the overall assessment from up to four
// independent dimension scores. Absent dimensions are omitted from the
// breakdown entirely and excluded from the mean, never counted as zero.
// Pure and deterministic; safe for caller-side memoization.
func AggregateScores(summary models.ScoreSummary, nextSteps []string) *models.OverallAssessment {
	type dimension struct {
		name  string
		score *float64
		risk  bool
	}

	dims := []dimension{
		{"condition", summary.ConditionScore, false},
		{"price", summary.PriceScore, false},
		{"financing", summary.FinancingScore, false},
		{"risk", summary.RiskScore, true},
	}

	var breakdown []models.BreakdownRow
	var sum float64
	var count int

	for _, d := range dims {
		if d.score == nil {
			continue
		}
		score := *d.score
		display := score
		var rating Rating
		if d.risk {
			display = RiskDisplayScore(score)
			rating = RiskLevelRating(score)
		} else {
			rating = DealQualityRating(score)
		}
		breakdown = append(breakdown, models.BreakdownRow{
			Dimension:    d.name,
			Score:        score,
			DisplayScore: display,
			Percent:      ScorePercent(display),
			Label:        rating.Label,
			Color:        rating.Color,
			Icon:         rating.Icon,
		})
		// The mean uses the display scale so a risky deal pulls the overall
		// score down instead of up.
		sum += display
		count++
	}

	if count == 0 {
		return nil
	}

	overall := roundTo1Decimal(sum / float64(count))

	if nextSteps == nil {
		nextSteps = []string{}
	}

	return &models.OverallAssessment{
		OverallScore:   overall,
		Recommendation: RecommendationRating(overall).Label,
		Summary:        summary,
		Breakdown:      breakdown,
		NextSteps:      nextSteps,
	}
}
