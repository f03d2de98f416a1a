package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/DealLensHQ/deallens-api/cache"
	"github.com/DealLensHQ/deallens-api/services"
)

func newEvaluationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	financing := services.NewFinancingService(cache.NewMemoryCache(), services.DefaultRateTable)
	h := NewEvaluationHandler(nil, financing)

	router := gin.New()
	router.GET("/pipeline/steps", h.GetPipelineSteps)
	router.POST("/evaluate/scores", h.EvaluateScores)
	router.POST("/evaluate/financing", h.EvaluateFinancing)
	router.POST("/evaluate/affordability", h.EvaluateAffordability)
	return router
}

func TestGetPipelineSteps_OK(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodGet, "/pipeline/steps?current=financing&completed=vehicle_condition&completed=price", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		CurrentIndex int `json:"current_index"`
		Steps        []struct {
			Step      string `json:"step"`
			Completed bool   `json:"completed"`
			Current   bool   `json:"current"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.CurrentIndex != 2 {
		t.Errorf("expected current_index 2, got %d", resp.CurrentIndex)
	}
	if len(resp.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(resp.Steps))
	}
	if !resp.Steps[0].Completed || !resp.Steps[1].Completed {
		t.Error("expected first two steps completed")
	}
	if !resp.Steps[2].Current {
		t.Error("expected financing marked current")
	}
}

func TestGetPipelineSteps_UnknownStep(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodGet, "/pipeline/steps?current=paperwork", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEvaluateScores_OK(t *testing.T) {
	router := newEvaluationRouter()

	body := []byte(`{
		"condition_score": 8,
		"price_score": 7,
		"risk_score": 2
	}`)

	req := httptest.NewRequest(http.MethodPost, "/evaluate/scores", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		OverallScore   float64 `json:"overall_score"`
		Recommendation string  `json:"recommendation"`
		Breakdown      []struct {
			Dimension string `json:"dimension"`
		} `json:"breakdown"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	// (8 + 7 + (10-2)) / 3 = 7.7 after rounding
	if resp.OverallScore != 7.7 {
		t.Errorf("expected overall 7.7, got %v", resp.OverallScore)
	}
	if len(resp.Breakdown) != 3 {
		t.Errorf("expected 3 breakdown rows, got %d", len(resp.Breakdown))
	}
}

func TestEvaluateScores_Empty(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodPost, "/evaluate/scores", bytes.NewBuffer([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Assessment *json.RawMessage `json:"assessment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Assessment != nil {
		t.Error("expected null assessment when no scores present")
	}
}

func TestEvaluateFinancing_OK(t *testing.T) {
	router := newEvaluationRouter()

	body := []byte(`{
		"vehicle_price": 25000,
		"financing": {
			"down_payment": 5000,
			"loan_term": 60,
			"credit_score": "good"
		}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/evaluate/financing", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Payment *struct {
			MonthlyPayment float64 `json:"monthly_payment"`
			TotalCost      float64 `json:"total_cost"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Payment == nil {
		t.Fatal("expected a payment calculation")
	}
	if resp.Payment.MonthlyPayment <= 0 {
		t.Errorf("expected positive payment, got %v", resp.Payment.MonthlyPayment)
	}
	wantTotal := resp.Payment.MonthlyPayment*60 + 5000
	if resp.Payment.TotalCost != wantTotal {
		t.Errorf("expected total_cost %v, got %v", wantTotal, resp.Payment.TotalCost)
	}
}

func TestEvaluateFinancing_NoParams(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodPost, "/evaluate/financing", bytes.NewBuffer([]byte(`{"vehicle_price": 25000}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Payment *json.RawMessage `json:"payment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Payment != nil && string(*resp.Payment) != "null" {
		t.Errorf("expected null payment without financing params, got %s", string(*resp.Payment))
	}
}

func TestEvaluateFinancing_BadRequest(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodPost, "/evaluate/financing", bytes.NewBuffer([]byte(`{invalid-json}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEvaluateAffordability_OverBudget(t *testing.T) {
	router := newEvaluationRouter()

	body := []byte(`{
		"vehicle_price": 25000,
		"budget_max": 20000
	}`)

	req := httptest.NewRequest(http.MethodPost, "/evaluate/affordability", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		IsAffordable bool    `json:"is_affordable"`
		OverBudget   float64 `json:"over_budget_amount"`
		WithinBudget bool    `json:"within_budget"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.IsAffordable {
		t.Error("expected not affordable at 25000 against a 20000 ceiling")
	}
	if resp.OverBudget != 5000 {
		t.Errorf("expected over_budget_amount 5000, got %v", resp.OverBudget)
	}
}

func TestEvaluateAffordability_NoCeilings(t *testing.T) {
	router := newEvaluationRouter()

	req := httptest.NewRequest(http.MethodPost, "/evaluate/affordability", bytes.NewBuffer([]byte(`{"vehicle_price": 99999}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		IsAffordable bool `json:"is_affordable"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.IsAffordable {
		t.Error("expected affordable when no ceilings are set")
	}
}
