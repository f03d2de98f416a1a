package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DealLensHQ/deallens-api/models"
	"github.com/DealLensHQ/deallens-api/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type DealService struct {
	db *sql.DB
}

func NewDealService(db *sql.DB) *DealService {
	return &DealService{db: db}
}

// Helper struct for DB storage of encrypted blobs
type EncryptedData struct {
	Encrypted string `json:"encrypted"`
}

// Create inserts a new deal and seeds its data blob in one transaction.
func (s *DealService) Create(ctx context.Context, req models.CreateDealRequest) (*models.Deal, error) {
	deal := &models.Deal{
		ID:             uuid.New().String(),
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		VIN:            req.VIN,
		AskingPrice:    req.AskingPrice,
		CurrentStep:    string(StepVehicleCondition),
		CompletedSteps: []string{},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO deals (id, make, model, year, mileage, vin, asking_price, current_step, completed_steps, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, query,
			deal.ID, deal.Make, deal.Model, deal.Year, deal.Mileage,
			sql.NullString{String: deal.VIN, Valid: deal.VIN != ""},
			deal.AskingPrice, deal.CurrentStep, pq.Array(deal.CompletedSteps),
			deal.CreatedAt, deal.UpdatedAt,
		); err != nil {
			return err
		}

		// Seed an empty working blob so reads never hit a missing row.
		initial, err := encryptBlob(json.RawMessage(`{"completed_actions":[],"notes":""}`))
		if err != nil {
			return err
		}
		dataQuery := `
			INSERT INTO deal_data (id, deal_id, data, version, updated_at)
			VALUES ($1, $2, $3, 1, $4)
		`
		_, err = tx.ExecContext(ctx, dataQuery, uuid.New().String(), deal.ID, initial, time.Now())
		return err
	})

	if err != nil {
		return nil, err
	}

	return deal, nil
}

// GetByID gets a deal by ID.
func (s *DealService) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	query := `
		SELECT id, make, model, year, mileage, COALESCE(vin, ''), asking_price, current_step, completed_steps, created_at, updated_at
		FROM deals
		WHERE id = $1
	`

	var deal models.Deal
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&deal.ID,
		&deal.Make,
		&deal.Model,
		&deal.Year,
		&deal.Mileage,
		&deal.VIN,
		&deal.AskingPrice,
		&deal.CurrentStep,
		pq.Array(&deal.CompletedSteps),
		&deal.CreatedAt,
		&deal.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &deal, nil
}

// List returns all deals, newest first.
func (s *DealService) List(ctx context.Context) ([]models.Deal, error) {
	query := `
		SELECT id, make, model, year, mileage, COALESCE(vin, ''), asking_price, current_step, completed_steps, created_at, updated_at
		FROM deals
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		var deal models.Deal
		err := rows.Scan(
			&deal.ID,
			&deal.Make,
			&deal.Model,
			&deal.Year,
			&deal.Mileage,
			&deal.VIN,
			&deal.AskingPrice,
			&deal.CurrentStep,
			pq.Array(&deal.CompletedSteps),
			&deal.CreatedAt,
			&deal.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}

	return deals, rows.Err()
}

// Delete deletes a deal and everything hanging off it.
func (s *DealService) Delete(ctx context.Context, dealID string) error {
	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM negotiation_messages WHERE session_id IN (SELECT id FROM negotiation_sessions WHERE deal_id = $1)", dealID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM negotiation_sessions WHERE deal_id = $1", dealID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM deal_assessments WHERE deal_id = $1", dealID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM deal_data WHERE deal_id = $1", dealID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM deals WHERE id = $1", dealID); err != nil {
			return err
		}
		return nil
	})
}

// AdvanceStep records the current step as completed and moves to the given
// step. The engine's read model does not enforce order, so neither does
// this: the dashboard may move backwards.
func (s *DealService) AdvanceStep(ctx context.Context, dealID string, to PipelineStep) error {
	if StepIndex(to) == StepNotFound {
		return fmt.Errorf("unknown pipeline step %q", to)
	}

	query := `
		UPDATE deals
		SET completed_steps = (
			SELECT ARRAY(SELECT DISTINCT unnest(completed_steps || current_step))
		),
		    current_step = $1,
		    updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, string(to), time.Now(), dealID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetData gets the working blob for a deal and DECRYPTS it.
func (s *DealService) GetData(ctx context.Context, dealID string) (json.RawMessage, error) {
	query := `SELECT data FROM deal_data WHERE deal_id = $1 ORDER BY updated_at DESC LIMIT 1`

	var rawJSON []byte
	err := s.db.QueryRowContext(ctx, query, dealID).Scan(&rawJSON)
	if err == sql.ErrNoRows {
		return json.RawMessage(`{}`), nil
	}
	if err != nil {
		return nil, err
	}

	if len(rawJSON) == 0 {
		return json.RawMessage(`{}`), nil
	}

	// Encrypted wrapper first; plain JSON is legacy fallback.
	var wrapper EncryptedData
	if err := json.Unmarshal(rawJSON, &wrapper); err == nil && wrapper.Encrypted != "" {
		decrypted, err := utils.Decrypt(wrapper.Encrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt deal data: %w", err)
		}
		return json.RawMessage(decrypted), nil
	}

	return json.RawMessage(rawJSON), nil
}

// UpdateData ENCRYPTS the working blob before saving it.
func (s *DealService) UpdateData(ctx context.Context, dealID string, data json.RawMessage) error {
	storageJSON, err := encryptBlob(data)
	if err != nil {
		return err
	}

	var existingID string
	checkQuery := `SELECT id FROM deal_data WHERE deal_id = $1 LIMIT 1`
	err = s.db.QueryRowContext(ctx, checkQuery, dealID).Scan(&existingID)

	if err == sql.ErrNoRows {
		insertQuery := `
			INSERT INTO deal_data (id, deal_id, data, version, updated_at)
			VALUES ($1, $2, $3, 1, $4)
		`
		_, err = s.db.ExecContext(ctx, insertQuery, uuid.New().String(), dealID, storageJSON, time.Now())
		return err
	}

	if err != nil {
		return err
	}

	updateQuery := `
		UPDATE deal_data
		SET data = $1, version = version + 1, updated_at = $2
		WHERE deal_id = $3
	`
	_, err = s.db.ExecContext(ctx, updateQuery, storageJSON, time.Now(), dealID)
	return err
}

func encryptBlob(data json.RawMessage) ([]byte, error) {
	encrypted, err := utils.Encrypt(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(EncryptedData{Encrypted: encrypted})
}

// dealDataBlob is the decoded shape of the working blob, used where the
// service needs to reach inside (checklist toggling).
type dealDataBlob struct {
	CompletedActions []int                   `json:"completed_actions"`
	Notes            string                  `json:"notes"`
	Financing        *models.FinancingParams `json:"financing,omitempty"`
	Budget           *models.BudgetParams    `json:"budget,omitempty"`
}

// ToggleReportAction flips one checklist entry on the final report. The
// stored set is replaced wholesale with the toggled copy, mirroring the
// engine's immutable-set semantics.
func (s *DealService) ToggleReportAction(ctx context.Context, dealID string, actionIdx int) ([]int, error) {
	raw, err := s.GetData(ctx, dealID)
	if err != nil {
		return nil, err
	}

	var blob dealDataBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("deal data blob is malformed: %w", err)
	}

	toggled := ToggleAction(ActionSetFromIndexes(blob.CompletedActions), actionIdx)
	blob.CompletedActions = ActionIndexes(toggled)

	updated, err := json.Marshal(blob)
	if err != nil {
		return nil, err
	}

	if err := s.UpdateData(ctx, dealID, updated); err != nil {
		return nil, err
	}

	return blob.CompletedActions, nil
}

// PutAssessment stores (or replaces) the external evaluation service's
// output for one step. We keep its shape verbatim; score ranges were
// validated upstream.
func (s *DealService) PutAssessment(ctx context.Context, assessment models.StageAssessment) error {
	if StepIndex(PipelineStep(assessment.Step)) == StepNotFound {
		return fmt.Errorf("unknown pipeline step %q", assessment.Step)
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO deal_assessments (id, deal_id, step, assessment, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (deal_id, step)
		DO UPDATE SET assessment = EXCLUDED.assessment, received_at = EXCLUDED.received_at
	`
	_, err = s.db.ExecContext(ctx, query, uuid.New().String(), assessment.DealID, assessment.Step, payload, time.Now())
	return err
}

// GetAssessment fetches the stored assessment for one step. A missing
// assessment is a normal branch, reported as sql.ErrNoRows.
func (s *DealService) GetAssessment(ctx context.Context, dealID, step string) (*models.StageAssessment, error) {
	query := `SELECT assessment FROM deal_assessments WHERE deal_id = $1 AND step = $2`

	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, dealID, step).Scan(&payload); err != nil {
		return nil, err
	}

	var assessment models.StageAssessment
	if err := json.Unmarshal(payload, &assessment); err != nil {
		return nil, err
	}
	normalizeAssessment(&assessment)
	return &assessment, nil
}

// GetAssessments fetches every stored assessment for a deal keyed by step.
func (s *DealService) GetAssessments(ctx context.Context, dealID string) (map[string]models.StageAssessment, error) {
	query := `SELECT step, assessment FROM deal_assessments WHERE deal_id = $1`

	rows, err := s.db.QueryContext(ctx, query, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]models.StageAssessment)
	for rows.Next() {
		var step string
		var payload []byte
		if err := rows.Scan(&step, &payload); err != nil {
			return nil, err
		}
		var assessment models.StageAssessment
		if err := json.Unmarshal(payload, &assessment); err != nil {
			return nil, err
		}
		normalizeAssessment(&assessment)
		result[step] = assessment
	}

	return result, rows.Err()
}

// normalizeAssessment backfills absent optional collections so consumers
// never see nil where the contract promises an empty list.
func normalizeAssessment(a *models.StageAssessment) {
	if a.Insights == nil {
		a.Insights = []string{}
	}
	if a.TalkingPoints == nil {
		a.TalkingPoints = []string{}
	}
	if a.RiskFactors == nil {
		a.RiskFactors = []string{}
	}
	if a.NextSteps == nil {
		a.NextSteps = []string{}
	}
}
