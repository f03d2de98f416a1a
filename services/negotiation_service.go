package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/DealLensHQ/deallens-api/models"
	"github.com/DealLensHQ/deallens-api/utils"

	"github.com/google/uuid"
)

// ============================================================================
// NEGOTIATION SERVICE
// Owns sessions and transcripts; the dealer side of the conversation is
// simulated by Claude. Price extraction and validation stay in the pure
// engine - this service only feeds it the stored transcript.
// ============================================================================

// staleSessionAge is how long an open session may sit idle before the
// cleanup sweep closes it.
const staleSessionAge = 7 * 24 * time.Hour

type NegotiationService struct {
	db        *sql.DB
	aiService *ClaudeAIService
}

func NewNegotiationService(db *sql.DB, aiService *ClaudeAIService) *NegotiationService {
	return &NegotiationService{db: db, aiService: aiService}
}

// StartSession opens a negotiation for a deal.
func (s *NegotiationService) StartSession(ctx context.Context, dealID string, askingPrice float64, targetPrice *float64) (*models.NegotiationSession, error) {
	session := &models.NegotiationSession{
		ID:          uuid.New().String(),
		DealID:      dealID,
		AskingPrice: askingPrice,
		TargetPrice: targetPrice,
		Status:      "open",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO negotiation_sessions (id, deal_id, asking_price, target_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var target sql.NullFloat64
	if targetPrice != nil {
		target = sql.NullFloat64{Float64: *targetPrice, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query,
		session.ID, session.DealID, session.AskingPrice, target,
		session.Status, session.CreatedAt, session.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return session, nil
}

// GetSession fetches a session by ID.
func (s *NegotiationService) GetSession(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	query := `
		SELECT id, deal_id, asking_price, target_price, status, created_at, updated_at
		FROM negotiation_sessions
		WHERE id = $1
	`

	var session models.NegotiationSession
	var target sql.NullFloat64
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.DealID,
		&session.AskingPrice,
		&target,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if target.Valid {
		session.TargetPrice = &target.Float64
	}
	return &session, nil
}

// CloseSession marks a session closed.
func (s *NegotiationService) CloseSession(ctx context.Context, sessionID string) error {
	query := `UPDATE negotiation_sessions SET status = 'closed', updated_at = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, time.Now(), sessionID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Transcript returns the full message list in arrival order. The stored
// order is authoritative; no timestamp re-sort.
func (s *NegotiationService) Transcript(ctx context.Context, sessionID string) ([]models.NegotiationMessage, error) {
	query := `
		SELECT id, session_id, role, round_number, content, metadata, created_at
		FROM negotiation_messages
		WHERE session_id = $1
		ORDER BY created_at, round_number
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.NegotiationMessage{}
	for rows.Next() {
		var msg models.NegotiationMessage
		var metadata []byte
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.RoundNumber, &msg.Content, &metadata, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			var meta models.MessageMetadata
			if err := json.Unmarshal(metadata, &meta); err == nil {
				msg.Metadata = &meta
			}
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// appendMessage stores one transcript entry inside tx.
func (s *NegotiationService) appendMessage(ctx context.Context, tx *sql.Tx, msg *models.NegotiationMessage) error {
	var metadata []byte
	if msg.Metadata != nil {
		var err error
		metadata, err = json.Marshal(msg.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO negotiation_messages (id, session_id, role, round_number, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		msg.ID, msg.SessionID, msg.Role, msg.RoundNumber, msg.Content, metadata, msg.CreatedAt,
	)
	return err
}

// nextRound returns the round number for the next user turn.
func (s *NegotiationService) nextRound(ctx context.Context, sessionID string) (int, error) {
	var round sql.NullInt64
	query := `SELECT MAX(round_number) FROM negotiation_messages WHERE session_id = $1 AND role = 'user'`
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&round); err != nil {
		return 0, err
	}
	return int(round.Int64) + 1, nil
}

// dealerResponse is the simulator's JSON reply contract.
type dealerResponse struct {
	Reply        string   `json:"reply"`
	CounterOffer *float64 `json:"counter_offer,omitempty"`
}

// SendUserMessage appends the user's turn, generates the simulated dealer's
// reply, and returns both new messages in order. AI failure degrades to a
// canned dealer line so the transcript keeps moving.
func (s *NegotiationService) SendUserMessage(ctx context.Context, session *models.NegotiationSession, req models.SendMessageRequest) ([]models.NegotiationMessage, error) {
	if session.Status != "open" {
		return nil, fmt.Errorf("negotiation session %s is closed", session.ID)
	}

	round, err := s.nextRound(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	userMsg := models.NegotiationMessage{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		Role:        "user",
		RoundNumber: round,
		Content:     req.Content,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}

	dealerMsg := s.generateDealerReply(ctx, session, userMsg, round)

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := s.appendMessage(ctx, tx, &userMsg); err != nil {
			return err
		}
		if err := s.appendMessage(ctx, tx, &dealerMsg); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE negotiation_sessions SET updated_at = $1 WHERE id = $2`, time.Now(), session.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return []models.NegotiationMessage{userMsg, dealerMsg}, nil
}

// generateDealerReply asks the simulator for the dealer's turn. It never
// returns an error: any failure falls back to a canned counter so the user
// is not blocked on the AI being up.
func (s *NegotiationService) generateDealerReply(ctx context.Context, session *models.NegotiationSession, userMsg models.NegotiationMessage, round int) models.NegotiationMessage {
	dealerMsg := models.NegotiationMessage{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		Role:        "dealer_sim",
		RoundNumber: round,
		CreatedAt:   time.Now().Add(time.Millisecond), // keeps arrival order stable
	}

	if !s.aiService.Available() {
		dealerMsg.Content = cannedDealerLine(session.AskingPrice)
		return dealerMsg
	}

	history, err := s.claudeHistory(ctx, session.ID)
	if err != nil {
		log.Printf("[Negotiation] ⚠️  Failed to load history: %v", err)
		history = nil
	}
	history = append(history, ClaudeMessage{Role: "user", Content: userMsg.Content})

	raw, err := s.aiService.DealerReply(ctx, session.AskingPrice, history)
	if err != nil {
		log.Printf("[Negotiation] ⚠️  Dealer sim failed, using canned reply: %v", err)
		dealerMsg.Content = cannedDealerLine(session.AskingPrice)
		return dealerMsg
	}

	var parsed dealerResponse
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &parsed); err != nil {
		log.Printf("[Negotiation] ⚠️  Unparseable dealer reply: %v", err)
		dealerMsg.Content = cannedDealerLine(session.AskingPrice)
		return dealerMsg
	}

	dealerMsg.Content = parsed.Reply
	if parsed.CounterOffer != nil {
		dealerMsg.Metadata = &models.MessageMetadata{CounterOffer: parsed.CounterOffer}
	}
	return dealerMsg
}

// claudeHistory maps the stored transcript onto the Claude role convention:
// the dealer is the assistant, everything else speaks as the user.
func (s *NegotiationService) claudeHistory(ctx context.Context, sessionID string) ([]ClaudeMessage, error) {
	transcript, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]ClaudeMessage, 0, len(transcript))
	for _, msg := range transcript {
		role := "user"
		if msg.Role == "dealer_sim" {
			role = "assistant"
		}
		history = append(history, ClaudeMessage{Role: role, Content: msg.Content})
	}
	return history, nil
}

func cannedDealerLine(askingPrice float64) string {
	return fmt.Sprintf("I hear you, but I've got real interest in this one at $%.0f. Come back with something serious and we can talk.", askingPrice)
}

// LatestPrice runs the engine's extraction over the stored transcript.
func (s *NegotiationService) LatestPrice(ctx context.Context, sessionID string) (*models.LatestPriceInfo, error) {
	transcript, err := s.Transcript(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return LatestNegotiatedPrice(transcript), nil
}

// ValidateLatestPrice extracts and validates in one call for the dashboard's
// offer panel.
func (s *NegotiationService) ValidateLatestPrice(ctx context.Context, session *models.NegotiationSession) (*models.LatestPriceInfo, models.PriceValidation, error) {
	info, err := s.LatestPrice(ctx, session.ID)
	if err != nil {
		return nil, models.PriceValidation{}, err
	}

	var price *float64
	if info != nil {
		price = &info.Price
	}
	validation := ValidateNegotiatedPrice(price, session.AskingPrice, session.TargetPrice)
	return info, validation, nil
}

// CloseStaleSessions closes open sessions idle past the threshold. Runs on
// the scheduled maintenance sweep.
func (s *NegotiationService) CloseStaleSessions(ctx context.Context) error {
	query := `
		UPDATE negotiation_sessions
		SET status = 'closed', updated_at = NOW()
		WHERE status = 'open' AND updated_at < $1
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().Add(-staleSessionAge))
	if err != nil {
		return fmt.Errorf("failed to close stale sessions: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Printf("[Negotiation] 🧹 Closed %d stale sessions", rows)
	}
	return nil
}
