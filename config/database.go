package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS deals (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			make VARCHAR(100) NOT NULL,
			model VARCHAR(100) NOT NULL,
			year INT NOT NULL,
			mileage INT DEFAULT 0,
			vin VARCHAR(17),
			asking_price NUMERIC(12,2) NOT NULL,
			current_step VARCHAR(50) DEFAULT 'vehicle_condition',
			completed_steps TEXT[] DEFAULT '{}',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS deal_data (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id UUID REFERENCES deals(id) ON DELETE CASCADE,
			data JSONB NOT NULL DEFAULT '{}',
			version INT DEFAULT 1,
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS deal_assessments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id UUID REFERENCES deals(id) ON DELETE CASCADE,
			step VARCHAR(50) NOT NULL,
			assessment JSONB NOT NULL,
			received_at TIMESTAMP DEFAULT NOW(),
			UNIQUE (deal_id, step)
		)`,

		`CREATE TABLE IF NOT EXISTS negotiation_sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			deal_id UUID REFERENCES deals(id) ON DELETE CASCADE,
			asking_price NUMERIC(12,2) NOT NULL,
			target_price NUMERIC(12,2),
			status VARCHAR(20) DEFAULT 'open',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS negotiation_messages (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID REFERENCES negotiation_sessions(id) ON DELETE CASCADE,
			role VARCHAR(50) NOT NULL,
			round_number INT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_negotiation_messages_session
			ON negotiation_messages(session_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS market_valuations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			make VARCHAR(100) NOT NULL,
			model VARCHAR(100) NOT NULL,
			year INT NOT NULL,
			region VARCHAR(10) NOT NULL,
			valuation JSONB NOT NULL,
			last_updated TIMESTAMP DEFAULT NOW(),
			expires_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_market_valuations_lookup
			ON market_valuations(make, model, year, region, expires_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
