// Package migration cria as tabelas usadas pela API em postgres ou sqlite
package migration

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/pkg/log"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(32) PRIMARY KEY,
		external_id VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		role_id INTEGER NOT NULL DEFAULT 2,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rtb_daily (
		id BIGSERIAL PRIMARY KEY,
		account_id VARCHAR(32) NOT NULL,
		metric_date DATE NOT NULL,
		creative_id VARCHAR(64),
		creative_size VARCHAR(32),
		country VARCHAR(64),
		device_type VARCHAR(32),
		publisher_id VARCHAR(128),
		publisher_name VARCHAR(255),
		reached_queries BIGINT NOT NULL DEFAULT 0,
		impressions BIGINT NOT NULL DEFAULT 0,
		clicks BIGINT NOT NULL DEFAULT 0,
		spend_micros BIGINT NOT NULL DEFAULT 0,
		video_starts BIGINT NOT NULL DEFAULT 0,
		video_completions BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rtb_daily_account_date ON rtb_daily (account_id, metric_date)`,
	`CREATE TABLE IF NOT EXISTS creatives (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(32) NOT NULL,
		format VARCHAR(16) NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		approval_status VARCHAR(32) NOT NULL DEFAULT 'APPROVED'
	)`,
	`CREATE TABLE IF NOT EXISTS thumbnail_status (
		creative_id VARCHAR(64) PRIMARY KEY,
		status VARCHAR(16) NOT NULL,
		error_reason TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS troubleshooting_data (
		id BIGSERIAL PRIMARY KEY,
		account_id VARCHAR(32) NOT NULL,
		collection_date DATE NOT NULL,
		metric_type VARCHAR(32) NOT NULL,
		status_name VARCHAR(64) NOT NULL,
		bid_count BIGINT NOT NULL DEFAULT 0,
		impression_count BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS signals (
		id VARCHAR(64) PRIMARY KEY,
		account_id VARCHAR(32) NOT NULL,
		entity_id VARCHAR(255) NOT NULL,
		signal_type VARCHAR(64) NOT NULL,
		recommendation_type VARCHAR(32) NOT NULL,
		severity VARCHAR(16) NOT NULL,
		confidence VARCHAR(16) NOT NULL,
		evidence JSONB NOT NULL DEFAULT '[]',
		observation TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'new',
		detected_at TIMESTAMPTZ NOT NULL,
		first_detected_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ,
		resolved_at TIMESTAMPTZ,
		resolved_by VARCHAR(255),
		resolution_notes TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_signals_open ON signals (account_id, entity_id, signal_type) WHERE resolved_at IS NULL`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS operators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		role_id INTEGER NOT NULL DEFAULT 2,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS rtb_daily (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		metric_date TEXT NOT NULL,
		creative_id TEXT,
		creative_size TEXT,
		country TEXT,
		device_type TEXT,
		publisher_id TEXT,
		publisher_name TEXT,
		reached_queries INTEGER NOT NULL DEFAULT 0,
		impressions INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		spend_micros INTEGER NOT NULL DEFAULT 0,
		video_starts INTEGER NOT NULL DEFAULT 0,
		video_completions INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rtb_daily_account_date ON rtb_daily (account_id, metric_date)`,
	`CREATE TABLE IF NOT EXISTS creatives (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		format TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		approval_status TEXT NOT NULL DEFAULT 'APPROVED'
	)`,
	`CREATE TABLE IF NOT EXISTS thumbnail_status (
		creative_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		error_reason TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS troubleshooting_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		collection_date TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		status_name TEXT NOT NULL,
		bid_count INTEGER NOT NULL DEFAULT 0,
		impression_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS signals (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		signal_type TEXT NOT NULL,
		recommendation_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence TEXT NOT NULL,
		evidence TEXT NOT NULL DEFAULT '[]',
		observation TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		detected_at TIMESTAMP NOT NULL,
		first_detected_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP,
		resolved_at TIMESTAMP,
		resolved_by TEXT,
		resolution_notes TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_signals_open ON signals (account_id, entity_id, signal_type) WHERE resolved_at IS NULL`,
}

// Statements retorna o DDL do driver informado
func Statements(driver string) []string {
	if driver == database.DriverSQLite {
		return sqliteSchema
	}
	return postgresSchema
}

// Apply cria as tabelas que ainda não existem
func Apply(ctx context.Context, conn database.Conn) error {
	logger := log.ForContext(ctx)
	statements := Statements(conn.Driver())

	err := conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for i, statement := range statements {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("erro ao aplicar migração %d/%d: %w", i+1, len(statements), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Infof("Esquema aplicado com sucesso (%s, %d comandos)", conn.Driver(), len(statements))
	return nil
}
