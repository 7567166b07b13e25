package db

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the tables used by the risk engine if they don't exist.
func InitSchema(db *sql.DB) error {
	log.Info("Initializing nightsafe database schema...")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		id VARCHAR(64) NOT NULL,
		category VARCHAR(32) NOT NULL,
		severity TINYINT NOT NULL,
		affected_groups VARCHAR(255) NOT NULL DEFAULT '',
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'new',
		confirmations_count INT NOT NULL DEFAULT 0,
		priority_score DOUBLE NOT NULL DEFAULT 0,
		event_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		version INT NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		INDEX event_time_index (event_time),
		INDEX latlon_index (latitude, longitude)
	)`
	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	confirmationsTableSQL := `
	CREATE TABLE IF NOT EXISTS report_confirmations(
		report_id VARCHAR(64) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (report_id, user_id)
	)`
	if _, err := db.Exec(confirmationsTableSQL); err != nil {
		return fmt.Errorf("failed to create report_confirmations table: %w", err)
	}
	log.Info("Report_confirmations table created/verified")

	segmentsTableSQL := `
	CREATE TABLE IF NOT EXISTS route_segments(
		id VARCHAR(64) NOT NULL,
		route_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		polyline JSON NOT NULL,
		PRIMARY KEY (id),
		INDEX route_id_index (route_id)
	)`
	if _, err := db.Exec(segmentsTableSQL); err != nil {
		return fmt.Errorf("failed to create route_segments table: %w", err)
	}
	log.Info("Route_segments table created/verified")

	log.Info("Nightsafe database schema initialization completed")
	return nil
}
