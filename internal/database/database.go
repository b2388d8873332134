package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

type DB struct {
	*sql.DB
}

func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &DB{db}, nil
}

func (db *DB) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tenant_rate_configs (
            tenant VARCHAR(100) PRIMARY KEY,
            config JSON NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS call_details (
            id BIGINT AUTO_INCREMENT PRIMARY KEY,
            tenant_name VARCHAR(100) NOT NULL,
            sequence_id VARCHAR(100) NOT NULL,
            user_name VARCHAR(255),
            call_from VARCHAR(50),
            call_to VARCHAR(50),
            call_type VARCHAR(50),
            dial_starts_at VARCHAR(40) NOT NULL,
            dial_answered_at VARCHAR(40) DEFAULT '-',
            dial_ends_at VARCHAR(40) NOT NULL,
            ringing_time VARCHAR(20),
            call_duration VARCHAR(20),
            call_memo TEXT,
            carrier VARCHAR(50),
            UNIQUE KEY uniq_tenant_sequence (tenant_name, sequence_id),
            INDEX idx_tenant_start (tenant_name, dial_starts_at)
        )`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}
