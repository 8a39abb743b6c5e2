package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/songzhibin97/signalflux/internal/models"

	_ "github.com/lib/pq"
)

// PostgresStorage persists processed signals for the daily report. It is an
// audit trail only, not a position ledger or order book.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SaveSignal implements SignalStorage interface
func (s *PostgresStorage) SaveSignal(ctx context.Context, record *models.SignalRecord) error {
	query := `
        INSERT INTO signals (
            received_at, strategy, symbol, action, quantity, price,
            target, success, order_id, error
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
        )
    `

	_, err := s.db.ExecContext(ctx, query,
		record.ReceivedAt,
		record.Strategy,
		record.Symbol,
		record.Action,
		record.Quantity,
		record.Price,
		record.Target,
		record.Success,
		record.OrderID,
		record.Error,
	)

	if err != nil {
		return fmt.Errorf("failed to save signal: %w", err)
	}

	return nil
}

// CountSignalsSince implements SignalStorage interface
func (s *PostgresStorage) CountSignalsSince(ctx context.Context, since time.Time) (int, int, error) {
	query := `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE success)
        FROM signals
        WHERE received_at >= $1
    `

	var total, succeeded int
	if err := s.db.QueryRowContext(ctx, query, since).Scan(&total, &succeeded); err != nil {
		return 0, 0, fmt.Errorf("failed to count signals: %w", err)
	}

	return total, succeeded, nil
}

// RecentSignals implements SignalStorage interface
func (s *PostgresStorage) RecentSignals(ctx context.Context, limit int) ([]models.SignalRecord, error) {
	query := `
        SELECT received_at, strategy, symbol, action, quantity, price,
               target, success, order_id, error
        FROM signals
        ORDER BY received_at DESC
        LIMIT $1
    `

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var result []models.SignalRecord
	for rows.Next() {
		var record models.SignalRecord
		err := rows.Scan(
			&record.ReceivedAt,
			&record.Strategy,
			&record.Symbol,
			&record.Action,
			&record.Quantity,
			&record.Price,
			&record.Target,
			&record.Success,
			&record.OrderID,
			&record.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}

	return result, nil
}

// Close implements SignalStorage interface
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) initTables() error {
	query := `CREATE TABLE IF NOT EXISTS signals (
		id SERIAL PRIMARY KEY,
		received_at TIMESTAMP NOT NULL,
		strategy VARCHAR(200),
		symbol VARCHAR(50) NOT NULL,
		action VARCHAR(10) NOT NULL,
		quantity VARCHAR(50),
		price VARCHAR(50),
		target VARCHAR(50),
		success BOOLEAN NOT NULL,
		order_id VARCHAR(100),
		error TEXT
	)`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}
