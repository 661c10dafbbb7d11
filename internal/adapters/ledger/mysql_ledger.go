package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLLedger stores created-ticket records in a shared MySQL database,
// for deployments where the ledger should outlive the host.
type MySQLLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLLedger connects to MySQL and creates the ledger table if it does
// not exist.
func NewMySQLLedger(dsn string, logger *zap.Logger) (*MySQLLedger, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ticket_ledger (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			number VARCHAR(32) NOT NULL,
			subject TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger table: %w", err)
	}

	return &MySQLLedger{db: db, logger: logger}, nil
}

// Record inserts one ledger row.
func (l *MySQLLedger) Record(ctx context.Context, number, subject string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO ticket_ledger (number, subject) VALUES (?, ?)
	`, number, subject)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *MySQLLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL connection: %w", err)
	}
	return nil
}
