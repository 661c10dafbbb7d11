package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/adapters/ledger"
	"github.com/triagebot/llm-mail-triage/internal/config"
	"github.com/triagebot/llm-mail-triage/internal/core"
)

// LedgerFactory creates ledger stores based on configuration
type LedgerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLedgerFactory creates a new ledger factory
func NewLedgerFactory(cfg *config.Config, logger *zap.Logger) *LedgerFactory {
	return &LedgerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLedger creates a ledger store based on the configuration
func (f *LedgerFactory) CreateLedger() (core.Ledger, error) {
	ledgerType := f.cfg.GetString("ledger.type")

	switch ledgerType {
	case "file":
		path := f.cfg.GetString("ledger.path")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		return ledger.NewFileLedger(path, f.logger)
	case "sqlite":
		path := f.cfg.GetString("ledger.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		return ledger.NewSQLiteLedger(path, f.logger)
	case "mysql":
		return ledger.NewMySQLLedger(f.cfg.GetString("ledger.mysql_dsn"), f.logger)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", ledgerType)
	}
}
