// Package ledger records every ticket the pipeline creates. The ledger is
// an advisory audit trail, not a dedup key.
package ledger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// FileLedger appends one line per created ticket to a text file.
type FileLedger struct {
	mu     sync.Mutex
	file   *os.File
	logger *zap.Logger
}

// NewFileLedger opens (or creates) the ledger file in append mode.
func NewFileLedger(path string, logger *zap.Logger) (*FileLedger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	return &FileLedger{file: file, logger: logger}, nil
}

// Record appends "<number>\t<subject>" as a single line.
func (l *FileLedger) Record(_ context.Context, number, subject string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := fmt.Fprintf(l.file, "%s\t%s\n", number, subject); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *FileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
