package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestFileLedgerAppendsOneLinePerTicket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.log")

	l, err := NewFileLedger(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileLedger failed: %v", err)
	}

	ctx := context.Background()
	if err := l.Record(ctx, "INC0010001", "Printer on fire"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Record(ctx, "CHG0010002", "change: rotate certs"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ledger file: %v", err)
	}

	want := "INC0010001\tPrinter on fire\nCHG0010002\tchange: rotate certs\n"
	if string(data) != want {
		t.Errorf("unexpected ledger contents:\n got %q\nwant %q", string(data), want)
	}
}

func TestFileLedgerAppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.log")
	ctx := context.Background()

	first, err := NewFileLedger(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileLedger failed: %v", err)
	}
	first.Record(ctx, "INC0010001", "first")
	first.Close()

	second, err := NewFileLedger(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileLedger failed on reopen: %v", err)
	}
	second.Record(ctx, "INC0010002", "second")
	second.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ledger file: %v", err)
	}
	want := "INC0010001\tfirst\nINC0010002\tsecond\n"
	if string(data) != want {
		t.Errorf("reopening must not truncate:\n got %q\nwant %q", string(data), want)
	}
}
