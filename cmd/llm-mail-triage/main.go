package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/core"
	"github.com/triagebot/llm-mail-triage/internal/di"
	"github.com/triagebot/llm-mail-triage/internal/ports"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	mailIngress ports.MailIngress,
	model core.TextModel,
	ledger core.Ledger,
) error {
	defer logger.Sync()

	// Start the ingress
	if err := mailIngress.Start(); err != nil {
		logger.Fatal("Failed to start mail ingress", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := mailIngress.Stop(); err != nil {
		logger.Error("Failed to stop mail ingress", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := model.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close model client", zap.Error(err))
		}
	}

	if err := ledger.Close(); err != nil {
		logger.Error("Failed to close ledger", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
