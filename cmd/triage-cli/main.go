package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/triagebot/llm-mail-triage/internal/adapters/ingress"
	"github.com/triagebot/llm-mail-triage/internal/core"
	"github.com/triagebot/llm-mail-triage/internal/di"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(service *core.TriageService, logger *zap.Logger) error {
		defer logger.Sync()
		return runOnce(flags, service, logger)
	}); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(flags *di.CLIFlags, service *core.TriageService, logger *zap.Logger) error {
	var input io.Reader = os.Stdin
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
	}

	email, err := ingress.ParseEmail(input)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if flags.Verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	ctx := context.Background()

	if flags.DryRun {
		fmt.Printf("\n=== Resolved Action (dry run) ===\n")
		startTime := time.Now()
		action := service.ResolveAction(ctx, email)
		printAction(action)
		fmt.Printf("Resolution time: %v\n", time.Since(startTime))
		return nil
	}

	fmt.Printf("\n=== Triage ===\n")
	startTime := time.Now()
	result := service.ProcessEmail(ctx, email)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Result ===\n")
	printAction(result.Action)
	fmt.Printf("Outcome: %s\n", result.Outcome)
	if result.TicketNumber != "" {
		fmt.Printf("Ticket: %s\n", result.TicketNumber)
	}
	if result.Err != nil {
		fmt.Printf("Error: %v\n", result.Err)
	}
	fmt.Printf("Processing time: %v\n", duration)

	if result.Outcome == core.OutcomeFailed {
		return fmt.Errorf("dispatch failed")
	}
	return nil
}

func printAction(action core.Action) {
	fmt.Printf("Action: %s\n", action.Kind)
	fmt.Printf("Priority: %s\n", action.Priority)
	fmt.Printf("Table: %s\n", action.Table)
	fmt.Printf("Status: %s\n", action.Status)
	if action.TicketNumber != "" {
		fmt.Printf("Ticket number: %s\n", action.TicketNumber)
	}
	if action.Comment != "" {
		fmt.Printf("Comment: %s\n", action.Comment)
	}
}
