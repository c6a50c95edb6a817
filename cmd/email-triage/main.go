package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/di"
	"go.uber.org/zap"
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
	source core.EmailSource,
	orchestrator *core.BatchOrchestrator,
	llmClient core.LLMClient,
	store core.ResultStore,
) error {
	defer logger.Sync()

	// Cancel the run on SIGINT/SIGTERM; completed items are kept
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Loading emails")
	emails, err := source.Load(ctx)
	if err != nil {
		logger.Error("Failed to load emails", zap.Error(err))
		return err
	}
	if len(emails) == 0 {
		logger.Info("No emails to process")
		return nil
	}

	logger.Info("Processing batch",
		zap.Int("emails", len(emails)),
		zap.String("model", llmClient.ModelName()))

	result := orchestrator.Run(ctx, emails)
	printSummary(result)

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close result store", zap.Error(err))
	}

	logger.Info("Done")
	return nil
}

// printSummary renders the batch outcome to stdout
func printSummary(result *core.BatchResult) {
	s := result.Summary

	fmt.Printf("\n=== Batch Summary ===\n")
	fmt.Printf("Total emails: %d\n", s.Total)
	fmt.Printf("Succeeded: %d\n", s.Succeeded)
	fmt.Printf("Failed: %d\n", s.Failed)
	fmt.Printf("Average confidence: %.2f\n", s.AvgConfidence)
	fmt.Printf("High confidence (>= 0.8): %d\n", s.HighConfidence)
	fmt.Printf("Low confidence (< 0.6): %d\n", s.LowConfidence)

	if len(s.ByIntent) > 0 {
		fmt.Printf("\n=== Intent Distribution ===\n")
		for _, intent := range sortedIntents(s.ByIntent) {
			fmt.Printf("%-20s %d\n", intent, s.ByIntent[intent])
		}
	}

	if len(s.ByAction) > 0 {
		fmt.Printf("\n=== Action Distribution ===\n")
		for _, action := range sortedActions(s.ByAction) {
			fmt.Printf("%-20s %d\n", action, s.ByAction[action])
		}
	}

	if s.Failed > 0 {
		fmt.Printf("\n=== Failures ===\n")
		for _, item := range result.Items {
			if item.Failed() {
				fmt.Printf("%s: %s\n", item.EmailID, item.Err)
			}
		}
	}
	fmt.Printf("\n")
}

func sortedIntents(m map[core.Intent]int) []core.Intent {
	keys := make([]core.Intent, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedActions(m map[core.ActionType]int) []core.ActionType {
	keys := make([]core.ActionType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
