// analyze-signal runs the signal pipeline offline against a JSON request
// file and prints the resulting signal. Useful for strategy debugging and
// for replaying captured market snapshots without a running server.
//
// Usage:
//
//	analyze-signal request.json
//	cat request.json | analyze-signal
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"signal-fusion-engine/internal/engine"
	"signal-fusion-engine/internal/logging"
	"signal-fusion-engine/internal/signal"
)

func main() {
	input, err := readInput()
	if err != nil {
		fmt.Printf("Failed to read request: %v\n", err)
		os.Exit(1)
	}

	var req signal.GenerateRequest
	if err := json.Unmarshal(input, &req); err != nil {
		fmt.Printf("Failed to parse request: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(&logging.Config{
		Level:  getEnv("LOG_LEVEL", "WARN"),
		Output: "stderr",
	})

	registry := engine.NewRegistry(logger)
	generator := signal.NewGenerator(registry, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sig, err := generator.Generate(ctx, &req)
	if err != nil {
		var validationErr *signal.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Println("Request rejected:")
			for _, e := range validationErr.Errors {
				fmt.Printf("  - %s\n", e)
			}
			os.Exit(2)
		}
		fmt.Printf("Generation failed: %v\n", err)
		os.Exit(1)
	}

	printSummary(sig)

	out, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode signal: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func readInput() ([]byte, error) {
	if len(os.Args) > 1 {
		return os.ReadFile(os.Args[1])
	}
	return io.ReadAll(os.Stdin)
}

func printSummary(sig *signal.Signal) {
	fmt.Fprintln(os.Stderr, "================================================================================")
	fmt.Fprintf(os.Stderr, "SIGNAL  %s  %s\n", sig.AssetID, sig.Action)
	fmt.Fprintln(os.Stderr, "================================================================================")
	fmt.Fprintf(os.Stderr, "  final score:  %+.4f\n", sig.FinalScore)
	fmt.Fprintf(os.Stderr, "  confidence:   %.4f\n", sig.Confidence)
	for name, score := range sig.EngineScores {
		fmt.Fprintf(os.Stderr, "  %-12s  score %+.4f  confidence %.4f\n", name, score.Score, score.Confidence)
	}
	if sig.PositionSizing != nil && sig.PositionSizing.PositionSize > 0 {
		fmt.Fprintf(os.Stderr, "  position:     %.2f (%.2f%% of portfolio)\n",
			sig.PositionSizing.PositionSize, sig.PositionSizing.PositionPercentage)
	}
	if sig.Error != "" {
		fmt.Fprintf(os.Stderr, "  degraded:     %s\n", sig.Error)
	}
	fmt.Fprintln(os.Stderr, "================================================================================")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
