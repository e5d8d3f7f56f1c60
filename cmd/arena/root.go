// arena runs two-model matchups scored by a panel of three judges.
//
// Usage:
//
//	arena match <roster.yaml> --red <model> --blue <model> [--detailed] [--evaluator heuristic|llm]
//	arena roster <roster.yaml>
package main

import (
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "LLM-judged matchups between two models",
	Long: "Arena pits two models against each other before a panel of three\n" +
		"judges, reconciles their disagreements, and declares a winner with a\n" +
		"confidence derived from the score gap.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if rootFlags.verbose {
			level = slog.LevelDebug
		}
		logger := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		cmd.SetContext(clog.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
