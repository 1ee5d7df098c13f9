package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/benchline-ai/benchline-go/internal/config"
	"github.com/benchline-ai/benchline-go/internal/logging"
	"github.com/benchline-ai/benchline-go/pkg/api"
	"github.com/benchline-ai/benchline-go/pkg/client"
	"github.com/benchline-ai/benchline-go/pkg/testrun"
)

var (
	// Version can be set during the compilation
	Version string = "0.0.1"
	// Build is set during the compilation
	Build string
	// BuildDate is set during the compilation
	BuildDate string
)

type runFlags struct {
	name                 string
	dataFile             string
	datasetID            string
	workflowID           string
	promptVersionID      string
	promptChainVersionID string
	evaluators           []string
	tags                 []string
	concurrency          int
	timeoutMinutes       float64
}

func main() {
	logger, logShutdown, err := logging.NewLogger()
	if err != nil {
		// no point trying to continue without a logger
		logger = logging.FallbackLogger()
		logger.Error("Failed to create logger, using fallback", "error", err.Error())
		logShutdown = func() error { return nil }
	}
	defer func() { _ = logShutdown() }()

	root := newRootCommand(logger)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger) *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           "benchline",
		Short:         "Run and inspect Benchline test runs from the command line",
		Version:       fmt.Sprintf("%s (build %s, %s)", Version, Build, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory containing benchline.yaml (defaults to . and ./config)")

	newPlatformClient := func() (*client.Client, *config.Settings, error) {
		var dirs []string
		if configDir != "" {
			dirs = append(dirs, configDir)
		}
		settings, err := config.LoadSettings(logger, dirs...)
		if err != nil {
			return nil, nil, err
		}
		return client.NewClient(settings.BaseURL, settings.APIKey).WithLogger(logger), settings, nil
	}

	root.AddCommand(newRunCommand(logger, newPlatformClient))
	root.AddCommand(newStatusCommand(newPlatformClient))
	root.AddCommand(newResultCommand(newPlatformClient))
	return root
}

type clientFactory func() (*client.Client, *config.Settings, error)

func newRunCommand(logger *slog.Logger, newPlatformClient clientFactory) *cobra.Command {
	flags := runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a test run from a data file or hosted dataset",
		Long: `Execute a test run. Rows come from a tabular data file (--data-file) or a
hosted dataset (--dataset-id); the output for each row is produced by exactly
one of --workflow-id, --prompt-version-id or --prompt-chain-version-id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, settings, err := newPlatformClient()
			if err != nil {
				return err
			}

			builder := testrun.New(platform, flags.name, settings.WorkspaceID).
				WithConcurrency(flags.concurrency).
				WithLogger(testrun.NewSlogLogger(logger))
			if flags.dataFile != "" {
				builder = builder.WithDataFile(flags.dataFile)
			}
			if flags.datasetID != "" {
				builder = builder.WithDatasetID(flags.datasetID)
			}
			if flags.workflowID != "" {
				builder = builder.WithWorkflowID(flags.workflowID)
			}
			if flags.promptVersionID != "" {
				builder = builder.WithPromptVersionID(flags.promptVersionID)
			}
			if flags.promptChainVersionID != "" {
				builder = builder.WithPromptChainVersionID(flags.promptChainVersionID)
			}
			for _, name := range flags.evaluators {
				builder = builder.WithEvaluators(testrun.NamedEvaluator{Name: name})
			}
			if len(flags.tags) > 0 {
				builder = builder.WithTags(flags.tags...)
			}

			result, err := builder.Run(cmd.Context(), flags.timeoutMinutes)
			if err != nil {
				return err
			}

			logger.Info("Test run finished",
				"link", result.TestRunResult.Link,
				"failed_rows", len(result.FailedEntryIndices),
			)
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "test run name (required)")
	cmd.Flags().StringVar(&flags.dataFile, "data-file", "", "path to a CSV data file")
	cmd.Flags().StringVar(&flags.datasetID, "dataset-id", "", "hosted dataset id")
	cmd.Flags().StringVar(&flags.workflowID, "workflow-id", "", "workflow id used to produce outputs")
	cmd.Flags().StringVar(&flags.promptVersionID, "prompt-version-id", "", "prompt version id used to produce outputs")
	cmd.Flags().StringVar(&flags.promptChainVersionID, "prompt-chain-version-id", "", "prompt chain version id used to produce outputs")
	cmd.Flags().StringArrayVar(&flags.evaluators, "evaluator", nil, "platform evaluator name (repeatable)")
	cmd.Flags().StringArrayVar(&flags.tags, "tag", nil, "tag attached to the run (repeatable)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 10, "maximum rows processed in parallel")
	cmd.Flags().Float64Var(&flags.timeoutMinutes, "timeout-minutes", testrun.DefaultTimeoutMinutes, "minutes to wait for the run to complete")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newStatusCommand(newPlatformClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show the status and entry counts of a test run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, _, err := newPlatformClient()
			if err != nil {
				return err
			}
			status, err := platform.TestRunStatus(cmd.Context(), runHandle(platform, args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}

func newResultCommand(newPlatformClient clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "result <run-id>",
		Short: "Show the result of a completed test run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, _, err := newPlatformClient()
			if err != nil {
				return err
			}
			result, err := platform.TestRunResult(cmd.Context(), runHandle(platform, args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

// runHandle builds the minimal run handle the status and result endpoints
// need from a bare run id.
func runHandle(platform *client.Client, runID string) *api.TestRun {
	return &api.TestRun{ID: runID, Link: platform.RunLink(runID)}
}

func printJSON(cmd *cobra.Command, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
