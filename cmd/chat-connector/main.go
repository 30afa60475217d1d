package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SolaceLabs/solace-ai-connector-slack/internal/pipeline"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/config"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/registry"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/logger"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/observability"

	// Import all available connectors to register them
	_ "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/inputs/discord"
	_ "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/inputs/slack"
	_ "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/outputs/discord"
	_ "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/outputs/kafka"
	_ "github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/outputs/slack"
)

var version = "1.0.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "chat-connector",
		Short: "Chat platform connectors for AI message pipelines",
		Long: `chat-connector bridges chat platforms (Slack, Discord) to a message
pipeline. An input connector turns platform events into normalized events;
an output connector delivers responses back to the platform or onto a bus.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chat-connector v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available Input Connectors:")
			for _, name := range registry.ListInputs() {
				fmt.Printf("  - %s\n", name)
			}
			fmt.Println("\nAvailable Output Connectors:")
			for _, name := range registry.ListOutputs() {
				fmt.Printf("  - %s\n", name)
			}
		},
	})

	var inputConfigFile, outputConfigFile string
	var envOverride bool

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an input-to-output connector pipeline",
		Long: `Run a connector pipeline with the specified input and output
configurations. Configuration files are YAML; ${VAR} references are
substituted from the environment so tokens never live in config files.

Example:
  chat-connector run --input slack.yaml --output kafka.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(inputConfigFile, outputConfigFile, envOverride)
		},
	}

	runCmd.Flags().StringVarP(&inputConfigFile, "input", "i", "", "Path to input connector YAML config (required)")
	runCmd.Flags().StringVarP(&outputConfigFile, "output", "o", "", "Path to output connector YAML config (required)")
	runCmd.Flags().BoolVar(&envOverride, "env-override", false, "Let CHAT_CONNECTOR_* environment variables override file values")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("output")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(filename string, envOverride bool) (*config.BaseConfig, error) {
	if envOverride {
		return config.LoadWithEnv(filename)
	}
	return config.LoadConnectorConfig(filename)
}

func runPipeline(inputConfigFile, outputConfigFile string, envOverride bool) error {
	inputConfig, err := loadConfig(inputConfigFile, envOverride)
	if err != nil {
		return fmt.Errorf("input configuration error: %w", err)
	}

	outputConfig, err := loadConfig(outputConfigFile, envOverride)
	if err != nil {
		return fmt.Errorf("output configuration error: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:    inputConfig.Observability.LogLevel,
		Encoding: "json",
	}); err != nil {
		return fmt.Errorf("logger initialization error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get().With(
		zap.String("component", "chat-connector-cli"),
		zap.String("input", inputConfig.Type),
		zap.String("output", outputConfig.Type),
	)

	if inputConfig.Observability.EnableTracing {
		if err := observability.Initialize(observability.TracingConfig{
			ServiceName:    "chat-connector",
			ServiceVersion: version,
			SamplingRate:   inputConfig.Observability.TracingSampleRate,
		}); err != nil {
			return fmt.Errorf("tracing initialization error: %w", err)
		}
	}

	input, err := registry.CreateInput(inputConfig.Type)
	if err != nil {
		return fmt.Errorf("failed to create input connector '%s': %w", inputConfig.Type, err)
	}

	output, err := registry.CreateOutput(outputConfig.Type)
	if err != nil {
		return fmt.Errorf("failed to create output connector '%s': %w", outputConfig.Type, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := input.Initialize(ctx, inputConfig); err != nil {
		return fmt.Errorf("failed to initialize input: %w", err)
	}
	if err := output.Initialize(ctx, outputConfig); err != nil {
		return fmt.Errorf("failed to initialize output: %w", err)
	}

	log.Info("starting pipeline",
		zap.String("input_config", inputConfigFile),
		zap.String("output_config", outputConfigFile))

	p := pipeline.New(input, output, inputConfig)
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("pipeline execution failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), inputConfig.Timeouts.Shutdown)
	defer cancel()

	if err := input.Close(shutdownCtx); err != nil {
		log.Warn("failed to close input", zap.Error(err))
	}
	if err := output.Close(shutdownCtx); err != nil {
		log.Warn("failed to close output", zap.Error(err))
	}
	if err := observability.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shut down tracing", zap.Error(err))
	}

	processed, failed := p.Stats()
	log.Info("pipeline finished",
		zap.Int64("processed", processed),
		zap.Int64("failed", failed))

	return nil
}
