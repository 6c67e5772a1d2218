package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testgen/config"
	"testgen/internal/domain"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	verbose  bool
	langFlag string
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "testgen",
	Short: "Generate unit tests for a function with an LLM",
	Long: `testgen proposes and writes unit tests for one function of a repository.
It gathers the code the function depends on through the IDE symbol service,
fits it into the model's context window and streams the generated tests.

Functions are given as file:::func:::func_start:::func_end:::container_start:::container_end
with 0-based line numbers (-1 when there is no container).

Example usage:
  testgen unit-tests "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen context "calc/calc.go:::Sum:::10:::12:::-1:::-1"
  testgen budget "calc/calc.go:::Sum:::10:::12:::-1:::-1"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	red := color.New(color.FgRed, color.Bold)
	var input *domain.InputError
	if errors.As(err, &input) {
		red.Fprint(os.Stderr, "Invalid input: ")
		fmt.Fprintln(os.Stderr, input.Msg)
		return
	}
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./testgen.yaml or ./.chat/testgen.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "repository root (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "message language, en or zh (default asks the IDE)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
