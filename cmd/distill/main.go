// Command distill compresses a conversation into a layered context and
// scores compressed variants against a ground-truth list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/distill/pkg/config"
	"github.com/entrhq/distill/pkg/logging"
	"github.com/entrhq/distill/pkg/types"
)

const version = "0.1.0"

// Exit codes.
const (
	exitError           = 1
	exitInvalidArgument = 2
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	verbosity  string
	provider   string
	model      string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxTokens  int64
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, types.ErrInvalidArgument) {
		return exitInvalidArgument
	}
	return exitError
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "distill",
		Short: "distill - layered context compression for long conversations",
		Long: `distill compresses a conversation into structured memory, a summary and
the most recent turns, and measures how much decision-relevant information
each compressed variant retains.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.distill/config.yaml)")
	pf.StringVarP(&g.verbosity, "verbosity", "v", "", "log verbosity: quiet, normal, verbose, debug")
	pf.StringVar(&g.provider, "provider", "", "LLM provider: openai, anthropic, gemini")
	pf.StringVar(&g.model, "model", "", "LLM model name")
	pf.StringVar(&g.baseURL, "base-url", "", "LLM API base URL")
	pf.StringVar(&g.apiKey, "api-key", "", "LLM API key")
	pf.DurationVar(&g.timeout, "timeout", 0, "LLM request timeout (e.g. 60s)")
	pf.Int64Var(&g.maxTokens, "max-tokens", 0, "cap on generated summary tokens (0 keeps the provider default)")

	root.AddCommand(newCompressCmd(g))
	root.AddCommand(newEvaluateCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "distill %s\n", version)
		},
	}
}

// loadConfig reads the config file and applies the verbosity flag. At
// verbose and debug levels the log location is reported on stderr.
func (g *globalFlags) loadConfig(stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.verbosity != "" {
		cfg.Logging.Verbosity = g.verbosity
	}
	if err := logging.SetVerbosity(cfg.Logging.Verbosity); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
	}
	if v := cfg.Logging.Verbosity; v == "verbose" || v == "debug" {
		if dir, err := logging.GetLogDirectory(); err == nil {
			fmt.Fprintf(stderr, "Session %s, logs in %s\n", logging.GetSessionID(), dir)
		}
	}
	return cfg, nil
}

func (g *globalFlags) overrides() config.Overrides {
	return config.Overrides{
		Provider:  g.provider,
		Model:     g.model,
		BaseURL:   g.baseURL,
		APIKey:    g.apiKey,
		Timeout:   g.timeout,
		MaxTokens: g.maxTokens,
	}
}
