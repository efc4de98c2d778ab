// Package cli wires configuration, optional backends and the engine behind
// the commonwords command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/logger"
)

type options struct {
	configPath string
	topN       int
	minLength  int
	maxLength  int
	format     string
	logLevel   string
}

// Execute runs the command line with the process arguments and returns the
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes one invocation. The report goes to stdout; logs and errors go
// to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(stderr, err)
	}
	return apperrors.ExitCode(err)
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintln(w, apperrors.UserMessage(err))
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "commonwords [flags] <file1> [file2 ...]",
		Short: "Report the most frequent words shared by every input file",
		Long: `commonwords reads the given text files in order and prints the most
frequent words that occur in every one of them. Words are runs of ASCII
letters, compared case-insensitively, within the configured length range.
Words tied with the last reported count are all printed.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage,
					"Please specify at least one file name.")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, stderr)
			if err != nil {
				return err
			}
			return runReport(cmd.Context(), cfg, args, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "%v", err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	f := cmd.Flags()
	f.IntVarP(&opts.topN, "top", "n", config.Default().Report.TopN, "number of words to report (ties at the boundary are kept)")
	f.IntVar(&opts.minLength, "min-length", config.Default().Tokenizer.MinLength, "shortest accepted word")
	f.IntVar(&opts.maxLength, "max-length", config.Default().Tokenizer.MaxLength, "longest accepted word")
	f.StringVarP(&opts.format, "format", "f", report.FormatText, "report format (text, json)")

	cmd.AddCommand(newHealthCommand(opts, stdout, stderr))
	return cmd
}

// loadConfig merges the config file, CW_* environment and flags, in
// increasing precedence, then sets up logging.
func loadConfig(cmd *cobra.Command, opts *options, stderr io.Writer) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	flags := cmd.Flags()
	if flags.Changed("top") {
		cfg.Report.TopN = opts.topN
	}
	if flags.Changed("min-length") {
		cfg.Tokenizer.MinLength = opts.minLength
	}
	if flags.Changed("max-length") {
		cfg.Tokenizer.MaxLength = opts.maxLength
	}
	if flags.Changed("format") {
		cfg.Report.Format = opts.format
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrUsage, apperrors.ExitUsage, "invalid configuration: %v", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, stderr)
	return cfg, nil
}

func runReport(ctx context.Context, cfg *config.Config, paths []string, stdout io.Writer) error {
	b := connectBackends(ctx, cfg)
	defer b.Close()

	engine, err := indexer.NewEngine(cfg, b.engineOptions()...)
	if err != nil {
		return err
	}
	r, err := engine.Run(ctx, paths)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("run interrupted")
		}
		return err
	}
	if err := report.Write(stdout, r, cfg.Report.Format); err != nil {
		return err
	}

	// Sink failures are logged by the engine and do not affect the exit code.
	_ = engine.Deliver(ctx, r)

	if cfg.Metrics.Enabled && cfg.Metrics.Textfile != "" {
		if err := engine.Metrics().WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return nil
}
