package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/noteclean/internal/config"
	"github.com/MeKo-Tech/noteclean/internal/filter"
	"github.com/MeKo-Tech/noteclean/internal/metrics"
	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/ocr/tesseract"
	"github.com/MeKo-Tech/noteclean/internal/version"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	loader  *config.Loader
	cfg     *config.Config
	cfgFile string
	metrics *metrics.Collector

	// engineFactory builds OCR engines; nil means Tesseract.
	engineFactory ocr.EngineFactory
	logOutput     io.Writer
}

// Option customizes the root command.
type Option func(*app)

// WithEngineFactory replaces the Tesseract engine factory.
func WithEngineFactory(f ocr.EngineFactory) Option {
	return func(a *app) { a.engineFactory = f }
}

// WithLogOutput redirects structured logs, which go to stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(a *app) { a.logOutput = w }
}

// NewRootCommand builds the command tree with a private configuration
// instance, so it can be executed more than once in-process.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{loader: config.NewLoaderWithViper(viper.New())}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "noteclean",
		Short: "Remove paper backgrounds from photographed notes and extract their text",
		Long: `noteclean turns photographed or scanned handwritten notes into clean
black-on-white images using an adaptive Gaussian threshold, and extracts
their text with Tesseract OCR.

Examples:
  noteclean clean note.jpg
  noteclean batch scans/ cleaned/ --recursive
  noteclean ocr note.jpg --lang en,pl --clean
  noteclean pdf lecture.pdf cleaned/ --pages 1-3`,
		Version:       version.String() + ", filter backend " + filter.BackendName(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.writeMetrics()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/noteclean, $HOME, /etc/noteclean)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("block-size", 21, "adaptive threshold neighborhood size (odd, >= 3)")
	flags.Int("c-value", 10, "constant subtracted from the neighborhood mean")
	flags.String("metrics-file", "", "write Prometheus metrics in text format to this file on exit")

	v := a.loader.GetViper()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("filter.block_size", flags.Lookup("block-size"))
	_ = v.BindPFlag("filter.c_value", flags.Lookup("c-value"))
	_ = v.BindPFlag("metrics.file", flags.Lookup("metrics-file"))

	rootCmd.AddCommand(
		newCleanCommand(a),
		newBatchCommand(a),
		newOCRCommand(a),
		newPDFCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	var err error
	if cmd.Name() == "init" {
		// config init must work even when the existing config is broken.
		a.cfg, err = a.loader.LoadWithFileWithoutValidation(a.cfgFile)
	} else {
		a.cfg, err = a.loader.LoadWithFile(a.cfgFile)
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	out := a.logOutput
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: logLevel(a.cfg),
	}))
	slog.SetDefault(logger)
	slog.Debug("configuration loaded",
		"file", a.loader.GetConfigFileUsed(), "settings", a.loader.GetResolvedConfig())

	a.metrics = metrics.New(a.cfg.Metrics.Runtime)
	return nil
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a *app) writeMetrics() error {
	if a.cfg == nil || a.metrics == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func (a *app) factory() ocr.EngineFactory {
	if a.engineFactory != nil {
		return a.engineFactory
	}
	return tesseract.NewFactory(tesseract.Options{TessdataPrefix: a.cfg.OCR.TessdataPrefix})
}

// signalContext is canceled by SIGINT/SIGTERM or when the command's own
// context ends.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// errCanceled marks runs stopped by a signal.
var errCanceled = errors.New("interrupted")
