package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/noteclean/internal/config"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
	"github.com/MeKo-Tech/noteclean/internal/session"
)

// errItemsFailed is returned when a batch finished but some items failed.
var errItemsFailed = errors.New("some images could not be processed")

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Remove the background from every image in a folder",
		Long: `Process every supported image (PNG, JPEG, BMP, TIFF) in input-dir in
lexical order and write <name>_cleaned.png into output-dir. A file that
fails is reported and counted; processing continues with the next one.

Writing into the input folder needs --allow-same-dir.

Examples:
  noteclean batch scans/ cleaned/
  noteclean batch scans/ cleaned/ --recursive --exclude '*_cleaned*'
  noteclean batch scans/ cleaned/ --format json --output report.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyBatchFlags(cmd, a.cfg)
			return a.runBatchDir(cmd, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.BoolP("recursive", "r", false, "descend into subdirectories and mirror them in the output")
	f.StringSlice("include", nil, "only process base names matching these glob patterns")
	f.StringSlice("exclude", nil, "skip base names matching these glob patterns")
	f.String("suffix", pipeline.DefaultSuffix, "suffix appended to output base names")
	f.Bool("allow-same-dir", false, "allow output-dir to be the input directory")
	addReportFlags(cmd)
	return cmd
}

// addReportFlags registers the flags shared by batch and pdf.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("progress", true, "show a progress bar on stderr")
	f.BoolP("quiet", "q", false, "print nothing but errors")
	f.StringP("format", "f", "text", "summary format: text, json or csv")
	f.StringP("output", "o", "", "write the summary to this file instead of stdout")
}

// applyBatchFlags lets explicitly set flags override the configuration.
func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("recursive") {
		cfg.Batch.Recursive, _ = f.GetBool("recursive")
	}
	if f.Changed("include") {
		cfg.Batch.Include, _ = f.GetStringSlice("include")
	}
	if f.Changed("exclude") {
		cfg.Batch.Exclude, _ = f.GetStringSlice("exclude")
	}
	if f.Changed("suffix") {
		cfg.Batch.Suffix, _ = f.GetString("suffix")
	}
	if f.Changed("allow-same-dir") {
		cfg.Batch.AllowSameDir, _ = f.GetBool("allow-same-dir")
	}
	applyReportFlags(cmd, cfg)
}

func applyReportFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("progress") {
		cfg.Batch.Progress, _ = f.GetBool("progress")
	}
	if quiet, _ := f.GetBool("quiet"); quiet {
		cfg.Batch.Progress = false
	}
	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
}

func (a *app) runBatchDir(cmd *cobra.Command, inputDir, outputDir string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if err := pipeline.CheckOutputDir(inputDir, outputDir); err != nil {
		if !errors.Is(err, pipeline.ErrSameDirectory) || !a.cfg.Batch.AllowSameDir {
			if errors.Is(err, pipeline.ErrSameDirectory) {
				return fmt.Errorf("%w; pass --allow-same-dir to write there anyway", err)
			}
			return err
		}
		slog.Warn("writing output into the input directory", "dir", outputDir)
	}

	inputs, err := pipeline.DiscoverImagesWith(inputDir, a.cfg.DiscoveryOptions())
	if err != nil {
		return err
	}
	return a.runBatchJob(cmd, a.cfg.BatchJob(inputDir, outputDir, inputs))
}

// runBatchJob runs job through a session, draws progress and prints the
// summary.
func (a *app) runBatchJob(cmd *cobra.Command, job pipeline.BatchJob) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	s := session.New(session.Deps{BatchObserver: a.metrics, Logger: slog.Default()}, session.Options{})
	s.Run(ctx)
	defer func() { _ = s.Close() }()

	// The log reporter is what remains visible with --progress=false.
	progress := pipeline.NewMultiProgressCallback(
		pipeline.NewThrottledProgressCallback(
			pipeline.NewLogProgressCallback(slog.Default(), slog.LevelDebug).WithInterval(10),
			time.Second,
		),
	)
	if a.cfg.Batch.Progress {
		progress.Add(pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), ""))
	}

	if err := s.StartBatch(job); err != nil {
		return err
	}

	res, runErr := waitForBatch(ctx, s, progress)
	if res == nil {
		return runErr
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if !quiet || a.cfg.Output.File != "" {
		if err := a.writeReport(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		return fmt.Errorf("%w: %d of %d images processed", errCanceled, res.Processed(), res.Total)
	case runErr != nil:
		return runErr
	case res.Failed > 0:
		return fmt.Errorf("%w: %d of %d failed", errItemsFailed, res.Failed, res.Total)
	}
	return nil
}

// waitForBatch translates session events into progress callbacks until the
// batch completes.
func waitForBatch(ctx context.Context, s *session.Session, progress pipeline.ProgressCallback) (*pipeline.BatchResult, error) {
	for ev := range s.Events() {
		switch ev.Kind {
		case session.EventBatchStarted:
			progress.OnStart(ev.Total)
		case session.EventBatchProgress:
			progress.OnProgress(ev.Current, ev.Total)
		case session.EventBatchItemFailed:
			progress.OnError(ev.Current, ev.Path, ev.Err)
		case session.EventBatchDone:
			if ev.Batch != nil {
				progress.OnComplete(ev.Batch)
			}
			return ev.Batch, ev.Err
		}
	}
	return nil, fmt.Errorf("session closed before the batch finished: %w", context.Cause(ctx))
}

func (a *app) writeReport(stdout io.Writer, res *pipeline.BatchResult) error {
	report, err := pipeline.FormatBatchResult(res, a.cfg.Output.Format)
	if err != nil {
		return err
	}
	if a.cfg.Output.File == "" {
		_, err = io.WriteString(stdout, report)
		return err
	}
	if err := os.WriteFile(a.cfg.Output.File, []byte(report), 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
