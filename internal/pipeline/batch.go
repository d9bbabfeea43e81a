package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// BatchOptions carries the optional collaborators of RunBatch.
type BatchOptions struct {
	Progress ProgressCallback
	Logger   *slog.Logger
	Observer BatchObserver
}

// CheckOutputDir returns ErrSameDirectory when outputDir resolves to
// inputDir. Callers must get confirmation before running the batch anyway,
// since an input already ending in the suffix would be overwritten.
func CheckOutputDir(inputDir, outputDir string) error {
	in, err := resolveDir(inputDir)
	if err != nil {
		return err
	}
	out, err := resolveDir(outputDir)
	if err != nil {
		return err
	}
	if in == out {
		return ErrSameDirectory
	}
	return nil
}

func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

// OutputPath returns where the cleaned version of input is written:
// <OutputDir>/<base><suffix>.png, below the input's relative directory when
// InputRoot is set.
func (j BatchJob) OutputPath(input string) string {
	suffix := j.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + suffix + OutputExt

	dir := j.OutputDir
	if j.InputRoot != "" {
		if rel, err := filepath.Rel(j.InputRoot, filepath.Dir(input)); err == nil && !strings.HasPrefix(rel, "..") {
			dir = filepath.Join(dir, rel)
		}
	}
	return filepath.Join(dir, name)
}

// RunBatch cleans every input in order and writes the results as PNG into
// job.OutputDir, creating it if needed. An item failure is logged, counted
// and reported to the progress callback; the run continues with the next
// item. Progress is reported once per item, success or failure.
//
// Cancellation is checked before each item. A canceled run returns the
// partial result with Canceled set together with ctx.Err().
func RunBatch(ctx context.Context, job BatchJob, opts BatchOptions) (*BatchResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	if err := os.MkdirAll(job.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	total := len(job.Inputs)
	res := &BatchResult{
		OutputDir: job.OutputDir,
		Total:     total,
		Items:     make([]ItemOutcome, 0, total),
	}
	start := time.Now()
	logger.Info("batch started", "total", total, "output_dir", job.OutputDir, "params", job.Params.String())
	progress.OnStart(total)

	// output path -> input that wrote it
	written := make(map[string]string, total)

	for i, input := range job.Inputs {
		if ctx.Err() != nil {
			res.Canceled = true
			break
		}

		outcome := processItem(job, input, written)
		res.Items = append(res.Items, outcome)

		status := "ok"
		if outcome.OK() {
			res.Succeeded++
			written[outcome.Output] = input
			logger.Debug("batch item written", "file", input, "output", outcome.Output,
				"format", outcome.Format, "width", outcome.Width, "height", outcome.Height)
		} else {
			res.Failed++
			status = "error"
			logger.Warn("batch item failed", "file", input, "stage", outcome.Stage, "error", outcome.Error)
			progress.OnError(i+1, input, fmt.Errorf("%s: %s", outcome.Stage, outcome.Error))
		}
		if opts.Observer != nil {
			opts.Observer.BatchItem(status, outcome.Duration)
		}
		progress.OnProgress(i+1, total)
	}

	res.Duration = time.Since(start)
	progress.OnComplete(res)
	logger.Info("batch finished",
		"succeeded", res.Succeeded, "failed", res.Failed, "canceled", res.Canceled,
		"duration", res.Duration.Round(time.Millisecond))

	if res.Canceled {
		return res, ctx.Err()
	}
	return res, nil
}

// processItem cleans one input. Panics from decoders or the filter become a
// failed item so the batch carries on with the next file. An output path
// already written earlier in this run fails the item instead of
// overwriting the earlier result.
func processItem(job BatchJob, input string, written map[string]string) (outcome ItemOutcome) {
	start := time.Now()
	outcome = ItemOutcome{Input: input}
	fail := func(err error) ItemOutcome {
		outcome.Stage = utils.Stage(err)
		if outcome.Stage == "" {
			outcome.Stage = "write"
		}
		outcome.Output = ""
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}
	defer func() {
		if r := recover(); r != nil {
			outcome = fail(&utils.ImageProcessingError{
				Operation: "panic",
				Err:       fmt.Errorf("processing panicked: %v", r),
			})
		}
	}()

	out := job.OutputPath(input)
	if earlier, ok := written[out]; ok {
		return fail(&utils.ImageProcessingError{
			Operation: "write",
			Err:       fmt.Errorf("%w: %s is already written from %s", ErrOutputCollision, out, earlier),
		})
	}

	cleaned, meta, err := ProcessFile(input, job.Params)
	if err != nil {
		return fail(err)
	}
	outcome.Format, outcome.Width, outcome.Height = meta.Format, meta.Width, meta.Height

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return fail(err)
	}
	if err := utils.SaveImage(out, cleaned); err != nil {
		return fail(err)
	}

	outcome.Output = out
	outcome.Duration = time.Since(start)
	return outcome
}
