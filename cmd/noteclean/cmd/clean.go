package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/noteclean/internal/pipeline"
)

func newCleanCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <image>",
		Short: "Remove the background from a single image",
		Long: `Load one image, apply the adaptive Gaussian threshold and save the
black-on-white result. The output format follows the extension of --output
(PNG, JPEG, BMP or TIFF); JPEG output is written as three-channel color.

Without --output the result is written next to the input as
<name>_cleaned.png.

Examples:
  noteclean clean note.jpg
  noteclean clean note.jpg -o clean.jpg --block-size 31 --c-value 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			return a.runClean(cmd, args[0], out)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (default <name>_cleaned.png next to the input)")
	return cmd
}

func (a *app) runClean(cmd *cobra.Command, input, output string) error {
	params := a.cfg.FilterParams()
	if err := params.Validate(); err != nil {
		return err
	}
	if output == "" {
		output = defaultCleanOutput(input, a.cfg.Batch.Suffix)
	}

	start := time.Now()
	cleaned, meta, err := pipeline.ProcessFile(input, params)
	if err != nil {
		return fmt.Errorf("processing %s: %w", input, err)
	}
	if err := pipeline.SaveAs(output, cleaned); err != nil {
		return err
	}
	a.metrics.ImageCleaned()

	slog.Info("image cleaned", "file", input, "output", output, "params", params.String(),
		"format", meta.Format, "size_bytes", meta.SizeBytes, "width", meta.Width, "height", meta.Height,
		"duration", time.Since(start).Round(time.Millisecond))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

func defaultCleanOutput(input, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+suffix+pipeline.OutputExt)
}
