package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/noteclean/internal/pdf"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
)

func newPDFCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf <file.pdf> <output-dir>",
		Short: "Clean the page images of a scanned PDF",
		Long: `Extract the images embedded in a scanned PDF and run the batch cleaner
over them. Cleaned pages are written as <pdf>_page_<n>_image_<m>_cleaned.png.

Examples:
  noteclean pdf lecture.pdf cleaned/
  noteclean pdf lecture.pdf cleaned/ --pages 1-3,7 --keep-pages`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyReportFlags(cmd, a.cfg)
			if cmd.Flags().Changed("suffix") {
				a.cfg.Batch.Suffix, _ = cmd.Flags().GetString("suffix")
			}
			return a.runPDF(cmd, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.String("pages", "", "pages to process, e.g. 1-3,5 (default all)")
	f.String("password", "", "password for encrypted PDFs")
	f.Bool("keep-pages", false, "keep the extracted page images in <output-dir>/pages")
	f.String("suffix", pipeline.DefaultSuffix, "suffix appended to output base names")
	addReportFlags(cmd)
	return cmd
}

func (a *app) runPDF(cmd *cobra.Command, file, outputDir string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	f := cmd.Flags()
	pages, _ := f.GetString("pages")
	password, _ := f.GetString("password")
	keep, _ := f.GetBool("keep-pages")

	pagesDir := filepath.Join(outputDir, "pages")
	if !keep {
		tmp, err := os.MkdirTemp("", "noteclean-pages-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		pagesDir = tmp
	}

	ctx, stop := signalContext(cmd)
	defer stop()
	extracted, err := pdf.ExtractPageImages(ctx, file, pagesDir, pdf.Options{Pages: pages, Password: password})
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	inputs := make([]string, len(extracted))
	for i, p := range extracted {
		inputs[i] = p.Path
	}
	job := a.cfg.BatchJob(pagesDir, outputDir, inputs)
	job.InputRoot = ""
	return a.runBatchJob(cmd, job)
}
