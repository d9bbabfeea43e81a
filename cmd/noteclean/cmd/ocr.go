package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
	"github.com/MeKo-Tech/noteclean/internal/session"
	"github.com/MeKo-Tech/noteclean/internal/utils"
)

func newOCRCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr <image>",
		Short: "Extract text from an image",
		Long: `Run Tesseract OCR over an image and print the recognized paragraphs, one
per line. With --clean the background filter runs first and
OCR reads the cleaned image.

Languages come from a closed allow-list (ocr.allowed, default en and pl).
The engine for the selected language set is built on first use. An empty
or unknown language is rejected before the image is read.

Examples:
  noteclean ocr note.jpg
  noteclean ocr note.jpg --lang pl --clean
  noteclean ocr note.jpg --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if f.Changed("lang") {
				a.cfg.OCR.Languages, _ = f.GetStringSlice("lang")
			}
			if f.Changed("clean") {
				a.cfg.OCR.Clean, _ = f.GetBool("clean")
			}
			if f.Changed("tessdata") {
				a.cfg.OCR.TessdataPrefix, _ = f.GetString("tessdata")
			}
			format, _ := f.GetString("format")
			return a.runOCR(cmd, args[0], format)
		},
	}

	f := cmd.Flags()
	f.StringSliceP("lang", "l", ocr.DefaultLanguages, "OCR languages, comma separated")
	f.Bool("clean", false, "remove the background before recognition")
	f.String("tessdata", "", "directory holding Tesseract traineddata files")
	f.StringP("format", "f", "text", "output format: text or json")
	return cmd
}

// ocrOutput is the JSON shape of the ocr command.
type ocrOutput struct {
	File      string       `json:"file"`
	Cleaned   bool         `json:"cleaned"`
	Languages []string     `json:"languages"`
	Text      string       `json:"text"`
	Error     *ocr.Failure `json:"error,omitempty"`
}

func (a *app) runOCR(cmd *cobra.Command, input, format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	allowed, err := a.cfg.AllowList()
	if err != nil {
		return err
	}
	if _, err := allowed.Resolve(a.cfg.OCR.Languages); err != nil {
		res := &ocr.Result{Languages: a.cfg.OCR.Languages, Err: ocr.NewFailure(ocr.StageLanguages, err)}
		return a.printOCR(cmd, input, format, res)
	}

	img, meta, err := utils.LoadImage(input)
	if err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}
	slog.Debug("image loaded", "file", input, "format", meta.Format, "width", meta.Width, "height", meta.Height)

	if a.cfg.OCR.Clean {
		if img, err = pipeline.Process(img, a.cfg.FilterParams()); err != nil {
			return fmt.Errorf("cleaning %s: %w", input, err)
		}
		a.metrics.ImageCleaned()
	}

	gw := ocr.NewGateway(a.factory(),
		ocr.WithAllowList(allowed),
		ocr.WithObserver(a.metrics),
		ocr.WithLogger(slog.Default()),
	)
	defer func() { _ = gw.Close() }()

	res, err := a.extract(cmd, gw, img)
	if err != nil {
		return err
	}
	slog.Debug("ocr gateway stats", "stats", gw.Stats(), "cached", gw.CachedLanguages())
	return a.printOCR(cmd, input, format, res)
}

// printOCR writes res and returns its failure, if any.
func (a *app) printOCR(cmd *cobra.Command, input, format string, res *ocr.Result) error {
	if format == "json" {
		out := ocrOutput{File: input, Cleaned: a.cfg.OCR.Clean, Languages: res.Languages, Text: res.Text, Error: res.Err}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else if res.OK() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	}

	if !res.OK() {
		return res.Err
	}
	return nil
}

// extract runs one OCR job through a session so that Ctrl-C cancels it.
func (a *app) extract(cmd *cobra.Command, ext session.Extractor, img image.Image) (*ocr.Result, error) {
	ctx, stop := signalContext(cmd)
	defer stop()

	s := session.New(session.Deps{OCR: ext, Logger: slog.Default()}, session.Options{})
	s.Run(ctx)
	defer func() { _ = s.Close() }()

	if err := s.StartOCR(img, a.cfg.OCR.Languages); err != nil {
		return nil, err
	}
	for ev := range s.Events() {
		if ev.Kind == session.EventOCRDone {
			return ev.OCR, nil
		}
	}
	return nil, errors.New("session closed before OCR finished")
}
