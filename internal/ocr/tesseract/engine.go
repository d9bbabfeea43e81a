//go:build !notesseract

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
)

// Factory builds gosseract-backed engines.
type Factory struct {
	opts Options
}

// NewFactory returns a factory using opts for every engine it builds.
func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

// Available reports whether this build links a real backend.
func Available() bool { return true }

// NewEngine implements ocr.EngineFactory. The client runs one recognition on
// a blank page before returning, so missing traineddata fails here rather
// than on the first real request.
func (f *Factory) NewEngine(ctx context.Context, languages []string) (ocr.Engine, error) {
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		code, err := ocr.ISO3(l)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	client := gosseract.NewClient()
	if f.opts.TessdataPrefix != "" {
		client.TessdataPrefix = f.opts.TessdataPrefix
	}
	if err := client.SetLanguage(codes...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := warmUp(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("load %s: %w", strings.Join(codes, "+"), err)
	}

	return &Engine{client: client}, nil
}

func warmUp(c *gosseract.Client) error {
	blank := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	data, err := encodePNG(blank)
	if err != nil {
		return err
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return err
	}
	_, err = c.Text()
	return err
}

// Engine is a single Tesseract client. It is not safe for concurrent use;
// the ocr.Gateway serializes access.
type Engine struct {
	client *gosseract.Client
}

// Recognize implements ocr.Engine, returning one entry per layout paragraph.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_PARA)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	paragraphs := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if text := strings.TrimSpace(b.Word); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return paragraphs, nil
}

// Close implements ocr.Engine.
func (e *Engine) Close() error {
	return e.client.Close()
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
