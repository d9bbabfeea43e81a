// Package pdf imports scanned notes from PDF files by extracting the page
// images embedded in them.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/MeKo-Tech/noteclean/internal/utils"
)

// ErrNoPageImages is returned when the selected pages hold no usable images.
var ErrNoPageImages = errors.New("no page images found in PDF")

// Options tune the extraction.
type Options struct {
	// Pages selects pages like "1-3,5"; empty means all pages.
	Pages string
	// Password opens encrypted files; it is tried as both user and owner
	// password.
	Password string
	Logger   *slog.Logger
}

// PageImage is one extracted image file.
type PageImage struct {
	Page  int
	Index int
	Path  string
}

// ExtractPageImages extracts every embedded image on the selected pages into
// dir and returns them ordered by page. Files are named
// <pdfbase>_page_<n>_image_<m>.<ext>. Images in formats the cleaner cannot
// decode (JPEG 2000, CCITT) are skipped.
func ExtractPageImages(ctx context.Context, file, dir string, opts Options) ([]PageImage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages, err := parsePageRange(opts.Pages)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", opts.Pages, err)
	}

	conf := model.NewDefaultConfiguration()
	if opts.Password != "" {
		conf.UserPW = opts.Password
		conf.OwnerPW = opts.Password
	}

	count, err := pageCount(file, conf)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		if p < 1 || p > count {
			return nil, fmt.Errorf("page %d out of range (document has %d pages)", p, count)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "noteclean-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}
	if err := api.ExtractImagesFile(file, tempDir, selected, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	// pdfcpu trims only a lowercase ".pdf" from the names it writes.
	prefix := strings.TrimSuffix(filepath.Base(file), ".pdf")
	return collectExtractedImages(tempDir, dir, prefix, baseName(file), logger)
}

func pageCount(file string, conf *model.Configuration) (int, error) {
	f, err := os.Open(file) //nolint:gosec // G304: user-provided PDF path
	if err != nil {
		return 0, fmt.Errorf("open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	n, err := api.PageCount(f, conf)
	if err != nil {
		if IsPasswordError(err) {
			return 0, fmt.Errorf("PDF is encrypted, supply the password: %w", err)
		}
		return 0, fmt.Errorf("read PDF: %w", err)
	}
	return n, nil
}

func baseName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collectExtractedImages moves extracted files from src into dst under
// stable names, grouped by page in extraction order.
func collectExtractedImages(src, dst, prefix, base string, logger *slog.Logger) ([]PageImage, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}

	type extracted struct {
		page int
		name string
	}
	var found []extracted
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := parsePageFromFilename(e.Name(), prefix)
		if err != nil {
			logger.Debug("skipping unrecognized extract", "file", e.Name())
			continue
		}
		found = append(found, extracted{page: page, name: e.Name()})
	}
	slices.SortStableFunc(found, func(a, b extracted) int { return a.page - b.page })

	var out []PageImage
	index := map[int]int{}
	for _, f := range found {
		ext := normalizeExt(filepath.Ext(f.name))
		if !utils.IsSupportedImage(ext) {
			logger.Warn("skipping page image in unsupported format", "file", f.name, "page", f.page)
			continue
		}
		index[f.page]++
		img := PageImage{
			Page:  f.page,
			Index: index[f.page],
			Path:  filepath.Join(dst, fmt.Sprintf("%s_page_%d_image_%d%s", base, f.page, index[f.page], ext)),
		}
		if err := moveFile(filepath.Join(src, f.name), img.Path); err != nil {
			return nil, err
		}
		out = append(out, img)
	}

	if len(out) == 0 {
		return nil, ErrNoPageImages
	}
	return out, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".tif":
		return ".tiff"
	case ".jpe":
		return ".jpg"
	}
	return ext
}

func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy.
	data, err := os.ReadFile(from) //nolint:gosec // path from our own temp dir
	if err != nil {
		return err
	}
	return os.WriteFile(to, data, 0o600)
}

// parsePageFromFilename extracts the page number from an extracted file
// name. pdfcpu names files <prefix>_<page>[_<image>].<ext>; the page may be
// zero-padded.
func parsePageFromFilename(filename, prefix string) (int, error) {
	rest, ok := strings.CutPrefix(filename, prefix+"_")
	if !ok {
		rest, ok = strings.CutPrefix(filename, "page_")
	}
	if !ok {
		return 0, errors.New("not a page file")
	}

	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end <= 0 {
		return 0, errors.New("invalid page number")
	}
	page, err := strconv.Atoi(rest[:end])
	if err != nil || page < 1 {
		return 0, errors.New("invalid page number")
	}
	return page, nil
}

// parsePageRange parses a page range string like "1-5" or "1,3,5". Pages are
// returned sorted without duplicates.
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for part := range strings.SplitSeq(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}

	slices.Sort(pages)
	return slices.Compact(pages), nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start < 1 {
			return nil, fmt.Errorf("invalid start page: %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil || page < 1 {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

// IsPasswordError reports whether err looks like an encryption failure.
// pdfcpu does not export typed errors for this.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"password", "encrypted", "decrypt"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
