package pdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noteclean/internal/testutil"
	"github.com/MeKo-Tech/noteclean/internal/utils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name        string
		pageRange   string
		want        []int
		expectError bool
	}{
		{name: "empty range returns nil", pageRange: "", want: nil},
		{name: "blank range returns nil", pageRange: "  ", want: nil},
		{name: "single page", pageRange: "1", want: []int{1}},
		{name: "multiple single pages", pageRange: "1,3,5", want: []int{1, 3, 5}},
		{name: "simple range", pageRange: "1-5", want: []int{1, 2, 3, 4, 5}},
		{name: "mixed pages and ranges", pageRange: "1,3-5,7", want: []int{1, 3, 4, 5, 7}},
		{name: "range with spaces", pageRange: " 1 - 3 , 5 ", want: []int{1, 2, 3, 5}},
		{name: "overlap is deduplicated and sorted", pageRange: "5,1-3,2", want: []int{1, 2, 3, 5}},
		{name: "invalid page number", pageRange: "abc", expectError: true},
		{name: "zero page", pageRange: "0", expectError: true},
		{name: "zero start", pageRange: "0-2", expectError: true},
		{name: "invalid range format", pageRange: "1-2-3", expectError: true},
		{name: "start greater than end", pageRange: "5-1", expectError: true},
		{name: "invalid start page", pageRange: "abc-5", expectError: true},
		{name: "invalid end page", pageRange: "1-xyz", expectError: true},
		{name: "trailing comma", pageRange: "1,", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.pageRange)

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePageFromFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		want        int
		expectError bool
	}{
		{name: "pdfcpu name", filename: "scan_1_Im0.png", want: 1},
		{name: "zero padded page", filename: "scan_012_Im3.jpg", want: 12},
		{name: "single image per page", filename: "scan_3.png", want: 3},
		{name: "page prefix", filename: "page_10_image_2.jpg", want: 10},
		{name: "other document", filename: "other_1_Im0.png", expectError: true},
		{name: "no page number", filename: "scan_Im0.png", expectError: true},
		{name: "page zero", filename: "scan_0_Im0.png", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageFromFilename(tt.filename, "scan")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectExtractedImages_OrdersAndRenames(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	for _, name := range []string{
		"scan_2_Im0.png",
		"scan_1_Im1.jpg",
		"scan_1_Im0.tif",
		"scan_3_Im0.jpx",
		"readme.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("x"), 0o600))
	}

	got, err := collectExtractedImages(src, dst, "scan", "Scan", quietLogger())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, PageImage{Page: 1, Index: 1, Path: filepath.Join(dst, "Scan_page_1_image_1.tiff")}, got[0])
	assert.Equal(t, PageImage{Page: 1, Index: 2, Path: filepath.Join(dst, "Scan_page_1_image_2.jpg")}, got[1])
	assert.Equal(t, PageImage{Page: 2, Index: 1, Path: filepath.Join(dst, "Scan_page_2_image_1.png")}, got[2])
	for _, img := range got {
		assert.True(t, testutil.FileExists(img.Path), img.Path)
	}
}

func TestCollectExtractedImages_NothingUsable(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "scan_1_Im0.jpx"), []byte("x"), 0o600))

	_, err := collectExtractedImages(src, t.TempDir(), "scan", "scan", quietLogger())
	assert.ErrorIs(t, err, ErrNoPageImages)
}

func TestExtractPageImages_ErrorCases(t *testing.T) {
	ctx := context.Background()
	out := t.TempDir()

	_, err := ExtractPageImages(ctx, filepath.Join(t.TempDir(), "missing.pdf"), out, Options{})
	require.Error(t, err)

	_, err = ExtractPageImages(ctx, "unused.pdf", out, Options{Pages: "3-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page range")

	notPDF := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("not a pdf"), 0o600))
	_, err = ExtractPageImages(ctx, notPDF, out, Options{})
	require.Error(t, err)
}

// importNotes builds a PDF with one note image per page.
func importNotes(t *testing.T, pages int) string {
	t.Helper()
	dir := t.TempDir()
	imgs := testutil.WriteNotes(t, dir, pages)
	file := filepath.Join(dir, "lecture.pdf")
	if err := api.ImportImagesFile(imgs, file, nil, nil); err != nil {
		t.Skipf("pdfcpu could not build a test PDF: %v", err)
	}
	return file
}

func TestExtractPageImages_Integration(t *testing.T) {
	file := importNotes(t, 2)
	out := t.TempDir()

	got, err := ExtractPageImages(context.Background(), file, out, Options{Logger: quietLogger()})
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, img := range got {
		assert.Equal(t, i+1, img.Page)
		assert.True(t, strings.HasPrefix(filepath.Base(img.Path), "lecture_page_"), img.Path)

		_, meta, err := utils.LoadImage(img.Path)
		require.NoError(t, err)
		assert.Equal(t, testutil.SmallSize.Width, meta.Width)
	}
}

func TestExtractPageImages_PageSelection(t *testing.T) {
	file := importNotes(t, 3)

	got, err := ExtractPageImages(context.Background(), file, t.TempDir(), Options{Pages: "2", Logger: quietLogger()})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Page)

	_, err = ExtractPageImages(context.Background(), file, t.TempDir(), Options{Pages: "4"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestExtractPageImages_Canceled(t *testing.T) {
	file := importNotes(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractPageImages(ctx, file, t.TempDir(), Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIsPasswordError(t *testing.T) {
	assert.False(t, IsPasswordError(nil))
	assert.True(t, IsPasswordError(errors.New("please provide the correct password")))
	assert.True(t, IsPasswordError(errors.New("file is Encrypted")))
	assert.False(t, IsPasswordError(errors.New("xref table corrupt")))
}
