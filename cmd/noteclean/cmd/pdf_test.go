package cmd

import (
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/noteclean/internal/testutil"
)

func TestPDFCommand_CleansPages(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	imgs := testutil.WriteNotes(t, dir, 2)
	file := filepath.Join(dir, "lecture.pdf")
	if err := api.ImportImagesFile(imgs, file, nil, nil); err != nil {
		t.Skipf("pdfcpu could not build a test PDF: %v", err)
	}
	out := t.TempDir()

	stdout, _, err := execute(t, nil, "pdf", file, out, "--keep-pages", "--progress=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batch complete: 2 succeeded, 0 failed")

	cleaned, err := filepath.Glob(filepath.Join(out, "lecture_page_*_cleaned.png"))
	require.NoError(t, err)
	assert.Len(t, cleaned, 2)

	kept, err := filepath.Glob(filepath.Join(out, "pages", "lecture_page_*"))
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestPDFCommand_MissingFile(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, nil, "pdf", filepath.Join(t.TempDir(), "none.pdf"), t.TempDir())
	require.Error(t, err)
}

func TestPDFCommand_BadPages(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, nil, "pdf", "x.pdf", t.TempDir(), "--pages", "3-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page range")
}
