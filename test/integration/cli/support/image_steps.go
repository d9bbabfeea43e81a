package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/noteclean/internal/testutil"
	"github.com/MeKo-Tech/noteclean/internal/utils"
)

func (tc *TestContext) writeNote(path, line string) error {
	cfg := testutil.DefaultNoteConfig()
	cfg.Size = testutil.SmallSize
	cfg.Scale = 1
	cfg.Lines = []string{line}
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.SaveImage(path, testutil.GenerateNote(cfg))
}

func (tc *TestContext) aNoteImage(name string) error {
	tc.LastFile = filepath.Join(tc.InputDir, name)
	return tc.writeNote(tc.LastFile, "Buy milk")
}

func (tc *TestContext) theInputFolderHasNotes(n int) error {
	for i := range n {
		p := filepath.Join(tc.InputDir, fmt.Sprintf("note_%02d.png", i+1))
		if err := tc.writeNote(p, fmt.Sprintf("Note %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TestContext) theInputSubfolderHasNotes(sub string, n int) error {
	for i := range n {
		p := filepath.Join(tc.InputDir, sub, fmt.Sprintf("page_%02d.png", i+1))
		if err := tc.writeNote(p, fmt.Sprintf("Page %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TestContext) aCorruptImage(name string) error {
	return os.WriteFile(filepath.Join(tc.InputDir, name), []byte("this is not an image"), 0o600)
}

func (tc *TestContext) aPDFWithPages(n int) error {
	pages := make([]string, 0, n)
	dir := filepath.Join(tc.TempDir, "pdf-src")
	for i := range n {
		p := filepath.Join(dir, fmt.Sprintf("page_%d.png", i+1))
		if err := tc.writeNote(p, fmt.Sprintf("Page %d", i+1)); err != nil {
			return err
		}
		pages = append(pages, p)
	}
	tc.LastFile = filepath.Join(tc.TempDir, "notes.pdf")
	if err := api.ImportImagesFile(pages, tc.LastFile, nil, nil); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return nil
}

func (tc *TestContext) theOCREngineReads(text *godog.DocString) error {
	tc.engines.paragraphs = strings.Split(strings.TrimSpace(text.Content), "\n")
	return nil
}

func (tc *TestContext) noOCREngineShouldHaveBeenBuilt() error {
	if tc.engines.builds != 0 {
		return fmt.Errorf("expected no engine construction, got %d", tc.engines.builds)
	}
	return nil
}

// theOutputFolderShouldContainCleanedImages checks the count of PNG outputs
// (recursively) and that every one of them is strictly black and white.
func (tc *TestContext) theOutputFolderShouldContainCleanedImages(n int) error {
	var found []string
	err := filepath.WalkDir(tc.OutputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".png") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(found) != n {
		return fmt.Errorf("expected %d cleaned images in %s, found %d: %v", n, tc.OutputDir, len(found), found)
	}
	for _, p := range found {
		if err := tc.isBinary(p); err != nil {
			return err
		}
	}
	return nil
}

func (tc *TestContext) theImageShouldBeBlackAndWhite(path string) error {
	return tc.isBinary(tc.substitute(path))
}

func (tc *TestContext) isBinary(path string) error {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return err
	}
	if !testutil.IsBinary(img) {
		return fmt.Errorf("%s contains pixels other than pure black and white", path)
	}
	return nil
}

// RegisterImageSteps registers fixture and image assertion steps.
func (tc *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a note image "([^"]*)"$`, tc.aNoteImage)
	sc.Step(`^the input folder has (\d+) notes$`, tc.theInputFolderHasNotes)
	sc.Step(`^the input subfolder "([^"]*)" has (\d+) notes$`, tc.theInputSubfolderHasNotes)
	sc.Step(`^a corrupt image "([^"]*)" in the input folder$`, tc.aCorruptImage)
	sc.Step(`^a PDF with (\d+) note pages$`, tc.aPDFWithPages)
	sc.Step(`^the OCR engine reads:$`, tc.theOCREngineReads)
	sc.Step(`^no OCR engine should have been built$`, tc.noOCREngineShouldHaveBeenBuilt)
	sc.Step(`^the output folder should contain (\d+) cleaned images?$`, tc.theOutputFolderShouldContainCleanedImages)
	sc.Step(`^the image "([^"]*)" should be black and white$`, tc.theImageShouldBeBlackAndWhite)
}
