package support

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/noteclean/internal/ocr"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastStdout   string
	LastStderr   string
	LastError    error
	LastDuration time.Duration

	// Test environment
	TempDir   string
	InputDir  string
	OutputDir string
	LastFile  string
	savedEnv  map[string]*string
	savedWd   string

	engines *fakeFactory
}

// NewTestContext creates a scenario context rooted in a fresh temp dir.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "noteclean-bdd-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	tc := &TestContext{
		TempDir:   tempDir,
		InputDir:  filepath.Join(tempDir, "input"),
		OutputDir: filepath.Join(tempDir, "output"),
		savedEnv:  map[string]*string{},
		engines:   &fakeFactory{},
	}
	if err := os.MkdirAll(tc.InputDir, 0o750); err != nil {
		return nil, err
	}
	return tc, nil
}

// Isolate points HOME and XDG_CONFIG_HOME into the temp dir and changes
// into it, so no configuration outside the scenario is picked up.
func (tc *TestContext) Isolate() error {
	for _, name := range []string{"HOME", "XDG_CONFIG_HOME"} {
		if err := tc.setEnv(name, tc.TempDir); err != nil {
			return err
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	tc.savedWd = wd
	return os.Chdir(tc.TempDir)
}

func (tc *TestContext) setEnv(name, value string) error {
	if _, saved := tc.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			tc.savedEnv[name] = &old
		} else {
			tc.savedEnv[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Cleanup restores the environment and removes the temp dir.
func (tc *TestContext) Cleanup() error {
	var errs []string
	for name, old := range tc.savedEnv {
		var err error
		if old == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *old)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if tc.savedWd != "" {
		if err := os.Chdir(tc.savedWd); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := os.RemoveAll(tc.TempDir); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// substitute expands {input}, {output}, {tmp} and {file} in a command line.
func (tc *TestContext) substitute(s string) string {
	return strings.NewReplacer(
		"{input}", tc.InputDir,
		"{output}", tc.OutputDir,
		"{tmp}", tc.TempDir,
		"{file}", tc.LastFile,
	).Replace(s)
}

// fakeFactory stands in for Tesseract; it returns the paragraphs configured
// by the scenario.
type fakeFactory struct {
	paragraphs []string
	builds     int
}

func (f *fakeFactory) NewEngine(context.Context, []string) (ocr.Engine, error) {
	f.builds++
	return fakeEngine{paragraphs: f.paragraphs}, nil
}

type fakeEngine struct {
	paragraphs []string
}

func (e fakeEngine) Recognize(context.Context, image.Image) ([]string, error) {
	return e.paragraphs, nil
}

func (fakeEngine) Close() error { return nil }
