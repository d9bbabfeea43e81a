package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/MeKo-Tech/noteclean/internal/filter"
	"github.com/MeKo-Tech/noteclean/internal/ocr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() does not validate: %v", err)
	}
	if cfg.FilterParams() != filter.DefaultParams() {
		t.Errorf("Expected default filter params, got %v", cfg.FilterParams())
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected text format, got %s", cfg.Output.Format)
	}

	// Defaults must not alias package-level slices.
	cfg.OCR.Languages[0] = "de"
	if ocr.DefaultLanguages[0] != "en" {
		t.Error("DefaultConfig() shares ocr.DefaultLanguages")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
		{"empty format allowed", func(c *Config) { c.Output.Format = "" }, ""},
		{"csv format", func(c *Config) { c.Output.Format = "csv" }, ""},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"even block size", func(c *Config) { c.Filter.BlockSize = 20 }, "filter"},
		{"block size one", func(c *Config) { c.Filter.BlockSize = 1 }, "filter"},
		{"block size three", func(c *Config) { c.Filter.BlockSize = 3 }, ""},
		{"negative c", func(c *Config) { c.Filter.CValue = -5 }, ""},
		{"suffix with slash", func(c *Config) { c.Batch.Suffix = "a/b" }, "invalid batch suffix"},
		{"empty suffix", func(c *Config) { c.Batch.Suffix = "" }, "suffix must not be empty"},
		{"no allowed languages", func(c *Config) { c.OCR.Allowed = nil }, "ocr.allowed"},
		{"language outside allow-list", func(c *Config) { c.OCR.Languages = []string{"de"} }, "ocr.languages"},
		{"no languages", func(c *Config) { c.OCR.Languages = nil }, "ocr.languages"},
		{"language alias", func(c *Config) { c.OCR.Languages = []string{"en-US"} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_WrapsFilterError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filter.BlockSize = 4
	if err := cfg.Validate(); !errors.Is(err, filter.ErrInvalidBlockSize) {
		t.Errorf("Expected ErrInvalidBlockSize, got %v", err)
	}
}

func TestDiscoveryOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Recursive = true
	cfg.Batch.Include = []string{"*.png"}
	cfg.Batch.Exclude = []string{"*_cleaned*"}

	opts := cfg.DiscoveryOptions()
	if !opts.Recursive || opts.Include[0] != "*.png" || opts.Exclude[0] != "*_cleaned*" {
		t.Errorf("Unexpected discovery options: %+v", opts)
	}
}

func TestBatchJob(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Filter.BlockSize = 31

	job := cfg.BatchJob("/in", "/out", []string{"/in/a.png"})
	if job.InputRoot != "" {
		t.Errorf("Flat batches must not mirror directories, got root %q", job.InputRoot)
	}
	if job.Params.BlockSize != 31 || job.Suffix != "_cleaned" || job.OutputDir != "/out" {
		t.Errorf("Unexpected job: %+v", job)
	}

	cfg.Batch.Recursive = true
	if got := cfg.BatchJob("/in", "/out", nil).InputRoot; got != "/in" {
		t.Errorf("Recursive batches mirror from the input dir, got %q", got)
	}
}
