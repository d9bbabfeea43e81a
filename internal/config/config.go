package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/noteclean/internal/filter"
	"github.com/MeKo-Tech/noteclean/internal/ocr"
	"github.com/MeKo-Tech/noteclean/internal/pipeline"
)

const infoLevel = "info"

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json", "csv"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	params := filter.DefaultParams()
	return Config{
		LogLevel: infoLevel,
		Filter: FilterConfig{
			BlockSize: params.BlockSize,
			CValue:    params.C,
		},
		OCR: OCRConfig{
			Languages: slices.Clone(ocr.DefaultLanguages),
			Allowed:   slices.Clone(ocr.DefaultLanguages),
		},
		Batch: BatchConfig{
			Suffix:   pipeline.DefaultSuffix,
			Progress: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if err := c.FilterParams().Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if c.Batch.Suffix == "" {
		return errors.New("batch suffix must not be empty")
	}
	if strings.ContainsAny(c.Batch.Suffix, `/\`) {
		return fmt.Errorf("invalid batch suffix %q: must not contain path separators", c.Batch.Suffix)
	}

	allowed, err := c.AllowList()
	if err != nil {
		return fmt.Errorf("ocr.allowed: %w", err)
	}
	if _, err := allowed.Resolve(c.OCR.Languages); err != nil {
		return fmt.Errorf("ocr.languages: %w", err)
	}
	return nil
}

// FilterParams converts the filter section.
func (c *Config) FilterParams() filter.Params {
	return filter.Params{BlockSize: c.Filter.BlockSize, C: c.Filter.CValue}
}

// AllowList builds the OCR language allow-list.
func (c *Config) AllowList() (*ocr.AllowList, error) {
	return ocr.NewAllowList(c.OCR.Allowed)
}

// DiscoveryOptions converts the batch section into folder discovery options.
func (c *Config) DiscoveryOptions() pipeline.DiscoveryOptions {
	return pipeline.DiscoveryOptions{
		Recursive: c.Batch.Recursive,
		Include:   c.Batch.Include,
		Exclude:   c.Batch.Exclude,
	}
}

// BatchJob builds a batch job for inputs discovered under inputDir.
func (c *Config) BatchJob(inputDir, outputDir string, inputs []string) pipeline.BatchJob {
	job := pipeline.BatchJob{
		Inputs:    inputs,
		OutputDir: outputDir,
		Params:    c.FilterParams(),
		Suffix:    c.Batch.Suffix,
	}
	if c.Batch.Recursive {
		job.InputRoot = inputDir
	}
	return job
}
