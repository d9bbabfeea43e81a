//nolint:lll
package config

// Config represents the complete configuration for noteclean.
// It covers every command (clean, batch, ocr, pdf) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Filter  FilterConfig  `mapstructure:"filter" yaml:"filter" json:"filter"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// FilterConfig holds the adaptive threshold parameters.
type FilterConfig struct {
	BlockSize int `mapstructure:"block_size" yaml:"block_size" json:"block_size"`
	CValue    int `mapstructure:"c_value" yaml:"c_value" json:"c_value"`
}

// OCRConfig contains text extraction settings.
type OCRConfig struct {
	// Languages is the default selection for extraction.
	Languages []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	// Allowed is the set a caller may select from.
	Allowed        []string `mapstructure:"allowed" yaml:"allowed" json:"allowed"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
	// Clean runs the background filter before recognition.
	Clean bool `mapstructure:"clean" yaml:"clean" json:"clean"`
}

// BatchConfig contains folder processing settings.
type BatchConfig struct {
	Recursive    bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include      []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude      []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Suffix       string   `mapstructure:"suffix" yaml:"suffix" json:"suffix"`
	AllowSameDir bool     `mapstructure:"allow_same_dir" yaml:"allow_same_dir" json:"allow_same_dir"`
	Progress     bool     `mapstructure:"progress" yaml:"progress" json:"progress"`
}

// OutputConfig contains report formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	File    string `mapstructure:"file" yaml:"file" json:"file"`
	Runtime bool   `mapstructure:"runtime" yaml:"runtime" json:"runtime"`
}
