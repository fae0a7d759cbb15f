// =============================================================================
// XML to XLSX Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the dialect schema
// configurations that describe how each close-out export variant is flattened.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Dialect Configs (configs/*.yaml): Optional overrides of the built-in
//      STANDARD and COM schemas
//
// ARCHITECTURE:
//   The configuration system is designed to be:
//   - Data driven: Table layouts are lists of field names, not Go types
//   - Overridable: A dialect YAML replaces the built-in schema of that name
//   - Validated: All configurations are validated on load
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Line strategies control how sale lines are gathered when a section is
// declared both under a container and directly under the ticket.
const (
	// LineStrategyBoth scans the container and the direct children and keeps
	// every occurrence.
	LineStrategyBoth = "both"

	// LineStrategyNestedFirst uses the container when it exists and falls
	// back to direct children otherwise.
	LineStrategyNestedFirst = "nested_first"
)

// Output formats understood by the sink layer.
const (
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Batch size bounds.
const (
	DefaultBatchSize = 200
	MaxBatchSize     = 100000
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory where close-out XML exports are placed.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where the part workbooks are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives processed XML files when ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated output file when
	// ArchiveInputs is set.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ConfigsDir is the directory containing dialect override files.
	// Default: "./configs"
	ConfigsDir string `yaml:"configs_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file. Empty logs to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// EXTRACTION SETTINGS
	// =========================================================================

	// BatchSize is the number of tickets per output unit.
	// Default: 200
	BatchSize int `yaml:"batch_size"`

	// LineStrategy selects how sale lines are gathered.
	// Valid values: "both", "nested_first"
	// Default: "both"
	LineStrategy string `yaml:"line_strategy"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Formats lists the sinks every batch is written to.
	// Valid values: "xlsx", "csv", "sqlite"
	// Default: ["xlsx"]
	Formats []string `yaml:"formats"`

	// CSVDelimiter is the field separator of the csv format.
	// Valid values: ",", ";", "|", "tab"
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`

	// SQLitePath is the database file used by the sqlite format.
	// Default: "<output_dir>/closeout.db"
	SQLitePath string `yaml:"sqlite_path"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of documents processed at once.
	// Each document is processed single-threaded.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError determines whether to continue with other documents
	// when one document fails.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// ArchiveInputs moves processed inputs to InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs"`

	// LargeFileWarningMB logs a warning for inputs above this size.
	// Default: 30
	LargeFileWarningMB int `yaml:"large_file_warning_mb"`
}

// ShouldContinueOnError reports the effective ContinueOnError setting.
func (c *MainConfig) ShouldContinueOnError() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns a configuration with every default applied.
// It is used when no config file exists.
func DefaultMainConfig() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or is invalid.
//     A missing file is reported with an error wrapping os.ErrNotExist.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := ValidateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsNotExist reports whether err came from a missing config file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.ConfigsDir == "" {
		config.ConfigsDir = "./configs"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.LineStrategy == "" {
		config.LineStrategy = LineStrategyBoth
	}
	if len(config.Formats) == 0 {
		config.Formats = []string{FormatXLSX}
	}
	for i, f := range config.Formats {
		config.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = ","
	}
	if config.SQLitePath == "" {
		config.SQLitePath = filepath.Join(config.OutputDir, "closeout.db")
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.LargeFileWarningMB == 0 {
		config.LargeFileWarningMB = 30
	}
}

// ValidateMainConfig checks value ranges. It does not touch the filesystem;
// directories are created by the file manager when a run starts.
func ValidateMainConfig(config *MainConfig) error {
	if config.BatchSize < 1 || config.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and %d, got %d", MaxBatchSize, config.BatchSize)
	}

	switch config.LineStrategy {
	case LineStrategyBoth, LineStrategyNestedFirst:
	default:
		return fmt.Errorf("unknown line_strategy %q", config.LineStrategy)
	}

	for _, f := range config.Formats {
		switch f {
		case FormatXLSX, FormatCSV, FormatSQLite:
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be positive, got %d", config.MaxConcurrency)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	return nil
}

// LoadDialectConfigs returns the built-in dialects, with any dialect file in
// configsDir replacing the built-in schema of the same name. Files naming an
// unknown dialect are added after the built-ins, ordered by file name.
//
// PARAMETERS:
//   - configsDir: The path to the directory containing dialect files. A
//     missing directory is not an error.
//
// RETURNS:
//   - The dialects in detection priority order.
//   - An error if any file cannot be parsed or is invalid.
func LoadDialectConfigs(configsDir string) ([]*DialectConfig, error) {
	dialects := DefaultDialects()

	if configsDir == "" {
		return dialects, nil
	}
	if _, err := os.Stat(configsDir); os.IsNotExist(err) {
		return dialects, nil
	}

	files, err := filepath.Glob(filepath.Join(configsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}

	// Also check for .yml extension.
	ymlFiles, err := filepath.Glob(filepath.Join(configsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		dc, err := loadDialectConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		replaced := false
		for i, existing := range dialects {
			if strings.EqualFold(existing.Name, dc.Name) {
				dialects[i] = dc
				replaced = true
				break
			}
		}
		if !replaced {
			dialects = append(dialects, dc)
		}
	}

	return dialects, nil
}

// loadDialectConfig loads a single dialect configuration file.
func loadDialectConfig(filePath string) (*DialectConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var dc DialectConfig
	if err := yaml.Unmarshal(data, &dc); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	applyDialectDefaults(&dc)

	if err := dc.Validate(); err != nil {
		return nil, err
	}

	return &dc, nil
}
