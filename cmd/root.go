// =============================================================================
// XML to XLSX Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (closeout)
//   ├── processCmd (closeout process)
//   ├── detectCmd  (closeout detect)
//   ├── sampleCmd  (closeout sample)
//   └── versionCmd (closeout version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Loading the main configuration and the dialect schemas
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/extract"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/logging"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logJSON switches the log formatter to JSON.
var logJSON bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "closeout",
	Short: "Close-out XML to XLSX - Flatten POS close-out exports into tables",
	Long: `closeout flattens the hierarchical close-out XML exported by store POS
systems into flat tables: tickets, sale lines, payments, ticket data, counters,
authorizations, customer tickets, voided tickets, transactions, warnings and
store information.

Key Features:
  - Detects the export dialect (STANDARD or COM) from the document itself
  - Batches tickets so very large exports are written part by part
  - Every child row carries the key of its parent ticket
  - Writes XLSX workbooks, CSV folders or a SQLite database
  - Concurrent processing of independent documents

Example Usage:
  closeout process                       # Process all files in the input directory
  closeout process --file close.xml      # Process a single file
  closeout detect close.xml              # Report the dialect of a file
  closeout sample --tickets 1000         # Write a synthetic export`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().BoolVar(
		&logJSON,
		"log-json",
		false,
		"Write log entries as JSON",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadMainConfig reads the main configuration. A missing file at the default
// location falls back to the built-in defaults; a missing file that was asked
// for explicitly is an error.
func loadMainConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if config.IsNotExist(err) && !cmd.Flags().Changed("config") {
		return config.DefaultMainConfig(), nil
	}
	return nil, fmt.Errorf("failed to load main config: %w", err)
}

// newLogger builds the application logger from the configuration and flags.
func newLogger(cfg *config.MainConfig) (*logging.Logger, io.Closer, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level: level,
		File:  cfg.LogFile,
		JSON:  logJSON,
	})
}

// newEngine loads the dialect schemas and compiles them.
func newEngine(cfg *config.MainConfig) (*extract.Engine, error) {
	dialects, err := config.LoadDialectConfigs(cfg.ConfigsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dialect configs: %w", err)
	}
	engine, err := extract.NewEngine(extract.Options{
		Dialects:     dialects,
		LineStrategy: cfg.LineStrategy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile dialects: %w", err)
	}
	return engine, nil
}
