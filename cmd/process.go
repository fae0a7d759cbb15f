// =============================================================================
// XML to XLSX Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which is the main command for
// flattening close-out XML exports. It orchestrates the entire pipeline.
//
// COMMAND USAGE:
//   closeout process [flags]
//
// FLAGS:
//   --file        : Process a single file instead of the input directory
//   --batch-size  : Tickets per output part (overrides batch_size)
//   --format      : Output formats (overrides formats)
//   --dry-run     : Extract and count without writing output files
//   --recursive   : Also scan subdirectories of the input directory
//
// PROCESSING PIPELINE:
//   1. Load configuration and compile the dialect schemas
//   2. Discover XML files in the input directory
//   3. For each file (concurrently, bounded by max_concurrency):
//      a. Parse the document and detect its dialect
//      b. Batch the tickets
//      c. Write every batch to the sinks
//      d. Check ticket linkage
//   4. Archive processed files
//   5. Generate summary report
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/sink"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun extracts and counts without writing output files.
var dryRun bool

// filePath is the path to a specific file to process.
var filePath string

// batchSize overrides batch_size when non-zero.
var batchSize int

// formats overrides the configured output formats.
var formats []string

// recursive scans subdirectories of the input directory.
var recursive bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Flatten close-out XML files into tables",
	Long: `The process command scans the input directory for close-out XML exports,
detects the dialect of each one and writes its tickets in batches. Every batch
is its own output unit: <name>_part001.xlsx, <name>_part002.xlsx, ...

Documents are processed concurrently. Each document is processed independently,
and errors in one document do not affect the processing of others.

On successful processing:
  - One output unit per batch is placed in the output directory
  - The original XML is moved to the input archive (archive_inputs: true)
  - A summary report is generated

On error:
  - The original XML remains in the input directory
  - Processing continues for other files (continue_on_error: true)`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runProcess(ctx, cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Extract and count without writing output files",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a specific file to process",
	)

	processCmd.Flags().IntVar(
		&batchSize,
		"batch-size",
		0,
		"Tickets per output part (default from config)",
	)

	processCmd.Flags().StringSliceVar(
		&formats,
		"format",
		nil,
		"Output formats: xlsx, csv, sqlite (default from config)",
	)

	processCmd.Flags().BoolVar(
		&recursive,
		"recursive",
		false,
		"Also scan subdirectories of the input directory",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess is the main function that orchestrates the pipeline.
func runProcess(ctx context.Context, cmd *cobra.Command) error {
	summary := utils.NewProcessingSummary()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadMainConfig(cmd)
	if err != nil {
		return err
	}
	if batchSize != 0 {
		mainConfig.BatchSize = batchSize
	}
	if len(formats) > 0 {
		mainConfig.Formats = nil
		for _, f := range formats {
			mainConfig.Formats = append(mainConfig.Formats, strings.ToLower(strings.TrimSpace(f)))
		}
	}
	if err := config.ValidateMainConfig(mainConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := newLogger(mainConfig)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With("run", summary.RunID[:8])

	engine, err := newEngine(mainConfig)
	if err != nil {
		return err
	}
	logger.Info("Loaded %d dialect(s), batch size %d", len(engine.Schemas()), mainConfig.BatchSize)

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir,
		mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)

	var inputFiles []string
	if filePath != "" {
		inputFiles = []string{filePath}
	} else {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		inputFiles, err = fm.DiscoverInputFiles(".xml", recursive)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No XML files found in the input directory.")
		return nil
	}
	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: OPEN SINKS
	// =========================================================================

	var sinks []sink.Sink
	if !dryRun {
		// The output directory must exist before a sink writes into it; the
		// sqlite sink opens its database right away.
		if err := os.MkdirAll(mainConfig.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		sinks, err = sink.New(mainConfig)
		if err != nil {
			return fmt.Errorf("failed to open sinks: %w", err)
		}
		defer sink.CloseAll(sinks)
	}

	// =========================================================================
	// STEP 4: PROCESS FILES CONCURRENTLY
	// =========================================================================

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, mainConfig.MaxConcurrency)
	results := make(chan converter.Result, len(inputFiles))

	for _, file := range inputFiles {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results <- converter.Result{FilePath: path, Error: ctx.Err()}
				return
			}

			docLogger := logger.With("document", filepath.Base(path))
			result := converter.New(path, engine, mainConfig, sinks).
				WithLogger(docLogger).
				WithProgress(func(document string, fraction float64) {
					docLogger.Debug("Progress %.0f%%", fraction*100)
				}).
				Run(ctx)

			if !result.Success && !mainConfig.ShouldContinueOnError() {
				cancel()
			}
			results <- result
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 5: COLLECT RESULTS
	// =========================================================================

	for result := range results {
		name := filepath.Base(result.FilePath)
		if !result.Success {
			summary.AddFailed(result.FilePath, result.Error)
			fmt.Printf("  ✗ %s: %v\n", name, result.Error)
			continue
		}

		summary.LinkageErrors += result.Stats.LinkageErrors
		summary.AddProcessed(utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			Dialect:     result.Stats.Dialect,
			Outputs:     result.OutputFiles,
			Bytes:       result.Stats.InputBytes,
			Batches:     result.Stats.Batches,
			Tickets:     result.Stats.Tickets,
			SaleLines:   result.Stats.SaleLines,
			Rows:        result.Stats.Rows,
			Skipped:     result.Stats.Skipped,
			ProcessTime: result.Stats.ProcessingTime,
		})

		if result.NoData {
			fmt.Printf("  - %s: no tickets (%s)\n", name, result.Stats.Dialect)
			continue
		}
		fmt.Printf("  ✓ %s [%s] %s tickets -> %d part(s) in %s\n",
			name,
			result.Stats.Dialect,
			humanize.Comma(int64(result.Stats.Tickets)),
			result.Stats.Batches,
			result.Stats.ProcessingTime.Round(time.Millisecond))
	}

	// =========================================================================
	// STEP 6: PRINT SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Input size:      %s\n", humanize.Bytes(uint64(summary.TotalBytes)))
	fmt.Printf("Rows written:    %s\n", humanize.Comma(int64(summary.TotalRows)))
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			logger.Warn("Failed to write summary: %v", err)
		} else {
			fmt.Printf("Summary:         %s\n", path)
		}
	}

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}
