// =============================================================================
// XML to XLSX Converter - Converter Module
// =============================================================================
//
// This module contains the per-document pipeline. It orchestrates the entire
// export of a single close-out XML file, from reading the bytes to archiving
// the processed input.
//
// CONVERSION PIPELINE:
//   1. Read the XML file
//   2. Parse it and detect its dialect
//   3. Batch the tickets and hand every batch to the sinks
//   4. Check that every child row joins to a ticket
//   5. Archive the processed files
//
// CONCURRENCY:
//   Each file is processed in its own goroutine. The engine and the sinks are
//   shared; the engine is read-only and every sink is safe for concurrent
//   writes.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/extract"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/logging"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/sink"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/pkg/utils"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles lists what the sinks wrote, batch by batch.
	// This is empty if processing failed or the document had no tickets.
	OutputFiles []string

	// Success indicates whether the processing was successful. A document
	// without tickets is a success with NoData set.
	Success bool

	// NoData is set when the document holds no tickets.
	NoData bool

	// Error contains the error if processing failed.
	// This is nil if processing was successful.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// InputBytes is the size of the input file.
	InputBytes int64

	// Dialect is the dialect the document was extracted with.
	Dialect string

	// Ambiguous is set when the dialect was resolved by comparing results.
	Ambiguous bool

	// Tickets is the document-wide ticket count.
	Tickets int

	// Batches is the number of batches written.
	Batches int

	// SaleLines is the number of sale-line rows written.
	SaleLines int

	// Rows is the number of rows written across every table.
	Rows int

	// Skipped is the number of elements that could not be projected.
	Skipped int

	// LinkageErrors is the number of child rows that join to no ticket.
	LinkageErrors int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the export of a single XML file.
type Converter struct {
	// xmlPath is the path to the input XML file.
	xmlPath string

	// engine holds the compiled dialect schemas.
	engine *extract.Engine

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// sinks receive every batch. None means dry run.
	sinks []sink.Sink

	logger   Logger
	progress ProgressFunc
}

// Logger is an interface for logging.
// internal/logging provides the logrus implementation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - xmlPath: The path to the input XML file.
//   - engine: The extraction engine.
//   - mainConfig: The main application configuration.
//   - sinks: The output sinks; nil for a dry run.
//
// RETURNS:
//   - A new Converter instance.
func New(xmlPath string, engine *extract.Engine, mainConfig *config.MainConfig, sinks []sink.Sink) *Converter {
	return &Converter{
		xmlPath:    xmlPath,
		engine:     engine,
		mainConfig: mainConfig,
		sinks:      sinks,
		logger:     logging.FromLogrus(logrus.StandardLogger()).With("document", filepath.Base(xmlPath)),
	}
}

// WithLogger replaces the logger.
func (c *Converter) WithLogger(l Logger) *Converter {
	c.logger = l
	return c
}

// WithProgress registers a progress callback.
func (c *Converter) WithProgress(fn ProgressFunc) *Converter {
	c.progress = fn
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the export pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the processing.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		FilePath: c.xmlPath,
		Success:  false,
	}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	c.logger.Info("Processing file: %s", c.xmlPath)

	data, err := os.ReadFile(c.xmlPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}
	result.Stats.InputBytes = int64(len(data))

	limit := int64(c.mainConfig.LargeFileWarningMB) * 1024 * 1024
	if limit > 0 && result.Stats.InputBytes > limit {
		c.logger.Warn("Large input (%s): the whole document is held in memory while it is processed",
			humanize.Bytes(uint64(result.Stats.InputBytes)))
	}

	// =========================================================================
	// STEP 2: PARSE AND DETECT DIALECT
	// =========================================================================

	doc, err := c.engine.Open(filepath.Base(c.xmlPath), data)
	if err != nil {
		result.Error = err
		return result
	}
	// Only the parsed tree is needed from here on.
	data = nil

	result.Stats.Dialect = doc.Dialect()
	result.Stats.Ambiguous = doc.Ambiguous
	result.Stats.Tickets = doc.TicketCount()
	if doc.Ambiguous {
		c.logger.Warn("%v: %s", extract.ErrDialectAmbiguous, doc.Detection.Reason)
	}
	c.logger.Info("Dialect %s (%s), %d tickets", doc.Dialect(), doc.Detection.Reason, doc.TicketCount())

	// =========================================================================
	// STEP 3: ASSEMBLE BATCHES
	// =========================================================================

	assembler := NewAssembler(c.sinks, c.logger).OnProgress(c.progress)
	summary, err := assembler.Assemble(ctx, doc, BaseName(c.xmlPath), c.mainConfig.BatchSize)
	result.OutputFiles = summary.Outputs
	result.Stats.Batches = len(summary.Batches)
	result.Stats.SaleLines = summary.SaleLines
	result.Stats.Rows = summary.Rows
	result.Stats.Skipped = summary.Skipped

	if errors.Is(err, extract.ErrEmptyDocument) {
		c.logger.Warn("No data: %v", err)
		result.Success = true
		result.NoData = true
		return result
	}
	if err != nil {
		result.Error = fmt.Errorf("failed to write batches: %w", err)
		return result
	}
	if summary.Skipped > 0 {
		c.logger.Warn("Skipped %d element(s) that could not be extracted", summary.Skipped)
	}

	// =========================================================================
	// STEP 4: CHECK LINKAGE
	// =========================================================================

	if linkage := summary.Linkage; linkage != nil {
		result.Stats.LinkageErrors = linkage.ErrorCount
		if !linkage.IsValid || linkage.WarningCount > 0 {
			c.logger.Warn("Linkage check: %d error(s), %d warning(s)", linkage.ErrorCount, linkage.WarningCount)
			if len(c.sinks) > 0 {
				logPath := filepath.Join(c.mainConfig.OutputDir, BaseName(c.xmlPath)+"_linkage.log")
				if err := validation.WriteErrorLog(linkage.Errors, logPath); err != nil {
					c.logger.Warn("Failed to write linkage log: %v", err)
				}
			}
		}
	}

	// =========================================================================
	// STEP 5: ARCHIVE FILES
	// =========================================================================

	if c.mainConfig.ArchiveInputs && len(c.sinks) > 0 {
		if err := c.archiveFiles(result.OutputFiles); err != nil {
			// Log the error but don't fail the processing.
			c.logger.Warn("Failed to archive files: %v", err)
		}
	}

	result.Success = true
	c.logger.Info("Wrote %d batch(es), %d rows", result.Stats.Batches, result.Stats.Rows)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// archiveFiles moves the processed input to the input archive directory and
// copies every output file to the output archive directory. Outputs that are
// not plain files (CSV part directories, database rows) are left in place.
func (c *Converter) archiveFiles(outputs []string) error {
	fm := utils.NewFileManager(c.mainConfig.InputDir, c.mainConfig.OutputDir,
		c.mainConfig.InputArchiveDir, c.mainConfig.OutputArchiveDir)

	seen := make(map[string]bool)
	for _, out := range outputs {
		if seen[out] || !utils.FileExists(out) {
			continue
		}
		seen[out] = true
		if _, err := fm.ArchiveOutputFile(out); err != nil {
			return err
		}
	}

	archived, err := fm.ArchiveInputFile(c.xmlPath)
	if err != nil {
		return err
	}
	c.logger.Debug("Archived input to %s", archived)
	return nil
}
