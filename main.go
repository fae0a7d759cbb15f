// =============================================================================
// XML to XLSX Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the close-out XML to XLSX converter. It
// delegates command execution to the cmd package.
//
// USAGE:
//   closeout process       - Flatten every XML file in the input directory
//   closeout detect        - Report the dialect of one or more files
//   closeout sample        - Write a synthetic export
//   closeout version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Extraction, sinks and validation (not for external import)
//   - pkg/           : Shared file utilities
//   - configs/       : Optional dialect overrides (YAML)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/XML-to-XLSX-conversion/cmd"
)

func main() {
	cmd.Execute()
}
