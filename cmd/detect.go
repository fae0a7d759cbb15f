package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// detectCmd reports the dialect of each file without writing anything.
var detectCmd = &cobra.Command{
	Use:   "detect <file.xml>...",
	Short: "Report the dialect and ticket count of close-out files",
	Long: `The detect command parses each file, classifies its dialect, counts its
tickets and the rows of every table. Nothing is written. An UNKNOWN document
is resolved the way process resolves it: every dialect is tried and the one
yielding the most rows wins.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, err := loadMainConfig(cmd)
		if err != nil {
			return err
		}
		engine, err := newEngine(mainConfig)
		if err != nil {
			return err
		}

		failed := 0
		out := cmd.OutOrStdout()
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++
				continue
			}
			doc, err := engine.Open(filepath.Base(path), data)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed++
				continue
			}

			dialect := doc.Dialect()
			if doc.Ambiguous {
				dialect += " (ambiguous)"
			}
			fmt.Fprintf(out, "%s: %s via %s, %s tickets, %s\n",
				path,
				dialect,
				doc.Detection.Reason,
				humanize.Comma(int64(doc.TicketCount())),
				humanize.Bytes(uint64(len(data))))

			if doc.Empty() {
				continue
			}
			rows := make(map[string]int)
			var order []string
			batches := doc.Batches(doc.TicketCount())
			for batches.Next() {
				for _, t := range batches.Batch().Bundle.Tables() {
					if _, ok := rows[t.Name]; !ok {
						order = append(order, t.Name)
					}
					rows[t.Name] += t.Len()
				}
			}
			if err := batches.Err(); err != nil {
				fmt.Fprintf(out, "  %v\n", err)
				failed++
				continue
			}
			for _, name := range order {
				fmt.Fprintf(out, "  %-20s %s\n", name, humanize.Comma(int64(rows[name])))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d file(s) could not be processed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
