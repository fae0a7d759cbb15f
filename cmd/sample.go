package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmlwriter"
	"github.com/spf13/cobra"
)

var sampleOpts = xmlwriter.DefaultGenerateOptions()

var sampleOut string

// sampleCmd writes a synthetic close-out export, for trying out the
// pipeline and for load tests.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a synthetic close-out export",
	RunE: func(cmd *cobra.Command, args []string) error {
		sampleOpts.Dialect = strings.ToUpper(sampleOpts.Dialect)
		if sampleOpts.Dialect != config.DialectStandard && sampleOpts.Dialect != config.DialectCOM {
			return fmt.Errorf("unknown dialect %q", sampleOpts.Dialect)
		}

		path := sampleOut
		if path == "" {
			path = fmt.Sprintf("sample_%s_%d.xml", strings.ToLower(sampleOpts.Dialect), sampleOpts.Tickets)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		if err := xmlwriter.WriteFile(path, sampleOpts); err != nil {
			return err
		}

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %s tickets, %s)\n",
			path,
			sampleOpts.Dialect,
			humanize.Comma(int64(sampleOpts.Tickets)),
			humanize.Bytes(uint64(info.Size())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	f := sampleCmd.Flags()
	f.StringVarP(&sampleOut, "out", "o", "", "Output path (default sample_<dialect>_<tickets>.xml)")
	f.StringVar(&sampleOpts.Dialect, "dialect", sampleOpts.Dialect, "STANDARD or COM")
	f.StringVar(&sampleOpts.RootTag, "root-tag", "", "Override the root tag")
	f.IntVar(&sampleOpts.Tickets, "tickets", sampleOpts.Tickets, "Number of tickets")
	f.IntVar(&sampleOpts.LinesPerTicket, "lines", sampleOpts.LinesPerTicket, "Sale lines per ticket")
	f.IntVar(&sampleOpts.DirectLines, "direct-lines", 0, "Sale lines placed directly under the ticket")
	f.IntVar(&sampleOpts.PaymentsPerTicket, "payments", sampleOpts.PaymentsPerTicket, "Payments per ticket")
	f.StringVar(&sampleOpts.StoreID, "store", sampleOpts.StoreID, "Store identifier")
}
