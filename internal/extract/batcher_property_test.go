//go:build property
// +build property

package extract

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmlwriter"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestBatchingIsLossless verifies every ticket appears once, in order.
// Property: concat(batch tickets) == all tickets
func TestBatchingIsLossless(t *testing.T) {
	engine, err := NewEngine(Options{})
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("batches partition the tickets in document order", prop.ForAll(
		func(tickets, size int) bool {
			opts := xmlwriter.DefaultGenerateOptions()
			opts.Tickets = tickets
			opts.LinesPerTicket = 1
			data, err := xmlwriter.Generate(opts)
			if err != nil {
				return false
			}
			doc, err := engine.Open("prop.xml", data)
			if err != nil {
				return false
			}

			want := 1
			sum := 0
			batches := 0
			b := doc.Batches(size)
			for b.Next() {
				batch := b.Batch()
				batches++
				if batch.Index != batches || batch.TotalTickets != tickets || batch.Tickets > size {
					return false
				}
				sum += batch.Tickets
				table := batch.Bundle.Table(types.TableTickets)
				if table == nil {
					return false
				}
				for _, r := range table.Records() {
					if r.Value("TICKETNUMBER") != strconv.Itoa(want) {
						return false
					}
					want++
				}
			}
			return b.Err() == nil && sum == tickets && batches == (tickets+size-1)/size
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t)
}

// TestProgressBelowOne verifies progress never reports completion early.
// Property: Progress(i, size, total) < 1
func TestProgressBelowOne(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("progress stays below one", prop.ForAll(
		func(index, size, total int) bool {
			p := Progress(index, size, total)
			return p >= 0 && p < 1
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 1000),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t)
}

// flatten lays every batch out as table name, header and rows.
func flatten(doc *Document, size int) ([][]string, error) {
	var out [][]string
	b := doc.Batches(size)
	for b.Next() {
		for _, table := range b.Batch().Bundle.Tables() {
			out = append(out, []string{table.Name}, table.Columns())
			for i := 0; i < table.Len(); i++ {
				out = append(out, table.Row(i))
			}
		}
	}
	return out, b.Err()
}

// TestExtractionIsRepeatable verifies identical input gives identical bundles.
// Property: flatten(open(x)) == flatten(open(x))
func TestExtractionIsRepeatable(t *testing.T) {
	engine, err := NewEngine(Options{})
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("two runs produce the same tables", prop.ForAll(
		func(tickets, size int, com bool) bool {
			opts := xmlwriter.DefaultGenerateOptions()
			opts.Tickets = tickets
			opts.DirectLines = 1
			if com {
				opts.Dialect = config.DialectCOM
			}
			data, err := xmlwriter.Generate(opts)
			if err != nil {
				return false
			}

			first, err := engine.Open("a.xml", data)
			if err != nil {
				return false
			}
			second, err := engine.Open("a.xml", data)
			if err != nil {
				return false
			}
			a, errA := flatten(first, size)
			b, errB := flatten(second, size)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		gen.IntRange(0, 30),
		gen.IntRange(1, 10),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestDetectionIsDeterministic verifies classification depends only on the
// markers present.
// Property: Detect(parse(x)) == Detect(parse(x))
func TestDetectionIsDeterministic(t *testing.T) {
	engine, err := NewEngine(Options{})
	if err != nil {
		t.Fatal(err)
	}
	roots := []string{"ItxCloseExport", "ITX_CLOSE_EXPORT_COM", "CLOSE", "Export"}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("same markers give the same dialect", prop.ForAll(
		func(root int, com bool) bool {
			opts := xmlwriter.DefaultGenerateOptions()
			opts.Tickets = 2
			opts.RootTag = roots[root]
			if com {
				opts.Dialect = config.DialectCOM
			}
			data, err := xmlwriter.Generate(opts)
			if err != nil {
				return false
			}
			first, err := engine.Open("a.xml", data)
			if err != nil {
				return false
			}
			second, err := engine.Open("b.xml", data)
			if err != nil {
				return false
			}
			return first.Detection.Name == second.Detection.Name &&
				first.Detection.Reason == second.Detection.Reason &&
				first.Dialect() == second.Dialect()
		},
		gen.IntRange(0, len(roots)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
