package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/extract"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/logging"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/sink"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/internal/xmlwriter"
	"github.com/ginjaninja78/XML-to-XLSX-conversion/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultMainConfig()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "input_archive")
	cfg.OutputArchiveDir = filepath.Join(root, "output_archive")
	cfg.BatchSize = 10
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	return cfg
}

func testEngine(t *testing.T) *extract.Engine {
	t.Helper()
	e, err := extract.NewEngine(extract.Options{})
	require.NoError(t, err)
	return e
}

func writeSample(t *testing.T, dir, name string, tickets int) string {
	t.Helper()
	opts := xmlwriter.DefaultGenerateOptions()
	opts.Tickets = tickets
	path := filepath.Join(dir, name)
	require.NoError(t, xmlwriter.WriteFile(path, opts))
	return path
}

func TestRunWritesEveryBatch(t *testing.T) {
	cfg := testConfig(t)
	path := writeSample(t, cfg.InputDir, "close_0042.xml", 25)
	mem := &sink.Memory{}

	var progress []float64
	result := New(path, testEngine(t), cfg, []sink.Sink{mem}).
		WithLogger(logging.Discard()).
		WithProgress(func(document string, fraction float64) {
			assert.Equal(t, "close_0042.xml", document)
			progress = append(progress, fraction)
		}).
		Run(context.Background())

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.False(t, result.NoData)
	assert.Equal(t, config.DialectStandard, result.Stats.Dialect)
	assert.Equal(t, 25, result.Stats.Tickets)
	assert.Equal(t, 3, result.Stats.Batches)
	assert.Equal(t, 50, result.Stats.SaleLines)
	assert.Zero(t, result.Stats.LinkageErrors)
	assert.Equal(t, []string{"close_0042_part001", "close_0042_part002", "close_0042_part003"}, result.OutputFiles)

	require.Len(t, mem.Units, 3)
	assert.Equal(t, 10, mem.Units[0].Bundle.Rows(types.TableTickets))
	assert.Equal(t, 5, mem.Units[2].Bundle.Rows(types.TableTickets))
	for _, u := range mem.Units {
		assert.Equal(t, 25, u.TotalTickets)
		assert.Equal(t, 1, u.Bundle.Rows(types.TableStoreInfo))
	}

	require.Len(t, progress, 4)
	assert.Equal(t, []float64{0.4, 0.8, 0.99, 1}, progress)
}

func TestRunEmptyDocumentIsNoData(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.InputDir, "empty.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<ItxCloseExport><STORE_INFO storeId="1"/></ItxCloseExport>`), 0644))
	mem := &sink.Memory{}

	result := New(path, testEngine(t), cfg, []sink.Sink{mem}).WithLogger(logging.Discard()).Run(context.Background())
	assert.True(t, result.Success)
	assert.True(t, result.NoData)
	assert.NoError(t, result.Error)
	assert.Empty(t, mem.Units)
}

func TestRunMalformedDocument(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.InputDir, "broken.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<ItxCloseExport><TICKET>`), 0644))

	result := New(path, testEngine(t), cfg, nil).WithLogger(logging.Discard()).Run(context.Background())
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, extract.ErrDocumentParse))
}

func TestRunMissingFile(t *testing.T) {
	cfg := testConfig(t)
	result := New(filepath.Join(cfg.InputDir, "nope.xml"), testEngine(t), cfg, nil).
		WithLogger(logging.Discard()).Run(context.Background())
	assert.False(t, result.Success)
	assert.True(t, errors.Is(result.Error, os.ErrNotExist))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveInputs = true
	path := writeSample(t, cfg.InputDir, "dry.xml", 12)

	result := New(path, testEngine(t), cfg, nil).WithLogger(logging.Discard()).Run(context.Background())
	require.NoError(t, result.Error)
	assert.Equal(t, 2, result.Stats.Batches)
	assert.Empty(t, result.OutputFiles)
	assert.True(t, utils.FileExists(path))
	assert.False(t, utils.FileExists(cfg.OutputDir))
}

func TestRunXLSXAndArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchiveInputs = true
	path := writeSample(t, cfg.InputDir, "store.xml", 4)

	result := New(path, testEngine(t), cfg, []sink.Sink{sink.NewXLSX(cfg.OutputDir)}).
		WithLogger(logging.Discard()).Run(context.Background())
	require.NoError(t, result.Error)
	require.Len(t, result.OutputFiles, 1)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "store_part001.xlsx"), result.OutputFiles[0])

	sheets, order, err := sink.ReadWorkbook(result.OutputFiles[0])
	require.NoError(t, err)
	assert.Equal(t, types.TableTickets, order[0])
	assert.Len(t, sheets[types.TableTickets], 5)

	assert.False(t, utils.FileExists(path))
	assert.True(t, utils.FileExists(filepath.Join(cfg.InputArchiveDir, "store.xml")))
	assert.True(t, utils.FileExists(filepath.Join(cfg.OutputArchiveDir, "store_part001.xlsx")))
}

func TestAssembleStopsOnCancel(t *testing.T) {
	opts := xmlwriter.DefaultGenerateOptions()
	opts.Tickets = 30
	data, err := xmlwriter.Generate(opts)
	require.NoError(t, err)
	doc, err := testEngine(t).Open("cancel.xml", data)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	mem := &sink.Memory{}
	summary, err := NewAssembler([]sink.Sink{mem}, logging.Discard()).
		OnProgress(func(string, float64) { cancel() }).
		Assemble(ctx, doc, "cancel", 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, summary.Batches, 1)
	assert.Len(t, mem.Units, 1)
	assert.Nil(t, summary.Linkage)
}

func TestAssembleSummary(t *testing.T) {
	opts := xmlwriter.DefaultGenerateOptions()
	opts.Tickets = 7
	opts.LinesPerTicket = 3
	data, err := xmlwriter.Generate(opts)
	require.NoError(t, err)
	doc, err := testEngine(t).Open("summary.xml", data)
	require.NoError(t, err)

	summary, err := NewAssembler(nil, logging.Discard()).Assemble(context.Background(), doc, "summary", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalTickets)
	require.Len(t, summary.Batches, 2)
	assert.Equal(t, 5, summary.Batches[0].Tickets)
	assert.Equal(t, 2, summary.Batches[1].Tickets)
	assert.Equal(t, 21, summary.SaleLines)
	require.NotNil(t, summary.Linkage)
	assert.True(t, summary.Linkage.IsValid)
	assert.Equal(t, 7, summary.Linkage.TicketsChecked)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "close_0042", BaseName("/data/in/close_0042.xml"))
	assert.Equal(t, "archive.tar", BaseName("archive.tar.xml"))
}
