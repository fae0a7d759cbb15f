package utils

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.xml"))
	touch(t, filepath.Join(dir, "a.XML"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "nested", "c.xml"))

	fm := NewFileManager(dir, "", "", "")

	files, err := fm.DiscoverInputFiles("", false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.XML"), filepath.Join(dir, "b.xml")}, files)

	files, err = fm.DiscoverInputFiles(".xml", true)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestArchive(t *testing.T) {
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "in"), filepath.Join(root, "out"),
		filepath.Join(root, "in_archive"), filepath.Join(root, "out_archive"))
	fm.UseTimestampSubdirs = true
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())

	input := filepath.Join(fm.InputDir, "close.xml")
	touch(t, input)
	archived, err := fm.ArchiveInputFile(input)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "in_archive", "2024", "01", "15", "close.xml"), archived)
	assert.False(t, FileExists(input))
	assert.True(t, FileExists(archived))

	output := filepath.Join(fm.OutputDir, "close_part001.xlsx")
	touch(t, output)
	copied, err := fm.ArchiveOutputFile(output)
	require.NoError(t, err)
	assert.True(t, FileExists(output))
	assert.True(t, FileExists(copied))

	partDir := filepath.Join(fm.OutputDir, "close_part002")
	require.NoError(t, os.MkdirAll(partDir, 0755))
	copied, err = fm.ArchiveOutputFile(partDir)
	require.NoError(t, err)
	assert.Empty(t, copied)
}

func TestSummary(t *testing.T) {
	s := NewProcessingSummary()
	assert.Len(t, s.RunID, 36)

	s.AddProcessed(ProcessedFileInfo{InputFile: "a.xml", Dialect: "STANDARD", Bytes: 2048, Tickets: 1200, Rows: 5000, Batches: 6})
	s.AddProcessed(ProcessedFileInfo{InputFile: "empty.xml", Dialect: "UNKNOWN"})
	s.AddFailed("bad.xml", errors.New("failed to parse document"))
	s.EndTime = s.StartTime.Add(time.Second)

	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 2, s.SuccessfulFiles)
	assert.Equal(t, 1, s.NoDataFiles)
	assert.Equal(t, 1, s.FailedFiles)

	var buf bytes.Buffer
	require.NoError(t, FormatSummary(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "Tickets:            1,200")
	assert.Contains(t, out, "Input Size:         2.0 kB")
	assert.Contains(t, out, "Error: failed to parse document")

	path, err := WriteSummaryLog(s, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), s.RunID)
}
