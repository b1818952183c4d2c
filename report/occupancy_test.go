package report

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/DGLocator/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]int{0, 2, 4, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Cells)
	assert.Equal(t, 8, s.Entries)
	assert.Equal(t, 1, s.Empty)
	assert.Equal(t, 0, s.Min)
	assert.Equal(t, 4, s.Max)
	assert.InDelta(t, 2., s.Mean, 1e-12)
	// unbiased: sum of squares 8 over 3
	assert.InDelta(t, 1.632993161855452, s.StdDev, 1e-12)
	assert.InDelta(t, 0.25, s.EmptyRatio, 1e-12)
	assert.Contains(t, s.String(), "4 cells, 8 entries")

	one, err := Summarize([]int{3})
	require.NoError(t, err)
	assert.Equal(t, 3., one.Mean)
	assert.Zero(t, one.StdDev)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrNoCells)
}

func TestSummary_Log(t *testing.T) {
	var buf bytes.Buffer
	s, err := Summarize([]int{1, 1})
	require.NoError(t, err)
	s.Log(utils.NewWriterLogger(&buf, slog.LevelInfo))
	out := buf.String()
	assert.True(t, strings.Contains(out, "grid occupancy"), out)
	assert.Contains(t, out, "entries=2")
}

func TestWriteOccupancyHistogram(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"occ.png", "occ.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteOccupancyHistogram([]int{0, 1, 1, 2, 5, 1, 0, 3}, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	// A uniform grid still gets one bin
	require.NoError(t, WriteOccupancyHistogram([]int{2, 2, 2}, filepath.Join(dir, "flat.png")))

	assert.ErrorIs(t, WriteOccupancyHistogram(nil, filepath.Join(dir, "none.png")), ErrNoCells)
}
