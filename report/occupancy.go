// Package report summarises how evenly the locator grid spreads elements
// over its buckets.
package report

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/notargets/DGLocator/utils"
)

// maxBins caps the histogram resolution for grids with crowded buckets
const maxBins = 50

var ErrNoCells = errors.New("report: no cells")

type OccupancySummary struct {
	Cells      int
	Entries    int
	Empty      int
	Min, Max   int
	Mean       float64
	StdDev     float64
	EmptyRatio float64
}

// Summarize computes occupancy statistics over per-cell bucket sizes
func Summarize(sizes []int) (OccupancySummary, error) {
	if len(sizes) == 0 {
		return OccupancySummary{}, ErrNoCells
	}
	s := OccupancySummary{
		Cells: len(sizes),
		Min:   slices.Min(sizes),
		Max:   slices.Max(sizes),
	}
	x := make([]float64, len(sizes))
	for i, n := range sizes {
		x[i] = float64(n)
		s.Entries += n
		if n == 0 {
			s.Empty++
		}
	}
	if len(x) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	} else {
		s.Mean = x[0]
	}
	s.EmptyRatio = float64(s.Empty) / float64(s.Cells)
	return s, nil
}

func (s OccupancySummary) String() string {
	return fmt.Sprintf("%d cells, %d entries, occupancy %d..%d (mean %.2f, stddev %.2f), %d empty",
		s.Cells, s.Entries, s.Min, s.Max, s.Mean, s.StdDev, s.Empty)
}

// Log writes the summary through log at info level
func (s OccupancySummary) Log(log utils.Logger) {
	log.Info("grid occupancy",
		"cells", s.Cells,
		"entries", s.Entries,
		"min", s.Min,
		"max", s.Max,
		"mean", s.Mean,
		"stddev", s.StdDev,
		"empty", s.Empty)
}

// WriteOccupancyHistogram draws a histogram of bucket sizes and saves it to
// path; the image format follows the extension (.png, .svg, .pdf ...)
func WriteOccupancyHistogram(sizes []int, path string) error {
	if len(sizes) == 0 {
		return ErrNoCells
	}
	values := make(plotter.Values, len(sizes))
	for i, n := range sizes {
		values[i] = float64(n)
	}

	bins := slices.Max(sizes) - slices.Min(sizes) + 1
	bins = min(bins, maxBins)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Bucket occupancy (%d cells)", len(sizes))
	p.X.Label.Text = "Elements per cell"
	p.Y.Label.Text = "Cells"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save histogram %s: %w", path, err)
	}
	return nil
}
