package locator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notargets/DGLocator/mesh"
	"github.com/notargets/DGLocator/utils"
)

const (
	// AutoRingBound widens the ring search until it has swept the whole grid
	AutoRingBound = -1
	// DefaultMaxRing is the bound used when none is configured. The search
	// stops at the first hit, so a full bound only costs on misses.
	DefaultMaxRing = AutoRingBound
)

type Options struct {
	CellCounts      []int   // Explicit cells per axis, overrides ElementsPerCell
	ElementsPerCell float64 // Density target, 0 selects 1
	MaxRing         int     // Rings searched around the query cell, 0 selects DefaultMaxRing
	CacheSize       int     // Query cache entries, 0 disables the cache
	Logger          utils.Logger
}

// snapshot is everything derived from one provider state. It is replaced as a
// whole on rebuild.
type snapshot struct {
	provider mesh.Provider
	index    *CellIndex
	maxRing  int
	cache    *queryCache
}

// Locator answers point location queries against the elements of one
// provider, through a uniform grid built lazily from a snapshot of the
// element geometry
type Locator struct {
	opts Options
	log  utils.Logger

	mu       sync.Mutex // guards provider and serializes builds
	provider mesh.Provider
	snap     atomic.Pointer[snapshot]
}

func NewLocator(p mesh.Provider, opts Options) *Locator {
	if opts.ElementsPerCell == 0 {
		opts.ElementsPerCell = 1
	}
	log := opts.Logger
	if log == nil {
		log = utils.NopLogger()
	}
	return &Locator{opts: opts, log: log, provider: p}
}

// SetProvider swaps the element source and drops the current index
func (l *Locator) SetProvider(p mesh.Provider) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.provider = p
	l.snap.Store(nil)
}

func (l *Locator) Provider() mesh.Provider {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.provider
}

// Dimension of the configured provider, 0 when none is set
func (l *Locator) Dimension() int {
	p := l.Provider()
	if p == nil {
		return 0
	}
	return p.Dimension()
}

// Invalidate drops the index; the next query rebuilds it
func (l *Locator) Invalidate() {
	l.snap.Store(nil)
}

// Rebuild discards the current index and builds a new one from the provider.
// On failure the locator is left without an index.
func (l *Locator) Rebuild() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.Store(nil)
	_, err := l.build()
	return err
}

// EnsureBuilt builds the index unless one is already present
func (l *Locator) EnsureBuilt() error {
	_, err := l.current()
	return err
}

// Index returns the current cell index, building it if needed
func (l *Locator) Index() (*CellIndex, error) {
	s, err := l.current()
	if err != nil {
		return nil, err
	}
	return s.index, nil
}

func (l *Locator) current() (*snapshot, error) {
	if s := l.snap.Load(); s != nil {
		return s, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if s := l.snap.Load(); s != nil {
		return s, nil
	}
	return l.build()
}

// build must be called with l.mu held
func (l *Locator) build() (*snapshot, error) {
	p := l.provider
	if p == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()

	box, err := BoundingBoxFromProvider(p)
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}
	shape, err := PartitionGrid(box, p.NumElements(), GridOptions{
		CellCounts:      l.opts.CellCounts,
		ElementsPerCell: l.opts.ElementsPerCell,
	})
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	entries := make([]Entry, p.NumElements())
	for k := range entries {
		id := mesh.ElementID(k)
		entries[k] = Entry{ID: id, Centroid: p.Centroid(id)}
	}
	index, err := NewCellIndex(box, shape, entries)
	if err != nil {
		return nil, fmt.Errorf("cell index: %w", err)
	}
	cache, err := newQueryCache(l.opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}

	s := &snapshot{
		provider: p,
		index:    index,
		maxRing:  ringBound(l.opts.MaxRing, shape),
		cache:    cache,
	}
	l.snap.Store(s)

	RebuildDuration.Observe(time.Since(start).Seconds())
	GridSize.WithLabelValues("cells").Set(float64(shape.NumCells()))
	GridSize.WithLabelValues("elements").Set(float64(index.TotalEntries()))
	l.logGrid(box, shape)

	return s, nil
}

func (l *Locator) logGrid(box BoundingBox, shape GridShape) {
	l.log.Info("cell index built", "box", box.String(), "grid", shape.String(),
		"volume", box.Volume(), "ring_bound", ringBound(l.opts.MaxRing, shape))
	for d := 0; d < shape.Dim; d++ {
		l.log.Debug("grid axis", "axis", d,
			"extent", box.Extent(d), "cells", shape.Counts[d], "width", shape.Widths[d],
			"min", box.Min[d], "max", box.Max[d])
	}
}

// Locate finds the element containing coord. A point outside the bounding
// box, or not claimed by any element within the ring bound, is reported as
// not found. The only errors come from building the index or from a coord
// with fewer components than the mesh dimension.
func (l *Locator) Locate(coord []float64) (mesh.ElementID, bool, error) {
	s, err := l.current()
	if err != nil {
		return 0, false, err
	}
	dim := s.index.shape.Dim
	if len(coord) < dim {
		return 0, false, fmt.Errorf("%w: %d component point in a %dD mesh",
			ErrDimensionMismatch, len(coord), dim)
	}
	coord = coord[:dim]

	if !s.index.box.Contains(coord) {
		LocateCount.WithLabelValues(outcomeOutOfBounds).Inc()
		return 0, false, nil
	}
	if id, found, ok := s.cache.get(coord); ok {
		LocateCount.WithLabelValues(outcomeCached).Inc()
		return id, found, nil
	}

	id, ring, found := s.index.search(s.provider, coord, s.maxRing)
	if found {
		LocateCount.WithLabelValues(outcomeHit).Inc()
		HitRing.Observe(float64(ring))
	} else {
		LocateCount.WithLabelValues(outcomeMiss).Inc()
	}
	s.cache.put(coord, id, found)
	return id, found, nil
}
