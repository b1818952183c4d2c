package locator

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/notargets/DGLocator/mesh"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareElement(t *testing.T, lo, hi float64) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMesh(2,
		[][]float64{{lo, lo}, {hi, lo}, {hi, hi}, {lo, hi}},
		[][]int{{0, 1, 2, 3}}, nil)
	require.NoError(t, err)
	return m
}

// TestLocate_TwoByTwoGrid checks a single element sitting in cell (0,0) of a
// 2x2 grid over [0,10]^2
func TestLocate_TwoByTwoGrid(t *testing.T) {
	m := squareElement(t, 0, 4)
	require.Equal(t, []float64{2, 2}, m.Centroid(0))

	box, err := BuildBoundingBox(2, [][]float64{{0, 0}, {10, 10}})
	require.NoError(t, err)
	shape, err := PartitionGrid(box, 1, GridOptions{CellCounts: []int{2, 2}})
	require.NoError(t, err)
	ci, err := NewCellIndex(box, shape, []Entry{{ID: 0, Centroid: m.Centroid(0)}})
	require.NoError(t, err)
	assert.Equal(t, []mesh.ElementID{0}, ci.Bucket(Cell{0, 0, 0}))

	for _, ring := range []int{0, 1} {
		id, _, found := ci.search(m, []float64{1, 1}, ring)
		assert.True(t, found)
		assert.Equal(t, mesh.ElementID(0), id)

		_, _, found = ci.search(m, []float64{9, 9}, ring)
		assert.False(t, found)
	}
}

func TestLocate_FindsContainingElement(t *testing.T) {
	lo, hi := []float64{0, 0, 0}, []float64{3, 3, 3}
	line, err := mesh.NewLineMesh(9, 0, 3)
	require.NoError(t, err)
	quads, err := mesh.NewQuadMesh(3, 3, lo[:2], hi[:2])
	require.NoError(t, err)
	tris, err := mesh.NewTriMesh(3, 3, lo[:2], hi[:2])
	require.NoError(t, err)
	hexes, err := mesh.NewHexMesh(3, 3, 3, lo, hi)
	require.NoError(t, err)
	tets, err := mesh.NewTetMesh(3, 3, 3, lo, hi)
	require.NoError(t, err)

	// Sample points at 3(2i+1)/14 never fall on a grid plane
	const n = 7
	sample := func(i int) float64 { return 3 * float64(2*i+1) / (2 * n) }

	for _, m := range []*mesh.Mesh{line, quads, tris, hexes, tets} {
		l := NewLocator(m, Options{ElementsPerCell: 2, MaxRing: AutoRingBound})
		dim := m.Dimension()
		var count [3]int
		for d := 0; d < 3; d++ {
			count[d] = 1
			if d < dim {
				count[d] = n
			}
		}
		for i := 0; i < count[0]; i++ {
			for j := 0; j < count[1]; j++ {
				for k := 0; k < count[2]; k++ {
					pt := []float64{sample(i), sample(j), sample(k)}[:dim]
					id, found, err := l.Locate(pt)
					require.NoError(t, err)
					if assert.True(t, found, "%s: %v", m, pt) {
						assert.True(t, m.IsPointInside(id, pt))
					}
				}
			}
		}

		// Every centroid resolves to its own element
		for k := 0; k < m.NumElements(); k++ {
			id, found, err := l.Locate(m.Centroid(mesh.ElementID(k)))
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, mesh.ElementID(k), id)
		}
	}
}

func TestLocate_OutsideBoundingBox(t *testing.T) {
	m, err := mesh.NewQuadMesh(2, 2, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	l := NewLocator(m, Options{})

	before := testutil.ToFloat64(LocateCount.WithLabelValues(outcomeOutOfBounds))
	for _, pt := range [][]float64{{-0.1, 0.5}, {0.5, 1.2}, {math.NaN(), 0.5}, {math.Inf(1), 0}} {
		_, found, err := l.Locate(pt)
		assert.NoError(t, err)
		assert.False(t, found, "%v", pt)
	}
	assert.Equal(t, before+4, testutil.ToFloat64(LocateCount.WithLabelValues(outcomeOutOfBounds)))

	// Box faces are inside
	_, found, err := l.Locate([]float64{1, 1})
	require.NoError(t, err)
	assert.True(t, found)

	_, _, err = l.Locate([]float64{0.5})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// TestLocate_RingSearch places the containing element's centroid three
// cells away from the query cell
func TestLocate_RingSearch(t *testing.T) {
	m, err := mesh.NewMesh(1, [][]float64{{0}, {9}, {10}}, [][]int{{0, 1}, {1, 2}}, nil)
	require.NoError(t, err)

	for _, maxRing := range []int{0, 3, AutoRingBound} {
		l := NewLocator(m, Options{CellCounts: []int{10}, MaxRing: maxRing})
		id, found, err := l.Locate([]float64{1})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, mesh.ElementID(0), id)
	}

	l := NewLocator(m, Options{CellCounts: []int{10}, MaxRing: 2})
	_, found, err := l.Locate([]float64{1})
	require.NoError(t, err)
	assert.False(t, found)
}

// TestLocate_AnisotropicDefaults uses long thin elements spanning several
// cells each, with default options
func TestLocate_AnisotropicDefaults(t *testing.T) {
	m, err := mesh.NewQuadMesh(10, 1, []float64{0, 0}, []float64{10, 0.1})
	require.NoError(t, err)
	l := NewLocator(m, Options{})
	ci, err := l.Index()
	require.NoError(t, err)
	require.Greater(t, ci.Shape().Counts[0], 2*m.NumElements())

	missed := 0
	for i := 0; i < 100; i++ {
		pt := []float64{0.05 + 0.1*float64(i), 0.05}
		id, found, err := l.Locate(pt)
		require.NoError(t, err)
		if !found {
			missed++
			continue
		}
		assert.Equal(t, mesh.ElementID(i/10), id, "%v", pt)
	}
	assert.Zero(t, missed)
}

func TestLocate_TieBreakInsertionOrder(t *testing.T) {
	// Two identical elements, the first registered wins
	m, err := mesh.NewMesh(2,
		[][]float64{{0, 0}, {1, 0}, {0, 1}},
		[][]int{{0, 1, 2}, {0, 1, 2}}, nil)
	require.NoError(t, err)
	l := NewLocator(m, Options{})
	for i := 0; i < 3; i++ {
		id, found, err := l.Locate([]float64{0.2, 0.2})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, mesh.ElementID(0), id)
		require.NoError(t, l.Rebuild())
	}
}

func TestLocator_Lifecycle(t *testing.T) {
	l := NewLocator(nil, Options{})
	_, _, err := l.Locate([]float64{0, 0})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, l.EnsureBuilt(), ErrNotConfigured)
	assert.Equal(t, 0, l.Dimension())

	empty, err := mesh.NewMesh(2, [][]float64{{0, 0}}, [][]int{}, nil)
	require.NoError(t, err)
	l.SetProvider(empty)
	assert.ErrorIs(t, l.EnsureBuilt(), ErrEmptyGeometry)

	m, err := mesh.NewTriMesh(4, 4, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	l.SetProvider(m)
	require.NoError(t, l.EnsureBuilt())
	assert.Equal(t, 2, l.Dimension())

	first, err := l.Index()
	require.NoError(t, err)
	again, err := l.Index()
	require.NoError(t, err)
	assert.Same(t, first, again, "index is built once")

	l.Invalidate()
	rebuilt, err := l.Index()
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)

	// A failed rebuild leaves no index behind
	l.SetProvider(empty)
	assert.Error(t, l.Rebuild())
	l.SetProvider(m)
	require.NoError(t, l.Rebuild())
}

func TestLocator_RebuildIsIdempotent(t *testing.T) {
	m, err := mesh.NewTetMesh(3, 2, 2, []float64{0, 0, 0}, []float64{3, 2, 2})
	require.NoError(t, err)
	l := NewLocator(m, Options{ElementsPerCell: 1.5})

	buckets := func() [][]mesh.ElementID {
		ci, err := l.Index()
		require.NoError(t, err)
		s := ci.Shape()
		var all [][]mesh.ElementID
		for i := 0; i < s.Counts[0]; i++ {
			for j := 0; j < s.Counts[1]; j++ {
				for k := 0; k < s.Counts[2]; k++ {
					all = append(all, ci.Bucket(Cell{i, j, k}))
				}
			}
		}
		return all
	}

	first := buckets()
	require.NoError(t, l.Rebuild())
	second := buckets()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebuild changed the buckets (-first +second):\n%s", diff)
	}
}

func TestLocate_Cache(t *testing.T) {
	m, err := mesh.NewHexMesh(2, 2, 2, []float64{0, 0, 0}, []float64{1, 1, 1})
	require.NoError(t, err)
	l := NewLocator(m, Options{CacheSize: 8})

	cached := func() float64 { return testutil.ToFloat64(LocateCount.WithLabelValues(outcomeCached)) }
	hit := func() float64 { return testutil.ToFloat64(LocateCount.WithLabelValues(outcomeHit)) }

	pt := []float64{0.7, 0.2, 0.9}
	c0, h0 := cached(), hit()
	id1, found, err := l.Locate(pt)
	require.NoError(t, err)
	require.True(t, found)
	id2, found, err := l.Locate([]float64{0.7, 0.2, 0.9})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id1, id2)
	assert.Equal(t, c0+1, cached())
	assert.Equal(t, h0+1, hit())

	s := l.snap.Load()
	require.NotNil(t, s)
	assert.Equal(t, 1, s.cache.count())

	// Rebuild starts from an empty cache
	require.NoError(t, l.Rebuild())
	assert.Equal(t, 0, l.snap.Load().cache.count())

	// Disabled cache
	l = NewLocator(m, Options{})
	require.NoError(t, l.EnsureBuilt())
	assert.Nil(t, l.snap.Load().cache)
}

func TestPointCloudAndNearest(t *testing.T) {
	m, err := mesh.NewQuadMesh(4, 4, []float64{0, 0}, []float64{4, 4})
	require.NoError(t, err)
	l := NewLocator(m, Options{CellCounts: []int{4, 4}})

	cloud, err := l.PointCloud([]float64{0.5, 0.5}, 0)
	require.NoError(t, err)
	assert.Len(t, cloud, 9)

	cloud, err = l.PointCloud([]float64{1.5, 1.5}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []mesh.ElementID{0, 1, 2, 4, 5, 6, 8, 9, 10}, cloud)

	cloud, err = l.PointCloud([]float64{1.5, 1.5}, 1)
	require.NoError(t, err)
	assert.Equal(t, []mesh.ElementID{5}, cloud)

	cloud, err = l.PointCloud([]float64{0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, cloud, 16, "capped by the grid")

	// Just outside the mesh, Locate rejects but Nearest recovers
	pt := []float64{-1.e-9, 3.5}
	_, found, err := l.Locate(pt)
	require.NoError(t, err)
	assert.False(t, found)
	id, err := l.Nearest(pt)
	require.NoError(t, err)
	assert.Equal(t, mesh.ElementID(12), id)
}
