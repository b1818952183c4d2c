package locator

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/notargets/DGLocator/mesh"
)

type cachedResult struct {
	coord []float64
	id    mesh.ElementID
	found bool
}

// queryCache remembers recent Locate answers for one index snapshot. Keys are
// the xxhash of the coordinate bits; the stored coordinate is compared on
// lookup so a hash collision reads as a miss.
type queryCache struct {
	lru *lru.Cache[uint64, cachedResult]
}

func newQueryCache(size int) (*queryCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[uint64, cachedResult](size)
	if err != nil {
		return nil, err
	}
	return &queryCache{lru: c}, nil
}

func coordKey(coord []float64) uint64 {
	buf := make([]byte, 8*len(coord))
	for d, x := range coord {
		binary.LittleEndian.PutUint64(buf[8*d:], math.Float64bits(x))
	}
	return xxhash.Sum64(buf)
}

func (qc *queryCache) get(coord []float64) (mesh.ElementID, bool, bool) {
	if qc == nil {
		return 0, false, false
	}
	res, ok := qc.lru.Get(coordKey(coord))
	if !ok || !slices.Equal(res.coord, coord) {
		return 0, false, false
	}
	return res.id, res.found, true
}

func (qc *queryCache) put(coord []float64, id mesh.ElementID, found bool) {
	if qc == nil {
		return
	}
	qc.lru.Add(coordKey(coord), cachedResult{coord: slices.Clone(coord), id: id, found: found})
}

func (qc *queryCache) count() int {
	if qc == nil {
		return 0
	}
	return qc.lru.Len()
}
