package utils

import "fmt"

// FlattenCoordinates packs a batch of points into one buffer with stride dim,
// the layout exchanged by the collectives
func FlattenCoordinates(coords [][]float64, dim int) ([]float64, error) {
	flat := make([]float64, 0, len(coords)*dim)
	for i, c := range coords {
		if len(c) != dim {
			return nil, fmt.Errorf("coordinate %d has %d components, expected %d", i, len(c), dim)
		}
		flat = append(flat, c...)
	}
	return flat, nil
}

// UnflattenCoordinates is the inverse of FlattenCoordinates. The returned
// points alias flat.
func UnflattenCoordinates(flat []float64, dim int) ([][]float64, error) {
	if dim < 1 {
		return nil, fmt.Errorf("invalid stride %d", dim)
	}
	if len(flat)%dim != 0 {
		return nil, fmt.Errorf("buffer length %d is not a multiple of %d", len(flat), dim)
	}
	coords := make([][]float64, len(flat)/dim)
	for i := range coords {
		coords[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return coords, nil
}
