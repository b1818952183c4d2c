package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatePacking(t *testing.T) {
	coords := [][]float64{{1, 2, 3}, {4, 5, 6}}
	flat, err := FlattenCoordinates(coords, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, flat)

	back, err := UnflattenCoordinates(flat, 3)
	require.NoError(t, err)
	assert.Equal(t, coords, back)

	_, err = FlattenCoordinates([][]float64{{1, 2}}, 3)
	assert.Error(t, err)
	_, err = UnflattenCoordinates([]float64{1, 2, 3, 4}, 3)
	assert.Error(t, err)
	_, err = UnflattenCoordinates(nil, 0)
	assert.Error(t, err)

	empty, err := FlattenCoordinates(nil, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLogger_PrefixAndDefaultArgs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelInfo)

	ctx := WithDefaultArgs(context.Background(), "rank", 3)
	log.InfoCtx(ctx, "index built", "cells", 8)
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "[dglocator] index built")
	assert.Contains(t, out, "cells=8")
	assert.Contains(t, out, "rank=3")
	assert.NotContains(t, out, "hidden")

	// Derived contexts do not leak args into their siblings
	a := WithDefaultArgs(ctx, "root", 0)
	b := WithDefaultArgs(ctx, "root", 1)
	assert.Equal(t, []any{"rank", 3, "root", 0}, getDefaultArgs(a))
	assert.Equal(t, []any{"rank", 3, "root", 1}, getDefaultArgs(b))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
