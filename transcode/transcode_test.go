package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// column builds a single-column slice with a 0->255 transition between index
// i-1 and i, and a 255->0 transition between index j-1 and j.
func column(depth, i, j int) [][]uint8 {
	slice := make([][]uint8, depth)
	for d := range slice {
		v := uint8(0)
		if d >= i && d < j {
			v = 255
		}
		slice[d] = []uint8{v}
	}
	return slice
}

func TestBoundaryHeightmap_RoundTrip(t *testing.T) {
	// A single 0->255 jump with post-jump index 3 and a single 255->0 jump
	// with post-jump index 7 must yield [3, 7] for that column.
	volume := [][][]uint8{column(10, 3, 7)}

	heights, err := BoundaryHeightmap(volume, 255)
	require.NoError(t, err)

	require.Len(t, heights, 2)
	assert.Equal(t, 3.0, heights[0][0][0], "rising boundary recorded at index+1 of the raw comparison")
	assert.Equal(t, 7.0, heights[1][0][0], "falling boundary recorded at index+1 of the raw comparison")
}

func TestBoundaryHeightmap_FirstTransitionWins(t *testing.T) {
	// Two bands: 2..3 and 6..7. Only the first rise and first fall count.
	slice := make([][]uint8, 10)
	for d := range slice {
		v := uint8(0)
		if (d >= 2 && d < 4) || (d >= 6 && d < 8) {
			v = 255
		}
		slice[d] = []uint8{v}
	}

	heights, err := BoundaryHeightmap([][][]uint8{slice}, 255)
	require.NoError(t, err)
	assert.Equal(t, 2.0, heights[0][0][0])
	assert.Equal(t, 4.0, heights[1][0][0])
}

func TestBoundaryHeightmap_NoTransitionStaysZero(t *testing.T) {
	slice := make([][]uint8, 5)
	for d := range slice {
		slice[d] = []uint8{0}
	}

	heights, err := BoundaryHeightmap([][][]uint8{slice}, 255)
	require.NoError(t, err)
	assert.Equal(t, 0.0, heights[0][0][0])
	assert.Equal(t, 0.0, heights[1][0][0])
}

func TestBoundaryHeightmap_MultipleSlicesAndColumns(t *testing.T) {
	volume := [][][]uint8{
		{{0, 0}, {255, 0}, {255, 255}, {0, 255}, {0, 0}},
		{{0, 0}, {0, 0}, {255, 0}, {0, 0}, {0, 0}},
	}

	heights, err := BoundaryHeightmap(volume, 255)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 2}, {2, 0}}, heights[0])
	assert.Equal(t, [][]float64{{3, 4}, {3, 0}}, heights[1])
}

func TestBoundaryHeightmap_ShapeErrors(t *testing.T) {
	t.Run("empty volume", func(t *testing.T) {
		_, err := BoundaryHeightmap(nil, 255)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	})

	t.Run("ragged slices", func(t *testing.T) {
		volume := [][][]uint8{
			{{0}, {255}, {0}},
			{{0}, {255}},
		}
		_, err := BoundaryHeightmap(volume, 255)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	})

	t.Run("ragged rows", func(t *testing.T) {
		volume := [][][]uint8{
			{{0, 0}, {255}, {0, 0}},
		}
		_, err := BoundaryHeightmap(volume, 255)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	})
}

func TestPointCloudHeightmap(t *testing.T) {
	layers := [][]Point{
		{
			{X: 0, Y: 0, Z: 100},
			{X: 2, Y: 1, Z: 200},
		},
		{
			{X: 1, Y: 1, Z: 300},
		},
	}

	surfaces, err := PointCloudHeightmap(layers, 3, 2, 0.001)
	require.NoError(t, err)

	require.Len(t, surfaces, 2)
	assert.InDelta(t, 0.1, surfaces[0][0][0], 1e-9)
	assert.InDelta(t, 0.2, surfaces[0][1][2], 1e-9)
	// Cells without a point stay zero.
	assert.Equal(t, 0.0, surfaces[0][0][1])
	assert.InDelta(t, 0.3, surfaces[1][1][1], 1e-9)
}

func TestPointCloudHeightmap_OutOfRangePointFails(t *testing.T) {
	layers := [][]Point{{{X: 5, Y: 0, Z: 1}}}
	_, err := PointCloudHeightmap(layers, 3, 2, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestReferenceBox_AsymmetricOrdering(t *testing.T) {
	coords := []FrameCoordinate{
		{X: 0, Y: 5},
		{X: 2, Y: 1},
		{X: 4, Y: 9},
		{X: 1, Y: 0},
	}

	box, err := ReferenceBox(coords)
	require.NoError(t, err)

	// [xMin, yMax, xMax, yMin] - not the usual min/min/max/max.
	assert.Equal(t, [4]float64{0, 9, 4, 0}, box)
}

func TestReferenceBox_Empty(t *testing.T) {
	_, err := ReferenceBox(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestFlattenHeightmap(t *testing.T) {
	volume := [][][]float64{
		{{1, 2}, {3, 4}},
		{{5, 6}, {7, 8}},
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, FlattenHeightmap(volume))
}
