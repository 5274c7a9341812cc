// Package transcode holds the device-specific numeric transforms that
// produce derived pixel payloads. All functions are deterministic and pure:
// array in, array out, no I/O. Shape problems fail loudly.
package transcode

import (
	"fmt"
	"math"

	"github.com/AI-READI/fairhub-pipeline-sub000/errors"
)

// BoundaryHeightmap scans each column of a binary segmentation volume along
// the depth axis and records, per slice and column, the index of the first
// low-to-max transition and the first max-to-low transition. Transitions are
// recorded at the first post-jump index. The result has shape
// (2, nSlices, nColumns): heights[0] is the rising boundary, heights[1] the
// falling one. Columns with no detected transition stay zero, which is
// indistinguishable from a genuine zero-height boundary; see the package
// tests for the exact contract.
func BoundaryHeightmap(volume [][][]uint8, maxValue uint8) ([][][]float64, error) {
	if len(volume) == 0 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "BoundaryHeightmap",
			"empty volume")
	}
	depth := len(volume[0])
	if depth < 2 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "BoundaryHeightmap",
			fmt.Sprintf("depth axis %d too short", depth))
	}
	cols := len(volume[0][0])

	heights := make([][][]float64, 2)
	for b := range heights {
		heights[b] = make([][]float64, len(volume))
		for s := range volume {
			heights[b][s] = make([]float64, cols)
		}
	}

	for s, slice := range volume {
		if len(slice) != depth {
			return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "BoundaryHeightmap",
				fmt.Sprintf("slice %d depth %d, want %d", s, len(slice), depth))
		}
		for d := 0; d < depth-1; d++ {
			row, next := slice[d], slice[d+1]
			if len(row) != cols || len(next) != cols {
				return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "BoundaryHeightmap",
					fmt.Sprintf("slice %d row width mismatch", s))
			}
			for c := 0; c < cols; c++ {
				if row[c] == 0 && next[c] == maxValue && heights[0][s][c] == 0 {
					heights[0][s][c] = float64(d + 1)
				}
				if row[c] == maxValue && next[c] == 0 && heights[1][s][c] == 0 {
					heights[1][s][c] = float64(d + 1)
				}
			}
		}
	}

	return heights, nil
}

// Point is one 3-D sample of a segmented layer surface, in device grid units.
type Point struct {
	X, Y, Z float64
}

// PointCloudHeightmap bins per-layer 3-D point lists onto a regular (x, y)
// grid matching the structural volume's native resolution and assigns each
// grid cell the point's z value scaled by zScale (device units to
// millimeters via the structural slice-thickness factor). Cells no point
// lands on stay zero. One 2-D height surface is returned per layer.
func PointCloudHeightmap(layers [][]Point, width, height int, zScale float64) ([][][]float64, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "PointCloudHeightmap",
			fmt.Sprintf("grid %dx%d", width, height))
	}

	surfaces := make([][][]float64, len(layers))
	for l, points := range layers {
		grid := make([][]float64, height)
		for y := range grid {
			grid[y] = make([]float64, width)
		}
		for _, p := range points {
			x := int(math.Round(p.X))
			y := int(math.Round(p.Y))
			if x < 0 || x >= width || y < 0 || y >= height {
				return nil, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "PointCloudHeightmap",
					fmt.Sprintf("layer %d point (%g,%g) outside %dx%d grid", l, p.X, p.Y, width, height))
			}
			grid[y][x] = p.Z * zScale
		}
		surfaces[l] = grid
	}

	return surfaces, nil
}

// FrameCoordinate is one frame's ophthalmic volumetric reference coordinate.
type FrameCoordinate struct {
	X, Y float64
}

// ReferenceBox computes the physical reference bounding box across all frame
// coordinates. The ordering [xMin, yMax, xMax, yMin] is load-bearing for
// downstream consumers and must not be normalized to the usual
// min/min/max/max convention.
func ReferenceBox(coords []FrameCoordinate) ([4]float64, error) {
	if len(coords) == 0 {
		return [4]float64{}, errors.WrapInvalid(errors.ErrShapeMismatch, "Transcoder", "ReferenceBox",
			"no frame coordinates")
	}

	xMin, xMax := coords[0].X, coords[0].X
	yMin, yMax := coords[0].Y, coords[0].Y
	for _, c := range coords[1:] {
		xMin = math.Min(xMin, c.X)
		xMax = math.Max(xMax, c.X)
		yMin = math.Min(yMin, c.Y)
		yMax = math.Max(yMax, c.Y)
	}

	return [4]float64{xMin, yMax, xMax, yMin}, nil
}

// FlattenHeightmap serializes a (layers, rows, cols) float volume into the
// row-major flat float64 list the writer stores as the derived pixel payload.
func FlattenHeightmap(volume [][][]float64) []float64 {
	var out []float64
	for _, plane := range volume {
		for _, row := range plane {
			out = append(out, row...)
		}
	}
	return out
}
