// Package simplify reduces the number of points in a path by repeatedly
// removing the middle point of any triple that lies within a tolerance of
// the great circle through its neighbours.
//
// Unlike Douglas-Peucker the path is never split recursively; full passes
// over the surviving points repeat until a pass removes nothing. Cost is
// data dependent and can approach O(n²), which is fine for one-off route
// preprocessing but not for live data.
package simplify

import (
	"math"
	"slices"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

// Result holds the surviving items and the compression ratio
type Result[T any] struct {
	Items []T
	Ratio float64
}

// Indices returns the indices of coords that survive simplification with
// the given tolerance in meters. The first and last index are always kept.
func Indices(coords []geodesy.Coordinate, tolerance float64) []int {
	keep := make([]int, len(coords))
	for i := range keep {
		keep[i] = i
	}

	for removed := true; removed; {
		removed = false
		for i := 0; i < len(keep)-2; {
			d := geodesy.CrossTrackDistance(coords[keep[i]], coords[keep[i+2]], coords[keep[i+1]])
			if math.Abs(d) < tolerance {
				keep = slices.Delete(keep, i+1, i+2)
				removed = true
				continue
			}
			i++
		}
	}

	return keep
}

// Simplify filters items whose position is given by coord. The input slice
// is not modified. Fewer than three items are returned as-is with a ratio
// of 1.
func Simplify[T any](items []T, coord func(T) geodesy.Coordinate, tolerance float64) Result[T] {
	if len(items) < 3 {
		return Result[T]{Items: slices.Clone(items), Ratio: 1}
	}

	coords := make([]geodesy.Coordinate, len(items))
	for i, item := range items {
		coords[i] = coord(item)
	}

	keep := Indices(coords, tolerance)
	out := make([]T, len(keep))
	for i, k := range keep {
		out[i] = items[k]
	}

	return Result[T]{
		Items: out,
		Ratio: float64(len(out)) / float64(len(items)),
	}
}
