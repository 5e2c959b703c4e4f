package simplify

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

// wigglyPath returns a deterministic noisy path heading roughly north-east
func wigglyPath(n int, seed int64) []geodesy.Coordinate {
	r := rand.New(rand.NewSource(seed))
	coords := make([]geodesy.Coordinate, n)
	lng, lat := -1.5, 53.3
	for i := range coords {
		lng += 0.0001 + (r.Float64()-0.5)*0.0002
		lat += 0.0001 + (r.Float64()-0.5)*0.0002
		coords[i] = geodesy.Coordinate{Lng: lng, Lat: lat}
	}
	return coords
}

func TestIndicesStraightLine(t *testing.T) {
	coords := make([]geodesy.Coordinate, 50)
	for i := range coords {
		coords[i] = geodesy.Coordinate{Lng: 0, Lat: float64(i) * 0.001}
	}

	keep := Indices(coords, 1)
	if !slices.Equal(keep, []int{0, 49}) {
		t.Errorf("expected only endpoints to survive, got %v", keep)
	}
}

func TestIndicesKeepsCorners(t *testing.T) {
	// an L shape: north then east, ~111 m legs
	coords := []geodesy.Coordinate{
		{Lng: 0, Lat: 0},
		{Lng: 0, Lat: 0.0005},
		{Lng: 0, Lat: 0.001},
		{Lng: 0.0005, Lat: 0.001},
		{Lng: 0.001, Lat: 0.001},
	}

	keep := Indices(coords, 5)
	if !slices.Equal(keep, []int{0, 2, 4}) {
		t.Errorf("expected corner to survive, got %v", keep)
	}
}

func TestSimplifyShortInput(t *testing.T) {
	tests := []struct {
		name   string
		coords []geodesy.Coordinate
	}{
		{"empty", nil},
		{"single", []geodesy.Coordinate{{Lng: 1, Lat: 1}}},
		{"pair", []geodesy.Coordinate{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := simplifyCoords(tt.coords, 100)
			if len(res.Items) != len(tt.coords) {
				t.Errorf("expected %d items, got %d", len(tt.coords), len(res.Items))
			}
			if res.Ratio != 1 {
				t.Errorf("expected ratio 1, got %v", res.Ratio)
			}
		})
	}
}

func TestSimplifyEndpointPreservation(t *testing.T) {
	coords := wigglyPath(500, 7)

	for _, tolerance := range []float64{0, 0.5, 5, 50, 5000} {
		res := simplifyCoords(coords, tolerance)
		if res.Items[0] != coords[0] {
			t.Errorf("tolerance %v: first point not preserved", tolerance)
		}
		if res.Items[len(res.Items)-1] != coords[len(coords)-1] {
			t.Errorf("tolerance %v: last point not preserved", tolerance)
		}
	}
}

func TestSimplifyZeroToleranceKeepsEverything(t *testing.T) {
	coords := wigglyPath(200, 3)

	res := simplifyCoords(coords, 0)
	if len(res.Items) != len(coords) {
		t.Errorf("expected %d points with zero tolerance, got %d", len(coords), len(res.Items))
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	for _, tolerance := range []float64{1, 5, 20} {
		first := simplifyCoords(wigglyPath(1000, 42), tolerance)
		second := simplifyCoords(first.Items, tolerance)

		if !slices.Equal(first.Items, second.Items) {
			t.Errorf("tolerance %v: second pass changed %d -> %d points",
				tolerance, len(first.Items), len(second.Items))
		}
		if second.Ratio != 1 {
			t.Errorf("tolerance %v: expected ratio 1 on second pass, got %v", tolerance, second.Ratio)
		}
	}
}

func TestSimplifyPreservesOrderAndRatio(t *testing.T) {
	type sample struct {
		idx int
		c   geodesy.Coordinate
	}

	coords := wigglyPath(300, 11)
	items := make([]sample, len(coords))
	for i, c := range coords {
		items[i] = sample{idx: i, c: c}
	}

	res := Simplify(items, func(s sample) geodesy.Coordinate { return s.c }, 10)
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].idx <= res.Items[i-1].idx {
			t.Fatalf("order broken at %d: %d after %d", i, res.Items[i].idx, res.Items[i-1].idx)
		}
	}

	expected := float64(len(res.Items)) / float64(len(items))
	if math.Abs(res.Ratio-expected) > 1e-12 {
		t.Errorf("expected ratio %v, got %v", expected, res.Ratio)
	}
	if res.Ratio >= 1 {
		t.Errorf("expected some compression at 10 m, got ratio %v", res.Ratio)
	}
}

func TestSimplifyDoesNotModifyInput(t *testing.T) {
	coords := wigglyPath(100, 5)
	original := slices.Clone(coords)

	_ = simplifyCoords(coords, 50)
	if !slices.Equal(coords, original) {
		t.Error("input slice was modified")
	}
}

func BenchmarkSimplify(b *testing.B) {
	coords := wigglyPath(5000, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		simplifyCoords(coords, 5)
	}
}

func simplifyCoords(coords []geodesy.Coordinate, tolerance float64) Result[geodesy.Coordinate] {
	return Simplify(coords, func(c geodesy.Coordinate) geodesy.Coordinate { return c }, tolerance)
}
