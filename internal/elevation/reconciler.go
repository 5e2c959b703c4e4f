// Package elevation decides whether supplied elevations can be trusted and,
// when they cannot, fetches replacements from a remote elevation service in
// order-preserving sequential chunks.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

const (
	// DefaultChunkSize is the largest number of points sent in one request
	DefaultChunkSize = 2000

	// DiscardedMarker in an elevation status means the imported elevations
	// were thrown away upstream and must be fetched again
	DiscardedMarker = "D"

	tracerName = "github.com/stuartshay/path-worker/internal/elevation"
)

var (
	// ErrLengthMismatch is returned when a provider answers with a different
	// number of results than points requested
	ErrLengthMismatch = errors.New("elevation result count does not match request")

	// ErrNoProvider is returned when elevations must be fetched but no
	// provider is configured
	ErrNoProvider = errors.New("no elevation provider configured")
)

// Options are passed to the provider with every request
type Options struct {
	Interpolate bool `json:"interpolate"`
}

// Result is one elevation answer, aligned with the requested point
type Result struct {
	Elev float64 `json:"elev"`
}

// Provider looks up elevations for an ordered chunk of coordinates
type Provider interface {
	Elevations(ctx context.Context, coords []geodesy.Coordinate, opts Options) ([]Result, error)
}

// NeedsRefetch reports whether an elevation status flags the supplied
// elevations as discarded
func NeedsRefetch(status string) bool {
	return strings.Contains(status, DiscardedMarker)
}

// Reconciler supplies the final elevation column for a path
type Reconciler struct {
	provider  Provider
	chunkSize int
	tracer    trace.Tracer
}

// NewReconciler creates a reconciler. A chunkSize below 1 or above
// DefaultChunkSize uses DefaultChunkSize.
func NewReconciler(provider Provider, chunkSize int) *Reconciler {
	if chunkSize < 1 || chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}
	return &Reconciler{
		provider:  provider,
		chunkSize: chunkSize,
		tracer:    otel.Tracer(tracerName),
	}
}

// Reconcile returns supplied unchanged unless status marks it discarded,
// in which case elevations for coords are fetched. A nil result means the
// path has no elevation data.
func (r *Reconciler) Reconcile(ctx context.Context, coords []geodesy.Coordinate, supplied []float64, status string) ([]float64, error) {
	if !NeedsRefetch(status) {
		return supplied, nil
	}

	log.Debug().
		Int("points", len(coords)).
		Str("status", status).
		Msg("Supplied elevations discarded, fetching replacements")

	return r.Fetch(ctx, coords)
}

// Fetch requests elevations for coords in chunks of at most chunkSize
// points. Chunk k+1 is only requested after chunk k has been answered.
// Any failure or cancellation aborts the whole fetch.
func (r *Reconciler) Fetch(ctx context.Context, coords []geodesy.Coordinate) ([]float64, error) {
	if r.provider == nil {
		return nil, ErrNoProvider
	}

	elevs := make([]float64, 0, len(coords))
	for start, chunk := 0, 0; start < len(coords); start, chunk = start+r.chunkSize, chunk+1 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("elevation fetch aborted at point %d of %d: %w", start, len(coords), err)
		}

		end := min(start+r.chunkSize, len(coords))
		results, err := r.fetchChunk(ctx, chunk, coords[start:end])
		if err != nil {
			return nil, fmt.Errorf("elevation chunk %d (points %d-%d): %w", chunk, start, end-1, err)
		}

		for _, res := range results {
			elevs = append(elevs, res.Elev)
		}
	}

	log.Debug().
		Int("points", len(coords)).
		Int("chunk_size", r.chunkSize).
		Msg("Elevations fetched")

	return elevs, nil
}

func (r *Reconciler) fetchChunk(ctx context.Context, index int, coords []geodesy.Coordinate) ([]Result, error) {
	ctx, span := r.tracer.Start(ctx, "elevation.chunk",
		trace.WithAttributes(
			attribute.Int("elevation.chunk.index", index),
			attribute.Int("elevation.chunk.points", len(coords)),
		),
	)
	defer span.End()

	results, err := r.provider.Elevations(ctx, coords, Options{Interpolate: true})
	if err == nil && len(results) != len(coords) {
		err = fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(results), len(coords))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return results, nil
}
