package path

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stuartshay/path-worker/internal/analysis"
	"github.com/stuartshay/path-worker/internal/elevation"
	"github.com/stuartshay/path-worker/internal/geodesy"
	"github.com/stuartshay/path-worker/internal/points"
	"github.com/stuartshay/path-worker/internal/simplify"
)

// DefaultTolerance is the route simplification tolerance in metres
const DefaultTolerance = 2.0

// routeDropped are the channels a planned route never keeps
const routeDropped = points.Time | points.HeartRate | points.Cadence

const tracerName = "github.com/stuartshay/path-worker/internal/path"

// Builder turns validated input into finished paths
type Builder struct {
	reconciler *elevation.Reconciler
	tolerance  float64
	tracer     trace.Tracer
}

// NewBuilder creates a builder. A negative tolerance uses DefaultTolerance;
// a tolerance of 0 keeps every route point.
func NewBuilder(reconciler *elevation.Reconciler, tolerance float64) *Builder {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	if reconciler == nil {
		reconciler = elevation.NewReconciler(nil, 0)
	}
	return &Builder{
		reconciler: reconciler,
		tolerance:  tolerance,
		tracer:     otel.Tracer(tracerName),
	}
}

// Build dispatches on the input's path type
func (b *Builder) Build(ctx context.Context, in BuildInput) (*Path, error) {
	switch in.PathType {
	case Route:
		return b.BuildRoute(ctx, in)
	case Track:
		return b.BuildTrack(ctx, in)
	default:
		return nil, fmt.Errorf("%w: got %q", ErrPathType, in.PathType)
	}
}

// BuildTrack builds a recorded track keeping every sample and channel
func (b *Builder) BuildTrack(ctx context.Context, in BuildInput) (*Path, error) {
	in.PathType = Track
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cols, start, err := in.columns(true)
	if err != nil {
		return nil, err
	}
	p := &Path{Type: Track, Name: in.Name, Description: in.Description, StartTime: start, SimplifyRatio: 1}

	seq, err := points.New(cols)
	if err != nil {
		return nil, err
	}

	return b.finish(ctx, p, seq, in.Elevations.Status)
}

// BuildRoute builds a planned route. Time, heart rate and cadence are
// dropped and the route is simplified before anything else is computed;
// supplied elevations stay attached to their surviving samples.
func (b *Builder) BuildRoute(ctx context.Context, in BuildInput) (*Path, error) {
	in.PathType = Route
	if err := in.Validate(); err != nil {
		return nil, err
	}

	cols, _, _ := in.columns(false)
	full, err := points.New(cols)
	if err != nil {
		return nil, err
	}
	seq := full.Without(routeDropped)
	if dropped := full.Channels & routeDropped; dropped != 0 {
		log.Debug().Str("channels", dropped.String()).Msg("Route channels dropped")
	}

	simplified := simplify.Simplify(seq.Samples, func(s points.Sample) geodesy.Coordinate {
		return s.Coordinate
	}, b.tolerance)

	log.Debug().
		Int("points", seq.Len()).
		Int("kept", len(simplified.Items)).
		Float64("tolerance_m", b.tolerance).
		Msg("Route simplified")

	p := &Path{Type: Route, Name: in.Name, Description: in.Description, SimplifyRatio: simplified.Ratio}
	seq = points.Sequence{Samples: simplified.Items, Channels: seq.Channels}

	return b.finish(ctx, p, seq, in.Elevations.Status)
}

// finish runs the steps shared by routes and tracks on the final sample
// sequence
func (b *Builder) finish(ctx context.Context, p *Path, seq points.Sequence, status string) (*Path, error) {
	ctx, span := b.tracer.Start(ctx, "path.build",
		trace.WithAttributes(
			attribute.String("path.type", string(p.Type)),
			attribute.Int("path.points", seq.Len()),
		),
	)
	defer span.End()

	coords := seq.Coordinates()
	p.BoundingBox = geodesy.BoundingBoxOf(coords)
	p.Category = analysis.Categorize(coords)

	elevs, err := b.reconciler.Reconcile(ctx, coords, seq.Elevations(), status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %w", ErrElevation, err)
	}
	if elevs != nil {
		if seq, err = seq.WithElevations(elevs); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	p.Stats = analysis.Analyze(seq, p.BoundingBox)
	p.seq = seq

	span.SetAttributes(
		attribute.String("path.category", string(p.Category)),
		attribute.Float64("path.distance_m", p.Stats.Distance),
	)

	log.Info().
		Str("type", string(p.Type)).
		Str("name", p.Name).
		Str("category", string(p.Category)).
		Int("points", seq.Len()).
		Str("channels", seq.Channels.String()).
		Float64("distance_m", p.Stats.Distance).
		Msg("Path built")

	return p, nil
}
