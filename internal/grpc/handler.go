// Package grpc implements the PathService gRPC server: path build job
// submission, job status, and CSV export of finished paths.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stuartshay/path-worker/internal/config"
	"github.com/stuartshay/path-worker/internal/database"
	"github.com/stuartshay/path-worker/internal/path"
	"github.com/stuartshay/path-worker/internal/queue"
)

// PathStore persists finished path documents
type PathStore interface {
	SavePath(ctx context.Context, doc path.Document) (string, error)
}

// LocationSource reads a device's location history
type LocationSource interface {
	GetLocationsByDate(ctx context.Context, date string, deviceID string) ([]database.Location, error)
}

// Server implements PathServiceServer
type Server struct {
	cfg       *config.Config
	builder   *path.Builder
	store     PathStore
	locations LocationSource
	queue     *queue.Queue
}

var _ PathServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance and starts its worker pool.
// A nil store skips persistence; a nil location source rejects location
// track jobs.
func NewServer(cfg *config.Config, builder *path.Builder, store PathStore, locations LocationSource) *Server {
	s := &Server{
		cfg:       cfg,
		builder:   builder,
		store:     store,
		locations: locations,
	}

	s.queue = queue.NewQueue(cfg.WorkerCount, cfg.BuildTimeout, s.processPathJob)

	return s
}

// SubmitPath validates an inline build input and queues it
func (s *Server) SubmitPath(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := inputFromStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid build input: %v", err)
	}
	if err := in.Validate(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid build input: %v", err)
	}

	log.Info().
		Str("path_type", string(in.PathType)).
		Str("name", in.Name).
		Int("points", len(in.Coordinates)).
		Msg("Received path build request")

	return s.enqueue(queue.Request{Input: in})
}

// SubmitLocationTrack queues a track build from a device's stored location
// history for one date
func (s *Server) SubmitLocationTrack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date := stringField(req, "date")
	deviceID := stringField(req, "device_id")

	log.Info().
		Str("date", date).
		Str("device_id", deviceID).
		Msg("Received location track request")

	if date == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "date must be YYYY-MM-DD: %v", err)
	}
	if s.locations == nil {
		return nil, status.Error(codes.FailedPrecondition, "location history is not configured")
	}

	return s.enqueue(queue.Request{Date: date, DeviceID: deviceID})
}

func (s *Server) enqueue(req queue.Request) (*structpb.Struct, error) {
	jobID, err := s.queue.Enqueue(req)
	if errors.Is(err, queue.ErrQueueFull) {
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue job")
		return nil, status.Errorf(codes.Internal, "failed to enqueue job: %v", err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"job_id":    jobID,
		"status":    string(queue.StatusQueued),
		"queued_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// GetJobStatus returns the current status of a path build job
func (s *Server) GetJobStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	job, err := s.queue.GetJob(stringField(req, "job_id"))
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}

	return structpb.NewStruct(jobFields(job, true))
}

// ListJobs returns path build jobs with optional status filtering, newest
// first
func (s *Server) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := intField(req, "limit")
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := max(intField(req, "offset"), 0)

	jobs := s.queue.ListJobs(queue.JobStatus(stringField(req, "status")), limit, offset)

	summaries := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, jobFields(job, false))
	}

	counts := make(map[string]interface{})
	for status, n := range s.queue.GetStats() {
		counts[status] = n
	}

	return structpb.NewStruct(map[string]interface{}{
		"jobs":        summaries,
		"total_count": len(jobs),
		"limit":       limit,
		"offset":      offset,
		"queue":       counts,
	})
}

// processPathJob is the worker function that builds, stores and exports
// one path
func (s *Server) processPathJob(ctx context.Context, job *queue.Job) (*queue.JobResult, error) {
	log.Info().
		Str("job_id", job.ID).
		Str("date", job.Request.Date).
		Str("device_id", job.Request.DeviceID).
		Msg("Processing path build job")

	in, err := s.resolveInput(ctx, job.Request)
	if err != nil {
		return nil, err
	}

	p, err := s.builder.Build(ctx, *in)
	if err != nil {
		return nil, fmt.Errorf("build failed: %w", err)
	}

	var pathID string
	if s.store != nil {
		if pathID, err = s.store.SavePath(ctx, p.Document()); err != nil {
			log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to store path")
			return nil, fmt.Errorf("store path: %w", err)
		}
	}

	var csvPath string
	if s.cfg.CSVOutputPath != "" {
		name := pathID
		if name == "" {
			name = job.ID
		}
		if csvPath, err = writeCSV(s.cfg.CSVOutputPath, name, p); err != nil {
			log.Error().Err(err).Msg("Failed to generate CSV file")
			return nil, fmt.Errorf("CSV generation failed: %w", err)
		}
	}

	return &queue.JobResult{
		PathID:    pathID,
		PathType:  p.Type,
		Category:  p.Category,
		DistanceM: p.Stats.Distance,
		Points:    p.Stats.Points,
		CSVPath:   csvPath,
	}, nil
}

func (s *Server) resolveInput(ctx context.Context, req queue.Request) (*path.BuildInput, error) {
	if req.Input != nil {
		return req.Input, nil
	}

	locations, err := s.locations.GetLocationsByDate(ctx, req.Date, req.DeviceID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch locations from database")
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if len(locations) < 2 {
		log.Warn().Str("date", req.Date).Int("locations", len(locations)).Msg("Not enough locations for a track")
		return nil, fmt.Errorf("%w: %d locations found for date %s", path.ErrTooFewPoints, len(locations), req.Date)
	}

	in := database.TrackInputFromLocations(locations)
	return &in, nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.queue.Shutdown(timeout)
}
