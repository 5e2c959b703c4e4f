package grpc

import (
	"encoding/json"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stuartshay/path-worker/internal/path"
	"github.com/stuartshay/path-worker/internal/queue"
)

// inputFromStruct decodes a build input through its JSON form so the
// Struct and HTTP encodings stay identical
func inputFromStruct(s *structpb.Struct) (*path.BuildInput, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var in path.BuildInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func intField(s *structpb.Struct, key string) int {
	return int(s.GetFields()[key].GetNumberValue())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// jobFields renders a job for a Struct response. Summaries leave out the
// error and result.
func jobFields(job *queue.Job, detail bool) map[string]interface{} {
	fields := map[string]interface{}{
		"job_id":    job.ID,
		"status":    string(job.Status),
		"date":      job.Request.Date,
		"device_id": job.Request.DeviceID,
		"queued_at": formatTime(job.QueuedAt),
	}
	if job.Request.Input != nil {
		fields["path_type"] = string(job.Request.Input.PathType)
		fields["name"] = job.Request.Input.Name
	}
	if job.StartedAt != nil {
		fields["started_at"] = formatTime(*job.StartedAt)
	}
	if job.CompletedAt != nil {
		fields["completed_at"] = formatTime(*job.CompletedAt)
	}

	if !detail {
		return fields
	}

	if job.ErrorMessage != "" {
		fields["error_message"] = job.ErrorMessage
	}
	if r := job.Result; r != nil {
		fields["result"] = map[string]interface{}{
			"path_id":            r.PathID,
			"path_type":          string(r.PathType),
			"category":           string(r.Category),
			"distance_m":         r.DistanceM,
			"points":             r.Points,
			"csv_path":           r.CSVPath,
			"processing_time_ms": r.ProcessingTimeMS,
		}
	}
	return fields
}
