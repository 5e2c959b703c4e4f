package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stuartshay/path-worker/internal/config"
	"github.com/stuartshay/path-worker/internal/database"
	"github.com/stuartshay/path-worker/internal/path"
)

type fakeStore struct {
	mu   sync.Mutex
	docs []path.Document
	err  error
}

func (f *fakeStore) SavePath(_ context.Context, doc path.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.docs = append(f.docs, doc)
	return fmt.Sprintf("path-%d", len(f.docs)), nil
}

type fakeLocations struct {
	locations []database.Location
	err       error
}

func (f *fakeLocations) GetLocationsByDate(_ context.Context, _ string, _ string) ([]database.Location, error) {
	return f.locations, f.err
}

func dayOfLocations() []database.Location {
	base := time.Date(2026, 1, 24, 8, 0, 0, 0, time.UTC)
	locs := make([]database.Location, 5)
	for i := range locs {
		locs[i] = database.Location{
			DeviceID:    "pixel8",
			Latitude:    40.7361 + float64(i)*0.001,
			Longitude:   -74.0394,
			Altitude:    10 + i,
			HasAltitude: true,
			Timestamp:   base.Add(time.Duration(i) * time.Minute).Unix(),
		}
	}
	return locs
}

// setupTestServer creates a server backed by fakes and a temporary CSV
// directory
func setupTestServer(t *testing.T, store PathStore, locations LocationSource) *Server {
	t.Helper()

	cfg := &config.Config{
		WorkerCount:   2,
		BuildTimeout:  5 * time.Second,
		CSVOutputPath: t.TempDir(),
	}

	server := NewServer(cfg, path.NewBuilder(nil, path.DefaultTolerance), store, locations)
	t.Cleanup(func() { _ = server.Shutdown(5 * time.Second) })

	return server
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func lineInput(pathType string, n int) map[string]interface{} {
	coords := make([]interface{}, n)
	for i := range coords {
		coords[i] = []interface{}{-1.5, 53.1 + float64(i)*0.001}
	}
	return map[string]interface{}{
		"coordinates": coords,
		"pathType":    pathType,
		"name":        "test " + pathType,
	}
}

// waitForJob polls until the job reaches a terminal status
func waitForJob(t *testing.T, server *Server, jobID string) *structpb.Struct {
	t.Helper()

	req := mustStruct(t, map[string]interface{}{"job_id": jobID})
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := server.GetJobStatus(context.Background(), req)
		require.NoError(t, err)

		switch stringField(resp, "status") {
		case "completed", "failed":
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", jobID)
	return nil
}

func resultOf(t *testing.T, job *structpb.Struct) *structpb.Struct {
	t.Helper()
	result := job.GetFields()["result"].GetStructValue()
	require.NotNil(t, result, "job has no result: %v", job.AsMap())
	return result
}

func TestSubmitPath(t *testing.T) {
	server := setupTestServer(t, &fakeStore{}, nil)

	withTime := lineInput("track", 3)
	withTime["time"] = []interface{}{"2026-01-24T08:00:00Z", "yesterday", "2026-01-24T08:02:00Z"}

	tests := []struct {
		name        string
		request     map[string]interface{}
		expectError bool
	}{
		{
			name:    "valid track",
			request: lineInput("track", 5),
		},
		{
			name:    "valid route",
			request: lineInput("route", 5),
		},
		{
			name:        "single point",
			request:     lineInput("track", 1),
			expectError: true,
		},
		{
			name:        "unknown path type",
			request:     lineInput("walk", 5),
			expectError: true,
		},
		{
			name:        "coordinates of the wrong shape",
			request:     map[string]interface{}{"coordinates": "none", "pathType": "track"},
			expectError: true,
		},
		{
			// timestamps are parsed by the worker, so this is accepted
			name:    "unparseable timestamp",
			request: withTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := server.SubmitPath(context.Background(), mustStruct(t, tt.request))

			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, stringField(resp, "job_id"), "Job ID should not be empty")
			assert.Equal(t, "queued", stringField(resp, "status"), "Initial status should be queued")
			assert.NotEmpty(t, stringField(resp, "queued_at"))
		})
	}
}

func TestSubmitPath_BuildsStoresAndExports(t *testing.T) {
	store := &fakeStore{}
	server := setupTestServer(t, store, nil)

	req := lineInput("track", 5)
	req["elevations"] = map[string]interface{}{"values": []interface{}{10, 11, 12, 13, 14}, "status": ""}
	req["time"] = []interface{}{0, 20, 20, 20, 20}
	req["heartRate"] = []interface{}{120, 125, 130, 135, 140}

	resp, err := server.SubmitPath(context.Background(), mustStruct(t, req))
	require.NoError(t, err)

	job := waitForJob(t, server, stringField(resp, "job_id"))
	require.Equal(t, "completed", stringField(job, "status"), "error: %s", stringField(job, "error_message"))
	assert.NotEmpty(t, stringField(job, "completed_at"))

	result := resultOf(t, job)
	assert.Equal(t, "path-1", stringField(result, "path_id"))
	assert.Equal(t, "track", stringField(result, "path_type"))
	assert.Equal(t, "One way", stringField(result, "category"))
	assert.Equal(t, 5, intField(result, "points"))
	assert.InDelta(t, 445.3, result.GetFields()["distance_m"].GetNumberValue(), 0.5)

	require.Len(t, store.docs, 1)
	assert.Equal(t, []int{120, 125, 130, 135, 140}, store.docs[0].Params.HeartRate)

	csvPath := stringField(result, "csv_path")
	assert.Equal(t, server.cfg.CSVOutputPath, filepath.Dir(csvPath))
	assert.Equal(t, "path_path-1.csv", filepath.Base(csvPath))

	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	assert.Equal(t, "index,longitude,latitude,distance_m,elevation_m,elapsed_s,heart_rate", lines[0])
	assert.Equal(t, "0,-1.500000,53.100000,0.0,10.0,0,120", lines[1])
	assert.Contains(t, string(content), "Category,One way")
	assert.Contains(t, string(content), "Points,5")
}

func TestSubmitPath_StoreFailure(t *testing.T) {
	server := setupTestServer(t, &fakeStore{err: errors.New("disk full")}, nil)

	resp, err := server.SubmitPath(context.Background(), mustStruct(t, lineInput("route", 3)))
	require.NoError(t, err)

	job := waitForJob(t, server, stringField(resp, "job_id"))
	assert.Equal(t, "failed", stringField(job, "status"))
	assert.Contains(t, stringField(job, "error_message"), "disk full")
}

func TestSubmitPath_WithoutStore(t *testing.T) {
	server := setupTestServer(t, nil, nil)

	resp, err := server.SubmitPath(context.Background(), mustStruct(t, lineInput("route", 3)))
	require.NoError(t, err)

	jobID := stringField(resp, "job_id")
	job := waitForJob(t, server, jobID)
	require.Equal(t, "completed", stringField(job, "status"))

	result := resultOf(t, job)
	assert.Empty(t, stringField(result, "path_id"))
	assert.Equal(t, "path_"+jobID+".csv", filepath.Base(stringField(result, "csv_path")),
		"without a store the CSV is named after the job")
}

func TestSubmitLocationTrack(t *testing.T) {
	server := setupTestServer(t, &fakeStore{}, &fakeLocations{locations: dayOfLocations()})

	tests := []struct {
		name    string
		request map[string]interface{}
		code    codes.Code
	}{
		{
			name:    "valid request with date and device",
			request: map[string]interface{}{"date": "2026-01-24", "device_id": "pixel8"},
			code:    codes.OK,
		},
		{
			name:    "valid request with date only",
			request: map[string]interface{}{"date": "2026-01-24"},
			code:    codes.OK,
		},
		{
			name:    "empty date",
			request: map[string]interface{}{"device_id": "pixel8"},
			code:    codes.InvalidArgument,
		},
		{
			name:    "malformed date",
			request: map[string]interface{}{"date": "24/01/2026"},
			code:    codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := server.SubmitLocationTrack(context.Background(), mustStruct(t, tt.request))
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code != codes.OK {
				return
			}

			job := waitForJob(t, server, stringField(resp, "job_id"))
			require.Equal(t, "completed", stringField(job, "status"), "error: %s", stringField(job, "error_message"))
			assert.Equal(t, "2026-01-24", stringField(job, "date"))

			result := resultOf(t, job)
			assert.Equal(t, "track", stringField(result, "path_type"))
			assert.Equal(t, 5, intField(result, "points"))
		})
	}
}

func TestSubmitLocationTrack_NotEnoughLocations(t *testing.T) {
	server := setupTestServer(t, nil, &fakeLocations{locations: dayOfLocations()[:1]})

	resp, err := server.SubmitLocationTrack(context.Background(), mustStruct(t, map[string]interface{}{"date": "2099-12-31"}))
	require.NoError(t, err, "job is created but fails during processing")

	job := waitForJob(t, server, stringField(resp, "job_id"))
	assert.Equal(t, "failed", stringField(job, "status"))
	assert.Contains(t, stringField(job, "error_message"), "1 locations found")
}

func TestSubmitLocationTrack_DatabaseError(t *testing.T) {
	server := setupTestServer(t, nil, &fakeLocations{err: errors.New("connection refused")})

	resp, err := server.SubmitLocationTrack(context.Background(), mustStruct(t, map[string]interface{}{"date": "2026-01-24"}))
	require.NoError(t, err)

	job := waitForJob(t, server, stringField(resp, "job_id"))
	assert.Equal(t, "failed", stringField(job, "status"))
	assert.Contains(t, stringField(job, "error_message"), "database query failed")
}

func TestSubmitLocationTrack_NoSource(t *testing.T) {
	server := setupTestServer(t, nil, nil)

	_, err := server.SubmitLocationTrack(context.Background(), mustStruct(t, map[string]interface{}{"date": "2026-01-24"}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestGetJobStatus_NotFound(t *testing.T) {
	server := setupTestServer(t, nil, nil)

	_, err := server.GetJobStatus(context.Background(), mustStruct(t, map[string]interface{}{"job_id": "non-existent-job-id"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListJobs(t *testing.T) {
	server := setupTestServer(t, nil, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := server.SubmitPath(context.Background(), mustStruct(t, lineInput("route", 3)))
		require.NoError(t, err)
		ids = append(ids, stringField(resp, "job_id"))
	}
	for _, id := range ids {
		waitForJob(t, server, id)
	}

	tests := []struct {
		name          string
		request       map[string]interface{}
		expectedLimit int
		expectedCount int
	}{
		{"default limit", map[string]interface{}{}, 50, 3},
		{"custom limit", map[string]interface{}{"limit": 2}, 2, 2},
		{"limit capped at 500", map[string]interface{}{"limit": 1000}, 500, 3},
		{"offset past the end", map[string]interface{}{"offset": 10}, 50, 0},
		{"filter by status", map[string]interface{}{"status": "completed"}, 50, 3},
		{"filter with no matches", map[string]interface{}{"status": "failed"}, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := server.ListJobs(context.Background(), mustStruct(t, tt.request))
			require.NoError(t, err)

			assert.Equal(t, tt.expectedLimit, intField(resp, "limit"))
			jobs := resp.GetFields()["jobs"].GetListValue().GetValues()
			assert.Len(t, jobs, tt.expectedCount)
			assert.Equal(t, tt.expectedCount, intField(resp, "total_count"))

			for _, j := range jobs {
				summary := j.GetStructValue()
				assert.NotEmpty(t, stringField(summary, "job_id"))
				assert.Equal(t, "route", stringField(summary, "path_type"))
				assert.NotContains(t, summary.GetFields(), "result", "summaries leave out results")
			}
		})
	}
}

func TestListJobs_QueueCounts(t *testing.T) {
	server := setupTestServer(t, nil, nil)

	ok, err := server.SubmitPath(context.Background(), mustStruct(t, lineInput("route", 3)))
	require.NoError(t, err)
	waitForJob(t, server, stringField(ok, "job_id"))

	resp, err := server.ListJobs(context.Background(), mustStruct(t, map[string]interface{}{}))
	require.NoError(t, err)

	counts := resp.GetFields()["queue"].GetStructValue()
	require.NotNil(t, counts)
	assert.Equal(t, 1, intField(counts, "total"))
	assert.Equal(t, 1, intField(counts, "completed"))
	assert.Equal(t, 0, intField(counts, "failed"))
	assert.Equal(t, 0, intField(counts, "queued"))
}

func TestServiceOverGRPC(t *testing.T) {
	server := setupTestServer(t, &fakeStore{}, nil)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	RegisterPathServiceServer(gs, server)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := NewPathServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.SubmitPath(ctx, mustStruct(t, lineInput("route", 4)))
	require.NoError(t, err)
	jobID := stringField(resp, "job_id")
	require.NotEmpty(t, jobID)

	job := waitForJob(t, server, jobID)
	assert.Equal(t, "completed", stringField(job, "status"))

	remote, err := client.GetJobStatus(ctx, mustStruct(t, map[string]interface{}{"job_id": jobID}))
	require.NoError(t, err)
	assert.Equal(t, "completed", stringField(remote, "status"))

	_, err = client.SubmitPath(ctx, mustStruct(t, lineInput("route", 1)))
	assert.Equal(t, codes.InvalidArgument, status.Code(err), "status codes survive the wire")

	_, err = client.GetJobStatus(ctx, mustStruct(t, map[string]interface{}{"job_id": "missing"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServerShutdown(t *testing.T) {
	cfg := &config.Config{WorkerCount: 1, BuildTimeout: time.Second}
	server := NewServer(cfg, path.NewBuilder(nil, path.DefaultTolerance), nil, nil)

	assert.NoError(t, server.Shutdown(5*time.Second), "Shutdown should complete without error")
}
