package grpc

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/stuartshay/path-worker/internal/geodesy"
	"github.com/stuartshay/path-worker/internal/path"
	"github.com/stuartshay/path-worker/internal/points"
)

// writeCSV exports one row per sample with cumulative distance, followed by
// a summary footer
func writeCSV(dir, name string, p *path.Path) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("path_%s.csv", name))

	file, err := os.Create(csvPath)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close CSV file")
		}
	}()

	writer := csv.NewWriter(file)

	seq := p.Sequence()
	header := []string{"index", "longitude", "latitude", "distance_m"}
	if seq.Channels.Has(points.Elevation) {
		header = append(header, "elevation_m")
	}
	if seq.Channels.Has(points.Time) {
		header = append(header, "elapsed_s")
	}
	if seq.Channels.Has(points.HeartRate) {
		header = append(header, "heart_rate")
	}
	if seq.Channels.Has(points.Cadence) {
		header = append(header, "cadence")
	}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	var distance, elapsed float64
	for i, s := range seq.Samples {
		if i > 0 {
			distance += geodesy.Distance(seq.Samples[i-1].Coordinate, s.Coordinate)
		}
		elapsed += s.Time

		row := []string{
			strconv.Itoa(i),
			fmt.Sprintf("%.6f", s.Lng),
			fmt.Sprintf("%.6f", s.Lat),
			fmt.Sprintf("%.1f", distance),
		}
		if seq.Channels.Has(points.Elevation) {
			row = append(row, fmt.Sprintf("%.1f", s.Elev))
		}
		if seq.Channels.Has(points.Time) {
			row = append(row, fmt.Sprintf("%.0f", elapsed))
		}
		if seq.Channels.Has(points.HeartRate) {
			row = append(row, strconv.Itoa(s.HeartRate))
		}
		if seq.Channels.Has(points.Cadence) {
			row = append(row, strconv.Itoa(s.Cadence))
		}

		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	stats := p.Stats
	_ = writer.Write([]string{})
	_ = writer.Write([]string{"Summary"})
	_ = writer.Write([]string{"Name", p.Name})
	_ = writer.Write([]string{"Path Type", string(p.Type)})
	_ = writer.Write([]string{"Category", string(p.Category)})
	_ = writer.Write([]string{"Distance (m)", fmt.Sprintf("%.1f", stats.Distance)})
	_ = writer.Write([]string{"Duration (s)", fmt.Sprintf("%.0f", stats.Duration)})
	_ = writer.Write([]string{"Ascent (m)", fmt.Sprintf("%.1f", stats.Elevation.Ascent)})
	_ = writer.Write([]string{"Descent (m)", fmt.Sprintf("%.1f", stats.Elevation.Descent)})
	_ = writer.Write([]string{"Hills", strconv.Itoa(len(stats.Hills))})
	_ = writer.Write([]string{"Points", strconv.Itoa(stats.Points)})

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	log.Info().Str("csv_path", csvPath).Msg("CSV file generated successfully")

	return csvPath, nil
}
