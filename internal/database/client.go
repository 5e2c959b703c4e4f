// Package database provides PostgreSQL access for the path worker: reading
// OwnTracks location history and storing built path documents.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Client wraps a PostgreSQL database connection
type Client struct {
	db *sql.DB
}

// Location represents a GPS location record from the database
type Location struct {
	ID             int64
	DeviceID       string
	TID            string
	Latitude       float64
	Longitude      float64
	Accuracy       int
	Altitude       int
	HasAltitude    bool
	Velocity       int
	Battery        int
	BatteryStatus  string
	ConnectionType string
	Trigger        string
	Timestamp      int64
	CreatedAt      time.Time
}

// NewClient creates a new database client with connection pooling
func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (also failed to close: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// GetLocationsByDate retrieves GPS locations for a specific date in
// YYYY-MM-DD format, oldest first. An empty deviceID matches every device.
func (c *Client) GetLocationsByDate(ctx context.Context, date string, deviceID string) ([]Location, error) {
	query := `
		SELECT
			id, device_id, tid, latitude, longitude, accuracy,
			altitude, velocity, battery, battery_status,
			connection_type, trigger, EXTRACT(EPOCH FROM timestamp)::bigint AS timestamp, created_at
		FROM public.locations
		WHERE DATE(created_at) = $1
	`

	args := []interface{}{date}

	if deviceID != "" {
		query += " AND device_id = $2"
		args = append(args, deviceID)
	}

	query += " ORDER BY created_at ASC"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }() // nolint:errcheck // Close in defer, error not actionable

	var locations []Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return locations, nil
}

func scanLocation(rows *sql.Rows) (Location, error) {
	var loc Location
	var accuracy, altitude, velocity, battery, timestamp sql.NullInt64
	var batteryStatus, connectionType, trigger sql.NullString

	err := rows.Scan(
		&loc.ID,
		&loc.DeviceID,
		&loc.TID,
		&loc.Latitude,
		&loc.Longitude,
		&accuracy,
		&altitude,
		&velocity,
		&battery,
		&batteryStatus,
		&connectionType,
		&trigger,
		&timestamp,
		&loc.CreatedAt,
	)
	if err != nil {
		return Location{}, fmt.Errorf("scan failed: %w", err)
	}

	loc.Accuracy = int(accuracy.Int64)
	loc.Altitude = int(altitude.Int64)
	loc.HasAltitude = altitude.Valid
	loc.Velocity = int(velocity.Int64)
	loc.Battery = int(battery.Int64)
	loc.Timestamp = timestamp.Int64
	loc.BatteryStatus = batteryStatus.String
	loc.ConnectionType = connectionType.String
	loc.Trigger = trigger.String

	return loc, nil
}

// HealthCheck verifies database connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
