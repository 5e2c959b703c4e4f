package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stuartshay/path-worker/internal/path"
)

// ErrNotFound is returned when no stored path has the requested id
var ErrNotFound = errors.New("path not found")

const pathsSchema = `
	CREATE TABLE IF NOT EXISTS public.paths (
		id          uuid PRIMARY KEY,
		path_type   text NOT NULL,
		category    text NOT NULL,
		name        text NOT NULL DEFAULT '',
		document    jsonb NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT now()
	)
`

// EnsureSchema creates the paths table when it does not exist
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, pathsSchema); err != nil {
		return fmt.Errorf("create paths table: %w", err)
	}
	return nil
}

// SavePath stores a path document under a new id and returns the id
func (c *Client) SavePath(ctx context.Context, doc path.Document) (string, error) {
	id := uuid.New()
	doc.ID = id.String()

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode path document: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO public.paths (id, path_type, category, name, document) VALUES ($1, $2, $3, $4, $5)`,
		id, string(doc.Info.PathType), string(doc.Info.Category), doc.Info.Name, body,
	)
	if err != nil {
		return "", fmt.Errorf("insert path: %w", err)
	}

	return doc.ID, nil
}

// GetPath loads a stored path document. Ids that are not UUIDs are
// reported as not found.
func (c *Client) GetPath(ctx context.Context, id string) (*path.Document, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var body []byte
	err = c.db.QueryRowContext(ctx, `SELECT document FROM public.paths WHERE id = $1`, parsed).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query path: %w", err)
	}

	var doc path.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode path document %s: %w", id, err)
	}
	doc.ID = parsed.String()

	return &doc, nil
}
