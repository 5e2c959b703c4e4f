package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/path-worker/internal/database"
	"github.com/stuartshay/path-worker/internal/gpxfile"
	"github.com/stuartshay/path-worker/internal/path"
)

// maxGPXSize bounds uploaded GPX documents
const maxGPXSize = 32 << 20

// RegisterRoutes mounts the path endpoints on r
func RegisterRoutes(r fiber.Router, s *Server) {
	r.Post("/", s.createPath)
	r.Post("/gpx", s.createPathFromGPX)
	r.Get("/:id", s.getPath)
	r.Get("/:id/gpx", s.getPathGPX)
}

func (s *Server) createPath(c *fiber.Ctx) error {
	var in path.BuildInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return s.buildAndSave(c, in)
}

func (s *Server) createPathFromGPX(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" required")
	}
	if fh.Size > maxGPXSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "gpx file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer func() { _ = f.Close() }() // nolint:errcheck

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	pathType := path.Type(c.FormValue("pathType"))
	if pathType != "" && pathType != path.Route && pathType != path.Track {
		return fiber.NewError(fiber.StatusBadRequest, path.ErrPathType.Error())
	}

	in, err := gpxfile.Parse(data, pathType)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	log.Debug().
		Str("filename", fh.Filename).
		Str("path_type", string(in.PathType)).
		Int("points", len(in.Coordinates)).
		Msg("GPX parsed")

	return s.buildAndSave(c, in)
}

func (s *Server) getPath(c *fiber.Ctx) error {
	doc, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// getPathGPX exports a stored path as a GPX route
func (s *Server) getPathGPX(c *fiber.Ctx) error {
	doc, err := s.lookup(c)
	if err != nil {
		return err
	}

	data, err := gpxfile.Write(*doc)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "application/gpx+xml")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "path_"+doc.ID+".gpx"))
	return c.Send(data)
}

func (s *Server) lookup(c *fiber.Ctx) (*path.Document, error) {
	doc, err := s.store.GetPath(c.UserContext(), c.Params("id"))
	if errors.Is(err, database.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "path not found")
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return doc, nil
}

func (s *Server) buildAndSave(c *fiber.Ctx, in path.BuildInput) error {
	ctx := c.UserContext()
	if s.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.buildTimeout)
		defer cancel()
	}

	p, err := s.builder.Build(ctx, in)
	if err != nil {
		return fiber.NewError(buildStatus(err), err.Error())
	}

	doc := p.Document()
	id, err := s.store.SavePath(ctx, doc)
	if err != nil {
		log.Error().Err(err).Str("name", p.Name).Msg("Failed to save path")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save path")
	}
	doc.ID = id

	return c.Status(fiber.StatusCreated).JSON(doc)
}

// buildStatus maps a build failure to an HTTP status
func buildStatus(err error) int {
	switch {
	case errors.Is(err, path.ErrElevation):
		return fiber.StatusBadGateway
	case errors.Is(err, path.ErrTooFewPoints),
		errors.Is(err, path.ErrPathType),
		errors.Is(err, path.ErrChannelLength),
		errors.Is(err, path.ErrTimestamp):
		return fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
