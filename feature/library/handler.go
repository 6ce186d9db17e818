package library

import (
	"bytes"
	"errors"

	"catalog-sync/core/logger"
	"catalog-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the library.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the library routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/library/:server")
	group.Post("/sync", h.HandleSync)
	group.Get("/tracks/:id", h.HandleGetTrack)
}

// HandleSync reconciles a snapshot into the server's library.
// The snapshot is the request body, or the bucket object named by ?object=
// ("latest" for the newest one).
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	// Params and queries alias the pooled request buffer; the owner id outlives it.
	owner := reconcile.Owner{
		ID:   utils.CopyString(c.Params("server")),
		Name: utils.CopyString(c.Query("name")),
	}

	var (
		result *SyncResult
		err    error
	)
	if key := utils.CopyString(c.Query("object")); key != "" {
		result, err = h.service.SyncObject(c.Context(), owner, key, nil)
	} else {
		snap, decodeErr := DecodeSnapshot(bytes.NewReader(c.Body()))
		if decodeErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": decodeErr.Error()})
		}
		result, err = h.service.Sync(c.Context(), owner, snap, nil)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrSyncInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrSnapshotNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrInvalidSnapshot), errors.Is(err, reconcile.ErrMissingExternalID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Library sync failed", zap.String("server_id", owner.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(result)
}

// HandleGetTrack returns one stored track.
func (h *Handler) HandleGetTrack(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	track, err := h.service.GetTrack(c.Context(), c.Params("server"), c.Params("id"))
	if errors.Is(err, ErrTrackNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Track lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(track)
}
