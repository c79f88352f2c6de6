package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/videoremix/api/internal/cache"
	"github.com/videoremix/api/internal/model"
)

// PlaybackHandler resolves a render identifier to a playable URL. It
// redirects instead of proxying the byte stream.
type PlaybackHandler struct {
	urls *cache.RenderURLCache
}

func NewPlaybackHandler(urls *cache.RenderURLCache) *PlaybackHandler {
	return &PlaybackHandler{urls: urls}
}

// Resolve handles GET /api/videos/:renderId
func (h *PlaybackHandler) Resolve(c *fiber.Ctx) error {
	renderID := c.Params("renderId")
	if renderID == "" {
		return c.Status(fiber.StatusNotFound).JSON(model.PlaybackError{
			Error:   "Video not available",
			Details: "render identifier is required",
			Status:  "unknown",
		})
	}

	resolution, err := h.urls.Resolve(c.Context(), renderID)
	if err != nil {
		var notReady *model.NotReadyError
		if errors.As(err, &notReady) {
			return c.Status(fiber.StatusNotFound).JSON(model.PlaybackError{
				Error:   "Video not available",
				Details: err.Error(),
				Status:  string(notReady.Status),
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(model.PlaybackError{
			Error:   "Video not available",
			Details: err.Error(),
			Status:  "unknown",
		})
	}

	c.Set("X-Playback-Source", resolution.Source)
	return c.Redirect(resolution.URL, fiber.StatusFound)
}
