package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	store pinger
	log   zerolog.Logger
}

func NewHandler(store pinger, logger zerolog.Logger) *Handler {
	return &Handler{store: store, log: logger.With().Str("component", "HealthHandler").Logger()}
}

// Healthz
// @Summary Liveness and store check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Ctx(c.Request.Context()).Msg("store ping failed")
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
