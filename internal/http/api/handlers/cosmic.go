package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/cosmic"
	"github.com/jonp-h/TillerQuest-sub003/internal/dice"

	"github.com/gin-gonic/gin"
)

// CosmicHandler serves cosmic event administration endpoints.
type CosmicHandler struct {
	selector *cosmic.Selector
}

// NewCosmicHandler constructs a CosmicHandler.
func NewCosmicHandler(selector *cosmic.Selector) *CosmicHandler {
	return &CosmicHandler{selector: selector}
}

// selectRequest defines the request body for explicit event selection.
type selectRequest struct {
	EventID uint64 `json:"event_id"`
	Group   string `json:"group"`
}

// Select makes an event the active one for a class group.
func (h *CosmicHandler) Select(c *gin.Context) {
	var body selectRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if body.EventID == 0 {
		respondError(c, http.StatusBadRequest, "missing event_id")
		return
	}

	errSelect := h.selector.SelectForGroup(c.Request.Context(), body.EventID, strings.TrimSpace(body.Group))
	if errSelect != nil {
		respondError(c, cosmicStatus(errSelect), errSelect.Error())
		return
	}
	respondOK(c, gin.H{"message": "event selected"})
}

// rotateRequest defines the request body for scheduled rotation.
type rotateRequest struct {
	Group string `json:"group"`
}

// Rotate picks a random recommended event for a class group. The external
// scheduler calls this once per period.
func (h *CosmicHandler) Rotate(c *gin.Context) {
	var body rotateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}

	rng, errRand := dice.NewRand()
	if errRand != nil {
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	eventID, errRotate := h.selector.Rotate(c.Request.Context(), strings.TrimSpace(body.Group), rng)
	if errRotate != nil {
		respondError(c, cosmicStatus(errRotate), errRotate.Error())
		return
	}
	respondOK(c, gin.H{"event_id": eventID})
}

// cosmicStatus maps selector errors to HTTP statuses.
func cosmicStatus(err error) int {
	switch {
	case errors.Is(err, cosmic.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, cosmic.ErrUnknownGroup), errors.Is(err, cosmic.ErrNoRecommended):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
