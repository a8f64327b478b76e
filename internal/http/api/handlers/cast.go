package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/engine"

	"github.com/gin-gonic/gin"
)

// CastHandler serves ability cast endpoints.
type CastHandler struct {
	engine *engine.Engine
}

// NewCastHandler constructs a CastHandler.
func NewCastHandler(eng *engine.Engine) *CastHandler {
	return &CastHandler{engine: eng}
}

// castRequest defines the request body for a cast.
type castRequest struct {
	Ability string   `json:"ability"`
	Targets []uint64 `json:"targets"`
}

// Cast resolves one ability cast for the authenticated actor.
func (h *CastHandler) Cast(c *gin.Context) {
	var body castRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ability := strings.TrimSpace(body.Ability)
	if ability == "" {
		respondError(c, http.StatusBadRequest, "missing ability")
		return
	}

	actorID := c.GetUint64(ContextActorID)
	result, errCast := h.engine.CastAbility(c.Request.Context(), actorID, ability, body.Targets)
	if errCast != nil {
		respondError(c, castStatus(errCast), errCast.Error())
		return
	}
	respondOK(c, result)
}

// dungeonCastRequest defines the request body for a dungeon cast.
type dungeonCastRequest struct {
	Ability string `json:"ability"`
	EnemyID uint64 `json:"enemy_id"`
}

// CastDungeon resolves a dungeon ability against a guild enemy.
func (h *CastHandler) CastDungeon(c *gin.Context) {
	var body dungeonCastRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ability := strings.TrimSpace(body.Ability)
	if ability == "" {
		respondError(c, http.StatusBadRequest, "missing ability")
		return
	}
	if body.EnemyID == 0 {
		respondError(c, http.StatusBadRequest, "missing enemy_id")
		return
	}

	actorID := c.GetUint64(ContextActorID)
	result, errCast := h.engine.CastDungeonAbility(c.Request.Context(), actorID, ability, body.EnemyID)
	if errCast != nil {
		respondError(c, castStatus(errCast), errCast.Error())
		return
	}
	respondOK(c, result)
}

// castStatus maps engine errors to HTTP statuses. Validation failures keep
// their message; infrastructure faults stay generic.
func castStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrActorNotFound), errors.Is(err, engine.ErrAbilityNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInfrastructure):
		return http.StatusInternalServerError
	case engine.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
