package handlers

import (
	"net/http"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/guild"
	"github.com/jonp-h/TillerQuest-sub003/internal/mana"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves operator-only maintenance endpoints.
type AdminHandler struct {
	regen   *mana.Regenerator
	economy *guild.Economy
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(regen *mana.Regenerator, economy *guild.Economy) *AdminHandler {
	return &AdminHandler{regen: regen, economy: economy}
}

// RegenerateDaily runs the daily mana/turn top-up. The external scheduler
// calls this once per day; reruns are no-ops.
func (h *AdminHandler) RegenerateDaily(c *gin.Context) {
	count, errRegen := h.regen.RegenerateDaily(c.Request.Context())
	if errRegen != nil {
		respondError(c, http.StatusInternalServerError, "regeneration failed")
		return
	}
	respondOK(c, gin.H{"regenerated": count})
}

// PromoteLeader promotes a guild's designated successor to leader.
func (h *AdminHandler) PromoteLeader(c *gin.Context) {
	guildName := strings.TrimSpace(c.Param("name"))
	if guildName == "" {
		respondError(c, http.StatusBadRequest, "missing guild name")
		return
	}

	if errPromote := h.economy.PromoteNextLeader(c.Request.Context(), guildName); errPromote != nil {
		respondError(c, guildStatus(errPromote), errPromote.Error())
		return
	}
	respondOK(c, gin.H{"message": "leader promoted"})
}
