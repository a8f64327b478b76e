package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/guild"

	"github.com/gin-gonic/gin"
)

// GuildHandler serves guild economy endpoints.
type GuildHandler struct {
	economy *guild.Economy
}

// NewGuildHandler constructs a GuildHandler.
func NewGuildHandler(economy *guild.Economy) *GuildHandler {
	return &GuildHandler{economy: economy}
}

// resurrectRequest defines the request body for a resurrection.
type resurrectRequest struct {
	UserID uint64 `json:"user_id"`
}

// Resurrect revives a dead guild member, splitting damage across the guild.
func (h *GuildHandler) Resurrect(c *gin.Context) {
	var body resurrectRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	userID := body.UserID
	if userID == 0 {
		userID = c.GetUint64(ContextActorID)
	}

	if errResurrect := h.economy.Resurrect(c.Request.Context(), userID); errResurrect != nil {
		respondError(c, guildStatus(errResurrect), errResurrect.Error())
		return
	}
	respondOK(c, gin.H{"message": "resurrected"})
}

// joinRequest defines the request body for joining a guild.
type joinRequest struct {
	Guild string `json:"guild"`
}

// Join adds the authenticated actor to a guild.
func (h *GuildHandler) Join(c *gin.Context) {
	var body joinRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	guildName := strings.TrimSpace(body.Guild)
	if guildName == "" {
		respondError(c, http.StatusBadRequest, "missing guild")
		return
	}

	actorID := c.GetUint64(ContextActorID)
	if errJoin := h.economy.Join(c.Request.Context(), actorID, guildName); errJoin != nil {
		respondError(c, guildStatus(errJoin), errJoin.Error())
		return
	}
	respondOK(c, gin.H{"message": "joined " + guildName})
}

// guildStatus maps guild economy errors to HTTP statuses.
func guildStatus(err error) int {
	switch {
	case errors.Is(err, guild.ErrUserNotFound), errors.Is(err, guild.ErrGuildNotFound):
		return http.StatusNotFound
	case errors.Is(err, guild.ErrNoGuild),
		errors.Is(err, guild.ErrGuildFull),
		errors.Is(err, guild.ErrGuildArchived),
		errors.Is(err, guild.ErrInvalidLeader),
		errors.Is(err, guild.ErrNotDead):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
