// Package api wires the HTTP surface around the game engine.
package api

import (
	"net/http"
	"strings"

	"github.com/jonp-h/TillerQuest-sub003/internal/config"
	"github.com/jonp-h/TillerQuest-sub003/internal/cosmic"
	"github.com/jonp-h/TillerQuest-sub003/internal/engine"
	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"
	"github.com/jonp-h/TillerQuest-sub003/internal/guild"
	"github.com/jonp-h/TillerQuest-sub003/internal/http/api/handlers"
	"github.com/jonp-h/TillerQuest-sub003/internal/mana"
	"github.com/jonp-h/TillerQuest-sub003/internal/models"
	"github.com/jonp-h/TillerQuest-sub003/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RoleGameMaster marks operators allowed to hit administrative endpoints.
const RoleGameMaster = "gamemaster"

// Deps bundles the constructed components the routes need.
type Deps struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Engine   *engine.Engine
	Economy  *guild.Economy
	Selector *cosmic.Selector
	Regen    *mana.Regenerator
	Notifier *gamelog.Notifier
	Limiter  *ratelimit.Manager
}

// RegisterRoutes registers all routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	apiGroup := r.Group("/api")
	apiGroup.Use(actorAuthMiddleware(deps.DB, deps.JWT))

	castHandler := handlers.NewCastHandler(deps.Engine)
	apiGroup.POST("/abilities/cast", castRateLimitMiddleware(deps.Limiter), castHandler.Cast)
	apiGroup.POST("/abilities/dungeon", castRateLimitMiddleware(deps.Limiter), castHandler.CastDungeon)

	guildHandler := handlers.NewGuildHandler(deps.Economy)
	apiGroup.POST("/guilds/resurrect", guildHandler.Resurrect)
	apiGroup.POST("/guilds/join", guildHandler.Join)

	messageHandler := handlers.NewMessageHandler(deps.Notifier)
	apiGroup.GET("/messages", messageHandler.Unread)
	apiGroup.POST("/messages/:id/read", messageHandler.MarkRead)

	adminGroup := apiGroup.Group("/admin")
	adminGroup.Use(gameMasterMiddleware())

	cosmicHandler := handlers.NewCosmicHandler(deps.Selector)
	adminGroup.POST("/cosmic/select", cosmicHandler.Select)
	adminGroup.POST("/cosmic/rotate", cosmicHandler.Rotate)

	adminHandler := handlers.NewAdminHandler(deps.Regen, deps.Economy)
	adminGroup.POST("/regen", adminHandler.RegenerateDaily)
	adminGroup.POST("/guilds/:name/promote", adminHandler.PromoteLeader)
}

// actorAuthMiddleware validates actor JWTs and loads the player context.
func actorAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization format"})
			return
		}

		claims, errJWT := ParseActorToken(jwtCfg.Secret, strings.TrimSpace(token))
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "user not found"})
			return
		}

		c.Set(handlers.ContextActorID, user.ID)
		c.Set(handlers.ContextActorRole, claims.Role)
		c.Next()
	}
}

// gameMasterMiddleware restricts a group to operator tokens.
func gameMasterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(handlers.ContextActorRole) != RoleGameMaster {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "operator role required"})
			return
		}
		c.Next()
	}
}

// castRateLimitMiddleware throttles cast requests per actor.
func castRateLimitMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		actorID := c.GetUint64(handlers.ContextActorID)
		result, errAllow := limiter.Allow(c.Request.Context(), ratelimit.CastKey(actorID))
		if errAllow != nil {
			// The limiter degrades to memory internally; an error here means
			// even that failed, so let the request through.
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many casts"})
			return
		}
		c.Next()
	}
}
