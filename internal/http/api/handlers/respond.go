package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ContextActorID   = "actorID"
	ContextActorRole = "actorRole"
)

// respondOK writes the tagged success union.
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// respondError writes the tagged failure union with the given status.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
