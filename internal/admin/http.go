package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/resource"
)

// RegisterRoutes mounts the moderation endpoints under /admin. The group must
// already run auth.AuthMiddleware.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	adminGroup := group.Group("/admin")
	adminGroup.Use(auth.RequireAdmin())
	{
		adminGroup.GET("/stats", handler.stats)
		adminGroup.GET("/users", handler.listUsers)
		adminGroup.DELETE("/users/:id", handler.deleteUser)
		adminGroup.GET("/resources", handler.listResources)
		adminGroup.DELETE("/resources/:id", handler.deleteResource)
	}
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) stats(c *gin.Context) {
	identity, _ := auth.RequireUser(c)

	platform, err := h.service.Stats(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err, "load stats")
		return
	}
	c.JSON(http.StatusOK, platform)
}

func (h *httpHandler) listUsers(c *gin.Context) {
	identity, _ := auth.RequireUser(c)

	users, err := h.service.Users(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *httpHandler) deleteUser(c *gin.Context) {
	identity, _ := auth.RequireUser(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), identity, userID); err != nil {
		respondError(c, err, "delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) listResources(c *gin.Context) {
	identity, _ := auth.RequireUser(c)

	limit := resource.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > resource.MaxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		offset = parsed
	}

	resources, err := h.service.Resources(c.Request.Context(), identity, resource.Filter{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err, "list resources")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources, "limit": limit, "offset": offset})
}

func (h *httpHandler) deleteResource(c *gin.Context) {
	identity, _ := auth.RequireUser(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
		return
	}

	if err := h.service.DeleteResource(c.Request.Context(), identity, id); err != nil {
		respondError(c, err, "delete resource")
		return
	}
	c.Status(http.StatusNoContent)
}

func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, ErrSelfDelete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		resource.RespondError(c, err, action)
	}
}
