package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/resource"
)

// RegisterRoutes mounts the member dashboard.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/me/resources", handler.dashboard)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) dashboard(c *gin.Context) {
	identity, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	dashboard, err := h.service.ForUser(c.Request.Context(), identity)
	if err != nil {
		resource.RespondError(c, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
