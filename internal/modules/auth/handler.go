package auth

import (
	"github.com/asistio/core/internal/middleware"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles auth HTTP requests.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts auth routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authed := rg.Group("/auth", authMW)
	authed.POST("/logout", h.logout)
}

// logout POST /auth/logout  [auth]
// Revokes the presented token for the rest of its lifetime.
func (h *Handler) logout(c *gin.Context) {
	token := middleware.NormalizeToken(c.GetHeader("Authorization"))
	if err := h.svc.Revoke(c.Request.Context(), token); err != nil {
		h.log.Error("token revoke failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.NoContent(c)
}
