package user

import (
	"errors"

	"github.com/asistio/core/internal/middleware"
	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles platform user HTTP requests.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts user routes. Role management and deletion require
// the Administrator role on top of authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users", authMW)

	users.POST("/me", h.me)
	users.GET("", h.requireAdmin, h.list)
	users.PATCH("/:id/role", h.requireAdmin, h.updateRole)
	users.DELETE("/:id", h.requireAdmin, h.delete)
}

// me POST /users/me  [auth]
// Upserts the caller's profile on login and returns it.
func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.RegisterOrGet(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentUserName(c))
	if err != nil {
		h.log.Error("user upsert failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, u)
}

// list GET /users  [admin]
func (h *Handler) list(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("user list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.List(c, users)
}

type updateRoleDTO struct {
	Role string `json:"role" binding:"required"`
}

// updateRole PATCH /users/:id/role  [admin]
func (h *Handler) updateRole(c *gin.Context) {
	var dto updateRoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	u, err := h.svc.UpdateRole(c.Request.Context(), c.Param("id"), dto.Role)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			response.UnprocessableEntity(c, err.Error())
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, ErrLastAdministrator):
			response.Conflict(c, err.Error())
		default:
			h.log.Error("role update failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	response.OK(c, u)
}

// delete DELETE /users/:id  [admin]
func (h *Handler) delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, ErrLastAdministrator):
			response.Conflict(c, err.Error())
		default:
			h.log.Error("user delete failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	response.NoContent(c)
}

// requireAdmin gates a route on the Administrator role.
func (h *Handler) requireAdmin(c *gin.Context) {
	role, err := h.svc.Role(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.log.Error("role lookup failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if role != models.RoleAdministrator {
		response.Forbidden(c, "administrator role required")
		return
	}
	c.Next()
}
