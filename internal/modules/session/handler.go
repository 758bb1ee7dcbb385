package session

import (
	"errors"

	"github.com/asistio/core/internal/middleware"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/asistio/core/internal/store/record"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles session HTTP requests.
type Handler struct {
	svc        *Service
	reconciler *Reconciler
	log        *zap.Logger
}

func NewHandler(svc *Service, reconciler *Reconciler, log *zap.Logger) *Handler {
	return &Handler{svc: svc, reconciler: reconciler, log: log}
}

// RegisterRoutes mounts session routes onto the given router group. All of
// them require an authenticated caller; the public token endpoint lives in
// the attendance module.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	sessions := rg.Group("/sessions", authMW)

	sessions.POST("", h.create)
	sessions.GET("", h.list)
	sessions.GET("/:id", h.get)
	sessions.PATCH("/:id", h.update)
	sessions.DELETE("/:id", h.delete)
}

// create POST /sessions  [auth]
func (h *Handler) create(c *gin.Context) {
	var dto CreateSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.validate(); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	sess, err := h.reconciler.Create(c.Request.Context(), dto.toInput(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, record.ErrConflict) {
			response.Conflict(c, "could not allocate a unique token, retry the request")
			return
		}
		h.log.Error("session create failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.Created(c, sess)
}

// list GET /sessions  [auth]
func (h *Handler) list(c *gin.Context) {
	sessions, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.log.Error("session list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.List(c, sessions)
}

// get GET /sessions/:id  [auth]
func (h *Handler) get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.log.Error("session get failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, sess)
}

// update PATCH /sessions/:id  [auth]
func (h *Handler) update(c *gin.Context) {
	var dto UpdateSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	current, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.log.Error("session update lookup failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if err := dto.validate(current); err != nil {
		response.UnprocessableEntity(c, err.Error())
		return
	}

	sess, err := h.svc.Update(c.Request.Context(), c.Param("id"), dto.toPatch(), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(c, "you do not own this session")
		default:
			h.log.Error("session update failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	response.OK(c, sess)
}

// delete DELETE /sessions/:id  [auth]
func (h *Handler) delete(c *gin.Context) {
	warnings, err := h.reconciler.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "session not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(c, "you do not own this session")
		default:
			h.log.Error("session delete failed", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	if len(warnings) > 0 {
		msgs := make([]string, len(warnings))
		for i, w := range warnings {
			msgs[i] = w.Error()
		}
		response.OK(c, gin.H{"deleted": true, "warnings": msgs})
		return
	}
	response.NoContent(c)
}
