package attendance

import (
	"errors"

	"github.com/asistio/core/internal/modules/session"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles public registration requests and the authenticated
// attendee listing.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts attendance routes. The token lookup and the
// registration submit are public by design; the per-session listing sits
// behind auth next to the session routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/session/:token", h.lookup)
	rg.POST("/attendance", h.register)

	rg.GET("/sessions/:id/attendees", authMW, h.listBySession)
}

// registerDTO is the public registration body.
type registerDTO struct {
	Token          string `json:"token" binding:"required"`
	IdentityNumber string `json:"identity_number" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Role           string `json:"role"`
	Unit           string `json:"unit"`
	Email          string `json:"email"`
	Signature      string `json:"signature" binding:"required"`
}

// lookup GET /session/:token
func (h *Handler) lookup(c *gin.Context) {
	sess, err := h.svc.resolver.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.abortTokenError(c, err)
		return
	}
	response.OK(c, sess.PublicView())
}

// register POST /attendance
func (h *Handler) register(c *gin.Context) {
	var dto registerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	attendee, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Token:          dto.Token,
		IdentityNumber: dto.IdentityNumber,
		Name:           dto.Name,
		Role:           dto.Role,
		Unit:           dto.Unit,
		Email:          dto.Email,
		Signature:      dto.Signature,
		SourceIP:       c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateRegistration):
			response.Conflict(c, "this identity number is already registered for this session")
		case errors.Is(err, ErrInvalidAsset):
			response.UnprocessableEntity(c, err.Error())
		default:
			h.abortTokenError(c, err)
		}
		return
	}
	response.Created(c, attendee)
}

// listBySession GET /sessions/:id/attendees  [auth]
func (h *Handler) listBySession(c *gin.Context) {
	attendees, err := h.svc.ListBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("attendee list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.List(c, attendees)
}

// abortTokenError maps the token validation variants onto distinct statuses
// so the registration page can tell a dead link from a closed one.
func (h *Handler) abortTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrTokenNotFound):
		response.NotFound(c, "token not found")
	case errors.Is(err, session.ErrTokenInactive):
		response.Forbidden(c, "registration for this session is closed")
	case errors.Is(err, session.ErrTokenExpired):
		response.Gone(c, "this registration link has expired")
	default:
		h.log.Error("attendance request failed", zap.Error(err))
		response.InternalError(c)
	}
}
