// Package proxy streams bucket-stored assets to browsers. The bucket is not
// exposed cross-origin, so images referenced by sessions and registrations
// resolve through this route instead of a direct object URL.
package proxy

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/asistio/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Presigner resolves an object key to a short-lived signed URL. The S3
// object store satisfies it.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Handler fetches presigned objects and relays the bytes.
type Handler struct {
	presigner Presigner
	client    *http.Client
	log       *zap.Logger
}

func NewHandler(presigner Presigner, log *zap.Logger) *Handler {
	return &Handler{
		presigner: presigner,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// RegisterRoutes mounts the object relay. With a nil presigner (local asset
// backend, served statically instead) the route answers 400.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/proxy/object/*key", h.stream)
}

// stream GET /proxy/object/*key
func (h *Handler) stream(c *gin.Context) {
	if h.presigner == nil {
		response.BadRequest(c, "object proxy requires bucket storage")
		return
	}
	key := strings.TrimLeft(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		response.BadRequest(c, "invalid object key")
		return
	}

	url, err := h.presigner.PresignGet(c.Request.Context(), key)
	if err != nil {
		h.log.Error("presign failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c)
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, url, nil)
	if err != nil {
		h.log.Error("proxy request build failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c)
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("object fetch failed", zap.String("key", key), zap.Error(err))
		response.InternalError(c)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		response.NotFound(c, "object not found")
		return
	}
	if resp.StatusCode != http.StatusOK {
		h.log.Warn("object fetch returned unexpected status",
			zap.String("key", key), zap.Int("status", resp.StatusCode))
		response.InternalError(c)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
}
