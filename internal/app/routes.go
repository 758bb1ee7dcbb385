package app

import (
	"github.com/gin-gonic/gin"
	"github.com/asistio/core/internal/config"
	"github.com/asistio/core/internal/middleware"
	"github.com/asistio/core/internal/modules/attendance"
	"github.com/asistio/core/internal/modules/auth"
	"github.com/asistio/core/internal/modules/proxy"
	"github.com/asistio/core/internal/modules/session"
	"github.com/asistio/core/internal/modules/user"
	"github.com/asistio/core/internal/pkg/authstate"
	"github.com/asistio/core/internal/pkg/clock"
	"github.com/asistio/core/internal/pkg/qr"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/asistio/core/internal/store/object"
)

func (a *App) registerRoutes(state *authstate.Store) {
	r := a.router
	log := a.logger
	clk := clock.System{}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	// Services
	sessionSvc := session.NewService(a.records.Sessions(), a.objects, qr.NewPNGEncoder(), clk,
		a.cfg.PublicBaseURL, a.cfg.TokenExpiry(), log)
	attendanceSvc := attendance.NewService(a.records.Attendees(), a.objects, sessionSvc, clk,
		a.cfg.Location(), a.cfg.MaxSignatureBytes, log)
	sessionSvc.SetAttendeeRemover(attendanceSvc)
	userSvc := user.NewService(a.records.Users(), clk, log)
	reconciler := session.NewReconciler(sessionSvc, a.records.Users(), log)

	// The revocation list needs Redis; without it tokens stay valid until
	// expiry and logout is a client-side discard.
	var authMW gin.HandlerFunc
	if state != nil {
		authSvc := auth.NewService(state, log)
		authMW = middleware.Auth(authSvc)
		auth.NewHandler(authSvc, log).RegisterRoutes(r.Group("/api"), authMW)
	} else {
		authMW = middleware.Auth(nil)
	}

	api := r.Group("/api")
	session.NewHandler(sessionSvc, reconciler, log).RegisterRoutes(api, authMW)
	attendance.NewHandler(attendanceSvc, log).RegisterRoutes(api, authMW)
	user.NewHandler(userSvc, log).RegisterRoutes(api, authMW)

	// Asset serving depends on the object backend: bucket objects stream
	// through the proxy, local files mount statically.
	if a.cfg.ObjectMode == config.ObjectModeS3 {
		if s3, ok := a.objects.(*object.S3Store); ok {
			proxy.NewHandler(s3, log).RegisterRoutes(api)
		}
	} else {
		proxy.NewHandler(nil, log).RegisterRoutes(api)
		r.Static("/static", a.cfg.UploadDir)
	}
}
