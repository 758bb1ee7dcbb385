package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/asistio/core/internal/config"
	"github.com/asistio/core/internal/middleware"
	"github.com/asistio/core/internal/pkg/authstate"
	"github.com/asistio/core/internal/pkg/jwt"
	pkgredis "github.com/asistio/core/internal/pkg/redis"
	"github.com/asistio/core/internal/store/object"
	"github.com/asistio/core/internal/store/record"
	"go.uber.org/zap"
)

// proxyBasePath is where the object relay mounts; bucket-stored asset URLs
// resolve under it.
const proxyBasePath = "/api/proxy/object"

// revocationTTL must cover the longest token lifetime so a revoked token can
// never outlive its denylist entry.
const revocationTTL = 14 * 24 * time.Hour

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	records record.Store
	objects object.Store
	logger  *zap.Logger
}

// New initializes the application: config → stores → Redis → routes. Backend
// selection happens here once; everything downstream works against the
// chosen interfaces.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	jwt.SetSecret(cfg.JWTSecret)

	records, err := newRecordStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	objects, err := newObjectStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}

	var (
		rc    *pkgredis.Client
		state *authstate.Store
	)
	if cfg.RedisURL != "" {
		rc, err = pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		state = authstate.New(rc, revocationTTL)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	if rc != nil {
		// OptionalAuth runs first so the limiter can tell authenticated
		// staff traffic from anonymous registrants.
		router.Use(middleware.OptionalAuth())
		router.Use(middleware.RateLimit(rc.Raw()))
	}

	app := &App{cfg: cfg, router: router, records: records, objects: objects, logger: logger}
	app.registerRoutes(state)

	return app, nil
}

func newRecordStore(cfg *config.AppConfig) (record.Store, error) {
	switch cfg.RecordMode {
	case config.RecordModeMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return record.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return record.NewFileStore(cfg.DataDir)
	}
}

func newObjectStore(cfg *config.AppConfig, logger *zap.Logger) (object.Store, error) {
	switch cfg.ObjectMode {
	case config.ObjectModeS3:
		return object.NewS3Store(object.S3Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			PathStyleAccess: cfg.S3.PathStyleAccess,
		}, proxyBasePath, logger)
	default:
		return object.NewLocalStore(cfg.UploadDir, "/static", logger)
	}
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }
