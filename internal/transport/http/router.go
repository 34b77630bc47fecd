package httptransport

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

// Options configures the HTTP router builder.
type Options struct {
	Config         *config.Config
	Logger         *logging.Logger
	AuthMiddleware gin.HandlerFunc
	StaticRoot     string
}

// Router bundles the gin engine and common route groups. Secured is nil when
// auth is disabled; handlers then register on API instead.
type Router struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	Secured *gin.RouterGroup
}

// Build constructs a gin engine pre-configured with logging, recovery, CORS
// and static file middlewares.
func Build(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.KindConfig, "http.build", "http router requires config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger
	}

	if opts.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))

	engine.SetTrustedProxies([]string{"0.0.0.0"})

	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Client-Id",
			"Token",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	staticRoot := opts.StaticRoot
	if staticRoot == "" {
		staticRoot = "./web"
	}
	engine.Use(static.Serve("/", static.LocalFile(staticRoot, true)))

	api := engine.Group("/api")
	var secured *gin.RouterGroup
	if opts.AuthMiddleware != nil {
		secured = api.Group("")
		secured.Use(opts.AuthMiddleware)
	}

	return &Router{
		Engine:  engine,
		API:     api,
		Secured: secured,
	}, nil
}

// Protected returns the group handlers with side effects should register on:
// the secured group when auth is enabled, the open API group otherwise.
func (r *Router) Protected() *gin.RouterGroup {
	if r.Secured != nil {
		return r.Secured
	}
	return r.API
}

func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		if logger != nil {
			logger.Info(
				"[HTTP] %s %s -> %d (%s)",
				c.Request.Method,
				c.Request.URL.Path,
				status,
				duration,
			)
		}
	}
}
