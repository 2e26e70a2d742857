package routes

import (
	"context"
	"time"

	"github.com/Jojo244-329/server-app/controllers"
	"github.com/Jojo244-329/server-app/middleware"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "pix-service"

// RouterOptions carries the middleware settings for SetupRouter.
type RouterOptions struct {
	Logger             *zap.Logger
	Metrics            *aws_pkg.MetricsClient
	AllowedOrigins     string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

// SetupRouter builds the engine with global middleware and all routes.
// ctx bounds the rate limiter's background eviction.
func SetupRouter(ctx context.Context, pc *controllers.PixController, opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Metrics(opts.Metrics, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.GET("/health", pc.Health)
	RegisterPixRoutes(ctx, r, pc, opts)
	return r
}

// RegisterPixRoutes sets up the checkout and webhook routes.
func RegisterPixRoutes(ctx context.Context, r *gin.Engine, pc *controllers.PixController, opts RouterOptions) {
	api := r.Group("/api")
	if opts.RequestTimeout > 0 {
		api.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Checkout is public and rate limited per client IP.
	api.POST("/gerar-pix", middleware.RateLimit(ctx, opts.RateLimitPerMinute), pc.GeneratePix)

	// Called by the payment gateway.
	api.POST("/pix-webhook", pc.PixWebhook)
}
