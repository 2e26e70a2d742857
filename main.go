package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jojo244-329/server-app/clients"
	"github.com/Jojo244-329/server-app/config"
	"github.com/Jojo244-329/server-app/controllers"
	"github.com/Jojo244-329/server-app/logger"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/providers"
	"github.com/Jojo244-329/server-app/repository"
	"github.com/Jojo244-329/server-app/routes"
	"github.com/Jojo244-329/server-app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "pix-service"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS clients are optional; without credentials the service runs on env config only.
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var logSink io.Writer
	if cfg.CloudWatchEnabled && awsErr == nil {
		cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
		} else {
			logSink = cwLogs
		}
	}

	zapLogger, err := logger.New(cfg.AppEnv, logSink)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	var (
		metricsClient *aws_pkg.MetricsClient
		snsClient     aws_pkg.SNSPublisher
		sqsClient     aws_pkg.QueueSender
	)
	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, SNS, SQS and metrics disabled", zap.Error(awsErr))
	} else {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
		snsClient = aws_pkg.NewSNSClient(awsCfg)
		sqsClient = aws_pkg.NewSQSClient(awsCfg)
	}

	var metrics services.MetricsRecorder
	if metricsClient.IsEnabled() {
		metrics = metricsClient
	}

	dispatcher := services.NewDispatcher(services.DispatcherOptions{
		Logger:     zapLogger,
		Timeout:    cfg.DispatchTimeout,
		DeadLetter: sqsClient,
		DLQURL:     cfg.DispatchDLQURL,
		Metrics:    metrics,
	})

	clientOpts := clients.Options{Timeout: cfg.DispatchTimeout, MaxRetries: cfg.DispatchMaxRetries}

	var tracker services.ConversionTracker
	if cfg.TrackingEnabled() {
		tracker = clients.NewMetaPixelClient(cfg.MetaGraphBaseURL, cfg.MetaPixelID, cfg.MetaAccessToken, clientOpts)
	} else {
		zapLogger.Warn("META_PIXEL_ID or META_ACCESS_TOKEN not set, conversion tracking disabled")
	}

	var attribution services.AttributionSender
	if cfg.AttributionEnabled() {
		attribution = clients.NewUTMifyClient(cfg.UTMifyBaseURL, cfg.UTMifyAPIToken, clientOpts)
	} else {
		zapLogger.Warn("UTMIFY_API_TOKEN not set, order attribution disabled")
	}

	var publisher services.EventPublisher
	if snsClient != nil && cfg.PaymentSNSTopicARN != "" {
		publisher = services.NewSNSEventPublisher(snsClient, cfg.PaymentSNSTopicARN)
	}

	var deduper repository.NotificationDeduper
	if cfg.RedisURL != "" {
		redisClient, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, webhook de-duplication disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			deduper = repository.NewRedisNotificationDeduper(redisClient, cfg.WebhookDedupeTTL)
		}
	}

	gateway := providers.NewVelanaGatewayFromConfig(cfg)
	pixService := services.NewPixService(gateway, tracker, publisher, dispatcher, metrics, cfg.DefaultCurrency, zapLogger)
	webhookService := services.NewWebhookService(tracker, attribution, publisher, deduper, dispatcher, metrics,
		cfg.DefaultCurrency, cfg.DefaultCountry, zapLogger)
	pixController := controllers.NewPixController(pixService, webhookService, zapLogger)

	r := routes.SetupRouter(ctx, pixController, routes.RouterOptions{
		Logger:             zapLogger,
		Metrics:            metricsClient,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.GatewayTimeout + 5*time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("PIX service started",
		zap.String("port", cfg.Port),
		zap.String("gateway", gateway.Name()),
		zap.Bool("tracking", tracker != nil),
		zap.Bool("attribution", attribution != nil),
		zap.Bool("dedupe", deduper != nil),
	)
	<-ctx.Done()
	zapLogger.Info("Shutting down PIX service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DispatchTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("Side effects still in flight at exit", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
}
