package services

import (
	"context"
	"time"

	"github.com/Jojo244-329/server-app/models"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/repository"
	"go.uber.org/zap"
)

// WebhookOutcome describes what the relay did with a notification.
type WebhookOutcome string

const (
	OutcomeIgnored    WebhookOutcome = "ignored"
	OutcomeDuplicate  WebhookOutcome = "duplicate"
	OutcomeDispatched WebhookOutcome = "dispatched"
)

// WebhookService relays paid PIX notifications to tracking and attribution.
type WebhookService interface {
	HandlePaymentWebhook(ctx context.Context, n models.WebhookNotification) WebhookOutcome
}

type webhookServiceImpl struct {
	tracker     ConversionTracker
	attribution AttributionSender
	publisher   EventPublisher
	deduper     repository.NotificationDeduper
	runner      TaskRunner
	metrics     MetricsRecorder
	currency    string
	country     string
	logger      *zap.Logger
	now         func() time.Time
}

// NewWebhookService creates a new WebhookService. Every collaborator except
// runner and logger may be nil, which disables it.
func NewWebhookService(
	tracker ConversionTracker,
	attribution AttributionSender,
	publisher EventPublisher,
	deduper repository.NotificationDeduper,
	runner TaskRunner,
	metrics MetricsRecorder,
	currency, country string,
	logger *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		tracker:     tracker,
		attribution: attribution,
		publisher:   publisher,
		deduper:     deduper,
		runner:      runner,
		metrics:     metrics,
		currency:    currency,
		country:     country,
		logger:      logger,
		now:         time.Now,
	}
}

// HandlePaymentWebhook schedules the Purchase event and the attribution order
// for a paid PIX notification. It never waits for them.
func (s *webhookServiceImpl) HandlePaymentWebhook(ctx context.Context, n models.WebhookNotification) WebhookOutcome {
	ev := models.NormalizeNotification(n)

	if !ev.IsPaidPix() {
		s.logger.Info("Webhook ignored",
			zap.String("order_id", ev.OrderID),
			zap.String("status", ev.Status),
			zap.String("payment_method", ev.PaymentMethod),
		)
		s.count(ctx, aws_pkg.MetricWebhookIgnored)
		return OutcomeIgnored
	}

	if s.deduper != nil && ev.OrderID != "" {
		claimed, err := s.deduper.Claim(ctx, ev.OrderID)
		if err != nil {
			s.logger.Warn("Webhook dedupe unavailable, dispatching anyway",
				zap.String("order_id", ev.OrderID), zap.Error(err))
		} else if !claimed {
			s.logger.Info("Duplicate webhook", zap.String("order_id", ev.OrderID))
			s.count(ctx, aws_pkg.MetricWebhookDuplicate)
			return OutcomeDuplicate
		}
	}

	now := s.now()

	if s.tracker != nil {
		event := NewConversionEvent(models.EventPurchase, ev.Email, ev.Phone,
			ev.AmountInCents, ev.ProductName, s.currency, now)
		s.runner.Go("purchase_event", func(ctx context.Context) error {
			return s.tracker.SendEvent(ctx, event)
		})
	}

	order := BuildAttributionOrder(ev, now, s.country)
	if s.attribution != nil {
		s.runner.Go("attribution_order", func(ctx context.Context) error {
			return s.attribution.SendOrder(ctx, order)
		})
	}

	if s.publisher != nil {
		event := models.PaymentDomainEvent{
			Type:          models.DomainEventPaymentPaid,
			OrderID:       order.OrderID,
			AmountInCents: ev.AmountInCents,
			ProductName:   ev.ProductName,
			Timestamp:     now.UTC(),
		}
		s.runner.Go(models.DomainEventPaymentPaid, func(ctx context.Context) error {
			return s.publisher.PublishPaymentEvent(ctx, event)
		})
	}

	s.logger.Info("Paid PIX relayed",
		zap.String("order_id", order.OrderID),
		zap.String("shape", string(ev.Shape)),
		zap.Int64("amount_in_cents", ev.AmountInCents),
	)
	s.count(ctx, aws_pkg.MetricWebhookPaid)
	return OutcomeDispatched
}

func (s *webhookServiceImpl) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, nil); err != nil {
		s.logger.Debug("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
