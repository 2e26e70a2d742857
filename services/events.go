package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Jojo244-329/server-app/models"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/utils"
	"github.com/google/uuid"
)

// AttributionTimeLayout is the timestamp format expected by the attribution API.
const AttributionTimeLayout = "2006-01-02 15:04:05"

const (
	attributionProductID = "prod-pix"
	defaultClientIP      = "0.0.0.0"

	platformNested = "pix-verso"
	platformFlat   = "pix-api"
)

// ConversionTracker delivers conversion events to the tracking pixel.
type ConversionTracker interface {
	SendEvent(ctx context.Context, event models.ConversionEvent) error
}

// AttributionSender delivers paid orders to the attribution platform.
type AttributionSender interface {
	SendOrder(ctx context.Context, order models.AttributionOrder) error
}

// EventPublisher publishes payment domain events for other services.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentDomainEvent) error
}

// NewConversionEvent builds a tracking event with hashed identifiers and a
// fresh event id.
func NewConversionEvent(name, email, phone string, amountInCents int64, productName, currency string, now time.Time) models.ConversionEvent {
	return models.ConversionEvent{
		EventName:    name,
		EventTime:    now.Unix(),
		EventID:      uuid.NewString(),
		ActionSource: models.ActionSourceWebsite,
		UserData: models.ConversionUserData{
			Em: []string{utils.HashSHA256(email)},
			Ph: []string{utils.HashSHA256(phone)},
		},
		CustomData: models.ConversionCustomData{
			Currency:    currency,
			Value:       models.MinorToMajor(amountInCents).InexactFloat64(),
			ContentName: productName,
		},
	}
}

// BuildAttributionOrder maps a paid PaymentEvent onto an attribution order.
func BuildAttributionOrder(ev models.PaymentEvent, now time.Time, country string) models.AttributionOrder {
	orderID := ev.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	stamp := now.UTC().Format(AttributionTimeLayout)
	createdAt := ev.CreatedAt
	if createdAt == "" {
		createdAt = stamp
	}

	platform := platformFlat
	if ev.Shape == models.ShapeNested {
		platform = platformNested
	}

	ip := ev.IP
	if ip == "" {
		ip = defaultClientIP
	}

	tracking := models.AttributionTracking{}
	if t := ev.Tracking; t != nil {
		tracking.UTMSource = t.UTMSource
		tracking.UTMMedium = t.UTMMedium
		tracking.UTMCampaign = t.UTMCampaign
		tracking.UTMContent = t.UTMContent
		tracking.UTMTerm = t.UTMTerm
	}

	return models.AttributionOrder{
		OrderID:       orderID,
		Platform:      platform,
		PaymentMethod: models.PaymentMethodPix,
		Status:        models.StatusPaid,
		CreatedAt:     createdAt,
		ApprovedDate:  stamp,
		Customer: models.AttributionCustomer{
			Name:     ev.CustomerName,
			Email:    ev.Email,
			Phone:    ev.Phone,
			Document: ev.Document,
			Country:  country,
			IP:       ip,
		},
		Products: []models.AttributionProduct{{
			ID:           attributionProductID,
			Name:         ev.ProductName,
			Quantity:     1,
			PriceInCents: ev.AmountInCents,
		}},
		TrackingParameters: tracking,
		Commission: models.AttributionCommission{
			TotalPriceInCents:     ev.AmountInCents,
			GatewayFeeInCents:     0,
			UserCommissionInCents: ev.AmountInCents,
		},
		IsTest: false,
	}
}

// SNSEventPublisher publishes payment domain events to an SNS topic.
type SNSEventPublisher struct {
	sns      aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(sns aws_pkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{sns: sns, topicArn: topicArn}
}

func (p *SNSEventPublisher) PublishPaymentEvent(ctx context.Context, event models.PaymentDomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.sns.Publish(ctx, p.topicArn, event.Type, payload)
}
