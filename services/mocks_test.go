package services_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Jojo244-329/server-app/models"
	"github.com/Jojo244-329/server-app/providers"
)

// ---- mock gateway ----

type mockGateway struct {
	raw        json.RawMessage
	submitErr  error
	intent     *models.PaymentIntent
	parseErr   error
	submitted  []models.TransactionPayload
	submitCall int
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) BuildPayload(req models.CheckoutRequest) models.TransactionPayload {
	return models.TransactionPayload{Amount: req.AmountInCents, PaymentMethod: models.PaymentMethodPix}
}

func (m *mockGateway) Submit(_ context.Context, p models.TransactionPayload) (json.RawMessage, error) {
	m.submitCall++
	m.submitted = append(m.submitted, p)
	return m.raw, m.submitErr
}

func (m *mockGateway) ParseResponse(raw json.RawMessage) (*models.PaymentIntent, error) {
	if m.parseErr != nil {
		return nil, m.parseErr
	}
	if m.intent != nil {
		return m.intent, nil
	}
	return nil, providers.ErrMissingQRCode
}

// ---- mock collaborators ----

type mockTracker struct {
	mu     sync.Mutex
	events []models.ConversionEvent
	err    error
}

func (m *mockTracker) SendEvent(_ context.Context, ev models.ConversionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockTracker) sent() []models.ConversionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ConversionEvent(nil), m.events...)
}

type mockAttribution struct {
	mu     sync.Mutex
	orders []models.AttributionOrder
	err    error
}

func (m *mockAttribution) SendOrder(_ context.Context, o models.AttributionOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
	return m.err
}

func (m *mockAttribution) sent() []models.AttributionOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AttributionOrder(nil), m.orders...)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []models.PaymentDomainEvent
}

func (m *mockPublisher) PublishPaymentEvent(_ context.Context, ev models.PaymentDomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) sent() []models.PaymentDomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PaymentDomainEvent(nil), m.events...)
}

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newMockMetrics() *mockMetrics { return &mockMetrics{counts: map[string]int{}} }

func (m *mockMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return m.err
}

func (m *mockMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type mockQueue struct {
	mu       sync.Mutex
	bodies   []string
	queueURL string
}

func (m *mockQueue) SendMessage(_ context.Context, queueURL, body string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueURL = queueURL
	m.bodies = append(m.bodies, body)
	return nil
}

type mockDeduper struct {
	seen map[string]bool
	err  error
}

func (m *mockDeduper) Claim(_ context.Context, orderID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[orderID] {
		return false, nil
	}
	m.seen[orderID] = true
	return true, nil
}

type mockSNS struct {
	topic     string
	eventType string
	message   []byte
	err       error
}

func (m *mockSNS) Publish(_ context.Context, topicArn, eventType string, message []byte) error {
	m.topic = topicArn
	m.eventType = eventType
	m.message = message
	return m.err
}
