package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Jojo244-329/server-app/apperrors"
	"github.com/Jojo244-329/server-app/models"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/providers"
	"github.com/Jojo244-329/server-app/services"
	"github.com/Jojo244-329/server-app/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validRequest() models.PixRequest {
	return models.PixRequest{
		Nome:    "Ana Souza",
		CPF:     "12345678901",
		Email:   "Ana@Example.com",
		Celular: "11999990000",
		Valor:   json.RawMessage(`5000`),
		Produto: "Kit",
	}
}

func newPixService(gw providers.PaymentGateway, tracker services.ConversionTracker, pub services.EventPublisher, metrics services.MetricsRecorder) (services.PixService, *services.Dispatcher) {
	d := services.NewDispatcher(services.DispatcherOptions{Timeout: time.Second})
	return services.NewPixService(gw, tracker, pub, d, metrics, "BRL", zap.NewNop()), d
}

func TestValidateCheckout_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *models.PixRequest)
		wantMsg string
	}{
		{"short cpf", func(r *models.PixRequest) { r.CPF = "123" }, services.MsgInvalidCPF},
		{"cpf with letters", func(r *models.PixRequest) { r.CPF = "1234567890a" }, services.MsgInvalidCPF},
		{"cpf with punctuation", func(r *models.PixRequest) { r.CPF = "123.456.789" }, services.MsgInvalidCPF},
		{"missing email", func(r *models.PixRequest) { r.Email = "" }, services.MsgInvalidEmail},
		{"email without at", func(r *models.PixRequest) { r.Email = "ana.example.com" }, services.MsgInvalidEmail},
		{"short phone", func(r *models.PixRequest) { r.Celular = "119999" }, services.MsgInvalidPhone},
		{"missing amount", func(r *models.PixRequest) { r.Valor = nil }, services.MsgInvalidAmount},
		{"null amount", func(r *models.PixRequest) { r.Valor = json.RawMessage(`null`) }, services.MsgInvalidAmount},
		{"amount below minimum", func(r *models.PixRequest) { r.Valor = json.RawMessage(`99`) }, services.MsgInvalidAmount},
		{"fractional amount", func(r *models.PixRequest) { r.Valor = json.RawMessage(`150.5`) }, services.MsgInvalidAmount},
		{"non numeric amount", func(r *models.PixRequest) { r.Valor = json.RawMessage(`"abc"`) }, services.MsgInvalidAmount},
		{"negative amount", func(r *models.PixRequest) { r.Valor = json.RawMessage(`-500`) }, services.MsgInvalidAmount},
		{"first failing rule wins", func(r *models.PixRequest) { r.CPF = ""; r.Email = "" }, services.MsgInvalidCPF},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := services.ValidateCheckout(req)
			require.NotNil(t, err)
			assert.Equal(t, apperrors.KindValidation, err.Kind)
			assert.Equal(t, http.StatusBadRequest, err.Code)
			assert.Equal(t, tc.wantMsg, err.Message)
		})
	}
}

func TestValidateCheckout_Success(t *testing.T) {
	req := validRequest()
	req.Valor = json.RawMessage(`"150"`)
	req.Rua = "Rua A"
	req.Campanha = "black-friday"

	checkout, err := services.ValidateCheckout(req)
	require.Nil(t, err)
	assert.Equal(t, int64(150), checkout.AmountInCents)
	assert.Equal(t, "12345678901", checkout.TaxID)
	assert.Equal(t, "Rua A", checkout.Address.Street)
	assert.Equal(t, "black-friday", checkout.Campaign)
}

func TestValidateCheckout_NumericDocumentFields(t *testing.T) {
	var req models.PixRequest
	require.NoError(t, json.Unmarshal([]byte(`{"cpf":123,"email":"a@b.com","celular":11999990000,"valor":150}`), &req))
	_, err := services.ValidateCheckout(req)
	require.NotNil(t, err)
	assert.Equal(t, services.MsgInvalidCPF, err.Message)

	req = models.PixRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"cpf":12345678901,"email":"a@b.com","celular":119999,"valor":150}`), &req))
	_, err = services.ValidateCheckout(req)
	require.NotNil(t, err)
	assert.Equal(t, services.MsgInvalidPhone, err.Message)

	req = models.PixRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"cpf":12345678901,"email":"a@b.com","celular":11999990000,"valor":150}`), &req))
	checkout, err := services.ValidateCheckout(req)
	require.Nil(t, err)
	assert.Equal(t, "12345678901", checkout.TaxID)
	assert.Equal(t, "11999990000", checkout.Phone)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`100`, 100, true},
		{`"2500"`, 2500, true},
		{`" 300 "`, 300, true},
		{`100.0`, 100, true},
		{`100.01`, 0, false},
		{`""`, 0, false},
		{`true`, 0, false},
		{`{}`, 0, false},
	}
	for _, tc := range tests {
		got, ok := services.ParseAmount(json.RawMessage(tc.raw))
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestCreatePixPayment_InvalidInputSkipsGateway(t *testing.T) {
	gw := &mockGateway{}
	metrics := newMockMetrics()
	svc, _ := newPixService(gw, nil, nil, metrics)

	req := validRequest()
	req.Valor = json.RawMessage(`50`)
	_, err := svc.CreatePixPayment(context.Background(), req)

	require.NotNil(t, err)
	assert.Equal(t, services.MsgInvalidAmount, err.Message)
	assert.Equal(t, 0, gw.submitCall)
	assert.Equal(t, 1, metrics.count(aws_pkg.MetricPixValidationFailed))
}

func TestCreatePixPayment_Success(t *testing.T) {
	gw := &mockGateway{
		raw:    json.RawMessage(`{"id":"tx"}`),
		intent: &models.PaymentIntent{QRCode: "000201", TransactionID: "tx-1", Raw: json.RawMessage(`{"id":"tx"}`)},
	}
	tracker := &mockTracker{}
	pub := &mockPublisher{}
	metrics := newMockMetrics()
	svc, d := newPixService(gw, tracker, pub, metrics)

	intent, err := svc.CreatePixPayment(context.Background(), validRequest())
	require.Nil(t, err)
	d.Wait()

	assert.Equal(t, "000201", intent.QRCode)
	assert.Equal(t, "tx-1", intent.TransactionID)
	require.Len(t, gw.submitted, 1)
	assert.Equal(t, int64(5000), gw.submitted[0].Amount)
	assert.Equal(t, 1, metrics.count(aws_pkg.MetricPixCreated))

	events := tracker.sent()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, models.EventInitiateCheckout, ev.EventName)
	assert.Equal(t, 50.0, ev.CustomData.Value)
	assert.Equal(t, "BRL", ev.CustomData.Currency)
	assert.Equal(t, "Kit", ev.CustomData.ContentName)
	assert.Equal(t, []string{utils.HashSHA256("ana@example.com")}, ev.UserData.Em)
	assert.NotEmpty(t, ev.EventID)

	published := pub.sent()
	require.Len(t, published, 1)
	assert.Equal(t, models.DomainEventPixCreated, published[0].Type)
	assert.Equal(t, "tx-1", published[0].TransactionID)
}

func TestCreatePixPayment_TrackingFailureDoesNotFailResponse(t *testing.T) {
	gw := &mockGateway{intent: &models.PaymentIntent{QRCode: "qr", TransactionID: "tx"}}
	tracker := &mockTracker{err: errors.New("pixel down")}
	svc, d := newPixService(gw, tracker, nil, nil)

	intent, err := svc.CreatePixPayment(context.Background(), validRequest())
	d.Wait()

	require.Nil(t, err)
	assert.Equal(t, "qr", intent.QRCode)
	assert.Len(t, tracker.sent(), 1)
}

func TestCreatePixPayment_GatewayErrors(t *testing.T) {
	tests := []struct {
		name        string
		gw          *mockGateway
		wantCode    int
		wantDetails interface{}
	}{
		{
			name:        "upstream json error",
			gw:          &mockGateway{submitErr: &apperrors.UpstreamError{Service: "mock", StatusCode: 422, Body: []byte(`{"message":"invalid document"}`)}},
			wantCode:    422,
			wantDetails: json.RawMessage(`{"message":"invalid document"}`),
		},
		{
			name:        "upstream text error",
			gw:          &mockGateway{submitErr: &apperrors.UpstreamError{Service: "mock", StatusCode: 503, Body: []byte("unavailable")}},
			wantCode:    503,
			wantDetails: "unavailable",
		},
		{
			name:        "transport failure",
			gw:          &mockGateway{submitErr: errors.New("dial tcp: connection refused")},
			wantCode:    http.StatusInternalServerError,
			wantDetails: "dial tcp: connection refused",
		},
		{
			name:        "missing qr code",
			gw:          &mockGateway{raw: json.RawMessage(`{"id":"x"}`)},
			wantCode:    http.StatusBadGateway,
			wantDetails: "missing QR code",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &mockTracker{}
			metrics := newMockMetrics()
			svc, d := newPixService(tc.gw, tracker, nil, metrics)

			intent, err := svc.CreatePixPayment(context.Background(), validRequest())
			d.Wait()

			assert.Nil(t, intent)
			require.NotNil(t, err)
			assert.Equal(t, apperrors.KindGateway, err.Kind)
			assert.Equal(t, tc.wantCode, err.Code)
			assert.Equal(t, services.MsgGatewayFailed, err.Message)
			assert.Equal(t, tc.wantDetails, err.Details)
			assert.Empty(t, tracker.sent())
			assert.Equal(t, 1, metrics.count(aws_pkg.MetricPixGatewayFailed))
		})
	}
}
