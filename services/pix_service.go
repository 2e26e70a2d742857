package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Jojo244-329/server-app/apperrors"
	"github.com/Jojo244-329/server-app/models"
	aws_pkg "github.com/Jojo244-329/server-app/pkg/aws"
	"github.com/Jojo244-329/server-app/providers"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	MsgInvalidCPF    = "CPF inválido"
	MsgInvalidEmail  = "Email inválido"
	MsgInvalidPhone  = "Celular inválido"
	MsgInvalidAmount = "Valor inválido"
	MsgGatewayFailed = "Erro ao gerar Pix"

	// MinAmountInCents is the smallest accepted checkout amount.
	MinAmountInCents = 100

	cpfLength      = 11
	minPhoneLength = 10
)

// PixService creates PIX payment intents.
type PixService interface {
	CreatePixPayment(ctx context.Context, req models.PixRequest) (*models.PaymentIntent, *apperrors.Error)
}

type pixServiceImpl struct {
	gateway   providers.PaymentGateway
	tracker   ConversionTracker
	publisher EventPublisher
	runner    TaskRunner
	metrics   MetricsRecorder
	currency  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewPixService creates a new PixService. tracker, publisher and metrics may be nil.
func NewPixService(
	gateway providers.PaymentGateway,
	tracker ConversionTracker,
	publisher EventPublisher,
	runner TaskRunner,
	metrics MetricsRecorder,
	currency string,
	logger *zap.Logger,
) PixService {
	return &pixServiceImpl{
		gateway:   gateway,
		tracker:   tracker,
		publisher: publisher,
		runner:    runner,
		metrics:   metrics,
		currency:  currency,
		logger:    logger,
		now:       time.Now,
	}
}

// CreatePixPayment validates the checkout, submits it to the gateway and
// schedules the InitiateCheckout event once a QR code is available.
func (s *pixServiceImpl) CreatePixPayment(ctx context.Context, req models.PixRequest) (*models.PaymentIntent, *apperrors.Error) {
	checkout, verr := ValidateCheckout(req)
	if verr != nil {
		s.logger.Info("Checkout rejected", zap.String("reason", verr.Message))
		s.count(ctx, aws_pkg.MetricPixValidationFailed)
		return nil, verr
	}

	payload := s.gateway.BuildPayload(checkout)

	raw, err := s.gateway.Submit(ctx, payload)
	if err != nil {
		appErr := submitError(err)
		s.logger.Error("Gateway submit failed",
			zap.String("gateway", s.gateway.Name()),
			zap.Int("status", appErr.Code),
			zap.Error(err),
		)
		s.count(ctx, aws_pkg.MetricPixGatewayFailed)
		return nil, appErr
	}

	intent, err := s.gateway.ParseResponse(raw)
	if err != nil {
		s.logger.Error("Gateway response unusable",
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
		)
		s.count(ctx, aws_pkg.MetricPixGatewayFailed)
		return nil, apperrors.Gateway(http.StatusBadGateway, MsgGatewayFailed, err.Error(), err)
	}

	s.logger.Info("PIX created",
		zap.String("gateway", s.gateway.Name()),
		zap.String("transaction_id", intent.TransactionID),
		zap.Int64("amount_in_cents", checkout.AmountInCents),
	)
	s.count(ctx, aws_pkg.MetricPixCreated)

	now := s.now()
	if s.tracker != nil {
		event := NewConversionEvent(models.EventInitiateCheckout, checkout.Email, checkout.Phone,
			checkout.AmountInCents, checkout.ProductName, s.currency, now)
		s.runner.Go("initiate_checkout_event", func(ctx context.Context) error {
			return s.tracker.SendEvent(ctx, event)
		})
	}
	if s.publisher != nil {
		event := models.PaymentDomainEvent{
			Type:          models.DomainEventPixCreated,
			TransactionID: intent.TransactionID,
			AmountInCents: checkout.AmountInCents,
			ProductName:   checkout.ProductName,
			Timestamp:     now.UTC(),
		}
		s.runner.Go(models.DomainEventPixCreated, func(ctx context.Context) error {
			return s.publisher.PublishPaymentEvent(ctx, event)
		})
	}

	return intent, nil
}

func (s *pixServiceImpl) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, nil); err != nil {
		s.logger.Debug("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

// ValidateCheckout applies the checkout rules in order; the first failing
// rule decides the error.
func ValidateCheckout(req models.PixRequest) (models.CheckoutRequest, *apperrors.Error) {
	if !isCPF(req.CPF.String()) {
		return models.CheckoutRequest{}, apperrors.Validation(MsgInvalidCPF)
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return models.CheckoutRequest{}, apperrors.Validation(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(req.Celular.String()) < minPhoneLength {
		return models.CheckoutRequest{}, apperrors.Validation(MsgInvalidPhone)
	}
	amount, ok := ParseAmount(req.Valor)
	if !ok || amount < MinAmountInCents {
		return models.CheckoutRequest{}, apperrors.Validation(MsgInvalidAmount)
	}

	return models.CheckoutRequest{
		Name:          req.Nome,
		TaxID:         req.CPF.String(),
		Email:         req.Email,
		Phone:         req.Celular.String(),
		AmountInCents: amount,
		ProductName:   req.Produto,
		Address: models.CheckoutAddress{
			Street:       req.Rua,
			ZipCode:      req.CEP,
			Neighborhood: req.Bairro,
			City:         req.Cidade,
		},
		Campaign: req.Campanha,
	}, nil
}

// ParseAmount reads an integer amount given as a JSON number or numeric
// string. Fractional values are rejected.
func ParseAmount(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var s models.FlexString
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	text := strings.TrimSpace(s.String())
	if text == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(1<<62)) || d.IsNegative() {
		return 0, false
	}
	return d.IntPart(), true
}

func isCPF(v string) bool {
	if len(v) != cpfLength {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

// submitError maps a failed gateway call onto the response status: the
// upstream status for non-2xx answers, 500 when the gateway was unreachable.
func submitError(err error) *apperrors.Error {
	var httpErr *apperrors.UpstreamError
	if errors.As(err, &httpErr) {
		return apperrors.Gateway(httpErr.StatusCode, MsgGatewayFailed, upstreamDetails(httpErr.Body, err), err)
	}
	return apperrors.Gateway(http.StatusInternalServerError, MsgGatewayFailed, err.Error(), err)
}

func upstreamDetails(body []byte, err error) any {
	trimmed := strings.TrimSpace(string(body))
	switch {
	case trimmed == "":
		return err.Error()
	case json.Valid([]byte(trimmed)):
		return json.RawMessage(trimmed)
	default:
		return trimmed
	}
}
