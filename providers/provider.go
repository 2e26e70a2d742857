package providers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Jojo244-329/server-app/models"
)

// PaymentGateway defines the interface every PIX gateway integration must implement.
type PaymentGateway interface {
	// Name identifies the gateway in logs and metrics.
	Name() string

	// BuildPayload maps a validated checkout onto the gateway's transaction body.
	BuildPayload(req models.CheckoutRequest) models.TransactionPayload

	// Submit creates the transaction and returns the raw response body.
	// A non-2xx answer is reported as *apperrors.UpstreamError.
	Submit(ctx context.Context, payload models.TransactionPayload) (json.RawMessage, error)

	// ParseResponse extracts the QR code and transaction id.
	ParseResponse(raw json.RawMessage) (*models.PaymentIntent, error)
}

// ErrMissingQRCode is returned when the gateway accepted the transaction but
// sent no QR code back.
var ErrMissingQRCode = errors.New("missing QR code")
