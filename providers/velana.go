package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Jojo244-329/server-app/apperrors"
	"github.com/Jojo244-329/server-app/config"
	"github.com/Jojo244-329/server-app/models"
)

const (
	documentTypeCPF = "cpf"
	maxResponseSize = 1 << 20
)

// VelanaOptions configures a VelanaGateway.
type VelanaOptions struct {
	BaseURL       string
	SecretKey     string
	AuthPassword  string
	Timeout       time.Duration
	ExpiresInDays int
	PostbackURL   string
	Shipping      config.ShippingDefaults
}

// VelanaGateway implements PaymentGateway against the Velana transactions API.
type VelanaGateway struct {
	opts       VelanaOptions
	httpClient *http.Client
}

// NewVelanaGateway creates a new VelanaGateway.
func NewVelanaGateway(opts VelanaOptions) *VelanaGateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &VelanaGateway{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// NewVelanaGatewayFromConfig wires the gateway from service configuration.
func NewVelanaGatewayFromConfig(cfg *config.Config) *VelanaGateway {
	return NewVelanaGateway(VelanaOptions{
		BaseURL:       cfg.GatewayBaseURL,
		SecretKey:     cfg.GatewaySecretKey,
		AuthPassword:  cfg.GatewayAuthPassword,
		Timeout:       cfg.GatewayTimeout,
		ExpiresInDays: cfg.PixExpiresInDays,
		PostbackURL:   cfg.PostbackURL,
		Shipping:      cfg.Shipping,
	})
}

func (v *VelanaGateway) Name() string { return "velana" }

// ---- Velana API response structs ----

type velanaPix struct {
	QRCode      models.FlexString `json:"qrcode"`
	QRCodeImage models.FlexString `json:"qrCodeImage"`
	TxID        models.FlexString `json:"txid"`
}

type velanaTransactionResponse struct {
	ID     models.FlexString `json:"id"`
	Status string            `json:"status"`
	Pix    *velanaPix        `json:"pix"`
}

// ---- PaymentGateway implementation ----

// BuildPayload is deterministic: the same checkout always yields the same payload.
func (v *VelanaGateway) BuildPayload(req models.CheckoutRequest) models.TransactionPayload {
	title := req.ProductName
	if title == "" {
		title = fallbackTitle(req.AmountInCents)
	}

	payload := models.TransactionPayload{
		Amount:        req.AmountInCents,
		PaymentMethod: models.PaymentMethodPix,
		Pix:           models.PixSettings{ExpiresInDays: v.opts.ExpiresInDays},
		Customer: models.TransactionCustomer{
			Name:     req.Name,
			Email:    req.Email,
			Document: models.TransactionDocument{Number: req.TaxID, Type: documentTypeCPF},
			Phone:    req.Phone,
		},
		Shipping: models.TransactionShipping{
			Fee: 0,
			Address: models.TransactionAddress{
				Street:       orDefault(req.Address.Street, v.opts.Shipping.Street),
				StreetNumber: v.opts.Shipping.StreetNumber,
				Complement:   "",
				ZipCode:      orDefault(req.Address.ZipCode, v.opts.Shipping.ZipCode),
				Neighborhood: orDefault(req.Address.Neighborhood, v.opts.Shipping.Neighborhood),
				City:         orDefault(req.Address.City, v.opts.Shipping.City),
				State:        v.opts.Shipping.State,
				Country:      v.opts.Shipping.Country,
			},
		},
		Items: []models.TransactionItem{{
			Title:     title,
			UnitPrice: req.AmountInCents,
			Quantity:  1,
			Tangible:  true,
		}},
		PostbackURL: v.opts.PostbackURL,
	}

	if req.Campaign != "" {
		meta, _ := json.Marshal(map[string]string{"campanha": req.Campaign})
		payload.Metadata = string(meta)
	}

	return payload
}

// Submit posts the payload to /transactions with Basic auth.
func (v *VelanaGateway) Submit(ctx context.Context, payload models.TransactionPayload) (json.RawMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.opts.BaseURL+"/transactions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(v.opts.SecretKey, v.opts.AuthPassword)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("velana request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.UpstreamError{Service: v.Name(), StatusCode: resp.StatusCode, Body: respBytes}
	}
	return json.RawMessage(respBytes), nil
}

// ParseResponse prefers the copy-and-paste code over the QR image and the
// PIX txid over the transaction id.
func (v *VelanaGateway) ParseResponse(raw json.RawMessage) (*models.PaymentIntent, error) {
	var resp velanaTransactionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Pix == nil || (resp.Pix.QRCode == "" && resp.Pix.QRCodeImage == "") {
		return nil, ErrMissingQRCode
	}

	qrCode := resp.Pix.QRCode.String()
	if qrCode == "" {
		qrCode = resp.Pix.QRCodeImage.String()
	}
	txID := resp.Pix.TxID.String()
	if txID == "" {
		txID = resp.ID.String()
	}

	return &models.PaymentIntent{
		QRCode:        qrCode,
		QRCodeImage:   resp.Pix.QRCodeImage.String(),
		TransactionID: txID,
		Raw:           raw,
	}, nil
}

// ---- helpers ----

func fallbackTitle(amountInCents int64) string {
	return "Pedido PIX R$ " + models.MinorToMajor(amountInCents).StringFixed(2)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
