package models

import "time"

const (
	EventInitiateCheckout = "InitiateCheckout"
	EventPurchase         = "Purchase"

	ActionSourceWebsite = "website"
)

// ConversionUserData carries SHA-256 hashes only, never raw identifiers.
type ConversionUserData struct {
	Em []string `json:"em"`
	Ph []string `json:"ph"`
}

type ConversionCustomData struct {
	Currency    string  `json:"currency"`
	Value       float64 `json:"value"`
	ContentName string  `json:"content_name"`
}

// ConversionEvent is a single event for the conversion-tracking pixel API.
// EventID is generated per dispatch and acts as the receiver's idempotency key.
type ConversionEvent struct {
	EventName    string               `json:"event_name"`
	EventTime    int64                `json:"event_time"`
	EventID      string               `json:"event_id"`
	ActionSource string               `json:"action_source"`
	UserData     ConversionUserData   `json:"user_data"`
	CustomData   ConversionCustomData `json:"custom_data"`
}

type AttributionCustomer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Country  string `json:"country"`
	IP       string `json:"ip"`
}

type AttributionProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PlanID       *string `json:"planId"`
	PlanName     *string `json:"planName"`
	Quantity     int     `json:"quantity"`
	PriceInCents int64   `json:"priceInCents"`
}

type AttributionTracking struct {
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMContent  *string `json:"utm_content"`
	UTMTerm     *string `json:"utm_term"`
	Src         *string `json:"src"`
	Sck         *string `json:"sck"`
}

type AttributionCommission struct {
	TotalPriceInCents     int64 `json:"totalPriceInCents"`
	GatewayFeeInCents     int64 `json:"gatewayFeeInCents"`
	UserCommissionInCents int64 `json:"userCommissionInCents"`
}

// AttributionOrder is the order record sent to the attribution API.
type AttributionOrder struct {
	OrderID            string                `json:"orderId"`
	Platform           string                `json:"platform"`
	PaymentMethod      string                `json:"paymentMethod"`
	Status             string                `json:"status"`
	CreatedAt          string                `json:"createdAt"`
	ApprovedDate       string                `json:"approvedDate"`
	RefundedAt         *string               `json:"refundedAt"`
	Customer           AttributionCustomer   `json:"customer"`
	Products           []AttributionProduct  `json:"products"`
	TrackingParameters AttributionTracking   `json:"trackingParameters"`
	Commission         AttributionCommission `json:"commission"`
	IsTest             bool                  `json:"isTest"`
}

// PaymentDomainEvent is published to SNS for downstream consumers.
type PaymentDomainEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	AmountInCents int64     `json:"amountInCents"`
	ProductName   string    `json:"productName"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	DomainEventPixCreated  = "pix_created"
	DomainEventPaymentPaid = "payment_paid"
)
