package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusPaid       = "paid"
	PaymentMethodPix = "pix"

	// DefaultProductName is used when a notification carries no line items.
	DefaultProductName = "Produto"
)

// FlexString decodes a JSON string, number or bool into its text form.
// Anything else (null, objects, arrays) becomes the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case b[0] == '{', b[0] == '[':
		*f = ""
	default:
		*f = FlexString(b)
	}
	return nil
}

func (f FlexString) String() string { return string(f) }

// FlexInt decodes a JSON number or numeric string into an integer.
// Fractions are truncated; unparseable input decodes to zero.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(b); err != nil {
		*f = 0
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.String()))
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(d.IntPart())
	return nil
}

// decodeLooseObject decodes b into v only when b is a JSON object. Any other
// value leaves v at its zero value.
func decodeLooseObject(b []byte, v any) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	return json.Unmarshal(b, v)
}

// NotificationDocument also accepts a bare string or number as the document number.
type NotificationDocument struct {
	Number FlexString `json:"number"`
}

func (d *NotificationDocument) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		return d.Number.UnmarshalJSON(b)
	}
	type plain NotificationDocument
	return decodeLooseObject(b, (*plain)(d))
}

type NotificationCustomer struct {
	Name     FlexString            `json:"name"`
	Email    FlexString            `json:"email"`
	Phone    FlexString            `json:"phone"`
	IP       FlexString            `json:"ip"`
	Document *NotificationDocument `json:"document"`
}

func (c *NotificationCustomer) UnmarshalJSON(b []byte) error {
	type plain NotificationCustomer
	return decodeLooseObject(b, (*plain)(c))
}

type NotificationItem struct {
	Title FlexString `json:"title"`
}

func (i *NotificationItem) UnmarshalJSON(b []byte) error {
	type plain NotificationItem
	return decodeLooseObject(b, (*plain)(i))
}

// NotificationItems accepts an array of items or a single item object.
type NotificationItems []NotificationItem

func (items *NotificationItems) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		*items = nil
	case b[0] == '[':
		var list []NotificationItem
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*items = list
	case b[0] == '{':
		var item NotificationItem
		if err := json.Unmarshal(b, &item); err != nil {
			return err
		}
		*items = NotificationItems{item}
	default:
		*items = nil
	}
	return nil
}

type NotificationTracking struct {
	UTMSource   FlexString `json:"utm_source"`
	UTMMedium   FlexString `json:"utm_medium"`
	UTMCampaign FlexString `json:"utm_campaign"`
	UTMContent  FlexString `json:"utm_content"`
	UTMTerm     FlexString `json:"utm_term"`
}

func (t *NotificationTracking) UnmarshalJSON(b []byte) error {
	type plain NotificationTracking
	return decodeLooseObject(b, (*plain)(t))
}

// NotificationData is the payment payload, found either at the top level
// of a notification or under its "data" key.
type NotificationData struct {
	ID            FlexString            `json:"id"`
	Status        FlexString            `json:"status"`
	PaymentMethod FlexString            `json:"paymentMethod"`
	Amount        FlexInt               `json:"amount"`
	CreatedAt     FlexString            `json:"created_at"`
	Customer      *NotificationCustomer `json:"customer"`
	Items         NotificationItems     `json:"items"`
	Tracking      *NotificationTracking `json:"tracking"`
}

// WebhookNotification accepts both the flat and the data-nested shapes.
type WebhookNotification struct {
	NotificationData
	ObjectID FlexString        `json:"objectId"`
	Data     *NotificationData `json:"data"`
}

type NotificationShape string

const (
	ShapeFlat   NotificationShape = "flat"
	ShapeNested NotificationShape = "nested"
)

func (n WebhookNotification) Shape() NotificationShape {
	if n.Data != nil {
		return ShapeNested
	}
	return ShapeFlat
}

// Payload returns the part of the notification that holds the payment fields.
func (n WebhookNotification) Payload() NotificationData {
	if n.Data != nil {
		return *n.Data
	}
	return n.NotificationData
}

// TrackingParams are the UTM parameters forwarded to the attribution API.
// A nil field means the parameter was absent.
type TrackingParams struct {
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMContent  *string
	UTMTerm     *string
}

// PaymentEvent is the canonical form of a payment notification.
type PaymentEvent struct {
	OrderID       string
	Shape         NotificationShape
	Status        string
	PaymentMethod string
	CustomerName  string
	Email         string
	Phone         string
	Document      string
	IP            string
	ProductName   string
	AmountInCents int64
	CreatedAt     string
	Tracking      *TrackingParams
}

// IsPaidPix reports whether the event is a settled PIX payment. A missing
// payment method is accepted.
func (e PaymentEvent) IsPaidPix() bool {
	return e.Status == StatusPaid && (e.PaymentMethod == PaymentMethodPix || e.PaymentMethod == "")
}

// Amount returns the amount in major currency units.
func (e PaymentEvent) Amount() decimal.Decimal {
	return MinorToMajor(e.AmountInCents)
}

// MinorToMajor converts cents to currency units without float rounding.
func MinorToMajor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// NormalizeNotification maps either notification shape onto a PaymentEvent.
// It has no side effects; identifiers and timestamps that must be generated
// are left empty for the caller.
func NormalizeNotification(n WebhookNotification) PaymentEvent {
	data := n.Payload()

	ev := PaymentEvent{
		OrderID:       firstNonEmpty(n.ID.String(), n.ObjectID.String()),
		Shape:         n.Shape(),
		Status:        data.Status.String(),
		PaymentMethod: data.PaymentMethod.String(),
		ProductName:   DefaultProductName,
		AmountInCents: int64(data.Amount),
		CreatedAt:     data.CreatedAt.String(),
	}
	if ev.OrderID == "" && n.Data != nil {
		ev.OrderID = n.Data.ID.String()
	}

	if c := data.Customer; c != nil {
		ev.CustomerName = c.Name.String()
		ev.Email = c.Email.String()
		ev.Phone = c.Phone.String()
		ev.IP = c.IP.String()
		if c.Document != nil {
			ev.Document = c.Document.Number.String()
		}
	}

	if len(data.Items) > 0 && data.Items[0].Title != "" {
		ev.ProductName = data.Items[0].Title.String()
	}

	if t := data.Tracking; t != nil {
		ev.Tracking = &TrackingParams{
			UTMSource:   optional(t.UTMSource),
			UTMMedium:   optional(t.UTMMedium),
			UTMCampaign: optional(t.UTMCampaign),
			UTMContent:  optional(t.UTMContent),
			UTMTerm:     optional(t.UTMTerm),
		}
	}

	return ev
}

func optional(s FlexString) *string {
	if s == "" {
		return nil
	}
	v := s.String()
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
