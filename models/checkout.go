package models

import "encoding/json"

// PixRequest is the checkout form posted to /api/gerar-pix. CPF and Celular
// accept numbers as well as strings so validation decides the error message.
type PixRequest struct {
	Nome     string          `json:"nome"`
	CPF      FlexString      `json:"cpf"`
	Email    string          `json:"email"`
	Celular  FlexString      `json:"celular"`
	Valor    json.RawMessage `json:"valor"`
	Produto  string          `json:"produto"`
	Rua      string          `json:"rua,omitempty"`
	CEP      string          `json:"cep,omitempty"`
	Bairro   string          `json:"bairro,omitempty"`
	Cidade   string          `json:"cidade,omitempty"`
	Campanha string          `json:"campanha,omitempty"`
}

// CheckoutAddress holds the optional shipping fields supplied by the buyer.
type CheckoutAddress struct {
	Street       string
	ZipCode      string
	Neighborhood string
	City         string
}

// CheckoutRequest is a PixRequest that passed validation.
type CheckoutRequest struct {
	Name          string
	TaxID         string
	Email         string
	Phone         string
	AmountInCents int64
	ProductName   string
	Address       CheckoutAddress
	Campaign      string
}

// TransactionPayload is the body submitted to the payment gateway.
type TransactionPayload struct {
	Amount        int64               `json:"amount"`
	PaymentMethod string              `json:"paymentMethod"`
	Pix           PixSettings         `json:"pix"`
	Customer      TransactionCustomer `json:"customer"`
	Shipping      TransactionShipping `json:"shipping"`
	Items         []TransactionItem   `json:"items"`
	PostbackURL   string              `json:"postbackUrl,omitempty"`
	Metadata      string              `json:"metadata,omitempty"`
}

type PixSettings struct {
	ExpiresInDays int `json:"expiresInDays"`
}

type TransactionDocument struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type TransactionCustomer struct {
	Name     string              `json:"name"`
	Email    string              `json:"email"`
	Document TransactionDocument `json:"document"`
	Phone    string              `json:"phone"`
}

type TransactionAddress struct {
	Street       string `json:"street"`
	StreetNumber string `json:"streetNumber"`
	Complement   string `json:"complement"`
	ZipCode      string `json:"zipCode"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

type TransactionShipping struct {
	Fee     int64              `json:"fee"`
	Address TransactionAddress `json:"address"`
}

type TransactionItem struct {
	Title     string `json:"title"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Tangible  bool   `json:"tangible"`
}

// PaymentIntent is the normalized response returned to the checkout caller.
// QRCode carries the copy-and-paste PIX code when the gateway returns one,
// otherwise the QR image.
type PaymentIntent struct {
	QRCode        string          `json:"qrCode"`
	QRCodeImage   string          `json:"qrCodeImage,omitempty"`
	TransactionID string          `json:"transactionId"`
	Raw           json.RawMessage `json:"raw"`
}
