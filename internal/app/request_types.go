package app

import (
	"time"

	"github.com/shopspring/decimal"

	"billflow/internal/core"
)

// SignUpRequest is the input for creating a new account.
type SignUpRequest struct {
	Email    string
	Name     string
	Password string
}

// ClientRequest is the input for creating or updating a client.
type ClientRequest struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
}

// CreateInvoiceRequest is the input for creating a new invoice.
// Zero-valued Currency, TaxRate, and DueDate fall back to the user's settings.
type CreateInvoiceRequest struct {
	ClientID        string
	AsDraft         bool
	IssueDate       time.Time // zero means today
	DueDate         time.Time // zero means issue date + default payment terms
	Currency        string
	TaxRate         *decimal.Decimal
	Discount        decimal.Decimal
	LineItems       []core.LineItem
	Notes           string
	Terms           string
	WithPaymentLink bool
}

// UpdateInvoiceRequest is a partial invoice edit. Nil fields are left unchanged.
type UpdateInvoiceRequest struct {
	IssueDate *time.Time
	DueDate   *time.Time
	TaxRate   *decimal.Decimal
	Discount  *decimal.Decimal
	LineItems *[]core.LineItem
	Notes     *string
	Terms     *string
}

// RecordPaymentRequest is the input for applying a payment to an invoice.
type RecordPaymentRequest struct {
	InvoiceID string
	ClientID  string
	Amount    decimal.Decimal
	Method    string
	Date      time.Time // zero means today
	Reference string
	Note      string
}

// ReminderRequest is the input for sending a payment reminder.
// Empty Subject and Message are rendered from the user's reminder template.
type ReminderRequest struct {
	InvoiceID string
	ClientID  string
	Type      string // "First", "Second", "Final"
	Channel   string // "email"
	Subject   string
	Message   string
}

// UpdateSettingsRequest replaces the user's settings.
type UpdateSettingsRequest struct {
	BusinessName            string
	BusinessEmail           string
	BusinessPhone           string
	BusinessAddress         string
	CurrencyDefault         string
	TaxRateDefault          decimal.Decimal
	InvoicePrefix           string
	NextInvoiceNumber       int64
	EstimatePrefix          string
	NextEstimateNumber      int64
	ReceiptPrefix           string
	NextReceiptNumber       int64
	DefaultPaymentTermsDays int
	EmailTemplates          map[string]core.EmailTemplate
	Theme                   string
}
