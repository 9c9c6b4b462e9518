package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the stored lifecycle state of an invoice. Overdue is not a
// stored status — it is derived from the due date and balance (see IsOverdue).
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "Draft"
	StatusSent          InvoiceStatus = "Sent"
	StatusPartiallyPaid InvoiceStatus = "Partially Paid"
	StatusPaid          InvoiceStatus = "Paid"
	StatusVoid          InvoiceStatus = "Void"
)

// DocumentType selects which numbering sequence an allocation draws from.
type DocumentType string

const (
	DocTypeInvoice  DocumentType = "invoice"
	DocTypeEstimate DocumentType = "estimate"
	DocTypeReceipt  DocumentType = "receipt"
)

// Client is a billable party owned by a single user.
type Client struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LineItem is embedded in an invoice; it has no independent lifecycle and is
// immutable once the invoice is created except via a full invoice update.
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Qty         int64           `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Taxable     bool            `json:"taxable"`
}

type Invoice struct {
	ID               string          `json:"id"`
	UserID           int             `json:"user_id"`
	ClientID         string          `json:"client_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	Status           InvoiceStatus   `json:"status"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          time.Time       `json:"due_date"`
	Currency         string          `json:"currency"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Discount         decimal.Decimal `json:"discount"`
	LineItems        []LineItem      `json:"line_items"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxTotal         decimal.Decimal `json:"tax_total"`
	DiscountTotal    decimal.Decimal `json:"discount_total"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
	BalanceDue       decimal.Decimal `json:"balance_due"`
	PaymentLinkToken *string         `json:"payment_link_token,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	Terms            string          `json:"terms,omitempty"`
	SentAt           *time.Time      `json:"sent_at,omitempty"`
	LastReminderAt   *time.Time      `json:"last_reminder_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the invoice is past its due date with money still
// owed. Overdue is computed at read time, never persisted, so it cannot go stale.
func (i *Invoice) IsOverdue(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return i.DueDate.Before(today) && i.BalanceDue.IsPositive()
}

// Payment is immutable once created; a correction requires a new record.
type Payment struct {
	ID        string          `json:"id"`
	UserID    int             `json:"user_id"`
	InvoiceID string          `json:"invoice_id"`
	ClientID  string          `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference,omitempty"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Receipt is created exactly once per payment, atomically with it.
type Receipt struct {
	ID            string          `json:"id"`
	UserID        int             `json:"user_id"`
	ReceiptNumber string          `json:"receipt_number"`
	InvoiceID     string          `json:"invoice_id"`
	PaymentID     string          `json:"payment_id"`
	ClientID      string          `json:"client_id"`
	IssuedAt      time.Time       `json:"issued_at"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReminderLog is an append-only audit trail of reminder sends.
type ReminderLog struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	InvoiceID string    `json:"invoice_id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// EmailTemplate is one subject/body pair in the settings template map.
type EmailTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Settings is the per-user configuration row. The next* counters are mutated
// only through the sequence allocator's atomic increment.
type Settings struct {
	UserID                  int                      `json:"user_id"`
	BusinessName            string                   `json:"business_name"`
	BusinessEmail           string                   `json:"business_email"`
	BusinessPhone           string                   `json:"business_phone"`
	BusinessAddress         string                   `json:"business_address"`
	CurrencyDefault         string                   `json:"currency_default"`
	TaxRateDefault          decimal.Decimal          `json:"tax_rate_default"`
	InvoicePrefix           string                   `json:"invoice_prefix"`
	NextInvoiceNumber       int64                    `json:"next_invoice_number"`
	EstimatePrefix          string                   `json:"estimate_prefix"`
	NextEstimateNumber      int64                    `json:"next_estimate_number"`
	ReceiptPrefix           string                   `json:"receipt_prefix"`
	NextReceiptNumber       int64                    `json:"next_receipt_number"`
	DefaultPaymentTermsDays int                      `json:"default_payment_terms_days"`
	EmailTemplates          map[string]EmailTemplate `json:"email_templates"`
	Theme                   string                   `json:"theme"`
	UpdatedAt               time.Time                `json:"updated_at"`
}

// DefaultSettings returns the fixed template used for lazy first-access
// creation of a user's settings row.
func DefaultSettings(userID int) Settings {
	return Settings{
		UserID:                  userID,
		BusinessName:            "Afaq - The Freelancer",
		BusinessEmail:           "billing@billflow.com",
		BusinessPhone:           "+1 (555) 123-4567",
		BusinessAddress:         "123 Business Ave, Suite 100\nSan Francisco, CA 94102",
		CurrencyDefault:         "USD",
		TaxRateDefault:          decimal.NewFromInt(10),
		InvoicePrefix:           "INV-",
		NextInvoiceNumber:       1001,
		EstimatePrefix:          "EST-",
		NextEstimateNumber:      101,
		ReceiptPrefix:           "REC-",
		NextReceiptNumber:       501,
		DefaultPaymentTermsDays: 30,
		EmailTemplates: map[string]EmailTemplate{
			"invoice": {
				Subject: "Invoice {{invoiceNumber}} from {{businessName}}",
				Body:    "Dear {{clientName}},\n\nPlease find attached invoice {{invoiceNumber}} for {{amount}}.\n\nPayment is due by {{dueDate}}.\n\nThank you for your business!\n\n{{businessName}}",
			},
			"estimate": {
				Subject: "Estimate {{estimateNumber}} from {{businessName}}",
				Body:    "Dear {{clientName}},\n\nPlease find attached estimate {{estimateNumber}} for {{amount}}.\n\nThis estimate is valid until {{validUntil}}.\n\nPlease let us know if you have any questions.\n\n{{businessName}}",
			},
			"reminder": {
				Subject: "Reminder: Invoice {{invoiceNumber}} is due",
				Body:    "Dear {{clientName}},\n\nThis is a friendly reminder that invoice {{invoiceNumber}} for {{amount}} is due on {{dueDate}}.\n\nPlease make payment at your earliest convenience.\n\nThank you!\n\n{{businessName}}",
			},
		},
		Theme: "system",
	}
}
