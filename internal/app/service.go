package app

import (
	"context"

	"billflow/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no HTML, and no display logic of any kind.
type ApplicationService interface {
	// SignUp creates a new account and provisions its default settings.
	SignUp(ctx context.Context, req SignUpRequest) (*UserResult, error)

	// Login verifies credentials and returns the account on success.
	Login(ctx context.Context, email, password string) (*UserResult, error)

	// GetUser returns the account profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// CreateClient adds a client to the user's address book.
	CreateClient(ctx context.Context, userID int, req ClientRequest) (*ClientResult, error)

	// GetClient returns a single client by ID.
	GetClient(ctx context.Context, userID int, clientID string) (*ClientResult, error)

	// ListClients returns all of the user's clients, newest first.
	ListClients(ctx context.Context, userID int) (*ClientListResult, error)

	// UpdateClient replaces a client's editable fields.
	UpdateClient(ctx context.Context, userID int, clientID string, req ClientRequest) (*ClientResult, error)

	// DeleteClient removes a client and all of its invoices, payments,
	// receipts, and reminder history.
	DeleteClient(ctx context.Context, userID int, clientID string) error

	// CreateInvoice computes totals, allocates the next invoice number, and
	// stores the invoice. Missing currency, tax rate, or due date fall back
	// to the user's settings.
	CreateInvoice(ctx context.Context, userID int, req CreateInvoiceRequest) (*InvoiceResult, error)

	// GetInvoice returns a single invoice by ID.
	GetInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error)

	// ListInvoices returns all of the user's invoices, newest first.
	ListInvoices(ctx context.Context, userID int) (*InvoiceListResult, error)

	// UpdateInvoice applies a partial edit. Line items and rates are
	// rejected once any payment has been recorded.
	UpdateInvoice(ctx context.Context, userID int, invoiceID string, req UpdateInvoiceRequest) (*InvoiceResult, error)

	// SendInvoice transitions a Draft invoice to Sent.
	SendInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error)

	// VoidInvoice cancels a Draft or Sent invoice. Terminal.
	VoidInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error)

	// DeleteInvoice removes an invoice and its payments, receipts, and
	// reminder history.
	DeleteInvoice(ctx context.Context, userID int, invoiceID string) error

	// GetInvoiceByPaymentLink resolves a public payment-link token. Used by
	// the unauthenticated pay page.
	GetInvoiceByPaymentLink(ctx context.Context, token string) (*PaymentLinkResult, error)

	// RecordPayment applies a payment to an invoice: validates it against
	// the open balance, updates the invoice, and issues a receipt.
	RecordPayment(ctx context.Context, userID int, req RecordPaymentRequest) (*SettlementResult, error)

	// ListPayments returns all of the user's payments, newest first.
	ListPayments(ctx context.Context, userID int) (*PaymentListResult, error)

	// ListReceipts returns all of the user's receipts, newest first.
	ListReceipts(ctx context.Context, userID int) (*ReceiptListResult, error)

	// SendReminder renders and dispatches a payment reminder for an invoice
	// and records it in the audit trail.
	SendReminder(ctx context.Context, userID int, req ReminderRequest) (*ReminderResult, error)

	// ListReminders returns the reminder history for one invoice.
	ListReminders(ctx context.Context, userID int, invoiceID string) (*ReminderListResult, error)

	// GetSettings returns the user's settings, creating defaults on first access.
	GetSettings(ctx context.Context, userID int) (*SettingsResult, error)

	// UpdateSettings replaces the user's settings.
	UpdateSettings(ctx context.Context, userID int, req UpdateSettingsRequest) (*SettingsResult, error)

	// GetDashboard returns invoice counts and outstanding/collected totals.
	GetDashboard(ctx context.Context, userID int) (*core.DashboardSummary, error)
}
