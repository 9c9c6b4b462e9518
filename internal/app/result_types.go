package app

import "billflow/internal/core"

// UserResult is returned by SignUp, Login, and GetUser.
type UserResult struct {
	User *core.User
}

// ClientResult is returned by single-client operations.
type ClientResult struct {
	Client *core.Client
}

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// InvoiceResult is returned by invoice lifecycle operations. Settings is only
// populated on creation, carrying the advanced numbering counter.
type InvoiceResult struct {
	Invoice  *core.Invoice
	Settings *core.Settings
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []core.Invoice
}

// PaymentLinkResult is returned by GetInvoiceByPaymentLink: the invoice plus
// the context the public pay page needs to render it.
type PaymentLinkResult struct {
	Invoice  *core.Invoice
	Client   *core.Client
	Business *core.Settings
}

// SettlementResult is returned by RecordPayment.
type SettlementResult struct {
	Payment *core.Payment
	Invoice *core.Invoice
	Receipt *core.Receipt
}

// PaymentListResult is returned by ListPayments.
type PaymentListResult struct {
	Payments []core.Payment
}

// ReceiptListResult is returned by ListReceipts.
type ReceiptListResult struct {
	Receipts []core.Receipt
}

// ReminderResult is returned by SendReminder.
type ReminderResult struct {
	Entry *core.ReminderLog
}

// ReminderListResult is returned by ListReminders.
type ReminderListResult struct {
	Entries []core.ReminderLog
}

// SettingsResult is returned by settings operations.
type SettingsResult struct {
	Settings *core.Settings
}
