package app

import (
	"context"
	"time"

	"billflow/internal/core"
)

type appService struct {
	users     core.UserService
	clients   core.ClientService
	invoices  core.InvoiceService
	payments  core.PaymentService
	reminders core.ReminderService
	settings  core.SettingsService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	users core.UserService,
	clients core.ClientService,
	invoices core.InvoiceService,
	payments core.PaymentService,
	reminders core.ReminderService,
	settings core.SettingsService,
) ApplicationService {
	return &appService{
		users:     users,
		clients:   clients,
		invoices:  invoices,
		payments:  payments,
		reminders: reminders,
		settings:  settings,
	}
}

// SignUp creates the account and provisions its default settings so the first
// invoice does not pay the lazy-create cost.
func (s *appService) SignUp(ctx context.Context, req SignUpRequest) (*UserResult, error) {
	user, err := s.users.Create(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	if _, err := s.settings.GetOrCreate(ctx, user.ID); err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

// Login verifies credentials and returns the account on success.
func (s *appService) Login(ctx context.Context, email, password string) (*UserResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

// GetUser returns the account profile by ID.
func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{User: user}, nil
}

// CreateClient adds a client to the user's address book.
func (s *appService) CreateClient(ctx context.Context, userID int, req ClientRequest) (*ClientResult, error) {
	client, err := s.clients.Create(ctx, userID, core.ClientInput(req))
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: client}, nil
}

// GetClient returns a single client by ID.
func (s *appService) GetClient(ctx context.Context, userID int, clientID string) (*ClientResult, error) {
	client, err := s.clients.Get(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: client}, nil
}

// ListClients returns all of the user's clients.
func (s *appService) ListClients(ctx context.Context, userID int) (*ClientListResult, error) {
	clients, err := s.clients.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

// UpdateClient replaces a client's editable fields.
func (s *appService) UpdateClient(ctx context.Context, userID int, clientID string, req ClientRequest) (*ClientResult, error) {
	client, err := s.clients.Update(ctx, userID, clientID, core.ClientInput(req))
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: client}, nil
}

// DeleteClient removes a client and all of its dependent records.
func (s *appService) DeleteClient(ctx context.Context, userID int, clientID string) error {
	return s.clients.Delete(ctx, userID, clientID)
}

// CreateInvoice fills request gaps from the user's settings, then delegates to
// the invoice service for totals, numbering, and persistence.
func (s *appService) CreateInvoice(ctx context.Context, userID int, req CreateInvoiceRequest) (*InvoiceResult, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	dueDate := req.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, settings.DefaultPaymentTermsDays)
	}
	currency := req.Currency
	if currency == "" {
		currency = settings.CurrencyDefault
	}
	taxRate := settings.TaxRateDefault
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	creation, err := s.invoices.Create(ctx, userID, core.InvoiceInput{
		ClientID:        req.ClientID,
		AsDraft:         req.AsDraft,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Currency:        currency,
		TaxRate:         taxRate,
		Discount:        req.Discount,
		LineItems:       req.LineItems,
		Notes:           req.Notes,
		Terms:           req.Terms,
		WithPaymentLink: req.WithPaymentLink,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: creation.Invoice, Settings: creation.Settings}, nil
}

// GetInvoice returns a single invoice by ID.
func (s *appService) GetInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error) {
	inv, err := s.invoices.Get(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

// ListInvoices returns all of the user's invoices.
func (s *appService) ListInvoices(ctx context.Context, userID int) (*InvoiceListResult, error) {
	invoices, err := s.invoices.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

// UpdateInvoice applies a partial edit.
func (s *appService) UpdateInvoice(ctx context.Context, userID int, invoiceID string, req UpdateInvoiceRequest) (*InvoiceResult, error) {
	inv, err := s.invoices.Update(ctx, userID, invoiceID, core.InvoiceUpdate{
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		TaxRate:   req.TaxRate,
		Discount:  req.Discount,
		LineItems: req.LineItems,
		Notes:     req.Notes,
		Terms:     req.Terms,
	})
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

// SendInvoice transitions a Draft invoice to Sent.
func (s *appService) SendInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error) {
	inv, err := s.invoices.Send(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

// VoidInvoice cancels a Draft or Sent invoice.
func (s *appService) VoidInvoice(ctx context.Context, userID int, invoiceID string) (*InvoiceResult, error) {
	inv, err := s.invoices.Void(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

// DeleteInvoice removes an invoice and its dependent records.
func (s *appService) DeleteInvoice(ctx context.Context, userID int, invoiceID string) error {
	return s.invoices.Delete(ctx, userID, invoiceID)
}

// GetInvoiceByPaymentLink resolves a public payment-link token.
func (s *appService) GetInvoiceByPaymentLink(ctx context.Context, token string) (*PaymentLinkResult, error) {
	inv, client, business, err := s.invoices.GetByPaymentLink(ctx, token)
	if err != nil {
		return nil, err
	}
	return &PaymentLinkResult{Invoice: inv, Client: client, Business: business}, nil
}

// RecordPayment applies a payment to an invoice and issues a receipt.
func (s *appService) RecordPayment(ctx context.Context, userID int, req RecordPaymentRequest) (*SettlementResult, error) {
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	settlement, err := s.payments.ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: req.InvoiceID,
		ClientID:  req.ClientID,
		Amount:    req.Amount,
		Method:    req.Method,
		Date:      date,
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		return nil, err
	}
	return &SettlementResult{
		Payment: settlement.Payment,
		Invoice: settlement.Invoice,
		Receipt: settlement.Receipt,
	}, nil
}

// ListPayments returns all of the user's payments.
func (s *appService) ListPayments(ctx context.Context, userID int) (*PaymentListResult, error) {
	payments, err := s.payments.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments}, nil
}

// ListReceipts returns all of the user's receipts.
func (s *appService) ListReceipts(ctx context.Context, userID int) (*ReceiptListResult, error) {
	receipts, err := s.payments.ListReceipts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ReceiptListResult{Receipts: receipts}, nil
}

// SendReminder records and dispatches a payment reminder.
func (s *appService) SendReminder(ctx context.Context, userID int, req ReminderRequest) (*ReminderResult, error) {
	entry, err := s.reminders.LogReminder(ctx, userID, core.ReminderInput{
		InvoiceID: req.InvoiceID,
		ClientID:  req.ClientID,
		Type:      req.Type,
		Channel:   req.Channel,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		return nil, err
	}
	return &ReminderResult{Entry: entry}, nil
}

// ListReminders returns the reminder history for one invoice.
func (s *appService) ListReminders(ctx context.Context, userID int, invoiceID string) (*ReminderListResult, error) {
	entries, err := s.reminders.List(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &ReminderListResult{Entries: entries}, nil
}

// GetSettings returns the user's settings, creating defaults on first access.
func (s *appService) GetSettings(ctx context.Context, userID int) (*SettingsResult, error) {
	settings, err := s.settings.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SettingsResult{Settings: settings}, nil
}

// UpdateSettings replaces the user's settings.
func (s *appService) UpdateSettings(ctx context.Context, userID int, req UpdateSettingsRequest) (*SettingsResult, error) {
	settings, err := s.settings.Update(ctx, userID, core.Settings{
		UserID:                  userID,
		BusinessName:            req.BusinessName,
		BusinessEmail:           req.BusinessEmail,
		BusinessPhone:           req.BusinessPhone,
		BusinessAddress:         req.BusinessAddress,
		CurrencyDefault:         req.CurrencyDefault,
		TaxRateDefault:          req.TaxRateDefault,
		InvoicePrefix:           req.InvoicePrefix,
		NextInvoiceNumber:       req.NextInvoiceNumber,
		EstimatePrefix:          req.EstimatePrefix,
		NextEstimateNumber:      req.NextEstimateNumber,
		ReceiptPrefix:           req.ReceiptPrefix,
		NextReceiptNumber:       req.NextReceiptNumber,
		DefaultPaymentTermsDays: req.DefaultPaymentTermsDays,
		EmailTemplates:          req.EmailTemplates,
		Theme:                   req.Theme,
	})
	if err != nil {
		return nil, err
	}
	return &SettingsResult{Settings: settings}, nil
}

// GetDashboard returns invoice counts and outstanding/collected totals.
func (s *appService) GetDashboard(ctx context.Context, userID int) (*core.DashboardSummary, error) {
	return s.invoices.DashboardSummary(ctx, userID)
}
