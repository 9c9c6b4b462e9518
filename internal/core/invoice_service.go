package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// InvoiceInput carries the fields needed to create an invoice. Totals are
// always computed server-side from the line items.
type InvoiceInput struct {
	ClientID        string          `json:"client_id"`
	AsDraft         bool            `json:"as_draft"`
	IssueDate       time.Time       `json:"issue_date"`
	DueDate         time.Time       `json:"due_date"`
	Currency        string          `json:"currency"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Discount        decimal.Decimal `json:"discount"`
	LineItems       []LineItem      `json:"line_items"`
	Notes           string          `json:"notes"`
	Terms           string          `json:"terms"`
	WithPaymentLink bool            `json:"with_payment_link"`
}

// InvoiceUpdate is a partial edit. Nil fields are left unchanged. Line items
// and rates may only change while nothing has been paid.
type InvoiceUpdate struct {
	IssueDate *time.Time       `json:"issue_date"`
	DueDate   *time.Time       `json:"due_date"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	Discount  *decimal.Decimal `json:"discount"`
	LineItems *[]LineItem      `json:"line_items"`
	Notes     *string          `json:"notes"`
	Terms     *string          `json:"terms"`
}

// DashboardSummary aggregates a user's invoicing position.
type DashboardSummary struct {
	InvoiceCount       int             `json:"invoice_count"`
	ClientCount        int             `json:"client_count"`
	OutstandingTotal   decimal.Decimal `json:"outstanding_total"`
	CollectedTotal     decimal.Decimal `json:"collected_total"`
	DraftCount         int             `json:"draft_count"`
	SentCount          int             `json:"sent_count"`
	PartiallyPaidCount int             `json:"partially_paid_count"`
	PaidCount          int             `json:"paid_count"`
	OverdueCount       int             `json:"overdue_count"`
}

// InvoiceCreation is returned by Create: the new invoice plus the settings row
// after the counter increment.
type InvoiceCreation struct {
	Invoice  *Invoice
	Settings *Settings
}

// InvoiceService owns invoice creation, edits, and status transitions other
// than the payment-driven ones (those belong to the settlement engine).
type InvoiceService interface {
	// Create computes totals, allocates the invoice number, and inserts the
	// invoice in one transaction. The number is assigned exactly once and
	// never changes.
	Create(ctx context.Context, userID int, in InvoiceInput) (*InvoiceCreation, error)

	Get(ctx context.Context, userID int, invoiceID string) (*Invoice, error)
	List(ctx context.Context, userID int) ([]Invoice, error)

	// GetByPaymentLink resolves a public payment-link token to the invoice,
	// its client, and the issuing business's settings. No authentication.
	GetByPaymentLink(ctx context.Context, token string) (*Invoice, *Client, *Settings, error)

	// Update applies a partial edit. Financial fields are rejected with a
	// StateConflictError once any payment has been applied.
	Update(ctx context.Context, userID int, invoiceID string, upd InvoiceUpdate) (*Invoice, error)

	// Send transitions Draft → Sent and stamps sent_at if unset.
	Send(ctx context.Context, userID int, invoiceID string) (*Invoice, error)

	// Void is a manual terminal override, reachable from Draft or Sent only.
	Void(ctx context.Context, userID int, invoiceID string) (*Invoice, error)

	// Delete removes the invoice and its payments, receipts, and reminder
	// logs in one transaction.
	Delete(ctx context.Context, userID int, invoiceID string) error

	DashboardSummary(ctx context.Context, userID int) (*DashboardSummary, error)
}

type invoiceService struct {
	pool *pgxpool.Pool
	seq  SequenceService
}

func NewInvoiceService(pool *pgxpool.Pool, seq SequenceService) InvoiceService {
	return &invoiceService{pool: pool, seq: seq}
}

const invoiceColumns = `id, user_id, client_id, invoice_number, status, issue_date, due_date,
	currency, tax_rate, COALESCE(discount, 0), line_items,
	subtotal, tax_total, discount_total, grand_total, paid_total, balance_due,
	payment_link_token, notes, terms, sent_at, last_reminder_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var items []byte
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.ClientID, &inv.InvoiceNumber, &inv.Status, &inv.IssueDate, &inv.DueDate,
		&inv.Currency, &inv.TaxRate, &inv.Discount, &items,
		&inv.Subtotal, &inv.TaxTotal, &inv.DiscountTotal, &inv.GrandTotal, &inv.PaidTotal, &inv.BalanceDue,
		&inv.PaymentLinkToken, &inv.Notes, &inv.Terms, &inv.SentAt, &inv.LastReminderAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return &inv, nil
}

func getInvoiceQ(ctx context.Context, q pgxQuerier, userID int, invoiceID string, forUpdate bool) (*Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE id = $1 AND user_id = $2"
	if forUpdate {
		query += " FOR UPDATE"
	}
	inv, err := scanInvoice(q.QueryRow(ctx, query, invoiceID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("invoice", invoiceID)
		}
		return nil, storage("failed to fetch invoice", err)
	}
	return inv, nil
}

func (s *invoiceService) Create(ctx context.Context, userID int, in InvoiceInput) (*InvoiceCreation, error) {
	if in.ClientID == "" {
		return nil, validationf("client id is required")
	}
	if in.Currency == "" {
		return nil, validationf("currency is required")
	}
	if in.IssueDate.IsZero() || in.DueDate.IsZero() {
		return nil, validationf("issue date and due date are required")
	}

	totals, err := ComputeTotals(in.LineItems, in.TaxRate, in.Discount)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, len(in.LineItems))
	copy(items, in.LineItems)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, validationf("invalid line items: %v", err)
	}

	status := StatusSent
	var sentAt *time.Time
	if in.AsDraft {
		status = StatusDraft
	} else {
		now := time.Now()
		sentAt = &now
	}

	var linkToken *string
	if in.WithPaymentLink {
		token := uuid.NewString()
		linkToken = &token
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := getClientQ(ctx, tx, userID, in.ClientID); err != nil {
		return nil, err
	}

	// The number must come out of the same transaction that persists the
	// invoice: a failed insert rolls the counter back, a committed insert
	// makes the increment durable.
	number, err := s.seq.NextNumberTx(ctx, tx, userID, DocTypeInvoice)
	if err != nil {
		return nil, err
	}

	inv, err := scanInvoice(tx.QueryRow(ctx, `
		INSERT INTO invoices (id, user_id, client_id, invoice_number, status, issue_date, due_date,
			currency, tax_rate, discount, line_items,
			subtotal, tax_total, discount_total, grand_total, paid_total, balance_due,
			payment_link_token, notes, terms, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 0, $15, $16, $17, $18, $19)
		RETURNING `+invoiceColumns,
		uuid.NewString(), userID, in.ClientID, number, status, in.IssueDate, in.DueDate,
		in.Currency, in.TaxRate, in.Discount, itemsJSON,
		totals.Subtotal, totals.TaxTotal, totals.DiscountTotal, totals.GrandTotal,
		linkToken, in.Notes, in.Terms, sentAt))
	if err != nil {
		return nil, storage("failed to insert invoice", err)
	}

	settings, err := scanSettings(tx.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE user_id = $1", userID))
	if err != nil {
		return nil, storage("failed to read settings after allocation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storage("failed to commit invoice creation", err)
	}
	return &InvoiceCreation{Invoice: inv, Settings: settings}, nil
}

func (s *invoiceService) Get(ctx context.Context, userID int, invoiceID string) (*Invoice, error) {
	return getInvoiceQ(ctx, s.pool, userID, invoiceID, false)
}

func (s *invoiceService) List(ctx context.Context, userID int) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, storage("failed to query invoices", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, storage("failed to scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *invoiceService) GetByPaymentLink(ctx context.Context, token string) (*Invoice, *Client, *Settings, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE payment_link_token = $1", token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, notFound("invoice", token)
		}
		return nil, nil, nil, storage("failed to resolve payment link", err)
	}

	client, err := getClientQ(ctx, s.pool, inv.UserID, inv.ClientID)
	if err != nil {
		return nil, nil, nil, err
	}
	settings, err := scanSettings(s.pool.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE user_id = $1", inv.UserID))
	if err != nil {
		return nil, nil, nil, storage("failed to read settings for payment link", err)
	}
	return inv, client, settings, nil
}

func (s *invoiceService) Update(ctx context.Context, userID int, invoiceID string, upd InvoiceUpdate) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	inv, err := getInvoiceQ(ctx, tx, userID, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusVoid {
		return nil, conflictf("invoice %s is void and cannot be edited", inv.InvoiceNumber)
	}

	financialEdit := upd.LineItems != nil || upd.TaxRate != nil || upd.Discount != nil
	if financialEdit && inv.PaidTotal.IsPositive() {
		return nil, conflictf("invoice %s has recorded payments; line items and rates can no longer change", inv.InvoiceNumber)
	}

	if upd.IssueDate != nil {
		inv.IssueDate = *upd.IssueDate
	}
	if upd.DueDate != nil {
		inv.DueDate = *upd.DueDate
	}
	if upd.Notes != nil {
		inv.Notes = *upd.Notes
	}
	if upd.Terms != nil {
		inv.Terms = *upd.Terms
	}
	if upd.TaxRate != nil {
		inv.TaxRate = *upd.TaxRate
	}
	if upd.Discount != nil {
		inv.Discount = *upd.Discount
	}
	if upd.LineItems != nil {
		inv.LineItems = *upd.LineItems
		for i := range inv.LineItems {
			if inv.LineItems[i].ID == "" {
				inv.LineItems[i].ID = uuid.NewString()
			}
		}
	}

	if financialEdit {
		totals, err := ComputeTotals(inv.LineItems, inv.TaxRate, inv.Discount)
		if err != nil {
			return nil, err
		}
		inv.Subtotal = totals.Subtotal
		inv.TaxTotal = totals.TaxTotal
		inv.DiscountTotal = totals.DiscountTotal
		inv.GrandTotal = totals.GrandTotal
		inv.BalanceDue = BalanceAfter(totals.GrandTotal, inv.PaidTotal)
	}

	itemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return nil, validationf("invalid line items: %v", err)
	}

	updated, err := scanInvoice(tx.QueryRow(ctx, `
		UPDATE invoices
		SET issue_date = $3, due_date = $4, tax_rate = $5, discount = $6, line_items = $7,
			subtotal = $8, tax_total = $9, discount_total = $10, grand_total = $11, balance_due = $12,
			notes = $13, terms = $14, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+invoiceColumns,
		invoiceID, userID, inv.IssueDate, inv.DueDate, inv.TaxRate, inv.Discount, itemsJSON,
		inv.Subtotal, inv.TaxTotal, inv.DiscountTotal, inv.GrandTotal, inv.BalanceDue,
		inv.Notes, inv.Terms))
	if err != nil {
		return nil, storage("failed to update invoice", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storage("failed to commit invoice update", err)
	}
	return updated, nil
}

func (s *invoiceService) Send(ctx context.Context, userID int, invoiceID string) (*Invoice, error) {
	return s.transition(ctx, userID, invoiceID, StatusSent, func(inv *Invoice) error {
		if inv.Status != StatusDraft && inv.Status != StatusSent {
			return conflictf("invoice %s cannot be sent: status is %s", inv.InvoiceNumber, inv.Status)
		}
		return nil
	})
}

func (s *invoiceService) Void(ctx context.Context, userID int, invoiceID string) (*Invoice, error) {
	return s.transition(ctx, userID, invoiceID, StatusVoid, func(inv *Invoice) error {
		if inv.Status != StatusDraft && inv.Status != StatusSent {
			return conflictf("invoice %s cannot be voided: status is %s (must be Draft or Sent)", inv.InvoiceNumber, inv.Status)
		}
		return nil
	})
}

// transition locks the invoice, runs the guard, and applies the new status.
// Sending stamps sent_at the first time only.
func (s *invoiceService) transition(ctx context.Context, userID int, invoiceID string, to InvoiceStatus, guard func(*Invoice) error) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	inv, err := getInvoiceQ(ctx, tx, userID, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if err := guard(inv); err != nil {
		return nil, err
	}

	query := `
		UPDATE invoices SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + invoiceColumns
	if to == StatusSent {
		query = `
		UPDATE invoices SET status = $3, sent_at = COALESCE(sent_at, NOW()), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + invoiceColumns
	}

	updated, err := scanInvoice(tx.QueryRow(ctx, query, invoiceID, userID, to))
	if err != nil {
		return nil, storage("failed to transition invoice", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storage("failed to commit transition", err)
	}
	return updated, nil
}

func (s *invoiceService) Delete(ctx context.Context, userID int, invoiceID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := getInvoiceQ(ctx, tx, userID, invoiceID, true); err != nil {
		return err
	}

	for _, table := range []string{"receipts", "payments", "reminder_logs"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND invoice_id = $2", table),
			userID, invoiceID); err != nil {
			return storage("failed to cascade delete "+table, err)
		}
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM invoices WHERE id = $1 AND user_id = $2", invoiceID, userID); err != nil {
		return storage("failed to delete invoice", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage("failed to commit invoice deletion", err)
	}
	return nil
}

func (s *invoiceService) DashboardSummary(ctx context.Context, userID int) (*DashboardSummary, error) {
	var sum DashboardSummary
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(balance_due) FILTER (WHERE status <> 'Void'), 0),
		       COALESCE(SUM(paid_total), 0),
		       COUNT(*) FILTER (WHERE status = 'Draft'),
		       COUNT(*) FILTER (WHERE status = 'Sent'),
		       COUNT(*) FILTER (WHERE status = 'Partially Paid'),
		       COUNT(*) FILTER (WHERE status = 'Paid'),
		       COUNT(*) FILTER (WHERE due_date < CURRENT_DATE AND balance_due > 0 AND status <> 'Void')
		FROM invoices
		WHERE user_id = $1
	`, userID).Scan(
		&sum.InvoiceCount, &sum.OutstandingTotal, &sum.CollectedTotal,
		&sum.DraftCount, &sum.SentCount, &sum.PartiallyPaidCount, &sum.PaidCount,
		&sum.OverdueCount,
	)
	if err != nil {
		return nil, storage("failed to aggregate dashboard", err)
	}

	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM clients WHERE user_id = $1", userID).Scan(&sum.ClientCount); err != nil {
		return nil, storage("failed to count clients", err)
	}
	return &sum, nil
}
