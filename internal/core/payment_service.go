package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PaymentInput carries the fields needed to apply a payment.
type PaymentInput struct {
	InvoiceID string          `json:"invoice_id"`
	ClientID  string          `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
}

// Settlement is everything a successful payment application produced.
type Settlement struct {
	Payment  *Payment  `json:"payment"`
	Invoice  *Invoice  `json:"invoice"`
	Receipt  *Receipt  `json:"receipt"`
	Settings *Settings `json:"settings"`
}

// PaymentService is the settlement engine: it validates a payment against an
// invoice's balance, updates the invoice's monetary state and status, and
// issues the receipt — all as one transaction.
type PaymentService interface {
	ApplyPayment(ctx context.Context, userID int, in PaymentInput) (*Settlement, error)
	List(ctx context.Context, userID int) ([]Payment, error)
	ListReceipts(ctx context.Context, userID int) ([]Receipt, error)
}

type paymentService struct {
	pool *pgxpool.Pool
	seq  SequenceService
}

func NewPaymentService(pool *pgxpool.Pool, seq SequenceService) PaymentService {
	return &paymentService{pool: pool, seq: seq}
}

const paymentColumns = "id, user_id, invoice_id, client_id, amount, method, date, reference, note, created_at"

const receiptColumns = "id, user_id, receipt_number, invoice_id, payment_id, client_id, issued_at, amount, currency, created_at"

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.InvoiceID, &p.ClientID, &p.Amount, &p.Method, &p.Date,
		&p.Reference, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanReceipt(row pgx.Row) (*Receipt, error) {
	var r Receipt
	err := row.Scan(&r.ID, &r.UserID, &r.ReceiptNumber, &r.InvoiceID, &r.PaymentID, &r.ClientID,
		&r.IssuedAt, &r.Amount, &r.Currency, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *paymentService) ApplyPayment(ctx context.Context, userID int, in PaymentInput) (*Settlement, error) {
	if in.InvoiceID == "" || in.ClientID == "" || in.Method == "" {
		return nil, validationf("invoice, client, and method are required")
	}
	if in.Date.IsZero() {
		return nil, validationf("payment date is required")
	}
	if !in.Amount.IsPositive() {
		return nil, validationf("payment amount must be positive, got %s", in.Amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	// The row lock makes concurrent settlements against one invoice serialize:
	// the balance check below always sees the latest paid total, so two
	// payments that individually fit but together overshoot cannot both pass.
	inv, err := getInvoiceQ(ctx, tx, userID, in.InvoiceID, true)
	if err != nil {
		return nil, err
	}
	if inv.ClientID != in.ClientID {
		return nil, notFound("invoice", in.InvoiceID)
	}
	if inv.Status == StatusVoid {
		return nil, conflictf("invoice %s is void", inv.InvoiceNumber)
	}
	if !inv.BalanceDue.IsPositive() {
		return nil, conflictf("invoice %s is already paid", inv.InvoiceNumber)
	}
	if in.Amount.GreaterThan(inv.BalanceDue) {
		return nil, conflictf("amount %s exceeds balance due %s on invoice %s",
			in.Amount, inv.BalanceDue, inv.InvoiceNumber)
	}

	newPaid := inv.PaidTotal.Add(in.Amount)
	newBalance := BalanceAfter(inv.GrandTotal, newPaid)
	newStatus := StatusPartiallyPaid
	if newBalance.IsZero() {
		newStatus = StatusPaid
	}

	payment, err := scanPayment(tx.QueryRow(ctx, `
		INSERT INTO payments (id, user_id, invoice_id, client_id, amount, method, date, reference, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+paymentColumns,
		uuid.NewString(), userID, in.InvoiceID, in.ClientID, in.Amount, in.Method, in.Date,
		in.Reference, in.Note))
	if err != nil {
		return nil, storage("failed to insert payment", err)
	}

	updated, err := scanInvoice(tx.QueryRow(ctx, `
		UPDATE invoices
		SET paid_total = $3, balance_due = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+invoiceColumns,
		in.InvoiceID, userID, newPaid, newBalance, newStatus))
	if err != nil {
		return nil, storage("failed to update invoice balance", err)
	}

	receiptNumber, err := s.seq.NextNumberTx(ctx, tx, userID, DocTypeReceipt)
	if err != nil {
		return nil, err
	}

	receipt, err := scanReceipt(tx.QueryRow(ctx, `
		INSERT INTO receipts (id, user_id, receipt_number, invoice_id, payment_id, client_id, issued_at, amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+receiptColumns,
		uuid.NewString(), userID, receiptNumber, in.InvoiceID, payment.ID, in.ClientID,
		in.Date, in.Amount, inv.Currency))
	if err != nil {
		return nil, storage("failed to insert receipt", err)
	}

	settings, err := scanSettings(tx.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE user_id = $1", userID))
	if err != nil {
		return nil, storage("failed to read settings after settlement", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storage("failed to commit settlement", err)
	}

	return &Settlement{Payment: payment, Invoice: updated, Receipt: receipt, Settings: settings}, nil
}

func (s *paymentService) List(ctx context.Context, userID int) ([]Payment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, storage("failed to query payments", err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, storage("failed to scan payment", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (s *paymentService) ListReceipts(ctx context.Context, userID int) ([]Receipt, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, storage("failed to query receipts", err)
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, storage("failed to scan receipt", err)
		}
		receipts = append(receipts, *r)
	}
	return receipts, rows.Err()
}
