package core_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"billflow/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE receipts, payments, reminder_logs, invoices, clients, settings, users RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("failed to clean test database: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool, email string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, password_hash) VALUES ($1, 'Test User', 'x') RETURNING id`,
		email).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

func seedClient(t *testing.T, pool *pgxpool.Pool, userID int) *core.Client {
	t.Helper()
	client, err := core.NewClientService(pool).Create(context.Background(), userID, core.ClientInput{
		Name:  "Dana Ives",
		Email: "dana@example.com",
	})
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return client
}

// seedInvoice creates a Sent invoice with grand total 110.00
// (2 × 50.00 taxable, 10% tax, no discount).
func seedInvoice(t *testing.T, pool *pgxpool.Pool, userID int, clientID string) *core.Invoice {
	t.Helper()
	seq := core.NewSequenceService(pool)
	creation, err := core.NewInvoiceService(pool, seq).Create(context.Background(), userID, core.InvoiceInput{
		ClientID:  clientID,
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 0, 30),
		Currency:  "USD",
		TaxRate:   d("10"),
		Discount:  d("0"),
		LineItems: []core.LineItem{
			{Name: "Consulting", Qty: 2, UnitPrice: d("50"), Taxable: true},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed invoice: %v", err)
	}
	return creation.Invoice
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string, userID int) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM "+table+" WHERE user_id = $1", userID).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func TestSettlement_FullPayment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "full@example.com")
	client := seedClient(t, pool, userID)
	inv := seedInvoice(t, pool, userID, client.ID)

	if !inv.GrandTotal.Equal(d("110")) {
		t.Fatalf("seed invoice grand total = %s, want 110", inv.GrandTotal)
	}

	seq := core.NewSequenceService(pool)
	settlement, err := core.NewPaymentService(pool, seq).ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID,
		ClientID:  client.ID,
		Amount:    d("110"),
		Method:    "bank_transfer",
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if settlement.Invoice.Status != core.StatusPaid {
		t.Errorf("status = %s, want Paid", settlement.Invoice.Status)
	}
	if !settlement.Invoice.BalanceDue.IsZero() {
		t.Errorf("balance due = %s, want 0", settlement.Invoice.BalanceDue)
	}
	if !settlement.Invoice.PaidTotal.Equal(d("110")) {
		t.Errorf("paid total = %s, want 110", settlement.Invoice.PaidTotal)
	}
	if settlement.Receipt == nil || !settlement.Receipt.Amount.Equal(d("110")) {
		t.Fatalf("receipt = %+v, want amount 110", settlement.Receipt)
	}
	if settlement.Receipt.PaymentID != settlement.Payment.ID {
		t.Errorf("receipt not linked to payment: %s vs %s", settlement.Receipt.PaymentID, settlement.Payment.ID)
	}
	if settlement.Receipt.ReceiptNumber != "REC-501" {
		t.Errorf("receipt number = %s, want REC-501", settlement.Receipt.ReceiptNumber)
	}
	if got := countRows(t, pool, "receipts", userID); got != 1 {
		t.Errorf("receipt count = %d, want exactly 1", got)
	}
}

func TestSettlement_PartialPayment(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "partial@example.com")
	client := seedClient(t, pool, userID)
	inv := seedInvoice(t, pool, userID, client.ID)

	seq := core.NewSequenceService(pool)
	settlement, err := core.NewPaymentService(pool, seq).ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID,
		ClientID:  client.ID,
		Amount:    d("50"),
		Method:    "cash",
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	if settlement.Invoice.Status != core.StatusPartiallyPaid {
		t.Errorf("status = %s, want Partially Paid", settlement.Invoice.Status)
	}
	if !settlement.Invoice.BalanceDue.Equal(d("60")) {
		t.Errorf("balance due = %s, want 60", settlement.Invoice.BalanceDue)
	}
}

func TestSettlement_OverpaymentRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "overpay@example.com")
	client := seedClient(t, pool, userID)
	inv := seedInvoice(t, pool, userID, client.ID)

	seq := core.NewSequenceService(pool)
	svc := core.NewPaymentService(pool, seq)

	_, err := svc.ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID,
		ClientID:  client.ID,
		Amount:    d("110.01"),
		Method:    "cash",
		Date:      time.Now(),
	})
	var conflict *core.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError, got %v", err)
	}

	// A rejected payment must leave no trace.
	if got := countRows(t, pool, "payments", userID); got != 0 {
		t.Errorf("payment count = %d, want 0", got)
	}
	if got := countRows(t, pool, "receipts", userID); got != 0 {
		t.Errorf("receipt count = %d, want 0", got)
	}
	after, err := core.NewInvoiceService(pool, seq).Get(ctx, userID, inv.ID)
	if err != nil {
		t.Fatalf("Get after rejection: %v", err)
	}
	if !after.PaidTotal.IsZero() || after.Status != core.StatusSent {
		t.Errorf("invoice mutated by rejected payment: paid=%s status=%s", after.PaidTotal, after.Status)
	}
}

func TestSettlement_AlreadySettledRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "settled@example.com")
	client := seedClient(t, pool, userID)
	inv := seedInvoice(t, pool, userID, client.ID)

	seq := core.NewSequenceService(pool)
	svc := core.NewPaymentService(pool, seq)

	if _, err := svc.ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID, ClientID: client.ID, Amount: d("110"), Method: "cash", Date: time.Now(),
	}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	_, err := svc.ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID, ClientID: client.ID, Amount: d("1"), Method: "cash", Date: time.Now(),
	})
	var conflict *core.StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StateConflictError for settled invoice, got %v", err)
	}

	if got := countRows(t, pool, "payments", userID); got != 1 {
		t.Errorf("payment count = %d, want 1", got)
	}
	if got := countRows(t, pool, "receipts", userID); got != 1 {
		t.Errorf("receipt count = %d, want 1", got)
	}
}

func TestSettlement_ConcurrentPaymentsCannotOvershoot(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "race@example.com")
	client := seedClient(t, pool, userID)
	inv := seedInvoice(t, pool, userID, client.ID)

	seq := core.NewSequenceService(pool)
	svc := core.NewPaymentService(pool, seq)

	// Two 60.00 payments each fit the 110.00 balance on their own but
	// overshoot together. The row lock must serialize them so the second
	// re-validates against the 50.00 remainder and is rejected.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyPayment(ctx, userID, core.PaymentInput{
				InvoiceID: inv.ID, ClientID: client.ID, Amount: d("60"), Method: "cash", Date: time.Now(),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *core.StateConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected StateConflictError for losing payment, got %v", err)
		}
		rejected++
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("succeeded = %d rejected = %d, want exactly one of each", succeeded, rejected)
	}

	after, err := core.NewInvoiceService(pool, seq).Get(ctx, userID, inv.ID)
	if err != nil {
		t.Fatalf("Get after race: %v", err)
	}
	if !after.PaidTotal.Equal(d("60")) {
		t.Errorf("paid total = %s, want 60", after.PaidTotal)
	}
	if !after.BalanceDue.Equal(d("50")) {
		t.Errorf("balance due = %s, want 50", after.BalanceDue)
	}
	if after.Status != core.StatusPartiallyPaid {
		t.Errorf("status = %s, want Partially Paid", after.Status)
	}
	if got := countRows(t, pool, "payments", userID); got != 1 {
		t.Errorf("payment count = %d, want 1", got)
	}
	if got := countRows(t, pool, "receipts", userID); got != 1 {
		t.Errorf("receipt count = %d, want 1", got)
	}
}

func TestSettlement_ClientMismatchIsNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "mismatch@example.com")
	client := seedClient(t, pool, userID)
	other, err := core.NewClientService(pool).Create(ctx, userID, core.ClientInput{
		Name: "Other Co", Email: "other@example.com",
	})
	if err != nil {
		t.Fatalf("create other client: %v", err)
	}
	inv := seedInvoice(t, pool, userID, client.ID)

	seq := core.NewSequenceService(pool)
	_, err = core.NewPaymentService(pool, seq).ApplyPayment(ctx, userID, core.PaymentInput{
		InvoiceID: inv.ID, ClientID: other.ID, Amount: d("10"), Method: "cash", Date: time.Now(),
	})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for client mismatch, got %v", err)
	}
}
