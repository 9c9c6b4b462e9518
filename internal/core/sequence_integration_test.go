package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"billflow/internal/core"
)

func TestSequence_InvoiceNumbersAdvance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "seq@example.com")
	client := seedClient(t, pool, userID)

	seq := core.NewSequenceService(pool)
	svc := core.NewInvoiceService(pool, seq)

	input := core.InvoiceInput{
		ClientID:  client.ID,
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 0, 30),
		Currency:  "USD",
		TaxRate:   d("0"),
		Discount:  d("0"),
		LineItems: []core.LineItem{{Name: "Work", Qty: 1, UnitPrice: d("100")}},
	}

	first, err := svc.Create(ctx, userID, input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Invoice.InvoiceNumber != "INV-1001" {
		t.Errorf("first number = %s, want INV-1001", first.Invoice.InvoiceNumber)
	}

	second, err := svc.Create(ctx, userID, input)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Invoice.InvoiceNumber != "INV-1002" {
		t.Errorf("second number = %s, want INV-1002", second.Invoice.InvoiceNumber)
	}
	if second.Settings.NextInvoiceNumber != 1003 {
		t.Errorf("counter after two creates = %d, want 1003", second.Settings.NextInvoiceNumber)
	}
}

func TestSequence_ConcurrentAllocationsAreUnique(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "concurrent@example.com")
	seq := core.NewSequenceService(pool)

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := seq.NextNumber(ctx, userID, core.DocTypeReceipt)
			if err != nil {
				errs <- err
				return
			}
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("allocation failed: %v", err)
	}

	seen := make(map[string]bool, n)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate number allocated: %s", number)
		}
		seen[number] = true
	}
	if len(seen) != n {
		t.Errorf("allocated %d distinct numbers, want %d", len(seen), n)
	}
}

func TestSettings_LazyCreateIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "lazy@example.com")
	svc := core.NewSettingsService(pool)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrCreate(ctx, userID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("GetOrCreate: %v", err)
	}

	var rows int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM settings WHERE user_id = $1", userID).Scan(&rows); err != nil {
		t.Fatalf("count settings: %v", err)
	}
	if rows != 1 {
		t.Errorf("settings rows = %d, want 1", rows)
	}

	settings, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if settings.InvoicePrefix != "INV-" || settings.NextInvoiceNumber != 1001 {
		t.Errorf("defaults = %s/%d, want INV-/1001", settings.InvoicePrefix, settings.NextInvoiceNumber)
	}
}

func TestSettings_IncrementCounter(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	userID := seedUser(t, pool, "increment@example.com")
	svc := core.NewSettingsService(pool)

	settings, err := svc.IncrementCounter(ctx, userID, core.DocTypeEstimate)
	if err != nil {
		t.Fatalf("IncrementCounter: %v", err)
	}
	if settings.NextEstimateNumber != 102 {
		t.Errorf("next estimate number = %d, want 102", settings.NextEstimateNumber)
	}
}
