package core_test

import (
	"testing"
	"time"

	"billflow/internal/core"
)

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		dueDate time.Time
		balance string
		want    bool
	}{
		{"past due with balance", now.AddDate(0, 0, -3), "50", true},
		{"past due fully paid", now.AddDate(0, 0, -3), "0", false},
		{"due today", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), "50", false},
		{"due tomorrow", now.AddDate(0, 0, 1), "50", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := core.Invoice{DueDate: tt.dueDate, BalanceDue: d(tt.balance)}
			if got := inv.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := core.DefaultSettings(42)

	if s.UserID != 42 {
		t.Errorf("UserID = %d, want 42", s.UserID)
	}
	if s.InvoicePrefix != "INV-" || s.NextInvoiceNumber != 1001 {
		t.Errorf("invoice sequence defaults = %s/%d, want INV-/1001", s.InvoicePrefix, s.NextInvoiceNumber)
	}
	if s.ReceiptPrefix != "REC-" || s.NextReceiptNumber != 501 {
		t.Errorf("receipt sequence defaults = %s/%d, want REC-/501", s.ReceiptPrefix, s.NextReceiptNumber)
	}
	if s.EstimatePrefix != "EST-" || s.NextEstimateNumber != 101 {
		t.Errorf("estimate sequence defaults = %s/%d, want EST-/101", s.EstimatePrefix, s.NextEstimateNumber)
	}
	for _, name := range []string{"invoice", "estimate", "reminder"} {
		if _, ok := s.EmailTemplates[name]; !ok {
			t.Errorf("missing default email template %q", name)
		}
	}
}

func TestRenderTemplate(t *testing.T) {
	tpl := core.EmailTemplate{
		Subject: "Invoice {{invoiceNumber}} from {{businessName}}",
		Body:    "Dear {{clientName}}, {{amount}} is due by {{dueDate}}. {{unknown}} stays.",
	}
	subject, body := core.RenderTemplate(tpl, map[string]string{
		"invoiceNumber": "INV-1001",
		"businessName":  "Acme",
		"clientName":    "Dana",
		"amount":        "110.00 USD",
		"dueDate":       "Sep 30, 2026",
	})

	if subject != "Invoice INV-1001 from Acme" {
		t.Errorf("subject = %q", subject)
	}
	want := "Dear Dana, 110.00 USD is due by Sep 30, 2026. {{unknown}} stays."
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}
