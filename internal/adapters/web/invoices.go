package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"billflow/internal/app"
	"billflow/internal/core"
)

const dateLayout = "2006-01-02"

// parseDate parses an optional YYYY-MM-DD string. Empty input yields the zero
// time, which the app layer fills from settings.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type createInvoiceRequest struct {
	ClientID        string           `json:"client_id"`
	AsDraft         bool             `json:"as_draft"`
	IssueDate       string           `json:"issue_date"` // YYYY-MM-DD
	DueDate         string           `json:"due_date"`   // YYYY-MM-DD
	Currency        string           `json:"currency"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
	Discount        decimal.Decimal  `json:"discount"`
	LineItems       []core.LineItem  `json:"line_items"`
	Notes           string           `json:"notes"`
	Terms           string           `json:"terms"`
	WithPaymentLink bool             `json:"with_payment_link"`
}

// createInvoice handles POST /api/invoices.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	issueDate, ok := parseDate(req.IssueDate)
	if !ok {
		writeError(w, r, "invalid issue_date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	dueDate, ok := parseDate(req.DueDate)
	if !ok {
		writeError(w, r, "invalid due_date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateInvoice(r.Context(), currentUserID(r), app.CreateInvoiceRequest{
		ClientID:        req.ClientID,
		AsDraft:         req.AsDraft,
		IssueDate:       issueDate,
		DueDate:         dueDate,
		Currency:        req.Currency,
		TaxRate:         req.TaxRate,
		Discount:        req.Discount,
		LineItems:       req.LineItems,
		Notes:           req.Notes,
		Terms:           req.Terms,
		WithPaymentLink: req.WithPaymentLink,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Invoice)
}

// getInvoice handles GET /api/invoices/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoice(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// listInvoices handles GET /api/invoices.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInvoices(r.Context(), currentUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Invoices)
}

type updateInvoiceRequest struct {
	IssueDate *string          `json:"issue_date"` // YYYY-MM-DD
	DueDate   *string          `json:"due_date"`   // YYYY-MM-DD
	TaxRate   *decimal.Decimal `json:"tax_rate"`
	Discount  *decimal.Decimal `json:"discount"`
	LineItems *[]core.LineItem `json:"line_items"`
	Notes     *string          `json:"notes"`
	Terms     *string          `json:"terms"`
}

// updateInvoice handles PATCH /api/invoices/{id}. Absent fields are left unchanged.
func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var req updateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upd := app.UpdateInvoiceRequest{
		TaxRate:   req.TaxRate,
		Discount:  req.Discount,
		LineItems: req.LineItems,
		Notes:     req.Notes,
		Terms:     req.Terms,
	}
	if req.IssueDate != nil {
		t, err := time.Parse(dateLayout, *req.IssueDate)
		if err != nil {
			writeError(w, r, "invalid issue_date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		upd.IssueDate = &t
	}
	if req.DueDate != nil {
		t, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			writeError(w, r, "invalid due_date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		upd.DueDate = &t
	}

	result, err := h.svc.UpdateInvoice(r.Context(), currentUserID(r), chi.URLParam(r, "id"), upd)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// sendInvoice handles POST /api/invoices/{id}/send.
func (h *Handler) sendInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SendInvoice(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// voidInvoice handles POST /api/invoices/{id}/void.
func (h *Handler) voidInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.VoidInvoice(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// deleteInvoice handles DELETE /api/invoices/{id}.
func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInvoice(r.Context(), currentUserID(r), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// payByLink handles GET /api/pay/{token} — the public payment page data.
func (h *Handler) payByLink(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoiceByPaymentLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	// The public view exposes only what the paying client needs.
	type payView struct {
		InvoiceNumber string             `json:"invoice_number"`
		Status        core.InvoiceStatus `json:"status"`
		IssueDate     time.Time          `json:"issue_date"`
		DueDate       time.Time          `json:"due_date"`
		Currency      string             `json:"currency"`
		LineItems     []core.LineItem    `json:"line_items"`
		Subtotal      decimal.Decimal    `json:"subtotal"`
		TaxTotal      decimal.Decimal    `json:"tax_total"`
		DiscountTotal decimal.Decimal    `json:"discount_total"`
		GrandTotal    decimal.Decimal    `json:"grand_total"`
		PaidTotal     decimal.Decimal    `json:"paid_total"`
		BalanceDue    decimal.Decimal    `json:"balance_due"`
		ClientName    string             `json:"client_name"`
		BusinessName  string             `json:"business_name"`
		BusinessEmail string             `json:"business_email"`
	}
	inv := result.Invoice
	writeJSON(w, payView{
		InvoiceNumber: inv.InvoiceNumber,
		Status:        inv.Status,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency,
		LineItems:     inv.LineItems,
		Subtotal:      inv.Subtotal,
		TaxTotal:      inv.TaxTotal,
		DiscountTotal: inv.DiscountTotal,
		GrandTotal:    inv.GrandTotal,
		PaidTotal:     inv.PaidTotal,
		BalanceDue:    inv.BalanceDue,
		ClientName:    result.Client.Name,
		BusinessName:  result.Business.BusinessName,
		BusinessEmail: result.Business.BusinessEmail,
	})
}

// dashboard handles GET /api/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.GetDashboard(r.Context(), currentUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, summary)
}
