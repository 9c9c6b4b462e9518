package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"billflow/internal/app"
)

type recordPaymentRequest struct {
	InvoiceID string          `json:"invoice_id"`
	ClientID  string          `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Date      string          `json:"date"` // YYYY-MM-DD, empty means today
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
}

// recordPayment handles POST /api/payments.
func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, ok := parseDate(req.Date)
	if !ok {
		writeError(w, r, "invalid date, expected YYYY-MM-DD", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecordPayment(r.Context(), currentUserID(r), app.RecordPaymentRequest{
		InvoiceID: req.InvoiceID,
		ClientID:  req.ClientID,
		Amount:    req.Amount,
		Method:    req.Method,
		Date:      date,
		Reference: req.Reference,
		Note:      req.Note,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// listPayments handles GET /api/payments.
func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListPayments(r.Context(), currentUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Payments)
}

// listReceipts handles GET /api/receipts.
func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReceipts(r.Context(), currentUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Receipts)
}

type reminderRequest struct {
	ClientID string `json:"client_id"`
	Type     string `json:"type"`
	Channel  string `json:"channel"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// sendReminder handles POST /api/invoices/{id}/reminders.
func (h *Handler) sendReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Channel == "" {
		req.Channel = "email"
	}

	result, err := h.svc.SendReminder(r.Context(), currentUserID(r), app.ReminderRequest{
		InvoiceID: chi.URLParam(r, "id"),
		ClientID:  req.ClientID,
		Type:      req.Type,
		Channel:   req.Channel,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Entry)
}

// listReminders handles GET /api/invoices/{id}/reminders.
func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReminders(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}
