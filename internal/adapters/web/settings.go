package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"billflow/internal/app"
	"billflow/internal/core"
)

type updateSettingsRequest struct {
	BusinessName            string                        `json:"business_name"`
	BusinessEmail           string                        `json:"business_email"`
	BusinessPhone           string                        `json:"business_phone"`
	BusinessAddress         string                        `json:"business_address"`
	CurrencyDefault         string                        `json:"currency_default"`
	TaxRateDefault          decimal.Decimal               `json:"tax_rate_default"`
	InvoicePrefix           string                        `json:"invoice_prefix"`
	NextInvoiceNumber       int64                         `json:"next_invoice_number"`
	EstimatePrefix          string                        `json:"estimate_prefix"`
	NextEstimateNumber      int64                         `json:"next_estimate_number"`
	ReceiptPrefix           string                        `json:"receipt_prefix"`
	NextReceiptNumber       int64                         `json:"next_receipt_number"`
	DefaultPaymentTermsDays int                           `json:"default_payment_terms_days"`
	EmailTemplates          map[string]core.EmailTemplate `json:"email_templates"`
	Theme                   string                        `json:"theme"`
}

// getSettings handles GET /api/settings.
func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetSettings(r.Context(), currentUserID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Settings)
}

// updateSettings handles PUT /api/settings.
func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.UpdateSettings(r.Context(), currentUserID(r), app.UpdateSettingsRequest{
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
		handleError(w, r, err)
		return
	}
	writeJSON(w, result.Settings)
}
