package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"billflow/internal/core"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &core.ValidationError{Msg: "currency is required"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", &core.NotFoundError{Entity: "invoice", Ref: "abc"}, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", &core.StateConflictError{Msg: "invoice INV-1001 is already paid"}, http.StatusConflict, "CONFLICT"},
		{"storage", &core.StorageError{Op: "failed to query invoices", Err: errors.New("conn refused")}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)

			handleError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestHandleError_StorageDetailNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)

	handleError(rec, req, &core.StorageError{Op: "failed to query invoices", Err: errors.New("password=hunter2 rejected")})

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("storage detail leaked: %q", body.Error)
	}
}
