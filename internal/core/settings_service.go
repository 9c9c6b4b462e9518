package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsService owns the per-user configuration row holding business
// identity, defaults, and the document numbering counters.
type SettingsService interface {
	// GetOrCreate returns the user's settings, lazily creating the row with
	// the documented defaults on first access.
	GetOrCreate(ctx context.Context, userID int) (*Settings, error)

	// Update replaces the mutable settings fields and returns the new row.
	Update(ctx context.Context, userID int, in Settings) (*Settings, error)

	// IncrementCounter atomically advances the counter for docType by one and
	// returns the updated settings.
	IncrementCounter(ctx context.Context, userID int, docType DocumentType) (*Settings, error)
}

type settingsService struct {
	pool *pgxpool.Pool
}

func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settingsService{pool: pool}
}

const settingsColumns = `user_id, business_name, business_email, business_phone, business_address,
	currency_default, tax_rate_default,
	invoice_prefix, next_invoice_number, estimate_prefix, next_estimate_number,
	receipt_prefix, next_receipt_number,
	default_payment_terms_days, email_templates, theme, updated_at`

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	var templates []byte
	err := row.Scan(
		&s.UserID, &s.BusinessName, &s.BusinessEmail, &s.BusinessPhone, &s.BusinessAddress,
		&s.CurrencyDefault, &s.TaxRateDefault,
		&s.InvoicePrefix, &s.NextInvoiceNumber, &s.EstimatePrefix, &s.NextEstimateNumber,
		&s.ReceiptPrefix, &s.NextReceiptNumber,
		&s.DefaultPaymentTermsDays, &templates, &s.Theme, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(templates, &s.EmailTemplates); err != nil {
		return nil, fmt.Errorf("failed to decode email templates: %w", err)
	}
	return &s, nil
}

// ensureSettingsTx lazily inserts the default settings row for userID.
// Idempotent: concurrent lazy-creates race gracefully into a no-op via the
// primary key on user_id.
func ensureSettingsTx(ctx context.Context, q pgxQuerier, userID int) error {
	defaults := DefaultSettings(userID)
	templates, err := json.Marshal(defaults.EmailTemplates)
	if err != nil {
		return fmt.Errorf("failed to encode default email templates: %w", err)
	}

	var inserted int
	err = q.QueryRow(ctx, `
		INSERT INTO settings (user_id, business_name, business_email, business_phone, business_address,
			currency_default, tax_rate_default,
			invoice_prefix, next_invoice_number, estimate_prefix, next_estimate_number,
			receipt_prefix, next_receipt_number,
			default_payment_terms_days, email_templates, theme)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (user_id) DO UPDATE SET user_id = settings.user_id
		RETURNING user_id
	`, userID, defaults.BusinessName, defaults.BusinessEmail, defaults.BusinessPhone, defaults.BusinessAddress,
		defaults.CurrencyDefault, defaults.TaxRateDefault,
		defaults.InvoicePrefix, defaults.NextInvoiceNumber, defaults.EstimatePrefix, defaults.NextEstimateNumber,
		defaults.ReceiptPrefix, defaults.NextReceiptNumber,
		defaults.DefaultPaymentTermsDays, templates, defaults.Theme,
	).Scan(&inserted)
	if err != nil {
		return storage("failed to ensure settings row", err)
	}
	return nil
}

func (s *settingsService) GetOrCreate(ctx context.Context, userID int) (*Settings, error) {
	settings, err := scanSettings(s.pool.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE user_id = $1", userID))
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, storage("failed to read settings", err)
	}

	if err := ensureSettingsTx(ctx, s.pool, userID); err != nil {
		return nil, err
	}
	settings, err = scanSettings(s.pool.QueryRow(ctx,
		"SELECT "+settingsColumns+" FROM settings WHERE user_id = $1", userID))
	if err != nil {
		return nil, storage("failed to read settings after create", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, userID int, in Settings) (*Settings, error) {
	if err := ensureSettingsTx(ctx, s.pool, userID); err != nil {
		return nil, err
	}

	templates, err := json.Marshal(in.EmailTemplates)
	if err != nil {
		return nil, validationf("invalid email templates: %v", err)
	}

	settings, err := scanSettings(s.pool.QueryRow(ctx, `
		UPDATE settings
		SET business_name = $2, business_email = $3, business_phone = $4, business_address = $5,
			currency_default = $6, tax_rate_default = $7,
			invoice_prefix = $8, next_invoice_number = $9,
			estimate_prefix = $10, next_estimate_number = $11,
			receipt_prefix = $12, next_receipt_number = $13,
			default_payment_terms_days = $14, email_templates = $15, theme = $16,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+settingsColumns,
		userID, in.BusinessName, in.BusinessEmail, in.BusinessPhone, in.BusinessAddress,
		in.CurrencyDefault, in.TaxRateDefault,
		in.InvoicePrefix, in.NextInvoiceNumber,
		in.EstimatePrefix, in.NextEstimateNumber,
		in.ReceiptPrefix, in.NextReceiptNumber,
		in.DefaultPaymentTermsDays, templates, in.Theme))
	if err != nil {
		return nil, storage("failed to update settings", err)
	}
	return settings, nil
}

func (s *settingsService) IncrementCounter(ctx context.Context, userID int, docType DocumentType) (*Settings, error) {
	counter, _, err := sequenceColumns(docType)
	if err != nil {
		return nil, err
	}
	if err := ensureSettingsTx(ctx, s.pool, userID); err != nil {
		return nil, err
	}

	settings, err := scanSettings(s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE settings SET %s = %s + 1, updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s`, counter, counter, settingsColumns), userID))
	if err != nil {
		return nil, storage("failed to increment counter", err)
	}
	return settings, nil
}
