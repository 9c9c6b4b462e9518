package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Notifier dispatches an email. Implementations are external collaborators;
// delivery is fire-and-forget and never affects the audit trail.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogNotifier is the default Notifier: it logs instead of sending.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("reminder dispatched")
	return nil
}

// RenderTemplate substitutes {{name}} placeholders in an email template.
// Unknown placeholders are left in place.
func RenderTemplate(t EmailTemplate, vars map[string]string) (subject, body string) {
	subject, body = t.Subject, t.Body
	for name, value := range vars {
		token := "{{" + name + "}}"
		subject = strings.ReplaceAll(subject, token, value)
		body = strings.ReplaceAll(body, token, value)
	}
	return subject, body
}

// ReminderInput carries the fields needed to record a reminder. Empty Subject
// and Message fall back to the user's configured reminder template.
type ReminderInput struct {
	InvoiceID string    `json:"invoice_id"`
	ClientID  string    `json:"client_id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// ReminderService appends to the reminder audit trail and stamps the invoice's
// last_reminder_at in the same transaction.
type ReminderService interface {
	LogReminder(ctx context.Context, userID int, in ReminderInput) (*ReminderLog, error)
	List(ctx context.Context, userID int, invoiceID string) ([]ReminderLog, error)
}

type reminderService struct {
	pool     *pgxpool.Pool
	settings SettingsService
	notifier Notifier
}

func NewReminderService(pool *pgxpool.Pool, settings SettingsService, notifier Notifier) ReminderService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &reminderService{pool: pool, settings: settings, notifier: notifier}
}

func (s *reminderService) LogReminder(ctx context.Context, userID int, in ReminderInput) (*ReminderLog, error) {
	if in.InvoiceID == "" || in.ClientID == "" || in.Type == "" || in.Channel == "" {
		return nil, validationf("invoice, client, type, and channel are required")
	}
	if in.SentAt.IsZero() {
		in.SentAt = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	inv, err := getInvoiceQ(ctx, tx, userID, in.InvoiceID, true)
	if err != nil {
		return nil, err
	}
	if inv.ClientID != in.ClientID {
		return nil, notFound("invoice", in.InvoiceID)
	}
	client, err := getClientQ(ctx, tx, userID, in.ClientID)
	if err != nil {
		return nil, err
	}

	subject, message := in.Subject, in.Message
	if subject == "" || message == "" {
		settings, err := s.settings.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		tpl, ok := settings.EmailTemplates["reminder"]
		if !ok {
			return nil, validationf("no reminder template configured and no subject/message given")
		}
		renderedSubject, renderedBody := RenderTemplate(tpl, map[string]string{
			"invoiceNumber": inv.InvoiceNumber,
			"clientName":    client.Name,
			"amount":        inv.BalanceDue.StringFixed(2) + " " + inv.Currency,
			"dueDate":       inv.DueDate.Format("Jan 2, 2006"),
			"businessName":  settings.BusinessName,
		})
		if subject == "" {
			subject = renderedSubject
		}
		if message == "" {
			message = renderedBody
		}
	}

	var entry ReminderLog
	err = tx.QueryRow(ctx, `
		INSERT INTO reminder_logs (id, user_id, invoice_id, client_id, type, channel, subject, message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, user_id, invoice_id, client_id, type, channel, subject, message, sent_at`,
		uuid.NewString(), userID, in.InvoiceID, in.ClientID, in.Type, in.Channel, subject, message, in.SentAt,
	).Scan(&entry.ID, &entry.UserID, &entry.InvoiceID, &entry.ClientID, &entry.Type, &entry.Channel,
		&entry.Subject, &entry.Message, &entry.SentAt)
	if err != nil {
		return nil, storage("failed to insert reminder log", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE invoices SET last_reminder_at = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2",
		in.InvoiceID, userID, entry.SentAt); err != nil {
		return nil, storage("failed to stamp last reminder", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storage("failed to commit reminder", err)
	}

	// Dispatch after commit; a delivery failure must not undo the audit entry.
	if err := s.notifier.Send(ctx, client.Email, subject, message); err != nil {
		log.Warn().Err(err).Str("invoice", inv.InvoiceNumber).Msg("reminder dispatch failed")
	}

	return &entry, nil
}

func (s *reminderService) List(ctx context.Context, userID int, invoiceID string) ([]ReminderLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, invoice_id, client_id, type, channel, subject, message, sent_at
		FROM reminder_logs
		WHERE user_id = $1 AND invoice_id = $2
		ORDER BY sent_at DESC`, userID, invoiceID)
	if err != nil {
		return nil, storage("failed to query reminder logs", err)
	}
	defer rows.Close()

	var entries []ReminderLog
	for rows.Next() {
		var e ReminderLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.InvoiceID, &e.ClientID, &e.Type, &e.Channel,
			&e.Subject, &e.Message, &e.SentAt); err != nil {
			return nil, storage("failed to scan reminder log", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
