package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceService issues the next number in a per-user, per-document-type
// monotonic sequence backed by the counters on the settings row.
type SequenceService interface {
	// NextNumber allocates a number in its own transaction. Use for standalone calls.
	NextNumber(ctx context.Context, userID int, docType DocumentType) (string, error)

	// NextNumberTx allocates a number inside the caller's transaction, so a
	// failed caller rolls the increment back with everything else. The format
	// and the increment are one atomic UPDATE: two concurrent allocations can
	// never observe the same counter value.
	NextNumberTx(ctx context.Context, tx pgx.Tx, userID int, docType DocumentType) (string, error)
}

type sequenceService struct {
	pool *pgxpool.Pool
}

func NewSequenceService(pool *pgxpool.Pool) SequenceService {
	return &sequenceService{pool: pool}
}

// sequenceColumns maps a document type to its counter and prefix columns on
// the settings row.
func sequenceColumns(docType DocumentType) (counter, prefix string, err error) {
	switch docType {
	case DocTypeInvoice:
		return "next_invoice_number", "invoice_prefix", nil
	case DocTypeEstimate:
		return "next_estimate_number", "estimate_prefix", nil
	case DocTypeReceipt:
		return "next_receipt_number", "receipt_prefix", nil
	default:
		return "", "", validationf("unknown document type %q", docType)
	}
}

func (s *sequenceService) NextNumber(ctx context.Context, userID int, docType DocumentType) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	number, err := s.NextNumberTx(ctx, tx, userID, docType)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", storage("failed to commit allocation", err)
	}
	return number, nil
}

func (s *sequenceService) NextNumberTx(ctx context.Context, tx pgx.Tx, userID int, docType DocumentType) (string, error) {
	counter, prefix, err := sequenceColumns(docType)
	if err != nil {
		return "", err
	}

	if err := ensureSettingsTx(ctx, tx, userID); err != nil {
		return "", err
	}

	// Increment-and-return in a single statement: RETURNING sees the post-update
	// row, so counter-1 is the value this allocation consumed. The row lock held
	// until commit serializes concurrent allocations for the same user.
	var pfx string
	var next int64
	err = tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE settings
		SET %s = %s + 1, updated_at = NOW()
		WHERE user_id = $1
		RETURNING %s, %s - 1`, counter, counter, prefix, counter), userID).Scan(&pfx, &next)
	if err != nil {
		return "", storage("failed to allocate sequence number", err)
	}

	return fmt.Sprintf("%s%d", pfx, next), nil
}
