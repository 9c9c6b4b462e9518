package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientInput carries the caller-editable client fields.
type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// ClientService manages the clients a user bills.
type ClientService interface {
	Create(ctx context.Context, userID int, in ClientInput) (*Client, error)
	Get(ctx context.Context, userID int, clientID string) (*Client, error)
	List(ctx context.Context, userID int) ([]Client, error)
	Update(ctx context.Context, userID int, clientID string, in ClientInput) (*Client, error)

	// Delete removes the client and every dependent record (receipts,
	// payments, invoices, reminder logs) in one transaction. The cascade is
	// explicit application logic so deletion stays auditable.
	Delete(ctx context.Context, userID int, clientID string) error
}

type clientService struct {
	pool *pgxpool.Pool
}

func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

const clientColumns = "id, user_id, name, email, phone, address, notes, created_at"

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *clientService) Create(ctx context.Context, userID int, in ClientInput) (*Client, error) {
	if in.Name == "" || in.Email == "" {
		return nil, validationf("client name and email are required")
	}

	client, err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (id, user_id, name, email, phone, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+clientColumns,
		uuid.NewString(), userID, in.Name, in.Email, in.Phone, in.Address, in.Notes))
	if err != nil {
		return nil, storage("failed to create client", err)
	}
	return client, nil
}

func (s *clientService) Get(ctx context.Context, userID int, clientID string) (*Client, error) {
	return getClientQ(ctx, s.pool, userID, clientID)
}

func getClientQ(ctx context.Context, q pgxQuerier, userID int, clientID string) (*Client, error) {
	client, err := scanClient(q.QueryRow(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id = $1 AND user_id = $2", clientID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("client", clientID)
		}
		return nil, storage("failed to fetch client", err)
	}
	return client, nil
}

func (s *clientService) List(ctx context.Context, userID int) ([]Client, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, storage("failed to query clients", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt); err != nil {
			return nil, storage("failed to scan client", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *clientService) Update(ctx context.Context, userID int, clientID string, in ClientInput) (*Client, error) {
	if in.Name == "" || in.Email == "" {
		return nil, validationf("client name and email are required")
	}

	client, err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $3, email = $4, phone = $5, address = $6, notes = $7
		WHERE id = $1 AND user_id = $2
		RETURNING `+clientColumns,
		clientID, userID, in.Name, in.Email, in.Phone, in.Address, in.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("client", clientID)
		}
		return nil, storage("failed to update client", err)
	}
	return client, nil
}

func (s *clientService) Delete(ctx context.Context, userID int, clientID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := getClientQ(ctx, tx, userID, clientID); err != nil {
		return err
	}

	// Children first, then the client itself. reminder_logs references
	// invoices, so it must go before them.
	for _, table := range []string{"receipts", "payments", "reminder_logs", "invoices"} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND client_id = $2", table),
			userID, clientID); err != nil {
			return storage("failed to cascade delete "+table, err)
		}
	}
	if _, err := tx.Exec(ctx,
		"DELETE FROM clients WHERE id = $1 AND user_id = $2", clientID, userID); err != nil {
		return storage("failed to delete client", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage("failed to commit client deletion", err)
	}
	return nil
}
