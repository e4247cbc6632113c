package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type paymentRow struct {
	ID           int64          `db:"id"`
	AccountID    int            `db:"account_id"`
	BuyerPhone   string         `db:"buyer_phone"`
	PreferenceID string         `db:"preference_id"`
	PaymentLink  string         `db:"payment_link"`
	Status       string         `db:"status"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    sql.NullString `db:"updated_at"`
}

// SQLStore is the Postgres-backed ledger, selected by store.driver=postgres.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) List(ctx context.Context) ([]Payment, error) {
	var rows []paymentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, account_id, buyer_phone, preference_id, payment_link, status, created_at, updated_at
		   FROM payments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: select payments: %w", err)
	}
	payments := make([]Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

func (s *SQLStore) Save(ctx context.Context, payments []Payment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM payments`); err != nil {
		return fmt.Errorf("ledger: clear payments: %w", err)
	}
	for _, p := range payments {
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit: %w", err)
	}
	return nil
}

func (s *SQLStore) AddPending(ctx context.Context, accountID int, buyerPhone, preferenceID, paymentLink string) (Payment, error) {
	p := Payment{
		ID:           newID(),
		AccountID:    accountID,
		BuyerPhone:   buyerPhone,
		PreferenceID: preferenceID,
		PaymentLink:  paymentLink,
		Status:       StatusPending,
		CreatedAt:    nowStamp(),
	}
	if err := insertPayment(ctx, s.db, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (s *SQLStore) UpdateStatus(ctx context.Context, preferenceID, status string) (Payment, error) {
	stamp := nowStamp()
	var row paymentRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE payments SET status = $1, updated_at = $2
		  WHERE id = (SELECT id FROM payments WHERE preference_id = $3 ORDER BY id LIMIT 1)
		RETURNING id, account_id, buyer_phone, preference_id, payment_link, status, created_at, updated_at`,
		status, stamp, preferenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, fmt.Errorf("ledger: update payment %s: %w", preferenceID, err)
	}
	return row.toPayment(), nil
}

func (s *SQLStore) PendingByBuyer(ctx context.Context, buyerPhone string) ([]Payment, error) {
	var rows []paymentRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, account_id, buyer_phone, preference_id, payment_link, status, created_at, updated_at
		   FROM payments WHERE buyer_phone = $1 AND status = $2 ORDER BY id`,
		buyerPhone, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("ledger: select pending for %s: %w", buyerPhone, err)
	}
	payments := make([]Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.toPayment())
	}
	return payments, nil
}

type execer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

func insertPayment(ctx context.Context, db execer, p Payment) error {
	row := paymentRow{
		ID:           p.ID,
		AccountID:    p.AccountID,
		BuyerPhone:   p.BuyerPhone,
		PreferenceID: p.PreferenceID,
		PaymentLink:  p.PaymentLink,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
	}
	if p.UpdatedAt != "" {
		row.UpdatedAt = sql.NullString{String: p.UpdatedAt, Valid: true}
	}
	_, err := db.NamedExecContext(ctx,
		`INSERT INTO payments (id, account_id, buyer_phone, preference_id, payment_link, status, created_at, updated_at)
		 VALUES (:id, :account_id, :buyer_phone, :preference_id, :payment_link, :status, :created_at, :updated_at)`,
		row)
	if err != nil {
		return fmt.Errorf("ledger: insert payment %d: %w", p.ID, err)
	}
	return nil
}

func (r paymentRow) toPayment() Payment {
	p := Payment{
		ID:           r.ID,
		AccountID:    r.AccountID,
		BuyerPhone:   r.BuyerPhone,
		PreferenceID: r.PreferenceID,
		PaymentLink:  r.PaymentLink,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}
	if r.UpdatedAt.Valid {
		p.UpdatedAt = r.UpdatedAt.String
	}
	return p
}
