package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/pkg/money"
)

var ErrOrderNotFound = errors.New("order not found")

// Payment is one persisted ledger row. Rows are append-only: they are
// never updated or deleted once written.
type Payment struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"created_at"`
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Settle persists every tender line and the order's status advance in
// one transaction, so a crash cannot leave a fully-paid order stuck in
// its previous status.
func (r *Repo) Settle(ctx context.Context, orderID int64, tenders []Tender, newStatus string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tenders {
		_, err = tx.Exec(ctx, `
			INSERT INTO payments (order_id, amount, method)
			VALUES ($1, $2, $3)`,
			orderID, t.Amount, t.Method)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`, newStatus, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return tx.Commit(ctx)
}

// RecordGatewayPayment writes the single full-amount payment row of an
// online-gateway success and advances the order, atomically.
func (r *Repo) RecordGatewayPayment(ctx context.Context, orderID int64, amount decimal.Decimal, method, newStatus string) error {
	return r.Settle(ctx, orderID, []Tender{{Method: method, Amount: money.Round(amount)}}, newStatus)
}

// SumForOrder totals the payments recorded against an order.
func (r *Repo) SumForOrder(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, orderID).
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments for order %d: %w", orderID, err)
	}
	return money.Round(sum), nil
}

func (r *Repo) ListForOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, amount, method, created_at
		FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
