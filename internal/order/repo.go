package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrSlotTaken signals that another non-cancelled order claimed the
	// pickup timestamp first. Callers regenerate the slot list and ask
	// the customer to reselect; they never pick an alternate silently.
	ErrSlotTaken = errors.New("pickup slot already taken")
	ErrNotFound  = errors.New("order not found")
)

// uniqueViolation is the Postgres error code raised by the partial
// unique index on (pickup_time) for occupying statuses.
const uniqueViolation = "23505"

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// CreateWithItems materializes an order, its items and any immediate
// tender lines in a single transaction. When the order carries a pickup
// time, slot occupancy is re-checked inside the transaction; the
// partial unique index closes the remaining race, so two concurrent
// commits on one slot end with exactly one winner.
func (r *Repo) CreateWithItems(ctx context.Context, o Order, items []Item, tenders []TenderLine) (Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if o.PickupTime != nil {
		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM orders
				WHERE pickup_time = $1 AND status = ANY($2)
			)`, *o.PickupTime, OccupyingStatuses()).Scan(&taken)
		if err != nil {
			return Order{}, fmt.Errorf("check slot occupancy: %w", err)
		}
		if taken {
			return Order{}, ErrSlotTaken
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			total_amount, status, pickup_time,
			customer_name, customer_email, customer_phone, customer_address,
			delivery_method, payment_method, user_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		o.Total, string(o.Status), o.PickupTime,
		nullable(o.CustomerName), nullable(o.CustomerEmail),
		nullable(o.CustomerPhone), nullable(o.CustomerAddress),
		string(o.DeliveryMethod), nullable(o.PaymentMethod), o.UserID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if isSlotConflict(err) {
			return Order{}, ErrSlotTaken
		}
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = o.ID

		var components []byte
		if len(items[i].Components) > 0 {
			components, err = json.Marshal(items[i].Components)
			if err != nil {
				return Order{}, fmt.Errorf("marshal components: %w", err)
			}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, notes, components, points_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			o.ID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice,
			nullable(items[i].Notes), components, items[i].PointsCost,
		).Scan(&items[i].ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, t := range tenders {
		_, err = tx.Exec(ctx, `
			INSERT INTO payments (order_id, amount, method)
			VALUES ($1, $2, $3)`,
			o.ID, t.Amount, t.Method)
		if err != nil {
			return Order{}, fmt.Errorf("insert payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isSlotConflict(err) {
			return Order{}, ErrSlotTaken
		}
		return Order{}, fmt.Errorf("commit transaction: %w", err)
	}

	o.Items = items
	return o, nil
}

// Delete is the compensating action for a gateway failure after the
// checkout transaction committed: it removes the order and, by cascade,
// its items, freeing the pickup slot.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) ByID(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, total_amount, status, pickup_time,
		       COALESCE(customer_name, ''), COALESCE(customer_email, ''),
		       COALESCE(customer_phone, ''), COALESCE(customer_address, ''),
		       delivery_method, COALESCE(payment_method, ''), user_id, created_at
		FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("query order %d: %w", id, err)
	}

	o.Items, err = r.itemsFor(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update order %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForDate returns the orders created on the given day, optionally
// filtered by status, pickup time first. Staff views are day-scoped.
func (r *Repo) ListForDate(ctx context.Context, day time.Time, status Status) ([]Order, error) {
	query := `
		SELECT id, total_amount, status, pickup_time,
		       COALESCE(customer_name, ''), COALESCE(customer_email, ''),
		       COALESCE(customer_phone, ''), COALESCE(customer_address, ''),
		       delivery_method, COALESCE(payment_method, ''), user_id, created_at
		FROM orders
		WHERE created_at::date = $1::date`
	args := []any{day}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY pickup_time NULLS LAST, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SlotTaken is the authoritative commit-time occupancy check for one
// exact pickup timestamp.
func (r *Repo) SlotTaken(ctx context.Context, pickup time.Time) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE pickup_time = $1 AND status = ANY($2)
		)`, pickup, OccupyingStatuses()).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot %s: %w", pickup.Format("15:04"), err)
	}
	return taken, nil
}

// TakenSlots returns the "HH:MM" pickup times claimed on the given day
// by orders in an occupying status.
func (r *Repo) TakenSlots(ctx context.Context, day time.Time) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT pickup_time FROM orders
		WHERE pickup_time::date = $1::date AND status = ANY($2)`,
		day, OccupyingStatuses())
	if err != nil {
		return nil, fmt.Errorf("query taken slots: %w", err)
	}
	defer rows.Close()

	taken := map[string]bool{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		taken[t.Format("15:04")] = true
	}
	return taken, rows.Err()
}

func (r *Repo) itemsFor(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price,
		       COALESCE(notes, ''), components, points_cost
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var components []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.Notes, &components, &it.PointsCost); err != nil {
			return nil, err
		}
		if len(components) > 0 {
			if err := json.Unmarshal(components, &it.Components); err != nil {
				return nil, fmt.Errorf("unmarshal components: %w", err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Total, &o.Status, &o.PickupTime,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.CustomerAddress,
		&o.DeliveryMethod, &o.PaymentMethod, &o.UserID, &o.CreatedAt)
	return o, err
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
