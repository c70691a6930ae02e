package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/pkg/database"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

const (
	insertOrderSQL = `
		INSERT INTO orders (id, checkout_session_id, basket_id, customer_name, customer_email, status, items,
			subtotal_amount, shipping_amount, total_amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (checkout_session_id) DO NOTHING`

	orderColumns = `id, checkout_session_id, basket_id, customer_name, customer_email, status, items,
			subtotal_amount, shipping_amount, total_amount, currency, created_at, updated_at`

	getOrderBySessionSQL = `SELECT ` + orderColumns + ` FROM orders WHERE checkout_session_id = $1`

	countOrdersByEmailSQL = `SELECT COUNT(*) FROM orders WHERE lower(customer_email) = lower($1)`

	listOrdersByEmailSQL = `SELECT ` + orderColumns + `
		FROM orders
		WHERE lower(customer_email) = lower($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (inserted bool, err error) {
	ctx, end := database.TraceQuery(ctx, "InsertOrder", insertOrderSQL)
	defer func() { end(err) }()

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("marshal order items: %w", err)
	}

	tag, err := r.db.Exec(ctx, insertOrderSQL,
		o.ID,
		o.CheckoutSessionID,
		o.BasketID,
		o.CustomerName,
		o.CustomerEmail,
		o.Status,
		itemsJSON,
		o.SubtotalAmount,
		o.ShippingAmount,
		o.TotalAmount,
		o.Currency,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (o *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrderBySession", getOrderBySessionSQL)
	defer func() { end(err) }()

	o, err = scanOrder(r.db.QueryRow(ctx, getOrderBySessionSQL, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("order", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order by session: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByEmail(ctx context.Context, email string, limit, offset int) (orders []domain.Order, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrdersByEmail", listOrdersByEmailSQL)
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, countOrdersByEmailSQL, email).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}

	rows, err := r.db.Query(ctx, listOrdersByEmailSQL, email, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, total, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
	)
	err := row.Scan(
		&o.ID,
		&o.CheckoutSessionID,
		&o.BasketID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.Status,
		&itemsJSON,
		&o.SubtotalAmount,
		&o.ShippingAmount,
		&o.TotalAmount,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &o, nil
}
