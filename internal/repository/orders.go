package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/astren/internal/model"
)

// CreateOrder сохраняет заказ и списывает использованные баллы лояльности.
// Строка пользователя блокируется, чтобы параллельные заказы не увели баланс в минус.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var balance int64
		err = tx.QueryRow(ctx, `SELECT loyalty_balance FROM users WHERE id = $1 FOR UPDATE`, o.UserID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user for update: %w", err)
		}

		used := toCents(o.LoyaltyPointsUsed)
		if used > balance {
			return ErrInsufficientBalance
		}

		if used > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE users SET loyalty_balance = loyalty_balance - $2 WHERE id = $1`,
				o.UserID, used,
			)
			if err != nil {
				return fmt.Errorf("deduct loyalty: %w", err)
			}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, user_id, user_phone, items, subtotal, discount, promo_code,
			                     loyalty_used, vat, total, status, delivery_address, contact_phone,
			                     delivery_time, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			o.ID, o.UserID, o.UserPhone, items, toCents(o.Subtotal), toCents(o.Discount), o.PromoCode,
			used, toCents(o.VAT), toCents(o.Total), string(o.Status), o.DeliveryAddress, o.ContactPhone,
			o.DeliveryTime, o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

const selectOrder = `SELECT id, user_id, user_phone, items, subtotal, discount, promo_code, loyalty_used,
	vat, total, status, delivery_address, contact_phone, delivery_time, created_at FROM orders`

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return &orders[0], nil
}

// GetOrdersByUser возвращает список заказов пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return scanOrders(rows)
}

// ListOrders возвращает все заказы, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var (
			o                                    model.Order
			items                                []byte
			status                               string
			subtotal, discount, used, vat, total int64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserPhone, &items, &subtotal, &discount, &o.PromoCode,
			&used, &vat, &total, &status, &o.DeliveryAddress, &o.ContactPhone, &o.DeliveryTime, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}

		o.Subtotal = fromCents(subtotal)
		o.Discount = fromCents(discount)
		o.LoyaltyPointsUsed = fromCents(used)
		o.VAT = fromCents(vat)
		o.Total = fromCents(total)
		o.Status = model.OrderStatus(status)

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus меняет статус заказа без начисления баллов.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return nil
}

// DeliverOrder переводит заказ в статус «доставлен», начисляет баллы владельцу
// и пишет запись в журнал лояльности. Повторная доставка ничего не начисляет.
// Возвращает признак того, что баллы были начислены.
func (r *PostgresRepository) DeliverOrder(ctx context.Context, entry model.LoyaltyLogEntry) (bool, error) {
	var awarded bool

	err := r.withRetry(ctx, func() error {
		awarded = false

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var (
			status string
			userID int64
		)
		err = tx.QueryRow(ctx,
			`SELECT status, user_id FROM orders WHERE id = $1 FOR UPDATE`,
			entry.OrderID,
		).Scan(&status, &userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrOrderNotFound, entry.OrderID)
			}
			return fmt.Errorf("lock order for update: %w", err)
		}

		if model.OrderStatus(status) == model.OrderStatusDelivered {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`,
			entry.OrderID, string(model.OrderStatusDelivered),
		); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		points := toCents(entry.PointsAwarded)
		if _, err := tx.Exec(ctx,
			`UPDATE users SET loyalty_balance = loyalty_balance + $2 WHERE id = $1`,
			userID, points,
		); err != nil {
			return fmt.Errorf("award loyalty: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO loyalty_log (id, order_id, user_phone, points_awarded, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			entry.ID, entry.OrderID, entry.UserPhone, points, entry.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert loyalty log: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		awarded = true
		return nil
	})

	return awarded, err
}

// ListLoyaltyLog возвращает журнал начислений, новые первыми.
func (r *PostgresRepository) ListLoyaltyLog(ctx context.Context) ([]model.LoyaltyLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, user_phone, points_awarded, created_at
		 FROM loyalty_log
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select loyalty log: %w", err)
	}
	defer rows.Close()

	var res []model.LoyaltyLogEntry
	for rows.Next() {
		var (
			e         model.LoyaltyLogEntry
			points    int64
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.UserPhone, &points, &createdAt); err != nil {
			return nil, fmt.Errorf("scan loyalty log: %w", err)
		}
		e.PointsAwarded = fromCents(points)
		e.CreatedAt = createdAt
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
