package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/astren/internal/model"
)

// GetPromoCodeByCode ищет промокод без учёта регистра.
func (r *PostgresRepository) GetPromoCodeByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	var p model.PromoCode
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, discount, is_active FROM promo_codes WHERE upper(code) = upper($1)`,
		code,
	).Scan(&p.ID, &p.Code, &p.Discount, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPromoNotFound, code)
		}
		return nil, fmt.Errorf("get promo code: %w", err)
	}
	return &p, nil
}

// ListPromoCodes возвращает все промокоды.
func (r *PostgresRepository) ListPromoCodes(ctx context.Context) ([]model.PromoCode, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, discount, is_active FROM promo_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("select promo codes: %w", err)
	}
	defer rows.Close()

	var res []model.PromoCode
	for rows.Next() {
		var p model.PromoCode
		if err := rows.Scan(&p.ID, &p.Code, &p.Discount, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreatePromoCode сохраняет новый промокод.
func (r *PostgresRepository) CreatePromoCode(ctx context.Context, p model.PromoCode) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO promo_codes (id, code, discount, is_active) VALUES ($1, $2, $3, $4)`,
		p.ID, p.Code, p.Discount, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrPromoExists, p.Code)
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

// UpdatePromoCode обновляет промокод.
func (r *PostgresRepository) UpdatePromoCode(ctx context.Context, p model.PromoCode) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE promo_codes SET code = $2, discount = $3, is_active = $4 WHERE id = $1`,
		p.ID, p.Code, p.Discount, p.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrPromoExists, p.Code)
		}
		return fmt.Errorf("update promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrPromoNotFound, p.ID)
	}
	return nil
}

// DeletePromoCode удаляет промокод.
func (r *PostgresRepository) DeletePromoCode(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrPromoNotFound, id)
	}
	return nil
}
