package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/astren/internal/model"
)

// ListMenuItems возвращает позиции меню в порядке каталога.
func (r *PostgresRepository) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, name_en, name_ar, description_en, description_ar,
		        subcategory_en, subcategory_ar, price, original_price, image
		 FROM menu_items
		 ORDER BY position, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var (
			item         model.MenuItem
			category     string
			subEN, subAR *string
			priceC       int64
			originalC    *int64
		)
		if err := rows.Scan(&item.ID, &category,
			&item.Name.EN, &item.Name.AR,
			&item.Description.EN, &item.Description.AR,
			&subEN, &subAR, &priceC, &originalC, &item.Image,
		); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}

		item.Category = model.Category(category)
		item.Price = fromCents(priceC)
		if subEN != nil {
			item.Subcategory = &model.Text{EN: *subEN}
			if subAR != nil {
				item.Subcategory.AR = *subAR
			}
		}
		if originalC != nil {
			v := fromCents(*originalC)
			item.OriginalPrice = &v
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// ListDeals возвращает акции в порядке каталога.
func (r *PostgresRepository) ListDeals(ctx context.Context) ([]model.Deal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title_en, title_ar, description_en, description_ar, image, is_active,
		        active_days, hour_start, hour_end, main_course_count, gift_options,
		        main_categories, gift_categories, availability_en, availability_ar
		 FROM deals
		 ORDER BY position, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select deals: %w", err)
	}
	defer rows.Close()

	var deals []model.Deal
	for rows.Next() {
		var (
			d                  model.Deal
			days               []int16
			hourStart, hourEnd *int16
			mainCount          *int32
			giftOptions        []string
			mainCats, giftCats []string
			availEN, availAR   *string
		)
		if err := rows.Scan(&d.ID, &d.Title.EN, &d.Title.AR, &d.Description.EN, &d.Description.AR,
			&d.Image, &d.IsActive, &days, &hourStart, &hourEnd, &mainCount, &giftOptions,
			&mainCats, &giftCats, &availEN, &availAR,
		); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}

		for _, day := range days {
			d.Schedule.ActiveDays = append(d.Schedule.ActiveDays, time.Weekday(day))
		}
		if hourStart != nil && hourEnd != nil {
			d.Schedule.TimeRange = &model.HourRange{Start: int(*hourStart), End: int(*hourEnd)}
		}
		if mainCount != nil {
			d.Rules = &model.DealRules{
				MainCourseCount: int(*mainCount),
				GiftOptions:     giftOptions,
			}
		}
		d.Policy = model.OptionPolicy{
			MainCategories: toCategories(mainCats),
			GiftCategories: toCategories(giftCats),
		}
		if availEN != nil {
			d.AvailabilityText = &model.Text{EN: *availEN}
			if availAR != nil {
				d.AvailabilityText.AR = *availAR
			}
		}

		deals = append(deals, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return deals, nil
}

// UpsertMenuItems сохраняет позиции меню, сохраняя порядок переданного списка.
func (r *PostgresRepository) UpsertMenuItems(ctx context.Context, items []model.MenuItem) error {
	batch := &pgx.Batch{}
	for i, item := range items {
		var subEN, subAR *string
		if item.Subcategory != nil {
			subEN, subAR = &item.Subcategory.EN, &item.Subcategory.AR
		}
		var originalC *int64
		if item.OriginalPrice != nil {
			v := toCents(*item.OriginalPrice)
			originalC = &v
		}

		batch.Queue(
			`INSERT INTO menu_items (id, category, name_en, name_ar, description_en, description_ar,
			                         subcategory_en, subcategory_ar, price, original_price, image, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO UPDATE SET
			     category = EXCLUDED.category,
			     name_en = EXCLUDED.name_en,
			     name_ar = EXCLUDED.name_ar,
			     description_en = EXCLUDED.description_en,
			     description_ar = EXCLUDED.description_ar,
			     subcategory_en = EXCLUDED.subcategory_en,
			     subcategory_ar = EXCLUDED.subcategory_ar,
			     price = EXCLUDED.price,
			     original_price = EXCLUDED.original_price,
			     image = EXCLUDED.image,
			     position = EXCLUDED.position`,
			item.ID, string(item.Category), item.Name.EN, item.Name.AR,
			item.Description.EN, item.Description.AR, subEN, subAR,
			toCents(item.Price), originalC, item.Image, i+1,
		)
	}

	return r.sendBatch(ctx, batch, "upsert menu items")
}

// UpsertDeals сохраняет акции. Флаг активности существующих акций не перезаписывается,
// им управляет администратор.
func (r *PostgresRepository) UpsertDeals(ctx context.Context, deals []model.Deal) error {
	batch := &pgx.Batch{}
	for i, d := range deals {
		days := make([]int16, 0, len(d.Schedule.ActiveDays))
		for _, day := range d.Schedule.ActiveDays {
			days = append(days, int16(day))
		}
		var hourStart, hourEnd *int16
		if tr := d.Schedule.TimeRange; tr != nil {
			s, e := int16(tr.Start), int16(tr.End)
			hourStart, hourEnd = &s, &e
		}
		var mainCount *int32
		giftOptions := []string{}
		if d.Rules != nil {
			c := int32(d.Rules.MainCourseCount)
			mainCount = &c
			if d.Rules.GiftOptions != nil {
				giftOptions = d.Rules.GiftOptions
			}
		}
		var availEN, availAR *string
		if d.AvailabilityText != nil {
			availEN, availAR = &d.AvailabilityText.EN, &d.AvailabilityText.AR
		}

		batch.Queue(
			`INSERT INTO deals (id, title_en, title_ar, description_en, description_ar, image, is_active,
			                    active_days, hour_start, hour_end, main_course_count, gift_options,
			                    main_categories, gift_categories, availability_en, availability_ar, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			 ON CONFLICT (id) DO UPDATE SET
			     title_en = EXCLUDED.title_en,
			     title_ar = EXCLUDED.title_ar,
			     description_en = EXCLUDED.description_en,
			     description_ar = EXCLUDED.description_ar,
			     image = EXCLUDED.image,
			     active_days = EXCLUDED.active_days,
			     hour_start = EXCLUDED.hour_start,
			     hour_end = EXCLUDED.hour_end,
			     main_course_count = EXCLUDED.main_course_count,
			     gift_options = EXCLUDED.gift_options,
			     main_categories = EXCLUDED.main_categories,
			     gift_categories = EXCLUDED.gift_categories,
			     availability_en = EXCLUDED.availability_en,
			     availability_ar = EXCLUDED.availability_ar,
			     position = EXCLUDED.position`,
			d.ID, d.Title.EN, d.Title.AR, d.Description.EN, d.Description.AR, d.Image, d.IsActive,
			days, hourStart, hourEnd, mainCount, giftOptions,
			fromCategories(d.Policy.MainCategories), fromCategories(d.Policy.GiftCategories),
			availEN, availAR, i+1,
		)
	}

	return r.sendBatch(ctx, batch, "upsert deals")
}

func (r *PostgresRepository) sendBatch(ctx context.Context, batch *pgx.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}

	return r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// SetDealActive включает или выключает акцию.
func (r *PostgresRepository) SetDealActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE deals SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDealNotFound, id)
	}
	return nil
}

func toCategories(values []string) []model.Category {
	if len(values) == 0 {
		return nil
	}
	res := make([]model.Category, 0, len(values))
	for _, v := range values {
		res = append(res, model.Category(v))
	}
	return res
}

func fromCategories(categories []model.Category) []string {
	res := make([]string, 0, len(categories))
	for _, c := range categories {
		res = append(res, string(c))
	}
	return res
}
