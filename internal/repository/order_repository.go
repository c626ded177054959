package repository

import (
	"context"
	"database/sql"

	"github.com/fightcard/fightcard-api/internal/model"
)

// OrderRepo reads the `orders` table for the reporting endpoints. Orders are
// written by an external checkout system; this service only reads them.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Page returns one page of orders plus listing metadata.
func (r *OrderRepo) Page(ctx context.Context, page int) ([]model.Order, PageMeta, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&total); err != nil {
		return nil, PageMeta{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,email,total_cents,created_at FROM orders ORDER BY id LIMIT ? OFFSET ?",
		PageSize, Offset(page))
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.Username, &o.Email, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, PageMeta{}, err
		}
		orders = append(orders, o)
	}
	return orders, NewPageMeta(total, page), rows.Err()
}

// All returns every order, oldest first, for the CSV export.
func (r *OrderRepo) All(ctx context.Context) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,email,total_cents,created_at FROM orders ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.Username, &o.Email, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Chart returns summed order value per calendar day, oldest first.
func (r *OrderRepo) Chart(ctx context.Context) ([]model.DailyRevenue, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COALESCE(SUM(total_cents),0)
		 FROM orders GROUP BY day ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []model.DailyRevenue{}
	for rows.Next() {
		var p model.DailyRevenue
		if err := rows.Scan(&p.Date, &p.Sum); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
