package repository

import (
	"context"
	"database/sql"

	"github.com/fightcard/fightcard-api/internal/model"
)

const fighterColumns = "id,name,record,age,height,weight,reach,image,created_at,updated_at"

// FighterRepo persists fighters in the `fighters` table.
type FighterRepo struct{ DB *sql.DB }

func NewFighterRepo(db *sql.DB) *FighterRepo { return &FighterRepo{DB: db} }

func scanFighter(row *sql.Row) (model.Fighter, error) {
	var f model.Fighter
	err := row.Scan(&f.ID, &f.Name, &f.Record, &f.Age, &f.Height, &f.Weight,
		&f.Reach, &f.Image, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

// Create inserts a fighter and returns the stored record.
func (r *FighterRepo) Create(ctx context.Context, f model.Fighter) (model.Fighter, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO fighters (name, record, age, height, weight, reach) VALUES (?,?,?,?,?,?)",
		f.Name, f.Record, f.Age, f.Height, f.Weight, f.Reach)
	if err != nil {
		return model.Fighter{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Fighter{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a fighter by primary key.
func (r *FighterRepo) GetByID(ctx context.Context, id uint64) (model.Fighter, error) {
	return scanFighter(r.DB.QueryRowContext(ctx,
		"SELECT "+fighterColumns+" FROM fighters WHERE id=? LIMIT 1", id))
}

// Update persists every mutable column of a fighter.
func (r *FighterRepo) Update(ctx context.Context, f model.Fighter) (model.Fighter, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE fighters SET name=?, record=?, age=?, height=?, weight=?, reach=?, image=? WHERE id=?",
		f.Name, f.Record, f.Age, f.Height, f.Weight, f.Reach, f.Image, f.ID)
	if err != nil {
		return model.Fighter{}, err
	}
	return r.GetByID(ctx, f.ID)
}

// Delete removes a fighter row.
func (r *FighterRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM fighters WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Page returns one page of fighters plus listing metadata.
func (r *FighterRepo) Page(ctx context.Context, page int) ([]model.Fighter, PageMeta, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM fighters").Scan(&total); err != nil {
		return nil, PageMeta{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+fighterColumns+" FROM fighters ORDER BY id LIMIT ? OFFSET ?",
		PageSize, Offset(page))
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer rows.Close()

	fighters := []model.Fighter{}
	for rows.Next() {
		var f model.Fighter
		if err := rows.Scan(&f.ID, &f.Name, &f.Record, &f.Age, &f.Height, &f.Weight,
			&f.Reach, &f.Image, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, PageMeta{}, err
		}
		fighters = append(fighters, f)
	}
	return fighters, NewPageMeta(total, page), rows.Err()
}
