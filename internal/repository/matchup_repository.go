package repository

import (
	"context"
	"database/sql"

	"github.com/fightcard/fightcard-api/internal/model"
)

const matchupColumns = "id,fighter1,fighter2,winning_odds,created_at,updated_at"

// MatchUpRepo persists fight matchups in the `matchups` table.
type MatchUpRepo struct{ DB *sql.DB }

func NewMatchUpRepo(db *sql.DB) *MatchUpRepo { return &MatchUpRepo{DB: db} }

func scanMatchUp(row *sql.Row) (model.MatchUp, error) {
	var m model.MatchUp
	err := row.Scan(&m.ID, &m.Fighter1, &m.Fighter2, &m.WinningOdds,
		&m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

// Create inserts a matchup and returns the stored record.
func (r *MatchUpRepo) Create(ctx context.Context, m model.MatchUp) (model.MatchUp, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO matchups (fighter1, fighter2, winning_odds) VALUES (?,?,?)",
		m.Fighter1, m.Fighter2, m.WinningOdds)
	if err != nil {
		return model.MatchUp{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MatchUp{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a matchup by primary key.
func (r *MatchUpRepo) GetByID(ctx context.Context, id uint64) (model.MatchUp, error) {
	return scanMatchUp(r.DB.QueryRowContext(ctx,
		"SELECT "+matchupColumns+" FROM matchups WHERE id=? LIMIT 1", id))
}

// Update persists every mutable column of a matchup.
func (r *MatchUpRepo) Update(ctx context.Context, m model.MatchUp) (model.MatchUp, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE matchups SET fighter1=?, fighter2=?, winning_odds=? WHERE id=?",
		m.Fighter1, m.Fighter2, m.WinningOdds, m.ID)
	if err != nil {
		return model.MatchUp{}, err
	}
	return r.GetByID(ctx, m.ID)
}

// Delete removes a matchup row.
func (r *MatchUpRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM matchups WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Page returns one page of matchups plus listing metadata.
func (r *MatchUpRepo) Page(ctx context.Context, page int) ([]model.MatchUp, PageMeta, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM matchups").Scan(&total); err != nil {
		return nil, PageMeta{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+matchupColumns+" FROM matchups ORDER BY id LIMIT ? OFFSET ?",
		PageSize, Offset(page))
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer rows.Close()

	matchups := []model.MatchUp{}
	for rows.Next() {
		var m model.MatchUp
		if err := rows.Scan(&m.ID, &m.Fighter1, &m.Fighter2, &m.WinningOdds,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, PageMeta{}, err
		}
		matchups = append(matchups, m)
	}
	return matchups, NewPageMeta(total, page), rows.Err()
}
