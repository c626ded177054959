package repository

import (
	"context"
	"database/sql"

	"github.com/fightcard/fightcard-api/internal/model"
)

// RoleRepo persists roles, permissions and the role_permission join table.
// Deleting a role cascades the join rows (schema-level ON DELETE CASCADE)
// and nulls users.role_id (ON DELETE SET NULL); neither is handled here.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByID fetches a role together with its permission set.
func (r *RoleRepo) GetByID(ctx context.Context, id uint64) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at,updated_at FROM roles WHERE id=? LIMIT 1", id).
		Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err == sql.ErrNoRows {
		return role, ErrNotFound
	}
	if err != nil {
		return role, err
	}
	role.Permissions, err = r.permissionsForRole(ctx, id)
	return role, err
}

func (r *RoleRepo) permissionsForRole(ctx context.Context, roleID uint64) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id, p.name, p.created_at
		 FROM permissions p
		 JOIN role_permission rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []model.Permission{}
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// PermissionNamesForUser resolves a user's permission names through their
// role in one query. A user without a role gets an empty set, never an
// error; callers treat the empty set as deny.
func (r *RoleRepo) PermissionNamesForUser(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.name
		 FROM users u
		 JOIN role_permission rp ON rp.role_id = u.role_id
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE u.id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Create inserts a role and attaches the given permission ids.
func (r *RoleRepo) Create(ctx context.Context, name string, permissionIDs []uint64) (model.Role, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Role{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO roles (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return model.Role{}, ErrConflict
		}
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	if err := insertJoinRows(ctx, tx, uint64(id), permissionIDs); err != nil {
		return model.Role{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Role{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update renames a role and replaces its permission set.
func (r *RoleRepo) Update(ctx context.Context, id uint64, name string, permissionIDs []uint64) (model.Role, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Role{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE roles SET name=? WHERE id=?", name, id)
	if err != nil {
		if isDuplicate(err) {
			return model.Role{}, ErrConflict
		}
		return model.Role{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish "no such role" from "name unchanged"
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles WHERE id=?", id).Scan(&exists); err != nil {
			return model.Role{}, err
		}
		if exists == 0 {
			return model.Role{}, ErrNotFound
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permission WHERE role_id=?", id); err != nil {
		return model.Role{}, err
	}
	if err := insertJoinRows(ctx, tx, id, permissionIDs); err != nil {
		return model.Role{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Role{}, err
	}
	return r.GetByID(ctx, id)
}

func insertJoinRows(ctx context.Context, tx *sql.Tx, roleID uint64, permissionIDs []uint64) error {
	for _, pid := range permissionIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO role_permission (role_id, permission_id) VALUES (?,?)", roleID, pid); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a role. Users referencing it keep working with a null role.
func (r *RoleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Page returns one page of roles with their permissions.
func (r *RoleRepo) Page(ctx context.Context, page int) ([]model.Role, PageMeta, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles").Scan(&total); err != nil {
		return nil, PageMeta{}, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,created_at,updated_at FROM roles ORDER BY id LIMIT ? OFFSET ?",
		PageSize, Offset(page))
	if err != nil {
		return nil, PageMeta{}, err
	}
	defer rows.Close()

	roles := []model.Role{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, PageMeta{}, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, PageMeta{}, err
	}
	for i := range roles {
		perms, err := r.permissionsForRole(ctx, roles[i].ID)
		if err != nil {
			return nil, PageMeta{}, err
		}
		roles[i].Permissions = perms
	}
	return roles, NewPageMeta(total, page), nil
}

// ListPermissions returns every permission.
func (r *RoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,created_at FROM permissions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []model.Permission{}
	for rows.Next() {
		var p model.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// CreatePermission inserts a new permission name.
func (r *RoleRepo) CreatePermission(ctx context.Context, name string) (model.Permission, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO permissions (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return model.Permission{}, ErrConflict
		}
		return model.Permission{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Permission{}, err
	}
	var p model.Permission
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at FROM permissions WHERE id=? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	return p, err
}
