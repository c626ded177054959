package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
)

// RoleStore is the persistence surface the role and permission endpoints
// need. *repository.RoleRepo satisfies it.
type RoleStore interface {
	GetByID(ctx context.Context, id uint64) (model.Role, error)
	Create(ctx context.Context, name string, permissionIDs []uint64) (model.Role, error)
	Update(ctx context.Context, id uint64, name string, permissionIDs []uint64) (model.Role, error)
	Delete(ctx context.Context, id uint64) error
	Page(ctx context.Context, page int) ([]model.Role, repository.PageMeta, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	CreatePermission(ctx context.Context, name string) (model.Permission, error)
}

// RoleHandler implements role CRUD. Routes are behind the Roles capability.
type RoleHandler struct{ Roles RoleStore }

func NewRoleHandler(roles RoleStore) *RoleHandler { return &RoleHandler{Roles: roles} }

type roleReq struct {
	Name          string   `json:"name"`
	PermissionIDs []uint64 `json:"permission_ids"`
}

type permissionResponse struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type roleResponse struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Permissions []permissionResponse `json:"permissions"`
}

func newRoleResponse(r model.Role) roleResponse {
	perms := make([]permissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, permissionResponse{ID: p.ID, Name: p.Name})
	}
	return roleResponse{ID: r.ID, Name: r.Name, Permissions: perms}
}

// List returns one page of roles with their permission sets.
func (h *RoleHandler) List(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "page must be a positive integer")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, meta, err := h.Roles.Page(ctx, page)
	if err != nil {
		log.Printf("roles: list failed: %v", err)
		return failInternal(c, "could not list roles")
	}
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, newRoleResponse(r))
	}
	return c.JSON(http.StatusOK, pagedResponse{Data: out, Meta: meta})
}

// Get returns a single role.
func (h *RoleHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "role not found")
		}
		log.Printf("roles: get failed: %v", err)
		return failInternal(c, "could not load role")
	}
	return c.JSON(http.StatusOK, newRoleResponse(r))
}

// Create adds a role with the given permission ids attached.
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, kindValidation, "name is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Roles.Create(ctx, req.Name, req.PermissionIDs)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusBadRequest, kindConflict, "role with that name already exists")
		}
		log.Printf("roles: create failed: %v", err)
		return failInternal(c, "could not create role")
	}
	return c.JSON(http.StatusCreated, newRoleResponse(r))
}

// Update renames a role and replaces its permission set.
func (h *RoleHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, kindValidation, "name is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Roles.Update(ctx, id, req.Name, req.PermissionIDs)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, kindNotFound, "role not found")
		case errors.Is(err, repository.ErrConflict):
			return fail(c, http.StatusBadRequest, kindConflict, "role with that name already exists")
		}
		log.Printf("roles: update failed: %v", err)
		return failInternal(c, "could not update role")
	}
	return c.JSON(http.StatusOK, newRoleResponse(r))
}

// Delete removes a role. Users holding it keep working with a null role.
func (h *RoleHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "role not found")
		}
		log.Printf("roles: delete failed: %v", err)
		return failInternal(c, "could not delete role")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
