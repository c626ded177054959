package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/repository"
)

// PermissionHandler lists and creates permission names. It shares the Roles
// capability with the role endpoints since both shape the authorization
// model.
type PermissionHandler struct{ Roles RoleStore }

func NewPermissionHandler(roles RoleStore) *PermissionHandler {
	return &PermissionHandler{Roles: roles}
}

type createPermissionReq struct {
	Name string `json:"name"`
}

// List returns every permission.
func (h *PermissionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	perms, err := h.Roles.ListPermissions(ctx)
	if err != nil {
		log.Printf("permissions: list failed: %v", err)
		return failInternal(c, "could not list permissions")
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Name: p.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a permission. Names must follow the {verb}_{resource}
// convention with verb view or edit, since the guard matches on exactly
// those prefixes.
func (h *PermissionHandler) Create(c echo.Context) error {
	var req createPermissionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if !strings.HasPrefix(req.Name, "view_") && !strings.HasPrefix(req.Name, "edit_") {
		return fail(c, http.StatusBadRequest, kindValidation,
			"permission name must start with view_ or edit_")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Roles.CreatePermission(ctx, req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusBadRequest, kindConflict, "permission already exists")
		}
		log.Printf("permissions: create failed: %v", err)
		return failInternal(c, "could not create permission")
	}
	return c.JSON(http.StatusCreated, permissionResponse{ID: p.ID, Name: p.Name})
}
