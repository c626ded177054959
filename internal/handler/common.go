// Package handler implements the HTTP endpoints. Handlers depend on small
// store interfaces satisfied by the repository types, translate storage
// errors into stable domain errors, and never leak raw driver errors or
// hash fields to the client.
package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/model"
)

// Stable machine-readable error kinds. Every failure body is
// {"error": kind, "message": text}; no stack traces or internal identifiers
// ever leave the server.
const (
	kindValidation  = "validation_error"
	kindInvalidCred = "invalid_credentials"
	kindUnauth      = "unauthorized"
	kindForbidden   = "forbidden"
	kindConflict    = "conflict"
	kindNotFound    = "not_found"
	kindInternal    = "internal"
)

func fail(c echo.Context, status int, kind, msg string) error {
	return c.JSON(status, echo.Map{"error": kind, "message": msg})
}

func failInternal(c echo.Context, msg string) error {
	return fail(c, http.StatusInternalServerError, kindInternal, msg)
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// pageParam parses the ?page query parameter, defaulting to 1. Explicit
// values below 1 are rejected.
func pageParam(c echo.Context) (int, bool) {
	s := c.QueryParam("page")
	if s == "" {
		return 1, true
	}
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// userResponse is the outward shape of a user. Password and refresh-token
// hashes have no field here, so they can never serialize by accident.
type userResponse struct {
	ID        uint64  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Avatar    string  `json:"avatar,omitempty"`
	RoleID    *uint64 `json:"role_id,omitempty"`
}

func newUserResponse(u model.User) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email}
	if u.FirstName.Valid {
		resp.FirstName = u.FirstName.String
	}
	if u.LastName.Valid {
		resp.LastName = u.LastName.String
	}
	if u.Avatar.Valid {
		resp.Avatar = u.Avatar.String
	}
	if u.RoleID.Valid {
		id := uint64(u.RoleID.Int64)
		resp.RoleID = &id
	}
	return resp
}

// pagedResponse wraps one page of any listing.
type pagedResponse struct {
	Data interface{} `json:"data"`
	Meta interface{} `json:"meta"`
}
