package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
	"github.com/fightcard/fightcard-api/internal/storage"
	"github.com/fightcard/fightcard-api/internal/utils"
)

// UserHandler implements the administrative user endpoints. All routes are
// behind the Users capability.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
	Files *storage.FileStore
}

func NewUserHandler(cfg config.Config, users UserStore, files *storage.FileStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Files: files}
}

type createUserReq struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Password  string  `json:"password"`
	RoleID    *uint64 `json:"role_id"`
}

type updateUserReq struct {
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirm_password"`
	RoleID          *uint64 `json:"role_id"`
}

// List returns one page of users.
func (h *UserHandler) List(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "page must be a positive integer")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.Users.Page(ctx, page)
	if err != nil {
		log.Printf("users: list failed: %v", err)
		return failInternal(c, "could not list users")
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return c.JSON(http.StatusOK, pagedResponse{Data: out, Meta: meta})
}

// Get returns a single user.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "user not found")
		}
		log.Printf("users: get failed: %v", err)
		return failInternal(c, "could not load user")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// Create adds a user administratively, optionally with a role.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if !emailRe.MatchString(req.Email) {
		return fail(c, http.StatusBadRequest, kindValidation, "a valid email is required")
	}
	if !validPassword(req.Password) {
		return fail(c, http.StatusBadRequest, kindValidation,
			"password must be at least 6 characters with at least one letter and one digit")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		log.Printf("users: hashing failed: %v", err)
		return failInternal(c, "could not create user")
	}

	u := model.User{Email: req.Email, PasswordHash: hash}
	if req.FirstName != "" {
		u.FirstName = sql.NullString{String: req.FirstName, Valid: true}
	}
	if req.LastName != "" {
		u.LastName = sql.NullString{String: req.LastName, Valid: true}
	}
	if req.RoleID != nil {
		u.RoleID = sql.NullInt64{Int64: int64(*req.RoleID), Valid: true}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, kindConflict, "user with that email already exists")
		}
		log.Printf("users: create failed: %v", err)
		return failInternal(c, "could not create user")
	}
	return c.JSON(http.StatusCreated, newUserResponse(created))
}

// Update applies a partial update. A password change requires a matching
// confirmation and must differ from the current password. A role_id change
// is applied; omitting the field leaves the role untouched.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "user not found")
		}
		log.Printf("users: get for update failed: %v", err)
		return failInternal(c, "could not update user")
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !emailRe.MatchString(email) {
			return fail(c, http.StatusBadRequest, kindValidation, "a valid email is required")
		}
		u.Email = email
	}
	if req.FirstName != nil {
		u.FirstName = sql.NullString{String: *req.FirstName, Valid: *req.FirstName != ""}
	}
	if req.LastName != nil {
		u.LastName = sql.NullString{String: *req.LastName, Valid: *req.LastName != ""}
	}
	if req.Password != nil {
		if req.ConfirmPassword == nil || *req.Password != *req.ConfirmPassword {
			return fail(c, http.StatusBadRequest, kindValidation, "passwords do not match")
		}
		if !validPassword(*req.Password) {
			return fail(c, http.StatusBadRequest, kindValidation,
				"password must be at least 6 characters with at least one letter and one digit")
		}
		if utils.VerifyPassword(u.PasswordHash, *req.Password) {
			return fail(c, http.StatusBadRequest, kindValidation,
				"new password cannot be the same as the old password")
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			log.Printf("users: hashing failed: %v", err)
			return failInternal(c, "could not update user")
		}
		u.PasswordHash = hash
	}
	if req.RoleID != nil {
		u.RoleID = sql.NullInt64{Int64: int64(*req.RoleID), Valid: true}
	}

	updated, err := h.Users.Update(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, kindConflict, "user with that email already exists")
		}
		log.Printf("users: update failed: %v", err)
		return failInternal(c, "could not update user")
	}
	return c.JSON(http.StatusOK, newUserResponse(updated))
}

// Delete removes a user.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "user not found")
		}
		log.Printf("users: delete failed: %v", err)
		return failInternal(c, "could not delete user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// UploadAvatar stores a validated image and attaches it to the user,
// replacing any previous avatar file.
func (h *UserHandler) UploadAvatar(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "avatar file is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "user not found")
		}
		log.Printf("users: get for upload failed: %v", err)
		return failInternal(c, "could not upload avatar")
	}

	name, err := h.Files.Save(fh)
	if err != nil {
		if errors.Is(err, storage.ErrBadType) {
			return fail(c, http.StatusBadRequest, kindValidation, err.Error())
		}
		log.Printf("users: save avatar failed: %v", err)
		return failInternal(c, "could not upload avatar")
	}

	old := u.Avatar
	u.Avatar = sql.NullString{String: name, Valid: true}
	updated, err := h.Users.Update(ctx, u)
	if err != nil {
		h.Files.Remove(name)
		log.Printf("users: attach avatar failed: %v", err)
		return failInternal(c, "could not upload avatar")
	}
	if old.Valid && old.String != name {
		h.Files.Remove(old.String)
	}
	return c.JSON(http.StatusCreated, newUserResponse(updated))
}
