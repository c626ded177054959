package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/middleware"
	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/queue"
	"github.com/fightcard/fightcard-api/internal/repository"
	"github.com/fightcard/fightcard-api/internal/utils"
)

// UserStore is the persistence surface the auth and user endpoints need.
// *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByRefreshHash(ctx context.Context, hash string) (model.User, error)
	SetRefreshHash(ctx context.Context, userID uint64, hash sql.NullString) error
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id uint64) error
	Page(ctx context.Context, page int) ([]model.User, repository.PageMeta, error)
}

// EventPublisher emits audit events. A nil publisher disables auditing;
// publish failures are logged and never affect the request outcome.
type EventPublisher func(ctx context.Context, event queue.AuthEvent) error

// AuthHandler implements the session lifecycle: register, login, refresh,
// sign-out and current-user. Sessions ride on two HttpOnly cookies; the
// SHA-256 hash of the active refresh token is the only session state stored
// server-side.
//
// Refresh deliberately does not rotate the refresh token: a refresh call
// mints a new access cookie while the same refresh token stays valid until
// its own expiry or until login/sign-out replaces the stored hash.
type AuthHandler struct {
	Cfg     config.Config
	Users   UserStore
	Publish EventPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, publish EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Publish: publish}
}

type registerReq struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validPassword enforces the registration policy: at least six characters,
// at least one letter and one digit.
func validPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Register creates an account with no role assigned and returns the
// sanitized user. Duplicate emails surface as a conflict, not a raw
// storage error.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
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
	if req.Password != req.ConfirmPassword {
		return fail(c, http.StatusBadRequest, kindValidation, "passwords do not match")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		log.Printf("register: hashing failed: %v", err)
		return failInternal(c, "could not register user")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{Email: req.Email, PasswordHash: hash}
	if req.FirstName != "" {
		u.FirstName = sql.NullString{String: req.FirstName, Valid: true}
	}
	if req.LastName != "" {
		u.LastName = sql.NullString{String: req.LastName, Valid: true}
	}

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, kindConflict, "user with that email already exists")
		}
		log.Printf("register: create user failed: %v", err)
		return failInternal(c, "could not register user")
	}

	h.audit(ctx, created, queue.ActionRegister)
	return c.JSON(http.StatusCreated, newUserResponse(created))
}

// Login validates credentials, issues both tokens, persists the refresh
// hash and sets both session cookies. Unknown email and wrong password
// yield the identical error to prevent account enumeration.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, kindValidation, "email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, kindInvalidCred, "invalid credentials")
		}
		log.Printf("login: lookup failed: %v", err)
		return failInternal(c, "could not log in")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusBadRequest, kindInvalidCred, "invalid credentials")
	}

	access, err := utils.NewToken(h.Cfg.AccessSecret, u.ID, u.Email, utils.TypeAccess, h.Cfg.AccessExpiresSec)
	if err != nil {
		log.Printf("login: issue access token failed: %v", err)
		return failInternal(c, "could not log in")
	}
	refresh, err := utils.NewToken(h.Cfg.RefreshSecret, u.ID, u.Email, utils.TypeRefresh, h.Cfg.RefreshExpiresSec)
	if err != nil {
		log.Printf("login: issue refresh token failed: %v", err)
		return failInternal(c, "could not log in")
	}
	hash := sql.NullString{String: utils.HashRefreshRaw(refresh.Raw), Valid: true}
	if err := h.Users.SetRefreshHash(ctx, u.ID, hash); err != nil {
		log.Printf("login: store refresh hash failed: %v", err)
		return failInternal(c, "could not log in")
	}

	c.SetCookie(utils.SessionCookie(utils.AccessCookieName, access.Raw, h.Cfg.AccessExpiresSec))
	c.SetCookie(utils.SessionCookie(utils.RefreshCookieName, refresh.Raw, h.Cfg.RefreshExpiresSec))

	h.audit(ctx, u, queue.ActionLogin)
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// Refresh exchanges a live refresh cookie for a fresh access cookie. The
// user is located by the stored hash of the presented token first, so a
// token revoked by sign-out is rejected even before signature checks, and
// even if it has not expired.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(utils.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return fail(c, http.StatusUnauthorized, kindUnauth, "missing refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByRefreshHash(ctx, utils.HashRefreshRaw(cookie.Value))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusForbidden, kindForbidden, "invalid refresh token")
		}
		log.Printf("refresh: lookup failed: %v", err)
		return failInternal(c, "could not refresh session")
	}
	if _, err := utils.VerifyToken(h.Cfg.RefreshSecret, cookie.Value, utils.TypeRefresh); err != nil {
		return fail(c, http.StatusUnauthorized, kindUnauth, "invalid or expired refresh token")
	}

	access, err := utils.NewToken(h.Cfg.AccessSecret, u.ID, u.Email, utils.TypeAccess, h.Cfg.AccessExpiresSec)
	if err != nil {
		log.Printf("refresh: issue access token failed: %v", err)
		return failInternal(c, "could not refresh session")
	}
	c.SetCookie(utils.SessionCookie(utils.AccessCookieName, access.Raw, h.Cfg.AccessExpiresSec))
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// SignOut revokes the active session by nulling the stored refresh hash and
// clearing both cookies. Calling it twice is safe.
func (h *AuthHandler) SignOut(c echo.Context) error {
	u, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, kindUnauth, "not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetRefreshHash(ctx, u.ID, sql.NullString{}); err != nil {
		log.Printf("signout: clear refresh hash failed: %v", err)
		return failInternal(c, "could not sign out")
	}
	c.SetCookie(utils.ClearedCookie(utils.AccessCookieName))
	c.SetCookie(utils.ClearedCookie(utils.RefreshCookieName))

	h.audit(ctx, u, queue.ActionSignOut)
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}

// Me returns the authenticated user resolved by the cookie gate.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.UserFromContext(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, kindUnauth, "not authenticated")
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *AuthHandler) audit(ctx context.Context, u model.User, action string) {
	if h.Publish == nil {
		return
	}
	ev := queue.AuthEvent{
		UserID:     u.ID,
		Email:      u.Email,
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Publish(ctx, ev); err != nil {
		log.Printf("audit: publish %s event failed: %v", action, err)
	}
}
