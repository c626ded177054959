package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/middleware"
	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
	"github.com/fightcard/fightcard-api/internal/utils"
)

// memUserStore is an in-memory UserStore for handler tests.
type memUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
	err    error // when set, every call fails with it
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint64]model.User{}}
}

func (s *memUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.User{}, s.err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	s.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.User{}, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) GetByRefreshHash(_ context.Context, hash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.User{}, s.err
	}
	for _, u := range s.users {
		if u.RefreshTokenHash.Valid && u.RefreshTokenHash.String == hash {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *memUserStore) SetRefreshHash(_ context.Context, userID uint64, hash sql.NullString) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokenHash = hash
	s.users[userID] = u
	return nil
}

func (s *memUserStore) Update(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.User{}, s.err
	}
	if _, ok := s.users[u.ID]; !ok {
		return model.User{}, repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *memUserStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) Page(_ context.Context, page int) ([]model.User, repository.PageMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, repository.PageMeta{}, s.err
	}
	users := []model.User{}
	for _, u := range s.users {
		users = append(users, u)
	}
	return users, repository.NewPageMeta(int64(len(s.users)), page), nil
}

func testCfg() config.Config {
	return config.Config{
		AccessSecret:      "test-access-secret",
		AccessExpiresSec:  60,
		RefreshSecret:     "test-refresh-secret",
		RefreshExpiresSec: 3600,
		BcryptCost:        bcrypt.MinCost,
	}
}

// seedUser inserts a user with a known password and returns it.
func seedUser(t *testing.T, store *memUserStore, email, password string) model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	u, err := store.Create(context.Background(), model.User{Email: email, PasswordHash: hash})
	require.NoError(t, err)
	return u
}

func doRequest(h echo.HandlerFunc, method, target, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	kind, _ := body["error"].(string)
	return kind
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemUserStore()
	h := NewAuthHandler(testCfg(), store, nil)

	rec, err := doRequest(h.Register, http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"abc123","confirm_password":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body["email"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "refresh_token_hash")

	// stored user has a hash, no role and no session yet
	u, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "abc123"))
	assert.False(t, u.RoleID.Valid)
	assert.False(t, u.RefreshTokenHash.Valid)
}

func TestRegisterMismatchedConfirm(t *testing.T) {
	h := NewAuthHandler(testCfg(), newMemUserStore(), nil)

	rec, err := doRequest(h.Register, http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"abc123","confirm_password":"abc124"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorKind(t, rec))
}

func TestRegisterPasswordPolicy(t *testing.T) {
	h := NewAuthHandler(testCfg(), newMemUserStore(), nil)

	for _, password := range []string{"abc12", "abcdef", "123456", ""} {
		rec, err := doRequest(h.Register, http.MethodPost, "/auth/register",
			`{"email":"a@b.com","password":"`+password+`","confirm_password":"`+password+`"}`)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "password %q", password)
		assert.Equal(t, "validation_error", errorKind(t, rec))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemUserStore()
	seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)

	rec, err := doRequest(h.Register, http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"abc123","confirm_password":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", errorKind(t, rec))
}

func TestEmailsAreCaseSensitive(t *testing.T) {
	store := newMemUserStore()
	h := NewAuthHandler(testCfg(), store, nil)

	// emails differing only in case are distinct accounts
	for _, email := range []string{"Ana@b.com", "ana@b.com"} {
		rec, err := doRequest(h.Register, http.MethodPost, "/auth/register",
			`{"email":"`+email+`","password":"abc123","confirm_password":"abc123"}`)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code, "email %q", email)
	}

	u, err := store.GetByEmail(context.Background(), "Ana@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana@b.com", u.Email)

	// login matches the stored spelling only
	rec, err := doRequest(h.Login, http.MethodPost, "/auth/login",
		`{"email":"ANA@B.COM","password":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_credentials", errorKind(t, rec))
}

func TestLoginSetsCookiesAndStoresHash(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)

	rec, err := doRequest(h.Login, http.MethodPost, "/auth/login",
		`{"email":"a@b.com","password":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	access := findCookie(rec, utils.AccessCookieName)
	refresh := findCookie(rec, utils.RefreshCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, 60, access.MaxAge)
	assert.Equal(t, 3600, refresh.MaxAge)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, stored.RefreshTokenHash.Valid)
	assert.Equal(t, utils.HashRefreshRaw(refresh.Value), stored.RefreshTokenHash.String)

	// the response body is the sanitized user
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "password_hash")
}

func TestLoginUniformRejection(t *testing.T) {
	store := newMemUserStore()
	seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)

	// unknown email and wrong password must be indistinguishable
	recUnknown, err := doRequest(h.Login, http.MethodPost, "/auth/login",
		`{"email":"nobody@b.com","password":"abc123"}`)
	require.NoError(t, err)
	recWrong, err := doRequest(h.Login, http.MethodPost, "/auth/login",
		`{"email":"a@b.com","password":"wrong1"}`)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, recUnknown.Code)
	assert.Equal(t, recUnknown.Code, recWrong.Code)
	assert.Equal(t, "invalid_credentials", errorKind(t, recUnknown))
	assert.Equal(t, errorKind(t, recUnknown), errorKind(t, recWrong))
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())
}

// establishSession logs a user in and returns the issued cookies.
func establishSession(t *testing.T, h *AuthHandler, email, password string) (access, refresh *http.Cookie) {
	t.Helper()
	rec, err := doRequest(h.Login, http.MethodPost, "/auth/login",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	access = findCookie(rec, utils.AccessCookieName)
	refresh = findCookie(rec, utils.RefreshCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func TestRefreshIssuesNewAccessCookieOnly(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)
	_, refresh := establishSession(t, h, "a@b.com", "abc123")

	rec, err := doRequest(h.Refresh, http.MethodPost, "/auth/refresh", "", refresh)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, findCookie(rec, utils.AccessCookieName))
	// no rotation: no new refresh cookie and the stored hash is unchanged
	assert.Nil(t, findCookie(rec, utils.RefreshCookieName))
	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, utils.HashRefreshRaw(refresh.Value), stored.RefreshTokenHash.String)
}

func TestRefreshAfterSignOutForbidden(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)
	_, refresh := establishSession(t, h, "a@b.com", "abc123")

	// sign out revokes the stored hash
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetContextUser(c, u)
	require.NoError(t, h.SignOut(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// the still-unexpired refresh token is now rejected
	rec2, err := doRequest(h.Refresh, http.MethodPost, "/auth/refresh", "", refresh)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec2.Code)
	assert.Equal(t, "forbidden", errorKind(t, rec2))
}

func TestRefreshExpiredToken(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	cfg := testCfg()
	h := NewAuthHandler(cfg, store, nil)

	// an expired refresh token whose hash is still the active session
	expired, err := utils.NewToken(cfg.RefreshSecret, u.ID, u.Email, utils.TypeRefresh, -1)
	require.NoError(t, err)
	require.NoError(t, store.SetRefreshHash(context.Background(), u.ID,
		sql.NullString{String: utils.HashRefreshRaw(expired.Raw), Valid: true}))

	rec, err := doRequest(h.Refresh, http.MethodPost, "/auth/refresh", "",
		&http.Cookie{Name: utils.RefreshCookieName, Value: expired.Raw})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorKind(t, rec))
}

func TestRefreshMissingCookie(t *testing.T) {
	h := NewAuthHandler(testCfg(), newMemUserStore(), nil)

	rec, err := doRequest(h.Refresh, http.MethodPost, "/auth/refresh", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignOutClearsCookiesAndIsIdempotent(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)
	establishSession(t, h, "a@b.com", "abc123")

	e := echo.New()
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		middleware.SetContextUser(c, u)
		require.NoError(t, h.SignOut(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		access := findCookie(rec, utils.AccessCookieName)
		refresh := findCookie(rec, utils.RefreshCookieName)
		require.NotNil(t, access)
		require.NotNil(t, refresh)
		assert.Empty(t, access.Value)
		assert.Empty(t, refresh.Value)
		assert.Less(t, access.MaxAge, 0)
		assert.Less(t, refresh.MaxAge, 0)
	}

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, stored.RefreshTokenHash.Valid)
}

func TestMeReturnsContextUser(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewAuthHandler(testCfg(), store, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetContextUser(c, u)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a@b.com", body["email"])
}
