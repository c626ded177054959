package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fightcard/fightcard-api/internal/utils"
)

func doUpdateUser(h *UserHandler, id uint64, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/users/"+strconv.FormatUint(id, 10), strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(id, 10))
	return rec, h.Update(c)
}

func TestUpdateUserAppliesRoleChange(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewUserHandler(testCfg(), store, nil)

	rec, err := doUpdateUser(h, u.ID, `{"role_id":3}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, stored.RoleID.Valid)
	assert.Equal(t, int64(3), stored.RoleID.Int64)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["role_id"])
}

func TestUpdateUserRoleOmittedIsUnchanged(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewUserHandler(testCfg(), store, nil)

	rec, err := doUpdateUser(h, u.ID, `{"first_name":"Ana"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, stored.RoleID.Valid)
	assert.Equal(t, "Ana", stored.FirstName.String)
}

func TestUpdateUserPasswordChecks(t *testing.T) {
	store := newMemUserStore()
	u := seedUser(t, store, "a@b.com", "abc123")
	h := NewUserHandler(testCfg(), store, nil)

	rec, err := doUpdateUser(h, u.ID, `{"password":"new123","confirm_password":"new124"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorKind(t, rec))

	rec, err = doUpdateUser(h, u.ID, `{"password":"abc123","confirm_password":"abc123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, err = doUpdateUser(h, u.ID, `{"password":"new123","confirm_password":"new123"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "new123"))
}

func TestUpdateUserNotFound(t *testing.T) {
	h := NewUserHandler(testCfg(), newMemUserStore(), nil)

	rec, err := doUpdateUser(h, 99, `{"first_name":"Ana"}`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))
}
