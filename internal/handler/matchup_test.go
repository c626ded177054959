package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
)

// memMatchUpStore is an in-memory MatchUpStore for handler tests.
type memMatchUpStore struct {
	mu       sync.Mutex
	nextID   uint64
	matchups map[uint64]model.MatchUp
}

func newMemMatchUpStore() *memMatchUpStore {
	return &memMatchUpStore{matchups: map[uint64]model.MatchUp{}}
}

func (s *memMatchUpStore) Create(_ context.Context, m model.MatchUp) (model.MatchUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	s.matchups[m.ID] = m
	return m, nil
}

func (s *memMatchUpStore) GetByID(_ context.Context, id uint64) (model.MatchUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matchups[id]
	if !ok {
		return model.MatchUp{}, repository.ErrNotFound
	}
	return m, nil
}

func (s *memMatchUpStore) Update(_ context.Context, m model.MatchUp) (model.MatchUp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matchups[m.ID]; !ok {
		return model.MatchUp{}, repository.ErrNotFound
	}
	s.matchups[m.ID] = m
	return m, nil
}

func (s *memMatchUpStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matchups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.matchups, id)
	return nil
}

func (s *memMatchUpStore) Page(_ context.Context, page int) ([]model.MatchUp, repository.PageMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matchups := []model.MatchUp{}
	for _, m := range s.matchups {
		matchups = append(matchups, m)
	}
	return matchups, repository.NewPageMeta(int64(len(s.matchups)), page), nil
}

func doMatchUp(h echo.HandlerFunc, method, body string, id uint64) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	target := "/matchups"
	if id != 0 {
		target += "/" + strconv.FormatUint(id, 10)
	}
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != 0 {
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(id, 10))
	}
	return rec, h(c)
}

func TestCreateMatchUp(t *testing.T) {
	store := newMemMatchUpStore()
	h := NewMatchUpHandler(store)

	rec, err := doMatchUp(h.Create, http.MethodPost,
		`{"fighter1":"Jon Jones","fighter2":"Stipe Miocic","winning_odds":1.35}`, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body matchupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Jon Jones", body.Fighter1)
	assert.Equal(t, "Stipe Miocic", body.Fighter2)
	assert.Equal(t, 1.35, body.WinningOdds)
	assert.NotZero(t, body.ID)
}

func TestCreateMatchUpValidation(t *testing.T) {
	h := NewMatchUpHandler(newMemMatchUpStore())

	cases := []struct {
		name string
		body string
	}{
		{"missing fighter1", `{"fighter2":"B","winning_odds":2}`},
		{"blank fighter2", `{"fighter1":"A","fighter2":"  ","winning_odds":2}`},
		{"zero odds", `{"fighter1":"A","fighter2":"B"}`},
		{"negative odds", `{"fighter1":"A","fighter2":"B","winning_odds":-1.5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := doMatchUp(h.Create, http.MethodPost, tc.body, 0)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation_error", errorKind(t, rec))
		})
	}
}

func TestUpdateMatchUp(t *testing.T) {
	store := newMemMatchUpStore()
	seeded, err := store.Create(context.Background(),
		model.MatchUp{Fighter1: "A", Fighter2: "B", WinningOdds: 2.0})
	require.NoError(t, err)
	h := NewMatchUpHandler(store)

	rec, err := doMatchUp(h.Update, http.MethodPatch,
		`{"fighter1":"A","fighter2":"C","winning_odds":1.8}`, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", stored.Fighter2)
	assert.Equal(t, 1.8, stored.WinningOdds)
}

func TestMatchUpNotFound(t *testing.T) {
	h := NewMatchUpHandler(newMemMatchUpStore())

	rec, err := doMatchUp(h.Get, http.MethodGet, "", 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorKind(t, rec))

	rec, err = doMatchUp(h.Delete, http.MethodDelete, "", 42)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListMatchUps(t *testing.T) {
	store := newMemMatchUpStore()
	for _, m := range []model.MatchUp{
		{Fighter1: "A", Fighter2: "B", WinningOdds: 2.0},
		{Fighter1: "C", Fighter2: "D", WinningOdds: 1.5},
	} {
		_, err := store.Create(context.Background(), m)
		require.NoError(t, err)
	}
	h := NewMatchUpHandler(store)

	rec, err := doMatchUp(h.List, http.MethodGet, "", 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []matchupResponse   `json:"data"`
		Meta repository.PageMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, int64(2), body.Meta.Total)
}
