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

// MatchUpStore is the persistence surface the matchup endpoints need.
// *repository.MatchUpRepo satisfies it.
type MatchUpStore interface {
	Create(ctx context.Context, m model.MatchUp) (model.MatchUp, error)
	GetByID(ctx context.Context, id uint64) (model.MatchUp, error)
	Update(ctx context.Context, m model.MatchUp) (model.MatchUp, error)
	Delete(ctx context.Context, id uint64) error
	Page(ctx context.Context, page int) ([]model.MatchUp, repository.PageMeta, error)
}

// MatchUpHandler implements the fight matchup CRUD. Like fighters, routes
// require authentication but no capability tag.
type MatchUpHandler struct{ MatchUps MatchUpStore }

func NewMatchUpHandler(matchups MatchUpStore) *MatchUpHandler {
	return &MatchUpHandler{MatchUps: matchups}
}

type matchupReq struct {
	Fighter1    string  `json:"fighter1"`
	Fighter2    string  `json:"fighter2"`
	WinningOdds float64 `json:"winning_odds"`
}

type matchupResponse struct {
	ID          uint64  `json:"id"`
	Fighter1    string  `json:"fighter1"`
	Fighter2    string  `json:"fighter2"`
	WinningOdds float64 `json:"winning_odds"`
}

func newMatchUpResponse(m model.MatchUp) matchupResponse {
	return matchupResponse{
		ID: m.ID, Fighter1: m.Fighter1, Fighter2: m.Fighter2,
		WinningOdds: m.WinningOdds,
	}
}

func (r matchupReq) validate() string {
	if strings.TrimSpace(r.Fighter1) == "" || strings.TrimSpace(r.Fighter2) == "" {
		return "both fighter names are required"
	}
	if r.WinningOdds <= 0 {
		return "winning_odds must be positive"
	}
	return ""
}

func (r matchupReq) apply(m model.MatchUp) model.MatchUp {
	m.Fighter1 = strings.TrimSpace(r.Fighter1)
	m.Fighter2 = strings.TrimSpace(r.Fighter2)
	m.WinningOdds = r.WinningOdds
	return m
}

// List returns one page of matchups.
func (h *MatchUpHandler) List(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "page must be a positive integer")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	matchups, meta, err := h.MatchUps.Page(ctx, page)
	if err != nil {
		log.Printf("matchups: list failed: %v", err)
		return failInternal(c, "could not list matchups")
	}
	out := make([]matchupResponse, 0, len(matchups))
	for _, m := range matchups {
		out = append(out, newMatchUpResponse(m))
	}
	return c.JSON(http.StatusOK, pagedResponse{Data: out, Meta: meta})
}

// Get returns a single matchup.
func (h *MatchUpHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.MatchUps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "matchup not found")
		}
		log.Printf("matchups: get failed: %v", err)
		return failInternal(c, "could not load matchup")
	}
	return c.JSON(http.StatusOK, newMatchUpResponse(m))
}

// Create adds a matchup.
func (h *MatchUpHandler) Create(c echo.Context) error {
	var req matchupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, kindValidation, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.MatchUps.Create(ctx, req.apply(model.MatchUp{}))
	if err != nil {
		log.Printf("matchups: create failed: %v", err)
		return failInternal(c, "could not create matchup")
	}
	return c.JSON(http.StatusCreated, newMatchUpResponse(m))
}

// Update replaces a matchup's mutable fields.
func (h *MatchUpHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	var req matchupReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, kindValidation, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.MatchUps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "matchup not found")
		}
		log.Printf("matchups: get for update failed: %v", err)
		return failInternal(c, "could not update matchup")
	}

	updated, err := h.MatchUps.Update(ctx, req.apply(m))
	if err != nil {
		log.Printf("matchups: update failed: %v", err)
		return failInternal(c, "could not update matchup")
	}
	return c.JSON(http.StatusOK, newMatchUpResponse(updated))
}

// Delete removes a matchup.
func (h *MatchUpHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.MatchUps.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "matchup not found")
		}
		log.Printf("matchups: delete failed: %v", err)
		return failInternal(c, "could not delete matchup")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
