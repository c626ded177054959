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

	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
	"github.com/fightcard/fightcard-api/internal/storage"
)

// FighterStore is the persistence surface the fighter endpoints need.
// *repository.FighterRepo satisfies it.
type FighterStore interface {
	Create(ctx context.Context, f model.Fighter) (model.Fighter, error)
	GetByID(ctx context.Context, id uint64) (model.Fighter, error)
	Update(ctx context.Context, f model.Fighter) (model.Fighter, error)
	Delete(ctx context.Context, id uint64) error
	Page(ctx context.Context, page int) ([]model.Fighter, repository.PageMeta, error)
}

// FighterHandler implements the fighters CRUD. Routes require
// authentication but no capability tag: every signed-in user may manage
// fighters.
type FighterHandler struct {
	Fighters FighterStore
	Files    *storage.FileStore
}

func NewFighterHandler(fighters FighterStore, files *storage.FileStore) *FighterHandler {
	return &FighterHandler{Fighters: fighters, Files: files}
}

type fighterReq struct {
	Name   string  `json:"name"`
	Record int     `json:"record"`
	Age    *int64  `json:"age"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Reach  float64 `json:"reach"`
}

type fighterResponse struct {
	ID     uint64  `json:"id"`
	Name   string  `json:"name"`
	Record int     `json:"record"`
	Age    *int64  `json:"age,omitempty"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Reach  float64 `json:"reach"`
	Image  string  `json:"image,omitempty"`
}

func newFighterResponse(f model.Fighter) fighterResponse {
	resp := fighterResponse{
		ID: f.ID, Name: f.Name, Record: f.Record,
		Height: f.Height, Weight: f.Weight, Reach: f.Reach,
	}
	if f.Age.Valid {
		age := f.Age.Int64
		resp.Age = &age
	}
	if f.Image.Valid {
		resp.Image = f.Image.String
	}
	return resp
}

func (r fighterReq) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name is required"
	}
	if r.Record < 0 {
		return "record cannot be negative"
	}
	if r.Height <= 0 || r.Weight <= 0 || r.Reach <= 0 {
		return "height, weight and reach must be positive"
	}
	return ""
}

func (r fighterReq) apply(f model.Fighter) model.Fighter {
	f.Name = strings.TrimSpace(r.Name)
	f.Record = r.Record
	if r.Age != nil {
		f.Age = sql.NullInt64{Int64: *r.Age, Valid: true}
	} else {
		f.Age = sql.NullInt64{}
	}
	f.Height = r.Height
	f.Weight = r.Weight
	f.Reach = r.Reach
	return f
}

// List returns one page of fighters.
func (h *FighterHandler) List(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "page must be a positive integer")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fighters, meta, err := h.Fighters.Page(ctx, page)
	if err != nil {
		log.Printf("fighters: list failed: %v", err)
		return failInternal(c, "could not list fighters")
	}
	out := make([]fighterResponse, 0, len(fighters))
	for _, f := range fighters {
		out = append(out, newFighterResponse(f))
	}
	return c.JSON(http.StatusOK, pagedResponse{Data: out, Meta: meta})
}

// Get returns a single fighter.
func (h *FighterHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Fighters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "fighter not found")
		}
		log.Printf("fighters: get failed: %v", err)
		return failInternal(c, "could not load fighter")
	}
	return c.JSON(http.StatusOK, newFighterResponse(f))
}

// Create adds a fighter.
func (h *FighterHandler) Create(c echo.Context) error {
	var req fighterReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, kindValidation, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Fighters.Create(ctx, req.apply(model.Fighter{}))
	if err != nil {
		log.Printf("fighters: create failed: %v", err)
		return failInternal(c, "could not create fighter")
	}
	return c.JSON(http.StatusCreated, newFighterResponse(f))
}

// Update replaces a fighter's mutable fields.
func (h *FighterHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	var req fighterReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return fail(c, http.StatusBadRequest, kindValidation, msg)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Fighters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "fighter not found")
		}
		log.Printf("fighters: get for update failed: %v", err)
		return failInternal(c, "could not update fighter")
	}

	updated, err := h.Fighters.Update(ctx, req.apply(f))
	if err != nil {
		log.Printf("fighters: update failed: %v", err)
		return failInternal(c, "could not update fighter")
	}
	return c.JSON(http.StatusOK, newFighterResponse(updated))
}

// Delete removes a fighter.
func (h *FighterHandler) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Fighters.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "fighter not found")
		}
		log.Printf("fighters: delete failed: %v", err)
		return failInternal(c, "could not delete fighter")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// UploadImage stores a validated image and attaches it to the fighter,
// replacing any previous image file.
func (h *FighterHandler) UploadImage(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "invalid id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, kindValidation, "image file is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	f, err := h.Fighters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, kindNotFound, "fighter not found")
		}
		log.Printf("fighters: get for upload failed: %v", err)
		return failInternal(c, "could not upload image")
	}

	name, err := h.Files.Save(fh)
	if err != nil {
		if errors.Is(err, storage.ErrBadType) {
			return fail(c, http.StatusBadRequest, kindValidation, err.Error())
		}
		log.Printf("fighters: save image failed: %v", err)
		return failInternal(c, "could not upload image")
	}

	old := f.Image
	f.Image = sql.NullString{String: name, Valid: true}
	updated, err := h.Fighters.Update(ctx, f)
	if err != nil {
		h.Files.Remove(name)
		log.Printf("fighters: attach image failed: %v", err)
		return failInternal(c, "could not upload image")
	}
	if old.Valid && old.String != name {
		h.Files.Remove(old.String)
	}
	return c.JSON(http.StatusCreated, newFighterResponse(updated))
}
