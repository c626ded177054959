package handler

import (
	"context"
	"encoding/csv"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/model"
	"github.com/fightcard/fightcard-api/internal/repository"
)

// OrderStore is the read surface the reporting endpoints need.
// *repository.OrderRepo satisfies it.
type OrderStore interface {
	Page(ctx context.Context, page int) ([]model.Order, repository.PageMeta, error)
	All(ctx context.Context) ([]model.Order, error)
	Chart(ctx context.Context) ([]model.DailyRevenue, error)
}

// OrderHandler implements the orders reporting endpoints. Routes are behind
// the Orders capability.
type OrderHandler struct{ Orders OrderStore }

func NewOrderHandler(orders OrderStore) *OrderHandler { return &OrderHandler{Orders: orders} }

// orderResponse deliberately has no username field; the buyer's username is
// internal.
type orderResponse struct {
	ID         uint64    `json:"id"`
	Email      string    `json:"email"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// List returns one page of orders.
func (h *OrderHandler) List(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, kindValidation, "page must be a positive integer")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, meta, err := h.Orders.Page(ctx, page)
	if err != nil {
		log.Printf("orders: list failed: %v", err)
		return failInternal(c, "could not list orders")
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse{
			ID: o.ID, Email: o.Email, TotalCents: o.TotalCents, CreatedAt: o.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, pagedResponse{Data: out, Meta: meta})
}

// Export streams every order as a CSV attachment.
func (h *OrderHandler) Export(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	orders, err := h.Orders.All(ctx)
	if err != nil {
		log.Printf("orders: export failed: %v", err)
		return failInternal(c, "could not export orders")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write([]string{"id", "email", "total_cents", "created_at"}); err != nil {
		return err
	}
	for _, o := range orders {
		record := []string{
			strconv.FormatUint(o.ID, 10),
			o.Email,
			strconv.FormatInt(o.TotalCents, 10),
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Chart returns the summed order value per calendar day.
func (h *OrderHandler) Chart(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	points, err := h.Orders.Chart(ctx)
	if err != nil {
		log.Printf("orders: chart failed: %v", err)
		return failInternal(c, "could not build chart")
	}
	return c.JSON(http.StatusOK, points)
}
