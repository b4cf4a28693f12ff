package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deepworx/drinks-api/internal/drink"
	"github.com/deepworx/drinks-api/pkg/ginmw/httperr"
)

// Handler serves the drinks endpoints.
type Handler struct {
	drinks *drink.Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *drink.Service) *Handler {
	return &Handler{drinks: svc}
}

// List serves the public menu in short form.
func (h *Handler) List(c *gin.Context) {
	items, err := h.drinks.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]drink.ShortDrink, len(items))
	for i, d := range items {
		out[i] = d.Short()
	}
	c.JSON(http.StatusOK, drinksResponse[drink.ShortDrink]{Success: true, Drinks: out})
}

// ListDetail serves the menu in long form.
func (h *Handler) ListDetail(c *gin.Context) {
	items, err := h.drinks.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]drink.LongDrink, len(items))
	for i, d := range items {
		out[i] = d.Long()
	}
	c.JSON(http.StatusOK, drinksResponse[drink.LongDrink]{Success: true, Drinks: out})
}

func (h *Handler) Create(c *gin.Context) {
	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.Wrap(http.StatusBadRequest, err))
		return
	}

	d, err := h.drinks.Create(c.Request.Context(), req.Title, req.Recipe)
	if err != nil {
		_ = c.Error(domainError(err))
		return
	}
	c.JSON(http.StatusOK, drinksResponse[drink.LongDrink]{Success: true, Drinks: []drink.LongDrink{d.Long()}})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		return
	}

	var req drinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(httperr.Wrap(http.StatusBadRequest, err))
		return
	}

	d, err := h.drinks.Update(c.Request.Context(), id, drink.Patch{Title: req.Title, Recipe: req.Recipe})
	if err != nil {
		_ = c.Error(domainError(err))
		return
	}
	c.JSON(http.StatusOK, drinksResponse[drink.LongDrink]{Success: true, Drinks: []drink.LongDrink{d.Long()}})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := drinkID(c)
	if !ok {
		return
	}

	if err := h.drinks.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(domainError(err))
		return
	}
	c.JSON(http.StatusOK, deleteResponse{Success: true, Delete: id})
}

// drinkID parses the :id path segment. Ids that are not positive integers
// cannot name a drink and are reported as not found.
func drinkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(httperr.New(http.StatusNotFound))
		return 0, false
	}
	return id, true
}

func domainError(err error) error {
	switch {
	case errors.Is(err, drink.ErrNotFound):
		return httperr.Wrap(http.StatusNotFound, err)
	case errors.Is(err, drink.ErrInvalidDrink), errors.Is(err, drink.ErrDuplicateTitle):
		return httperr.Wrap(http.StatusUnprocessableEntity, err)
	default:
		return err
	}
}
