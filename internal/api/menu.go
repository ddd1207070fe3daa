package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/PierreBultez/WendysDiner/internal/catalog"
	"github.com/PierreBultez/WendysDiner/internal/loyalty"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

// Catalog is the read surface the menu and cart handlers need.
type Catalog interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	CategoryByID(ctx context.Context, id int64) (catalog.Category, error)
	ProductByID(ctx context.Context, id int64) (catalog.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]catalog.Product, error)
}

type MenuHandler struct {
	catalog Catalog
	log     *logger.Logger
}

func NewMenuHandler(c Catalog, log *logger.Logger) *MenuHandler {
	return &MenuHandler{catalog: c, log: log}
}

type menuCategory struct {
	catalog.Category
	Products []catalog.Product `json:"products"`
}

// GetMenu returns every category that has products, in display order,
// with its available products.
func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.log.Error("", "menu_load_failed", "Could not load categories", err)
		jsonError(w, http.StatusInternalServerError, "could not load menu")
		return
	}

	menu := make([]menuCategory, 0, len(categories))
	for _, cat := range categories {
		products, err := h.catalog.ProductsByCategory(r.Context(), cat.ID)
		if err != nil {
			h.log.Error("", "menu_load_failed", "Could not load products", err)
			jsonError(w, http.StatusInternalServerError, "could not load menu")
			return
		}
		menu = append(menu, menuCategory{Category: cat, Products: products})
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{"categories": menu})
}

// GetProduct returns a single product for the detail view.
func (h *MenuHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.catalog.ProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "product not found")
			return
		}
		h.log.Error("", "product_load_failed", "Could not load product", err)
		jsonError(w, http.StatusInternalServerError, "could not load product")
		return
	}

	jsonResponse(w, http.StatusOK, p)
}

// GetLoyaltyTiers returns the reward ladder.
func (h *MenuHandler) GetLoyaltyTiers(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{"tiers": loyalty.Tiers()})
}
