package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/catalog"
	"github.com/PierreBultez/WendysDiner/internal/loyalty"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
	"github.com/PierreBultez/WendysDiner/pkg/money"
)

// CartHandler exposes the session cart: plain items, the two menu
// wizards run to completion in a single request, and reward lines.
type CartHandler struct {
	carts     cart.Store
	catalog   Catalog
	surcharge decimal.Decimal
	log       *logger.Logger
}

func NewCartHandler(carts cart.Store, c Catalog, menuSurcharge decimal.Decimal, log *logger.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: c, surcharge: menuSurcharge, log: log}
}

type cartView struct {
	Items      []cart.LineItem `json:"items"`
	Total      string          `json:"total"`
	Count      int             `json:"count"`
	PointsCost int             `json:"points_cost,omitempty"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{
		Items:      c.Items(),
		Total:      money.Format(c.Total()),
		Count:      c.Count(),
		PointsCost: c.PointsCost(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, viewOf(h.carts.Get(sid)))
}

type addItemRequest struct {
	ProductID int64  `json:"product_id"`
	Notes     string `json:"notes"`
}

// AddItem puts one plain product line in the cart. Lines with the same
// product and notes merge by incrementing quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, ok := h.sellableProduct(w, r.Context(), req.ProductID)
	if !ok {
		return
	}

	c := h.carts.Get(sid)
	c.Add(cart.SoloItem(p, req.Notes))
	jsonResponse(w, http.StatusCreated, viewOf(c))
}

type addMenuRequest struct {
	BurgerID int64  `json:"burger_id"`
	Solo     bool   `json:"solo"`
	SideID   int64  `json:"side_id"`
	SauceID  *int64 `json:"sauce_id"` // null means "Sans Sauce"
	DrinkID  int64  `json:"drink_id"`
	Notes    string `json:"notes"`
}

// AddMenu composes a burger menu. The request carries the whole
// selection; the wizard still walks its steps in order so an
// inconsistent selection fails the same way a skipped step would.
func (h *CartHandler) AddMenu(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req addMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	burger, ok := h.productOfKind(w, r.Context(), req.BurgerID, catalog.KindBurger)
	if !ok {
		return
	}

	wizard := cart.NewMenuWizard(burger, h.surcharge)
	wizard.SetNotes(req.Notes)

	if req.Solo {
		c := h.carts.Get(sid)
		c.Add(wizard.Solo())
		jsonResponse(w, http.StatusCreated, viewOf(c))
		return
	}

	side, ok := h.productOfKind(w, r.Context(), req.SideID, catalog.KindSide)
	if !ok {
		return
	}
	sauce := cart.NoSauce()
	if req.SauceID != nil {
		p, ok := h.productOfKind(w, r.Context(), *req.SauceID, catalog.KindSauce)
		if !ok {
			return
		}
		sauce = cart.SauceOf(p)
	}
	drink, ok := h.productOfKind(w, r.Context(), req.DrinkID, catalog.KindDrink)
	if !ok {
		return
	}

	item, err := composeMenu(wizard, side, sauce, drink)
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c := h.carts.Get(sid)
	c.Add(item)
	jsonResponse(w, http.StatusCreated, viewOf(c))
}

func composeMenu(w *cart.MenuWizard, side catalog.Product, sauce cart.SauceChoice, drink catalog.Product) (cart.LineItem, error) {
	if err := w.StartBundle(); err != nil {
		return cart.LineItem{}, err
	}
	if err := w.ChooseSide(side); err != nil {
		return cart.LineItem{}, err
	}
	if err := w.ChooseSauce(sauce); err != nil {
		return cart.LineItem{}, err
	}
	if err := w.ChooseDrink(drink); err != nil {
		return cart.LineItem{}, err
	}
	return w.Confirm()
}

type addKidsMenuRequest struct {
	ProductID int64  `json:"product_id"`
	Choice    string `json:"choice"` // "burger" or "chunks"
	Sauce     string `json:"sauce"`
	Cheddar   bool   `json:"cheddar"`
	Notes     string `json:"notes"`
}

// AddKidsMenu composes a children's menu line.
func (h *CartHandler) AddKidsMenu(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req addKidsMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, ok := h.productOfKind(w, r.Context(), req.ProductID, catalog.KindChild)
	if !ok {
		return
	}

	item, err := composeKidsMenu(cart.NewKidsWizard(p), req)
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c := h.carts.Get(sid)
	c.Add(item)
	jsonResponse(w, http.StatusCreated, viewOf(c))
}

func composeKidsMenu(w *cart.KidsWizard, req addKidsMenuRequest) (cart.LineItem, error) {
	if err := w.Choose(cart.KidsChoice(req.Choice)); err != nil {
		return cart.LineItem{}, err
	}
	if err := w.ChooseSauce(req.Sauce); err != nil {
		return cart.LineItem{}, err
	}
	if w.Step() == cart.KidsStepCheddar {
		if err := w.ChooseCheddar(req.Cheddar); err != nil {
			return cart.LineItem{}, err
		}
	}
	if err := w.SetNotes(req.Notes); err != nil {
		return cart.LineItem{}, err
	}
	return w.Confirm()
}

type addRewardRequest struct {
	ProductID int64 `json:"product_id"`
	TierLevel int   `json:"tier_level"`
}

// AddReward puts a free loyalty-reward line in the cart. The points are
// only deducted when the order is placed.
func (h *CartHandler) AddReward(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req addRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tier, ok := loyalty.TierByLevel(req.TierLevel)
	if !ok {
		jsonError(w, http.StatusUnprocessableEntity, "unknown reward tier")
		return
	}

	p, ok := h.sellableProduct(w, r.Context(), req.ProductID)
	if !ok {
		return
	}
	if p.LoyaltyTier != tier.Level {
		jsonError(w, http.StatusUnprocessableEntity, "product is not a reward of that tier")
		return
	}

	c := h.carts.Get(sid)
	c.Add(cart.RewardItem(p, tier.Points))
	jsonResponse(w, http.StatusCreated, viewOf(c))
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := h.carts.Get(sid)
	id := cart.LineItemID(mux.Vars(r)["id"])
	if _, found := c.Get(id); !found {
		jsonError(w, http.StatusNotFound, "no such cart line")
		return
	}

	c.SetQuantity(id, req.Quantity)
	jsonResponse(w, http.StatusOK, viewOf(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	c := h.carts.Get(sid)
	c.Remove(cart.LineItemID(mux.Vars(r)["id"]))
	jsonResponse(w, http.StatusOK, viewOf(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	c := h.carts.Get(sid)
	c.Clear()
	jsonResponse(w, http.StatusOK, viewOf(c))
}

// sellableProduct loads a product and rejects unknown or unavailable
// ones with the right status code.
func (h *CartHandler) sellableProduct(w http.ResponseWriter, ctx context.Context, id int64) (catalog.Product, bool) {
	p, err := h.catalog.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "product not found")
		} else {
			h.log.Error("", "product_load_failed", "Could not load product", err)
			jsonError(w, http.StatusInternalServerError, "could not load product")
		}
		return catalog.Product{}, false
	}
	if !p.Available {
		jsonError(w, http.StatusUnprocessableEntity, "product is not available")
		return catalog.Product{}, false
	}
	return p, true
}

// productOfKind additionally checks the product's category kind, so a
// drink cannot be slotted where a side belongs.
func (h *CartHandler) productOfKind(w http.ResponseWriter, ctx context.Context, id int64, kind catalog.Kind) (catalog.Product, bool) {
	p, ok := h.sellableProduct(w, ctx, id)
	if !ok {
		return catalog.Product{}, false
	}
	cat, err := h.catalog.CategoryByID(ctx, p.CategoryID)
	if err != nil {
		h.log.Error("", "category_load_failed", "Could not load category", err)
		jsonError(w, http.StatusInternalServerError, "could not load product")
		return catalog.Product{}, false
	}
	if cat.Kind != kind {
		jsonError(w, http.StatusUnprocessableEntity, "product cannot fill that menu slot")
		return catalog.Product{}, false
	}
	return p, true
}
