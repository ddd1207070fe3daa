// Package api wires the HTTP surface: the public menu/cart/checkout
// routes and the staff order board and POS register.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter assembles every route on a gorilla/mux router.
func NewRouter(menu *MenuHandler, carts *CartHandler, checkout *CheckoutHandler, admin *AdminHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/menu", menu.GetMenu).Methods(http.MethodGet)
	r.HandleFunc("/menu/products/{id}", menu.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/loyalty/tiers", menu.GetLoyaltyTiers).Methods(http.MethodGet)

	r.HandleFunc("/cart", carts.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", carts.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/cart/items", carts.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id}", carts.UpdateItem).Methods(http.MethodPatch)
	r.HandleFunc("/cart/items/{id}", carts.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/cart/menus", carts.AddMenu).Methods(http.MethodPost)
	r.HandleFunc("/cart/kids-menus", carts.AddKidsMenu).Methods(http.MethodPost)
	r.HandleFunc("/cart/rewards", carts.AddReward).Methods(http.MethodPost)

	r.HandleFunc("/slots", checkout.GetSlots).Methods(http.MethodGet)
	r.HandleFunc("/checkout", checkout.PlaceOrder).Methods(http.MethodPost)
	r.HandleFunc("/checkout/orders/{id}/gateway-success", checkout.GatewaySuccess).Methods(http.MethodPost)

	staff := r.PathPrefix("/admin").Subrouter()
	staff.HandleFunc("/orders", admin.ListOrders).Methods(http.MethodGet)
	staff.HandleFunc("/orders/{id}", admin.GetOrder).Methods(http.MethodGet)
	staff.HandleFunc("/orders/{id}/complete", admin.CompleteOrder).Methods(http.MethodPost)
	staff.HandleFunc("/orders/{id}/settle", admin.SettleOrder).Methods(http.MethodPost)
	staff.HandleFunc("/pos/sales", admin.RegisterSale).Methods(http.MethodPost)

	return r
}
