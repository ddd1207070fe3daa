package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PierreBultez/WendysDiner/internal/checkout"
	"github.com/PierreBultez/WendysDiner/internal/gateway"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	log      *logger.Logger
}

func NewCheckoutHandler(svc *checkout.Service, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, log: log}
}

// GetSlots returns the live pickup grid for today.
func (h *CheckoutHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.checkout.Slots(r.Context())
	if err != nil {
		h.log.Error("", "slots_load_failed", "Could not compute pickup slots", err)
		jsonError(w, http.StatusInternalServerError, "could not load pickup slots")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"slots": slots})
}

type checkoutRequest struct {
	UserID          *int64 `json:"user_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	DeliveryMethod  string `json:"delivery_method"`
	PaymentMethod   string `json:"payment_method"`
	Slot            string `json:"slot"`
}

// PlaceOrder runs the checkout. On a slot conflict the response carries
// a refreshed grid so the client can re-prompt without a second call.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.checkout.Process(r.Context(), checkout.Request{
		SessionID:       sid,
		UserID:          req.UserID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		Slot:            req.Slot,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	body := map[string]interface{}{
		"order":     result.Order,
		"finalized": result.Finalized,
	}
	if result.GatewayToken != "" {
		body["gateway_token"] = result.GatewayToken
	}
	jsonResponse(w, http.StatusCreated, body)
}

// GatewaySuccess is the return leg of the hosted payment page: capture
// confirmed, so the to_pay order moves to in_progress and finalizes.
func (h *CheckoutHandler) GatewaySuccess(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.checkout.HandleGatewaySuccess(r.Context(), id, sid)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("", "gateway_success_failed", "Could not finalize gateway order", err)
		jsonError(w, http.StatusInternalServerError, "could not finalize order")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"order": o})
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var v *checkout.ValidationError
	if errors.As(err, &v) {
		jsonResponse(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": v.Fields,
		})
		return
	}

	if errors.Is(err, order.ErrSlotTaken) {
		slots, slotsErr := h.checkout.Slots(r.Context())
		if slotsErr != nil {
			slots = nil
		}
		jsonResponse(w, http.StatusConflict, map[string]interface{}{
			"error": "pickup slot already taken",
			"slots": slots,
		})
		return
	}

	var gw *gateway.Error
	if errors.As(err, &gw) {
		jsonError(w, http.StatusBadGateway, "payment provider rejected the order")
		return
	}

	h.log.Error("", "checkout_failed", "Checkout failed", err)
	jsonError(w, http.StatusInternalServerError, "could not place order")
}
