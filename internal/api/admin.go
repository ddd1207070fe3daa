package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PierreBultez/WendysDiner/internal/cart"
	"github.com/PierreBultez/WendysDiner/internal/order"
	"github.com/PierreBultez/WendysDiner/internal/payment"
	"github.com/PierreBultez/WendysDiner/internal/pos"
	"github.com/PierreBultez/WendysDiner/pkg/logger"
	"github.com/PierreBultez/WendysDiner/pkg/money"
)

// AdminHandler is the staff surface: the order board, the POS register
// and counter settlement of pay-at-pickup orders.
type AdminHandler struct {
	pos   *pos.Service
	carts cart.Store
	log   *logger.Logger
}

func NewAdminHandler(svc *pos.Service, carts cart.Store, log *logger.Logger) *AdminHandler {
	return &AdminHandler{pos: svc, carts: carts, log: log}
}

// ListOrders returns one day's orders, today by default, optionally
// filtered with ?date=2026-08-28&status=to_pay|in_progress|completed.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := order.Status(r.URL.Query().Get("status"))
	switch status {
	case "", order.StatusToPay, order.StatusInProgress, order.StatusCompleted:
	default:
		jsonError(w, http.StatusBadRequest, "unknown status filter")
		return
	}

	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, time.Local)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	orders, err := h.pos.OrdersForDate(r.Context(), day, status)
	if err != nil {
		h.log.Error("", "orders_load_failed", "Could not load today's orders", err)
		jsonError(w, http.StatusInternalServerError, "could not load orders")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// GetOrder returns one order with its payment rows.
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.pos.OrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("", "order_load_failed", "Could not load order", err)
		jsonError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	payments, err := h.pos.PaymentsFor(r.Context(), id)
	if err != nil {
		h.log.Error("", "payments_load_failed", "Could not load payments", err)
		jsonError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"order":    o,
		"payments": payments,
	})
}

// CompleteOrder marks an order picked up or delivered.
func (h *AdminHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.pos.CompleteOrder(r.Context(), id); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("", "order_complete_failed", "Could not complete order", err)
		jsonError(w, http.StatusInternalServerError, "could not complete order")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": string(order.StatusCompleted)})
}

type tenderPayload struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type registerSaleRequest struct {
	Tenders      []tenderPayload `json:"tenders"`
	CashReceived string          `json:"cash_received"`
}

// RegisterSale rings up the staff cart as an immediate walk-in sale.
// The tender lines must cover the cart total; the response includes the
// cash change due for what the customer handed over.
func (h *AdminHandler) RegisterSale(w http.ResponseWriter, r *http.Request) {
	sid, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req registerSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := h.carts.Get(sid)
	ledger, ok := h.buildLedger(w, c.Total(), req.Tenders)
	if !ok {
		return
	}

	o, err := h.pos.RegisterSale(r.Context(), c, ledger)
	if err != nil {
		h.writeLedgerError(w, "register sale", err)
		return
	}

	change := ledger.ChangeDue(req.CashReceived)
	h.carts.Forget(sid)

	jsonResponse(w, http.StatusCreated, map[string]interface{}{
		"order":      o,
		"change_due": money.Format(change),
	})
}

type settleRequest struct {
	Tenders      []tenderPayload `json:"tenders"`
	CashReceived string          `json:"cash_received"`
}

// SettleOrder cashes in a pay-at-pickup order at the counter.
func (h *AdminHandler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.pos.OrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "order not found")
			return
		}
		h.log.Error("", "order_load_failed", "Could not load order", err)
		jsonError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	ledger, ok := h.buildLedger(w, o.Total, req.Tenders)
	if !ok {
		return
	}

	if err := h.pos.SettleOrder(r.Context(), id, ledger); err != nil {
		h.writeLedgerError(w, "settle order", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":     string(order.StatusInProgress),
		"change_due": money.Format(ledger.ChangeDue(req.CashReceived)),
	})
}

func (h *AdminHandler) buildLedger(w http.ResponseWriter, total decimal.Decimal, tenders []tenderPayload) (*payment.Ledger, bool) {
	ledger := payment.NewLedger(total)
	for _, t := range tenders {
		if err := ledger.AddTender(t.Method, t.Amount); err != nil {
			jsonError(w, http.StatusUnprocessableEntity, err.Error())
			return nil, false
		}
	}
	return ledger, true
}

func (h *AdminHandler) writeLedgerError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, payment.ErrInsufficient),
		errors.Is(err, payment.ErrInvalidTender),
		errors.Is(err, pos.ErrNotSettleable):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, order.ErrNotFound):
		jsonError(w, http.StatusNotFound, "order not found")
	default:
		h.log.Error("", "pos_failed", "Could not "+action, err)
		jsonError(w, http.StatusInternalServerError, "could not "+action)
	}
}
