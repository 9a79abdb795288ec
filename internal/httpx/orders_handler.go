package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orderstack/go-commerce-orders/internal/identity"
	"github.com/orderstack/go-commerce-orders/internal/orders"
	"github.com/orderstack/go-commerce-orders/internal/redisx"
)

// Placements is the surface the order engine exposes to this layer.
type Placements interface {
	PlaceOrder(ctx context.Context, userID string, items []orders.ItemRequest) (orders.Order, error)
	ListOrders(ctx context.Context, userID string) ([]orders.Order, error)
}

type StatusReader interface {
	GetStatus(ctx context.Context, orderID string) (orders.Status, error)
}

type UserResolver interface {
	Resolve(ctx context.Context, username string) (identity.User, error)
}

type OrdersHandler struct {
	Engine   Placements
	Statuses StatusReader
	Users    UserResolver
	Redis    *redis.Client
	Log      *zap.Logger
}

type placeOrderReq struct {
	Items []orders.ItemRequest `json:"items"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrderStatus)
}

// caller extracts the already-authenticated identity. The auth layer in front
// of this service sets X-User after verifying credentials.
func (h *OrdersHandler) caller(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	username := r.Header.Get("X-User")
	if username == "" {
		writeError(w, http.StatusUnauthorized, "missing caller identity")
		return identity.User{}, false
	}
	u, err := h.Users.Resolve(r.Context(), username)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownUser) {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusServiceUnavailable, "identity lookup failed")
		}
		return identity.User{}, false
	}
	return u, true
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	o, err := h.Engine.PlaceOrder(r.Context(), u.ID, req.Items)
	if err != nil {
		h.writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) writePlacementError(w http.ResponseWriter, err error) {
	var stockErr *orders.InsufficientStockError
	switch {
	case errors.Is(err, orders.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.Is(err, orders.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrConcurrentModification):
		// Transient: the client may retry the whole request.
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.Log.Error("place order failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "temporary failure, retry the request")
	}
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}

	out, err := h.Engine.ListOrders(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error("list orders failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "temporary failure, retry the request")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, map[string]string{"status": s})
			return
		}
	}

	status, err := h.Statuses.GetStatus(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error("get order status failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "temporary failure, retry the request")
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Set(r.Context(), key, string(status), redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
