package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orderstack/go-commerce-orders/internal/catalog"
)

type Catalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) error
	Update(ctx context.Context, p catalog.Product) error
	Delete(ctx context.Context, id string) error
}

type CatalogHandler struct {
	Repo Catalog
	Log  *zap.Logger
}

type productReq struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Repo.List(r.Context())
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list products failed")
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error("get product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get product failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.PriceCents < 0 || req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	p := catalog.Product{
		ID:         uuid.NewString(),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
	}
	if err := h.Repo.Create(r.Context(), p); err != nil {
		h.Log.Error("create product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create product failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.PriceCents < 0 || req.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}

	p := catalog.Product{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
	}
	if err := h.Repo.Update(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error("update product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update product failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.Log.Error("delete product failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete product failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
