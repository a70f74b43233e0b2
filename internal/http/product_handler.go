package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aryankodi12/AmazonWebScraper/internal/apperr"
	"github.com/aryankodi12/AmazonWebScraper/internal/model"
	"github.com/aryankodi12/AmazonWebScraper/internal/service"
)

type createProductRequest struct {
	ProductRef  string   `json:"product_ref" validate:"required"`
	TargetPrice *float64 `json:"target_price" validate:"omitempty,gte=0"`
}

type updateTargetPriceRequest struct {
	TargetPrice *float64 `json:"target_price" validate:"omitempty,gte=0"`
}

type productResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductRef   string    `json:"product_ref"`
	Title        string    `json:"title"`
	CurrentPrice float64   `json:"current_price"`
	TargetPrice  *float64  `json:"target_price,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toProductResponse(product model.Product) productResponse {
	return productResponse{
		ID:           product.ID,
		ProductRef:   product.ProductRef,
		Title:        product.Title,
		CurrentPrice: product.CurrentPrice,
		TargetPrice:  product.TargetPrice,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

type productHandler struct {
	s *Service
}

func (s *Service) newProductHandler() *productHandler {
	return &productHandler{s: s}
}

func (h *productHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.s.productSvc.ListAllProducts(r.Context())
	if err != nil {
		h.s.respondError(w, r, fmt.Errorf("product service list all products: %w", err))
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, product := range products {
		items = append(items, toProductResponse(product))
	}

	h.s.respondJSON(w, r, http.StatusOK, items)
}

func (h *productHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.s.respondError(w, r, apperr.ValidationErr.WrapParent(err))
		return
	}
	if err := h.s.validator.Validate(req); err != nil {
		h.s.respondError(w, r, err)
		return
	}

	product, err := h.s.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		ProductRef:  req.ProductRef,
		TargetPrice: req.TargetPrice,
	})
	if err != nil {
		h.s.respondError(w, r, fmt.Errorf("product service create product: %w", err))
		return
	}

	h.s.respondJSON(w, r, http.StatusCreated, toProductResponse(product))
}

func (h *productHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromURL(r)
	if err != nil {
		h.s.respondError(w, r, err)
		return
	}

	product, err := h.s.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		h.s.respondError(w, r, fmt.Errorf("product service get product: %w", err))
		return
	}

	h.s.respondJSON(w, r, http.StatusOK, toProductResponse(product))
}

func (h *productHandler) updateTargetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromURL(r)
	if err != nil {
		h.s.respondError(w, r, err)
		return
	}

	var req updateTargetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.s.respondError(w, r, apperr.ValidationErr.WrapParent(err))
		return
	}
	if err := h.s.validator.Validate(req); err != nil {
		h.s.respondError(w, r, err)
		return
	}

	product, err := h.s.productSvc.SetTargetPrice(r.Context(), id, req.TargetPrice)
	if err != nil {
		h.s.respondError(w, r, fmt.Errorf("product service set target price: %w", err))
		return
	}

	h.s.respondJSON(w, r, http.StatusOK, toProductResponse(product))
}

func (h *productHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromURL(r)
	if err != nil {
		h.s.respondError(w, r, err)
		return
	}

	if err := h.s.productSvc.DeleteProduct(r.Context(), id); err != nil {
		h.s.respondError(w, r, fmt.Errorf("product service delete product: %w", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func productIDFromURL(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		return uuid.Nil, apperr.ValidationErr.WrapParent(fmt.Errorf("parse product id: %w", err))
	}
	return id, nil
}
