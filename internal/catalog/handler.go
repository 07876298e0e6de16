package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/joao-fontenele/shopflow/internal/domain"
)

type Store interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, categoryID int64) ([]domain.Product, error)
	Restock(ctx context.Context, id int64, quantity int) (*domain.Product, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		h.writeError(w, http.StatusBadRequest, "name must be 1 to 100 characters")
		return
	}

	category := &domain.Category{Name: name}
	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, domain.ErrDuplicateCategory) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to create category", "error", err, "name", name)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("category created", "category_id", category.ID)
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryNotFound):
			h.writeError(w, http.StatusNotFound, "category not found")
		case errors.Is(err, domain.ErrCategoryInUse):
			h.writeError(w, http.StatusConflict, "cannot delete category with associated products or sales")
		default:
			h.logger.Error("failed to delete category", "error", err, "category_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("category deleted", "category_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type createProductRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       domain.Money `json:"price"`
	Stock       int          `json:"stock"`
	CategoryID  int64        `json:"category_id"`
}

func (req createProductRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return domain.NewValidationError("name", "must not be empty")
	case req.Price < 0:
		return domain.NewValidationError("price", "must not be negative")
	case req.Stock < 0:
		return domain.NewValidationError("stock", "must not be negative")
	case req.Stock > domain.MaxQuantity:
		return domain.NewValidationError("stock", fmt.Sprintf("must not exceed %d", domain.MaxQuantity))
	case req.CategoryID <= 0:
		return domain.NewValidationError("category_id", "must be positive")
	}
	return nil
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			h.writeError(w, http.StatusBadRequest, "category not found")
			return
		}
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "category_id", product.CategoryID)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		categoryID = id
	}

	products, err := h.store.ListProducts(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("products listed", "count", len(products))
	h.writeJSON(w, http.StatusOK, products)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > domain.MaxQuantity {
		h.writeError(w, http.StatusBadRequest, domain.NewValidationError("quantity", fmt.Sprintf("must be between 1 and %d", domain.MaxQuantity)).Error())
		return
	}

	product, err := h.store.Restock(r.Context(), id, req.Quantity)
	if errors.Is(err, domain.ErrValidation) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to restock product", "error", err, "product_id", id, "quantity", req.Quantity)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product restocked", "product_id", id, "quantity", req.Quantity, "stock", product.Stock)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
