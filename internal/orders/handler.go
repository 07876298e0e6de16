package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/shopflow/internal/auth"
	"github.com/joao-fontenele/shopflow/internal/domain"
)

type Placer interface {
	PlaceOrder(ctx context.Context, userID int64, items []domain.OrderItem) (*domain.Order, error)
	History(ctx context.Context, userID int64) ([]domain.Order, error)
}

type Handler struct {
	service Placer
	logger  *slog.Logger
}

func NewHandler(service Placer, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createOrderRequest struct {
	Items []domain.OrderItem `json:"items"`
}

type createOrderResponse struct {
	Message  string   `json:"message"`
	OrderID  string   `json:"order_id"`
	Warnings []string `json:"warnings,omitempty"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), id.UserID, req.Items)
	if order == nil {
		switch {
		case errors.Is(err, domain.ErrValidation),
			errors.Is(err, domain.ErrProductNotFound),
			errors.Is(err, domain.ErrInsufficientStock):
			h.logger.Info("order rejected", "reason", err.Error(), "user_id", id.UserID)
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to place order", "error", err, "user_id", id.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	resp := createOrderResponse{
		Message: "order placed successfully",
		OrderID: order.ID,
	}
	if err != nil {
		h.logger.Error("order placed without sales aggregation", "error", err, "order_id", order.ID)
		resp.Warnings = append(resp.Warnings, "sales aggregation failed; reports may lag")
	} else {
		h.logger.Info("order placed", "order_id", order.ID, "user_id", id.UserID, "total", order.TotalAmount.String())
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.service.History(r.Context(), id.UserID)
	if err != nil {
		h.logger.Error("failed to load order history", "error", err, "user_id", id.UserID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	h.logger.Info("order history listed", "user_id", id.UserID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
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
