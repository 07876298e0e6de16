// Package worker replays order.placed events into the sales aggregates. It
// fills the gap left when synchronous aggregation failed after an order
// committed; orders already aggregated are skipped by the applied ledger.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/shopflow/internal/domain"
	"github.com/joao-fontenele/shopflow/internal/messaging"
)

type SalesRecorder interface {
	RecordSale(ctx context.Context, sale domain.Sale) error
}

type SalesReplayHandler struct {
	recorder SalesRecorder
	logger   *slog.Logger
}

func NewSalesReplayHandler(recorder SalesRecorder, logger *slog.Logger) *SalesReplayHandler {
	return &SalesReplayHandler{
		recorder: recorder,
		logger:   logger,
	}
}

func (h *SalesReplayHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping undecodable order placed event", "error", err)
		return fmt.Errorf("unmarshal order placed event: %w: %w", messaging.ErrSkip, err)
	}

	if event.OrderID == "" || event.Timestamp.IsZero() {
		h.logger.Error("dropping incomplete order placed event", "order_id", event.OrderID)
		return fmt.Errorf("incomplete order placed event: %w", messaging.ErrSkip)
	}

	h.logger.Info("replaying order into sales aggregates", "order_id", event.OrderID, "lines", len(event.Lines))

	if err := h.recorder.RecordSale(ctx, event.Sale()); err != nil {
		h.logger.Error("failed to aggregate order", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("record sale for order %s: %w", event.OrderID, err)
	}

	return nil
}
