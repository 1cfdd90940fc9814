package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"bnpl_backend_echo/internal/services"
)

type SettlementHandler struct {
	snapshots *services.SnapshotService
	batch     *services.BatchService
}

func NewSettlementHandler(snapshots *services.SnapshotService, batch *services.BatchService) *SettlementHandler {
	return &SettlementHandler{snapshots: snapshots, batch: batch}
}

// GenerateSettlement refreshes the plan's settlement quote
func (h *SettlementHandler) GenerateSettlement(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	snapshot, err := h.snapshots.GenerateForPlan(c.Request().Context(), id, time.Now())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, snapshot)
}

// GetLatestSettlement returns the plan's current active quote
func (h *SettlementHandler) GetLatestSettlement(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	snapshot, err := h.snapshots.Latest(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, snapshot)
}

// RunBatchAccrual triggers the accrual pipeline over all active plans
func (h *SettlementHandler) RunBatchAccrual(c echo.Context) error {
	var req RunAccrualRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	asOf := time.Now()
	if req.AsOfDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.AsOfDate, services.BusinessLocation())
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "as_of_date must be YYYY-MM-DD")
		}
		asOf = parsed
	}

	summaries, err := h.batch.RunBatchAccrual(c.Request().Context(), asOf)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"plans": summaries,
	})
}
