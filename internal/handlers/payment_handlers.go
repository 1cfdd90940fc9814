package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bnpl_backend_echo/internal/services"
)

type PaymentHandler struct {
	allocation         *services.AllocationService
	settlementPayments *services.SettlementPaymentService
	snapshots          *services.SnapshotService
}

func NewPaymentHandler(allocation *services.AllocationService, settlementPayments *services.SettlementPaymentService, snapshots *services.SnapshotService) *PaymentHandler {
	return &PaymentHandler{
		allocation:         allocation,
		settlementPayments: settlementPayments,
		snapshots:          snapshots,
	}
}

// ApplyPayment runs the payment waterfall starting at the target
// installment and returns the mutated rows.
func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	touched, err := h.allocation.ApplyPayment(c.Request().Context(), id, req.Amount)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"installments": touched,
	})
}

// InitiateSettlementPayment opens (or resumes) a gateway checkout for
// the referenced settlement quote.
func (h *PaymentHandler) InitiateSettlementPayment(c echo.Context) error {
	reference := c.Param("reference")

	var req InitiateSettlementPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	snapshot, err := h.snapshots.FindByReference(c.Request().Context(), reference)
	if err != nil {
		return err
	}

	result, err := h.settlementPayments.InitiatePayment(c.Request().Context(), snapshot, req.ForceNew, req.CallbackURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token":        result.Token,
		"redirect_url": result.RedirectURL,
		"is_existing":  result.IsExisting,
	})
}

// PaymentNotification receives the gateway webhook
func (h *PaymentHandler) PaymentNotification(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification payload")
	}

	if err := h.settlementPayments.HandleNotification(c.Request().Context(), payload); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
