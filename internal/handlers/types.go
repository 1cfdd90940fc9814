package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound payloads.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// CreatePlanRequest elects pay-later for an order
type CreatePlanRequest struct {
	OrderID        uint            `json:"order_id" validate:"required"`
	PlanTypeID     uint            `json:"plan_type_id" validate:"required"`
	InitialPayment decimal.Decimal `json:"initial_payment"`
	StartDate      string          `json:"start_date"` // YYYY-MM-DD, defaults to today
}

// ApplyPaymentRequest carries one inbound payment
type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// CancelPlanRequest carries the operator-provided cancellation reason
type CancelPlanRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RunAccrualRequest optionally pins the batch reference date
type RunAccrualRequest struct {
	AsOfDate string `json:"as_of_date"` // YYYY-MM-DD, defaults to today
}

// InitiateSettlementPaymentRequest opens a gateway checkout for a quote
type InitiateSettlementPaymentRequest struct {
	ForceNew    bool   `json:"force_new"`
	CallbackURL string `json:"callback_url"`
}

// pathID parses the :id path parameter
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
