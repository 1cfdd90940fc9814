package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
	"bnpl_backend_echo/internal/services"
)

type PlanHandler struct {
	db        *gorm.DB
	lifecycle *services.LifecycleService
}

func NewPlanHandler(db *gorm.DB, lifecycle *services.LifecycleService) *PlanHandler {
	return &PlanHandler{db: db, lifecycle: lifecycle}
}

// CreatePlan elects pay-later for an order
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	var req CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.StartDate, services.BusinessLocation())
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		startDate = parsed
	}

	plan, err := h.lifecycle.CreatePlan(c.Request().Context(), req.OrderID, req.PlanTypeID, req.InitialPayment, startDate)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, plan)
}

// ActivatePlan accepts the initial payment and opens the installment
// schedule
func (h *PlanHandler) ActivatePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	plan, err := h.lifecycle.Activate(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, plan)
}

// GetPlan returns the plan with its full ledger
func (h *PlanHandler) GetPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var plan models.Plan
	err = h.db.WithContext(c.Request().Context()).
		Preload("PlanType").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number asc")
		}).
		First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrPlanNotFound
		}
		return err
	}

	return c.JSON(http.StatusOK, plan)
}

// CancelPlan terminates the plan and cascades to its ledger and quotes
func (h *PlanHandler) CancelPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req CancelPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	plan, err := h.lifecycle.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, plan)
}

// RefundPlan terminates the plan after a refund
func (h *PlanHandler) RefundPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	plan, err := h.lifecycle.Refund(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, plan)
}
