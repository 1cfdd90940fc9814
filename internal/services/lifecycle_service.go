package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
)

// TransitionResult reports an accepted plan status change. Illegal
// moves come back as a *TransitionError instead, so callers decide on
// a value, not on a panic path.
type TransitionResult struct {
	From models.PlanStatus
	To   models.PlanStatus
}

// allowedTransitions is the whole state machine:
// incomplete -> active -> {completed, cancelled, defaulted}.
// Terminal states have no exits.
var allowedTransitions = map[models.PlanStatus][]models.PlanStatus{
	models.PlanStatusIncomplete: {models.PlanStatusActive, models.PlanStatusCancelled},
	models.PlanStatusActive:     {models.PlanStatusCompleted, models.PlanStatusCancelled, models.PlanStatusDefaulted},
}

// Transition validates and applies a status change on the in-memory
// plan. Persistence is the caller's job.
func Transition(plan *models.Plan, to models.PlanStatus) (TransitionResult, error) {
	from := plan.Status
	if from.IsTerminal() {
		return TransitionResult{}, &TransitionError{From: from, To: to, Reason: "status is terminal"}
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			plan.Status = to
			return TransitionResult{From: from, To: to}, nil
		}
	}
	return TransitionResult{}, &TransitionError{From: from, To: to, Reason: "transition not permitted"}
}

// LifecycleService drives plan, installment and snapshot status
// transitions triggered by activation, full payment, refund or
// cancellation.
type LifecycleService struct {
	db        *gorm.DB
	loc       *time.Location
	planTypes *PlanTypeService
}

func NewLifecycleService(db *gorm.DB, loc *time.Location, planTypes *PlanTypeService) *LifecycleService {
	return &LifecycleService{db: db, loc: loc, planTypes: planTypes}
}

// CreatePlan elects pay-later for an order. The financed principal is
// the order total less the initial payment, marked up by the plan
// type's flat interest rate and split evenly across the scheduled
// installments; the rounding remainder lands on the final one.
func (s *LifecycleService) CreatePlan(ctx context.Context, orderID, planTypeID uint, initialPayment decimal.Decimal, startDate time.Time) (*models.Plan, error) {
	if initialPayment.IsNegative() {
		return nil, ErrInvalidAmount
	}

	planType, err := s.planTypes.Lookup(ctx, planTypeID)
	if err != nil {
		return nil, err
	}
	if err := validatePlanType(planType); err != nil {
		return nil, err
	}

	var plan *models.Plan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrPlanNotFound)
			}
			return err
		}

		financed := order.TotalAmount.Sub(initialPayment).
			Mul(decimal.NewFromInt(1).Add(planType.InterestRate)).
			Round(2)
		if !financed.IsPositive() {
			return fmt.Errorf("order %d leaves nothing to finance: %w", orderID, ErrInvalidAmount)
		}

		n := planType.TotalInstallments
		perInstallment := financed.Div(decimal.NewFromInt(int64(n))).Round(2)

		plan = &models.Plan{
			OrderID:               orderID,
			PlanTypeID:            planTypeID,
			TotalInstallments:     n,
			RemainingInstallments: n,
			InitialPayment:        initialPayment,
			InstallmentAmount:     perInstallment,
			StartDate:             startDate,
			Status:                models.PlanStatusIncomplete,
		}
		// The unique index on order_id keeps this at one plan per order.
		return tx.Create(plan).Error
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Activate accepts the initial payment and opens the plan: the full
// installment schedule is created in one batch and the plan moves to
// active.
func (s *LifecycleService) Activate(ctx context.Context, planID uint) (*models.Plan, error) {
	var plan *models.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = loadPlan(tx, planID)
		if err != nil {
			return err
		}

		if _, err := Transition(plan, models.PlanStatusActive); err != nil {
			return err
		}

		planType, err := s.planTypes.Lookup(ctx, plan.PlanTypeID)
		if err != nil {
			return err
		}
		if err := validatePlanType(planType); err != nil {
			return err
		}

		var order models.Order
		if err := tx.First(&order, plan.OrderID).Error; err != nil {
			return err
		}
		financed := order.TotalAmount.Sub(plan.InitialPayment).
			Mul(decimal.NewFromInt(1).Add(planType.InterestRate)).
			Round(2)

		installments := BuildSchedule(plan, planType, financed)
		if err := tx.Create(&installments).Error; err != nil {
			return err
		}

		first := installments[0].DueDate
		plan.NextDueDate = &first
		plan.RemainingInstallments = len(installments)
		return persistPlan(tx, plan)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Plan %d activated with %d installments", plan.ID, plan.TotalInstallments)
	return plan, nil
}

// validatePlanType rejects financing terms the schedule math cannot
// divide by. Checked after every plan-type lookup, before any plan or
// installment row is written.
func validatePlanType(planType *models.PlanType) error {
	if planType.TotalInstallments < 1 {
		return fmt.Errorf("plan type %d: total installments must be at least 1: %w", planType.ID, ErrInvalidPlanType)
	}
	return nil
}

// BuildSchedule lays out the installment rows for an activating plan.
// Due dates are spread evenly over the plan type's duration; the last
// installment absorbs the rounding remainder so the scheduled total
// matches the financed principal exactly.
func BuildSchedule(plan *models.Plan, planType *models.PlanType, financed decimal.Decimal) []*models.Installment {
	n := plan.TotalInstallments
	interval := planType.DurationDays / n
	if interval < 1 {
		interval = 1
	}

	installments := make([]*models.Installment, 0, n)
	scheduled := decimal.Zero

	for k := 1; k <= n; k++ {
		amount := plan.InstallmentAmount
		if k == n {
			amount = financed.Sub(scheduled)
		}
		scheduled = scheduled.Add(amount)

		inst := &models.Installment{
			PlanID:     plan.ID,
			Number:     k,
			BaseAmount: amount,
			DueDate:    plan.StartDate.AddDate(0, 0, k*interval),
			Status:     models.InstallmentStatusPending,
		}
		inst.RecomputeTotalDue()
		installments = append(installments, inst)
	}

	return installments
}

// RefreshAfterPayment recomputes the plan bookkeeping from the ledger
// and completes the plan once every installment is terminally paid.
// Runs inside the caller's transaction.
func (s *LifecycleService) RefreshAfterPayment(tx *gorm.DB, plan *models.Plan) error {
	open, err := unsettledInstallments(tx, plan.ID)
	if err != nil {
		return err
	}

	plan.RemainingInstallments = len(open)
	if len(open) > 0 {
		next := open[0].DueDate
		plan.NextDueDate = &next
	} else {
		plan.NextDueDate = nil
		if plan.Status == models.PlanStatusActive {
			if _, err := Transition(plan, models.PlanStatusCompleted); err != nil {
				return err
			}
			// Nothing is left to quote on a completed plan
			if err := tx.Model(&models.SettlementSnapshot{}).
				Where("plan_id = ? AND status = ?", plan.ID, models.SettlementSnapshotStatusActive).
				Updates(map[string]interface{}{
					"status":            models.SettlementSnapshotStatusCancelled,
					"active_latest_key": nil,
				}).Error; err != nil {
				return err
			}
		}
	}

	return persistPlan(tx, plan)
}

// Cancel terminates the plan and cascades: every non-terminal
// installment is cancelled and every active quote is retired.
func (s *LifecycleService) Cancel(ctx context.Context, planID uint, reason string) (*models.Plan, error) {
	plan, err := s.terminate(ctx, planID, models.PlanStatusCancelled, models.InstallmentStatusCancelled)
	if err != nil {
		return nil, err
	}
	log.Printf("Plan %d cancelled: %s", planID, reason)
	return plan, nil
}

// Refund terminates the plan after a refund: installments are marked
// refunded instead of cancelled, quotes are retired the same way.
func (s *LifecycleService) Refund(ctx context.Context, planID uint) (*models.Plan, error) {
	plan, err := s.terminate(ctx, planID, models.PlanStatusCancelled, models.InstallmentStatusRefunded)
	if err != nil {
		return nil, err
	}
	log.Printf("Plan %d refunded", planID)
	return plan, nil
}

// MarkDefaulted flags an abandoned plan. The ledger is closed out the
// same way as a cancellation; collections happen outside this system.
func (s *LifecycleService) MarkDefaulted(ctx context.Context, planID uint) (*models.Plan, error) {
	plan, err := s.terminate(ctx, planID, models.PlanStatusDefaulted, models.InstallmentStatusCancelled)
	if err != nil {
		return nil, err
	}
	log.Printf("Plan %d marked defaulted", planID)
	return plan, nil
}

func (s *LifecycleService) terminate(ctx context.Context, planID uint, planStatus models.PlanStatus, installmentStatus models.InstallmentStatus) (*models.Plan, error) {
	var plan *models.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		plan, err = loadPlan(tx, planID)
		if err != nil {
			return err
		}

		if _, err := Transition(plan, planStatus); err != nil {
			return err
		}

		if err := tx.Model(&models.Installment{}).
			Where("plan_id = ? AND status NOT IN ?", planID, models.SettledStatuses).
			Updates(map[string]interface{}{"status": installmentStatus}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.SettlementSnapshot{}).
			Where("plan_id = ? AND status = ?", planID, models.SettlementSnapshotStatusActive).
			Updates(map[string]interface{}{
				"status":            models.SettlementSnapshotStatusCancelled,
				"active_latest_key": nil,
			}).Error; err != nil {
			return err
		}

		plan.RemainingInstallments = 0
		plan.NextDueDate = nil
		return persistPlan(tx, plan)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}
