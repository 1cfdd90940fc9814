package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
)

// Ledger queries and writes shared by the engines. Every function takes
// the transaction handle it must run in; begin/commit/rollback belongs
// to the orchestrating caller, never to this layer.

// loadPlan fetches a plan by id
func loadPlan(tx *gorm.DB, planID uint) (*models.Plan, error) {
	var plan models.Plan
	if err := tx.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan %d: %w", planID, ErrPlanNotFound)
		}
		return nil, err
	}
	return &plan, nil
}

// allInstallments returns every installment of the plan ascending by
// number, settled rows included. Carry-forward needs the settled rows
// because a parked overpayment can sit on a fully paid installment.
func allInstallments(tx *gorm.DB, planID uint) ([]*models.Installment, error) {
	var installments []*models.Installment
	err := tx.
		Where("plan_id = ?", planID).
		Order("number asc").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// unsettledInstallments returns the plan's installments excluding
// terminal paid/refunded/cancelled states, ascending by number.
func unsettledInstallments(tx *gorm.DB, planID uint) ([]*models.Installment, error) {
	var installments []*models.Installment
	err := tx.
		Where("plan_id = ? AND status NOT IN ?", planID, models.SettledStatuses).
		Order("number asc").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// unsettledInstallmentsDueBy narrows the unsettled set to rows due on
// or before asOf (compared on calendar days in loc).
func unsettledInstallmentsDueBy(tx *gorm.DB, planID uint, asOf time.Time, loc *time.Location) ([]*models.Installment, error) {
	all, err := unsettledInstallments(tx, planID)
	if err != nil {
		return nil, err
	}
	cutoff := DateIn(asOf, loc)
	var due []*models.Installment
	for _, inst := range all {
		if !DateIn(inst.DueDate, loc).After(cutoff) {
			due = append(due, inst)
		}
	}
	return due, nil
}

// persistInstallment writes the mutable installment fields guarded by
// the optimistic version token, bumping the in-memory version on
// success so the same struct can be persisted again later in the
// transaction.
func persistInstallment(tx *gorm.DB, inst *models.Installment) error {
	updates := map[string]interface{}{
		"late_interest":              inst.LateInterest,
		"overpayment_carried":        inst.OverpaymentCarried,
		"total_due_amount":           inst.TotalDueAmount,
		"paid_base":                  inst.PaidBase,
		"paid_late_interest":         inst.PaidLateInterest,
		"last_payment_date":          inst.LastPaymentDate,
		"last_interest_applied_date": inst.LastInterestAppliedDate,
		"status":                     inst.Status,
	}
	if err := commitVersioned(tx, &models.Installment{}, inst.ID, inst.Version, updates); err != nil {
		return fmt.Errorf("installment %d: %w", inst.ID, err)
	}
	inst.Version++
	return nil
}

// persistPlan writes the mutable plan fields guarded by the version token
func persistPlan(tx *gorm.DB, plan *models.Plan) error {
	updates := map[string]interface{}{
		"remaining_installments": plan.RemainingInstallments,
		"next_due_date":          plan.NextDueDate,
		"status":                 plan.Status,
	}
	if err := commitVersioned(tx, &models.Plan{}, plan.ID, plan.Version, updates); err != nil {
		return fmt.Errorf("plan %d: %w", plan.ID, err)
	}
	plan.Version++
	return nil
}
