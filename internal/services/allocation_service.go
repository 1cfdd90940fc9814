package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
)

// AllocationService applies an incoming payment across a plan's
// unsettled installments in a fixed waterfall: oldest arrears first,
// then accrued late interest, then unpaid base, walking ascending
// installment numbers from the target.
type AllocationService struct {
	db        *gorm.DB
	loc       *time.Location
	planTypes *PlanTypeService
	snapshots *SnapshotService
	lifecycle *LifecycleService
}

func NewAllocationService(db *gorm.DB, loc *time.Location, planTypes *PlanTypeService, snapshots *SnapshotService, lifecycle *LifecycleService) *AllocationService {
	return &AllocationService{
		db:        db,
		loc:       loc,
		planTypes: planTypes,
		snapshots: snapshots,
		lifecycle: lifecycle,
	}
}

// Allocate distributes amount over the unsettled ledger starting at the
// target installment. The ledger must be ordered ascending by number.
// Mutates the touched installments in place and returns them; nothing
// is persisted here.
//
// Any residue left after the last unsettled installment is exhausted is
// parked on that installment's OverpaymentCarried, never dropped.
func (s *AllocationService) Allocate(ledger []*models.Installment, target *models.Installment, amount decimal.Decimal, now time.Time, graceDays int) ([]*models.Installment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// Start at the target, or at the next unsettled installment when
	// the target itself is already settled.
	start := -1
	for i, inst := range ledger {
		if inst.Number >= target.Number {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("no unsettled installment at or after number %d: %w", target.Number, ErrInstallmentNotFound)
	}

	remaining := amount
	var touched []*models.Installment
	var last *models.Installment

	for _, inst := range ledger[start:] {
		if inst.Status.IsSettled() {
			continue
		}
		last = inst
		if !remaining.IsPositive() {
			break
		}

		changed := false

		// Accrued late interest before base, per bucket order.
		if pay := decimal.Min(inst.UnpaidLateInterest(), remaining); pay.IsPositive() {
			inst.PaidLateInterest = inst.PaidLateInterest.Add(pay)
			remaining = remaining.Sub(pay)
			changed = true
		}
		if pay := decimal.Min(inst.UnpaidBase(), remaining); pay.IsPositive() {
			inst.PaidBase = inst.PaidBase.Add(pay)
			remaining = remaining.Sub(pay)
			changed = true
		}

		if changed {
			stamp := now
			inst.LastPaymentDate = &stamp
			s.classify(inst, now, graceDays)
			touched = append(touched, inst)
		}
	}

	if remaining.IsPositive() && last != nil {
		last.OverpaymentCarried = last.OverpaymentCarried.Add(remaining)
		stamp := now
		last.LastPaymentDate = &stamp
		if !containsInstallment(touched, last) {
			touched = append(touched, last)
		}
	}

	return touched, nil
}

// classify derives the installment status from its buckets and the
// grace window around the due date.
func (s *AllocationService) classify(inst *models.Installment, now time.Time, graceDays int) {
	if inst.Status.IsSettled() {
		return
	}

	graceEnd := DateIn(inst.DueDate, s.loc).AddDate(0, 0, graceDays)
	onTime := !DateIn(now, s.loc).After(graceEnd)

	switch {
	case inst.IsFullySettledByAmounts():
		if onTime {
			inst.Status = models.InstallmentStatusPaidOnTime
		} else {
			inst.Status = models.InstallmentStatusPaidLate
		}
	case inst.AmountPaid().IsPositive():
		if onTime {
			inst.Status = models.InstallmentStatusPartiallyPaidOnTime
		} else {
			inst.Status = models.InstallmentStatusPartiallyPaidLate
		}
	}
}

// ApplyPayment runs the waterfall for one inbound payment inside a
// single transaction: allocate, persist every touched row under its
// version token, refresh the plan bookkeeping and the settlement
// snapshot. Returns the mutated installments.
func (s *AllocationService) ApplyPayment(ctx context.Context, installmentID uint, amount decimal.Decimal) ([]*models.Installment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var touched []*models.Installment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Installment
		if err := tx.First(&target, installmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("installment %d: %w", installmentID, ErrInstallmentNotFound)
			}
			return err
		}

		plan, err := loadPlan(tx, target.PlanID)
		if err != nil {
			return err
		}
		if plan.Status.IsTerminal() {
			return &TransitionError{From: plan.Status, To: plan.Status, Reason: "plan no longer accepts payments"}
		}

		planType, err := s.planTypes.Lookup(ctx, plan.PlanTypeID)
		if err != nil {
			return err
		}

		ledger, err := unsettledInstallments(tx, plan.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		touched, err = s.Allocate(ledger, &target, amount, now, planType.GraceDays)
		if err != nil {
			return err
		}

		for _, inst := range touched {
			if err := persistInstallment(tx, inst); err != nil {
				return err
			}
		}

		if err := s.lifecycle.RefreshAfterPayment(tx, plan); err != nil {
			return err
		}

		// The ledger changed materially, so the current quote is stale.
		// A plan that just completed has nothing left to quote.
		if _, err := s.snapshots.Generate(tx, plan, now); err != nil && !errors.Is(err, ErrEmptyLedger) {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func containsInstallment(list []*models.Installment, inst *models.Installment) bool {
	for _, i := range list {
		if i == inst {
			return true
		}
	}
	return false
}
