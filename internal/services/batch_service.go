package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
)

const (
	batchAccrualLockKey = "lock:batch_accrual"
	batchAccrualLockTTL = 10 * time.Minute
)

// ErrBatchInProgress means another accrual invocation currently holds
// the batch lock.
var ErrBatchInProgress = errors.New("batch accrual already in progress")

// PlanAccrualSummary reports what the batch did to one plan
type PlanAccrualSummary struct {
	PlanID             uint `json:"plan_id"`
	InterestApplied    bool `json:"interest_applied"`
	OverpaymentApplied bool `json:"overpayment_applied"`
}

// BatchService runs the accrual -> carry-forward -> snapshot pipeline
// over every active plan. All plans of one invocation share a single
// transaction: any failure rolls the whole batch back and the next
// invocation retries from scratch. Accrual's same-day no-op gate makes
// that re-run safe.
type BatchService struct {
	db        *gorm.DB
	loc       *time.Location
	cache     *RedisCache
	planTypes *PlanTypeService
	accrual   *AccrualService
	carry     *CarryForwardService
	snapshots *SnapshotService
	lifecycle *LifecycleService
}

func NewBatchService(db *gorm.DB, loc *time.Location, cache *RedisCache, planTypes *PlanTypeService, accrual *AccrualService, carry *CarryForwardService, snapshots *SnapshotService, lifecycle *LifecycleService) *BatchService {
	return &BatchService{
		db:        db,
		loc:       loc,
		cache:     cache,
		planTypes: planTypes,
		accrual:   accrual,
		carry:     carry,
		snapshots: snapshots,
		lifecycle: lifecycle,
	}
}

// RunBatchAccrual processes every active plan as of asOf and returns a
// per-plan summary.
func (s *BatchService) RunBatchAccrual(ctx context.Context, asOf time.Time) ([]PlanAccrualSummary, error) {
	if s.cache != nil {
		ok, err := s.cache.SetNX(ctx, batchAccrualLockKey, time.Now().Unix(), batchAccrualLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			return nil, ErrBatchInProgress
		}
		defer func() {
			_ = s.cache.Delete(ctx, batchAccrualLockKey)
		}()
	}

	var summaries []PlanAccrualSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plans []models.Plan
		if err := tx.Where("status = ?", models.PlanStatusActive).Order("id asc").Find(&plans).Error; err != nil {
			return err
		}

		var err error
		summaries, err = s.processPlans(ctx, tx, plans, asOf)
		return err
	})
	if err != nil {
		var be *BatchError
		if errors.As(err, &be) {
			log.Printf("Batch accrual rolled back, plan %d failed: %v", be.PlanID, be.Err)
		}
		return nil, err
	}

	log.Printf("Batch accrual completed for %d plans as of %s", len(summaries), DateIn(asOf, s.loc).Format("2006-01-02"))
	return summaries, nil
}

// processPlans walks the active plans in order. The summary slice is
// never nil so an empty batch serializes as an empty list, not null.
func (s *BatchService) processPlans(ctx context.Context, tx *gorm.DB, plans []models.Plan, asOf time.Time) ([]PlanAccrualSummary, error) {
	summaries := make([]PlanAccrualSummary, 0, len(plans))
	for i := range plans {
		summary, err := s.processPlan(ctx, tx, &plans[i], asOf)
		if err != nil {
			// Fail fast: one bad plan aborts the invocation, no
			// partial commit.
			return nil, &BatchError{PlanID: plans[i].ID, Err: err}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// processPlan runs one plan through the pipeline inside the shared
// batch transaction.
func (s *BatchService) processPlan(ctx context.Context, tx *gorm.DB, plan *models.Plan, asOf time.Time) (PlanAccrualSummary, error) {
	summary := PlanAccrualSummary{PlanID: plan.ID}

	planType, err := s.planTypes.Lookup(ctx, plan.PlanTypeID)
	if err != nil {
		return summary, err
	}

	ledger, err := allInstallments(tx, plan.ID)
	if err != nil {
		return summary, err
	}

	var dirty []*models.Installment
	for _, inst := range ledger {
		if inst.Status.IsSettled() {
			continue
		}
		if s.accrual.AccrueLateInterest(inst, planType.LatePayInterestRatePerDay, asOf) {
			summary.InterestApplied = true
			dirty = appendUnique(dirty, inst)
		}
	}

	carried := s.carry.CarryForward(ledger, asOf, planType.GraceDays)
	if len(carried) > 0 {
		summary.OverpaymentApplied = true
		for _, inst := range carried {
			dirty = appendUnique(dirty, inst)
		}
	}

	for _, inst := range dirty {
		if err := persistInstallment(tx, inst); err != nil {
			return summary, err
		}
	}

	if len(dirty) > 0 {
		if err := s.lifecycle.RefreshAfterPayment(tx, plan); err != nil {
			return summary, err
		}
		if _, err := s.snapshots.Generate(tx, plan, asOf); err != nil && !errors.Is(err, ErrEmptyLedger) {
			return summary, err
		}
	}

	return summary, nil
}
