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

// SnapshotService derives point-in-time settlement quotes from the
// unsettled ledger and maintains the one-active-latest-per-plan chain.
type SnapshotService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewSnapshotService(db *gorm.DB, loc *time.Location) *SnapshotService {
	return &SnapshotService{db: db, loc: loc}
}

// BuildSnapshot aggregates the unsettled installments due on or before
// refDate into a new (unpersisted) snapshot. The highest-numbered row
// in the set is the current installment; everything before it counts as
// arrears. Returns ErrEmptyLedger when there is nothing to settle.
func (s *SnapshotService) BuildSnapshot(plan *models.Plan, unsettled []*models.Installment, refDate time.Time) (*models.SettlementSnapshot, error) {
	if len(unsettled) == 0 {
		return nil, fmt.Errorf("plan %d: %w", plan.ID, ErrEmptyLedger)
	}

	current := unsettled[0]
	for _, inst := range unsettled {
		if inst.Number > current.Number {
			current = inst
		}
	}

	snap := &models.SettlementSnapshot{
		PlanID:               plan.ID,
		Reference:            models.NewSettlementReference(plan.ID),
		CurrentInstallmentNo: current.Number,
		Status:               models.SettlementSnapshotStatusActive,
		IsLatest:             true,
	}

	totalArrears := decimal.Zero
	totalLateInterest := decimal.Zero
	totalOverpayment := decimal.Zero
	paidBase := decimal.Zero
	paidLateInterest := decimal.Zero

	for _, inst := range unsettled {
		baseOutstanding := inst.BaseAmount.Sub(inst.PaidBase)
		if baseOutstanding.IsNegative() {
			baseOutstanding = decimal.Zero
		}

		if inst.Number == current.Number {
			snap.CurrentBase = baseOutstanding
		} else {
			totalArrears = totalArrears.Add(baseOutstanding)
		}

		totalLateInterest = totalLateInterest.Add(inst.UnpaidLateInterest())
		totalOverpayment = totalOverpayment.Add(inst.OverpaymentCarried)
		paidBase = paidBase.Add(inst.PaidBase)
		paidLateInterest = paidLateInterest.Add(inst.PaidLateInterest)
	}

	snap.TotalArrears = totalArrears.Round(2)
	snap.TotalLateInterest = totalLateInterest.Round(2)
	snap.OverpaymentCarried = totalOverpayment.Round(2)
	snap.PaidBase = paidBase.Round(2)
	snap.PaidLateInterest = paidLateInterest.Round(2)
	snap.TotalPayable = totalArrears.Add(totalLateInterest).Sub(totalOverpayment).Round(2)

	return snap, nil
}

// Generate builds and persists a fresh snapshot for the plan within tx,
// retiring the previous latest row in the same transaction. The partial
// unique key on (plan, active, latest) makes the database refuse a
// second current quote if two generators race; the loser surfaces the
// constraint violation and must retry on fresh state.
func (s *SnapshotService) Generate(tx *gorm.DB, plan *models.Plan, refDate time.Time) (*models.SettlementSnapshot, error) {
	unsettled, err := unsettledInstallmentsDueBy(tx, plan.ID, refDate, s.loc)
	if err != nil {
		return nil, err
	}

	snap, err := s.BuildSnapshot(plan, unsettled, refDate)
	if err != nil {
		return nil, err
	}

	if err := tx.Model(&models.SettlementSnapshot{}).
		Where("plan_id = ? AND is_latest = ?", plan.ID, true).
		Updates(map[string]interface{}{"is_latest": false, "active_latest_key": nil}).Error; err != nil {
		return nil, err
	}

	if err := tx.Create(snap).Error; err != nil {
		return nil, err
	}

	return snap, nil
}

// GenerateForPlan is the request-driven entry point: one transaction
// that recomputes the quote for a single plan.
func (s *SnapshotService) GenerateForPlan(ctx context.Context, planID uint, refDate time.Time) (*models.SettlementSnapshot, error) {
	var snap *models.SettlementSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := loadPlan(tx, planID)
		if err != nil {
			return err
		}
		snap, err = s.Generate(tx, plan, refDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Latest returns the plan's current active quote
func (s *SnapshotService) Latest(ctx context.Context, planID uint) (*models.SettlementSnapshot, error) {
	var snap models.SettlementSnapshot
	err := s.db.WithContext(ctx).
		Where("plan_id = ? AND status = ? AND is_latest = ?", planID, models.SettlementSnapshotStatusActive, true).
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan %d: %w", planID, ErrSnapshotNotFound)
		}
		return nil, err
	}
	return &snap, nil
}

// FindByReference resolves a snapshot from its human-readable reference
func (s *SnapshotService) FindByReference(ctx context.Context, reference string) (*models.SettlementSnapshot, error) {
	var snap models.SettlementSnapshot
	err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reference %s: %w", reference, ErrSnapshotNotFound)
		}
		return nil, err
	}
	return &snap, nil
}
