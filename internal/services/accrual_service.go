package services

import (
	"time"

	"github.com/shopspring/decimal"

	"bnpl_backend_echo/internal/models"
)

// AccrualService applies per-day simple late interest to unpaid
// installment principal. Re-running with the same reference date is a
// no-op: the gate is the whole-day distance from the last application.
type AccrualService struct {
	loc *time.Location
}

func NewAccrualService(loc *time.Location) *AccrualService {
	return &AccrualService{loc: loc}
}

// AccrueLateInterest updates inst in place for the days elapsed between
// the last application (or the due date, if interest was never applied)
// and refDate. Returns true when the installment changed.
//
// The caller is responsible for only feeding unsettled installments
// here; terminal rows are never re-accrued.
func (s *AccrualService) AccrueLateInterest(inst *models.Installment, ratePerDay decimal.Decimal, refDate time.Time) bool {
	lastApplied := inst.DueDate
	if inst.LastInterestAppliedDate != nil {
		lastApplied = *inst.LastInterestAppliedDate
	}

	overdueDays := DaysBetween(lastApplied, refDate, s.loc)
	if overdueDays <= 0 {
		return false
	}

	// Interest accrues on the base still owed, net of any overpayment
	// credit carried in from an earlier installment.
	unpaidBase := inst.UnpaidBase()

	delta := unpaidBase.
		Mul(ratePerDay).
		Mul(decimal.NewFromInt(int64(overdueDays))).
		Round(2)

	applied := refDate
	inst.LateInterest = inst.LateInterest.Add(delta)
	inst.LastInterestAppliedDate = &applied
	inst.RecomputeTotalDue()

	if !inst.Status.IsSettled() {
		inst.Status = models.InstallmentStatusOverdue
	}

	return true
}
