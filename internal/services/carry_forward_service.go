package services

import (
	"time"

	"github.com/shopspring/decimal"

	"bnpl_backend_echo/internal/models"
)

// CarryForwardService moves surplus payment parked on an installment
// into the next unsettled installment's principal. Runs after accrual,
// once per batch cycle.
type CarryForwardService struct {
	loc *time.Location
}

func NewCarryForwardService(loc *time.Location) *CarryForwardService {
	return &CarryForwardService{loc: loc}
}

// CarryForward scans the plan's installments (all of them, settled rows
// included, ascending by number) for a source due today or yesterday
// with a parked overpayment, and applies it as carried-in credit on the
// next installment that is not yet fully paid or refunded. When no
// qualifying sink exists the surplus stays parked on the source.
// Returns the mutated installments.
func (s *CarryForwardService) CarryForward(installments []*models.Installment, refDate time.Time, graceDays int) []*models.Installment {
	today := DateIn(refDate, s.loc)
	var touched []*models.Installment

	for i, source := range installments {
		if !source.OverpaymentCarried.IsPositive() {
			continue
		}

		// Grace boundary: only installments whose due date just passed
		// hand their surplus forward.
		age := DaysBetween(source.DueDate, today, s.loc)
		if age < 0 || age > graceDays {
			continue
		}

		sink := nextOpenInstallment(installments, i+1)
		if sink == nil {
			continue
		}

		applied := decimal.Min(sink.UnpaidBase(), source.OverpaymentCarried)
		if !applied.IsPositive() {
			continue
		}

		sink.OverpaymentCarried = sink.OverpaymentCarried.Add(applied)
		sink.RecomputeTotalDue()
		source.OverpaymentCarried = source.OverpaymentCarried.Sub(applied)

		stamp := refDate
		source.LastPaymentDate = &stamp
		sink.LastPaymentDate = &stamp

		touched = appendUnique(touched, source)
		touched = appendUnique(touched, sink)
	}

	return touched
}

// nextOpenInstallment finds the first installment from index on that is
// not fully paid, refunded or cancelled.
func nextOpenInstallment(installments []*models.Installment, from int) *models.Installment {
	for _, inst := range installments[from:] {
		if inst.Status.IsSettled() {
			continue
		}
		return inst
	}
	return nil
}

func appendUnique(list []*models.Installment, inst *models.Installment) []*models.Installment {
	if containsInstallment(list, inst) {
		return list
	}
	return append(list, inst)
}
