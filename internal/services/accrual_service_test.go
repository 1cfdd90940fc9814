package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl_backend_echo/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testInstallment(number int, base string, due time.Time) *models.Installment {
	inst := &models.Installment{
		Number:     number,
		BaseAmount: dec(base),
		DueDate:    due,
		Status:     models.InstallmentStatusPending,
	}
	inst.ID = uint(number)
	inst.RecomputeTotalDue()
	return inst
}

func TestAccrueLateInterestTenDaysOverdue(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ref := due.AddDate(0, 0, 10)
	inst := testInstallment(1, "1000.00", due)

	// 1000 * 0.01%/day * 10 days
	changed := svc.AccrueLateInterest(inst, dec("0.0001"), ref)

	require.True(t, changed)
	assert.True(t, inst.LateInterest.Equal(dec("1.00")), "late interest = %s", inst.LateInterest)
	assert.True(t, inst.TotalDueAmount.Equal(dec("1001.00")), "total due = %s", inst.TotalDueAmount)
	assert.Equal(t, models.InstallmentStatusOverdue, inst.Status)
	require.NotNil(t, inst.LastInterestAppliedDate)
	assert.Equal(t, ref, *inst.LastInterestAppliedDate)
}

func TestAccrueLateInterestIsIdempotentPerDay(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ref := due.AddDate(0, 0, 10)
	inst := testInstallment(1, "1000.00", due)

	require.True(t, svc.AccrueLateInterest(inst, dec("0.0001"), ref))
	interestAfterFirst := inst.LateInterest
	totalAfterFirst := inst.TotalDueAmount

	// Same reference date again: the day gate makes this a no-op
	changed := svc.AccrueLateInterest(inst, dec("0.0001"), ref)

	assert.False(t, changed)
	assert.True(t, inst.LateInterest.Equal(interestAfterFirst))
	assert.True(t, inst.TotalDueAmount.Equal(totalAfterFirst))
}

func TestAccrueLateInterestResumesFromLastApplication(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := testInstallment(1, "1000.00", due)

	require.True(t, svc.AccrueLateInterest(inst, dec("0.0001"), due.AddDate(0, 0, 4)))
	require.True(t, svc.AccrueLateInterest(inst, dec("0.0001"), due.AddDate(0, 0, 10)))

	// 4 days then 6 more, same as 10 in one pass
	assert.True(t, inst.LateInterest.Equal(dec("1.00")), "late interest = %s", inst.LateInterest)
}

func TestAccrueLateInterestBeforeDueDateIsNoop(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := testInstallment(1, "1000.00", due)

	changed := svc.AccrueLateInterest(inst, dec("0.0001"), due)

	assert.False(t, changed)
	assert.True(t, inst.LateInterest.IsZero())
	assert.Equal(t, models.InstallmentStatusPending, inst.Status)
	assert.Nil(t, inst.LastInterestAppliedDate)
}

func TestAccrueLateInterestNetsOutCarriedOverpayment(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := testInstallment(1, "1000.00", due)
	inst.OverpaymentCarried = dec("400.00")
	inst.PaidBase = dec("100.00")
	inst.RecomputeTotalDue()

	require.True(t, svc.AccrueLateInterest(inst, dec("0.001"), due.AddDate(0, 0, 10)))

	// interest accrues on 1000 - 400 - 100 = 500
	assert.True(t, inst.LateInterest.Equal(dec("5.00")), "late interest = %s", inst.LateInterest)
}

func TestAccrueLateInterestRoundsHalfAwayFromZero(t *testing.T) {
	svc := NewAccrualService(time.UTC)

	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := testInstallment(1, "25.00", due)

	// 25 * 0.0001 * 3 days = 0.0075 -> 0.01
	require.True(t, svc.AccrueLateInterest(inst, dec("0.0001"), due.AddDate(0, 0, 3)))
	assert.True(t, inst.LateInterest.Equal(dec("0.01")), "late interest = %s", inst.LateInterest)
}
