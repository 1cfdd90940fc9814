package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl_backend_echo/internal/models"
)

func newAllocator() *AllocationService {
	return NewAllocationService(nil, time.UTC, nil, nil, nil)
}

func TestAllocateWaterfallAcrossInstallments(t *testing.T) {
	svc := newAllocator()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 200 of arrears on the overdue installment, then 50 of accrued
	// interest and 1000 of base on the current one.
	arrears := testInstallment(1, "200.00", now.AddDate(0, 0, -30))
	arrears.Status = models.InstallmentStatusOverdue

	current := testInstallment(2, "1000.00", now)
	current.LateInterest = dec("50.00")
	current.RecomputeTotalDue()

	ledger := []*models.Installment{arrears, current}

	touched, err := svc.Allocate(ledger, arrears, dec("1500.00"), now, 1)
	require.NoError(t, err)
	require.Len(t, touched, 2)

	assert.True(t, arrears.PaidBase.Equal(dec("200.00")))
	assert.Equal(t, models.InstallmentStatusPaidLate, arrears.Status)

	assert.True(t, current.PaidLateInterest.Equal(dec("50.00")))
	assert.True(t, current.PaidBase.Equal(dec("1000.00")))
	assert.Equal(t, models.InstallmentStatusPaidOnTime, current.Status)

	// 1500 - 200 - 50 - 1000 = 250 parked on the last installment
	assert.True(t, current.OverpaymentCarried.Equal(dec("250.00")), "carried = %s", current.OverpaymentCarried)
}

func TestAllocateConservesMoney(t *testing.T) {
	svc := newAllocator()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := testInstallment(1, "100.00", now.AddDate(0, 0, -10))
	first.LateInterest = dec("2.50")
	first.RecomputeTotalDue()
	second := testInstallment(2, "100.00", now.AddDate(0, 0, 20))
	ledger := []*models.Installment{first, second}

	payments := []string{"30.00", "80.00", "150.00"}
	totalPaid := decimal.Zero
	for _, p := range payments {
		_, err := svc.Allocate(ledger, first, dec(p), now, 1)
		require.NoError(t, err)
		totalPaid = totalPaid.Add(dec(p))
	}

	consumed := decimal.Zero
	carried := decimal.Zero
	for _, inst := range ledger {
		consumed = consumed.Add(inst.PaidBase).Add(inst.PaidLateInterest)
		carried = carried.Add(inst.OverpaymentCarried)
	}

	// No money created or destroyed
	assert.True(t, totalPaid.Equal(consumed.Add(carried)),
		"paid %s, consumed %s, carried %s", totalPaid, consumed, carried)
	for _, inst := range ledger {
		assert.False(t, inst.RemainingBalance().IsNegative())
	}
}

func TestAllocatePartialPaymentClassification(t *testing.T) {
	svc := newAllocator()

	tests := []struct {
		name     string
		due      time.Time
		now      time.Time
		expected models.InstallmentStatus
	}{
		{
			name:     "partial within grace window",
			due:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			now:      time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			expected: models.InstallmentStatusPartiallyPaidOnTime,
		},
		{
			name:     "partial past grace window",
			due:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			now:      time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
			expected: models.InstallmentStatusPartiallyPaidLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := testInstallment(1, "100.00", tt.due)
			touched, err := svc.Allocate([]*models.Installment{inst}, inst, dec("40.00"), tt.now, 1)
			require.NoError(t, err)
			require.Len(t, touched, 1)
			assert.Equal(t, tt.expected, inst.Status)
			assert.NotNil(t, inst.LastPaymentDate)
		})
	}
}

func TestAllocateRejectsNonPositiveAmount(t *testing.T) {
	svc := newAllocator()
	now := time.Now()
	inst := testInstallment(1, "100.00", now)

	for _, amount := range []string{"0", "-5.00"} {
		_, err := svc.Allocate([]*models.Installment{inst}, inst, dec(amount), now, 1)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	// Nothing was mutated
	assert.True(t, inst.PaidBase.IsZero())
	assert.Nil(t, inst.LastPaymentDate)
}

func TestAllocateRejectsTargetBeyondLedger(t *testing.T) {
	svc := newAllocator()
	now := time.Now()

	inLedger := testInstallment(1, "100.00", now)
	stray := testInstallment(9, "100.00", now)

	_, err := svc.Allocate([]*models.Installment{inLedger}, stray, dec("50.00"), now, 1)
	assert.ErrorIs(t, err, ErrInstallmentNotFound)
}

func TestAllocateStartsAtTargetSkippingEarlierArrears(t *testing.T) {
	svc := newAllocator()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	earlier := testInstallment(1, "100.00", now.AddDate(0, 0, -30))
	earlier.Status = models.InstallmentStatusOverdue
	target := testInstallment(2, "100.00", now)

	touched, err := svc.Allocate([]*models.Installment{earlier, target}, target, dec("100.00"), now, 1)
	require.NoError(t, err)
	require.Len(t, touched, 1)

	// The earlier installment sits before the target and stays untouched
	assert.True(t, earlier.PaidBase.IsZero())
	assert.True(t, target.PaidBase.Equal(dec("100.00")))
}

func TestAllocateParksResidueWhenLedgerExhausted(t *testing.T) {
	svc := newAllocator()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	only := testInstallment(1, "100.00", now)
	touched, err := svc.Allocate([]*models.Installment{only}, only, dec("175.00"), now, 1)
	require.NoError(t, err)
	require.Len(t, touched, 1)

	assert.True(t, only.PaidBase.Equal(dec("100.00")))
	assert.True(t, only.OverpaymentCarried.Equal(dec("75.00")))
	assert.Equal(t, models.InstallmentStatusPaidOnTime, only.Status)
}
