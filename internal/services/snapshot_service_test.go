package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl_backend_echo/internal/models"
)

func TestBuildSnapshotAggregatesDueInstallments(t *testing.T) {
	svc := NewSnapshotService(nil, time.UTC)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	plan := &models.Plan{}
	plan.ID = 42

	first := testInstallment(1, "100.00", now.AddDate(0, 0, -60))
	first.PaidBase = dec("20.00")
	first.LateInterest = dec("3.00")
	first.Status = models.InstallmentStatusOverdue

	second := testInstallment(2, "100.00", now.AddDate(0, 0, -30))
	second.LateInterest = dec("1.50")
	second.PaidLateInterest = dec("0.50")
	second.Status = models.InstallmentStatusOverdue

	current := testInstallment(3, "100.00", now)
	current.OverpaymentCarried = dec("10.00")

	snap, err := svc.BuildSnapshot(plan, []*models.Installment{first, second, current}, now)
	require.NoError(t, err)

	assert.Equal(t, plan.ID, snap.PlanID)
	assert.Equal(t, 3, snap.CurrentInstallmentNo)
	assert.True(t, snap.CurrentBase.Equal(dec("100.00")))
	// Arrears are the older rows' base net of what was already paid
	assert.True(t, snap.TotalArrears.Equal(dec("180.00")))
	assert.True(t, snap.TotalLateInterest.Equal(dec("4.00")))
	assert.True(t, snap.OverpaymentCarried.Equal(dec("10.00")))
	// Payable = arrears + unpaid interest - overpayment credit
	assert.True(t, snap.TotalPayable.Equal(dec("174.00")))
	assert.True(t, snap.PaidBase.Equal(dec("20.00")))
	assert.True(t, snap.PaidLateInterest.Equal(dec("0.50")))
	assert.Equal(t, models.SettlementSnapshotStatusActive, snap.Status)
	assert.True(t, snap.IsLatest)
	assert.NotEmpty(t, snap.Reference)
}

func TestBuildSnapshotEmptyLedger(t *testing.T) {
	svc := NewSnapshotService(nil, time.UTC)
	plan := &models.Plan{}
	plan.ID = 7

	snap, err := svc.BuildSnapshot(plan, nil, time.Now())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrEmptyLedger)
}

func TestBuildSnapshotSingleInstallmentHasNoArrears(t *testing.T) {
	svc := NewSnapshotService(nil, time.UTC)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	plan := &models.Plan{}
	plan.ID = 8

	only := testInstallment(1, "250.00", now)
	only.LateInterest = dec("2.00")

	snap, err := svc.BuildSnapshot(plan, []*models.Installment{only}, now)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.CurrentInstallmentNo)
	assert.True(t, snap.CurrentBase.Equal(dec("250.00")))
	assert.True(t, snap.TotalArrears.IsZero())
	// The current installment's base is excluded from the payable amount
	assert.True(t, snap.TotalPayable.Equal(dec("2.00")))
}

func TestBuildSnapshotClampsOverpaidBase(t *testing.T) {
	svc := NewSnapshotService(nil, time.UTC)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	plan := &models.Plan{}
	plan.ID = 9

	overpaid := testInstallment(1, "100.00", now.AddDate(0, 0, -30))
	overpaid.PaidBase = dec("120.00")
	overpaid.Status = models.InstallmentStatusPartiallyPaidLate

	current := testInstallment(2, "100.00", now)

	snap, err := svc.BuildSnapshot(plan, []*models.Installment{overpaid, current}, now)
	require.NoError(t, err)

	assert.True(t, snap.TotalArrears.IsZero())
	assert.True(t, snap.TotalPayable.IsZero())
}
