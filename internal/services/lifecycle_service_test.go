package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnpl_backend_echo/internal/models"
)

func TestTransitionAllowsConfiguredEdges(t *testing.T) {
	tests := []struct {
		from models.PlanStatus
		to   models.PlanStatus
		ok   bool
	}{
		{models.PlanStatusIncomplete, models.PlanStatusActive, true},
		{models.PlanStatusIncomplete, models.PlanStatusCancelled, true},
		{models.PlanStatusIncomplete, models.PlanStatusCompleted, false},
		{models.PlanStatusActive, models.PlanStatusCompleted, true},
		{models.PlanStatusActive, models.PlanStatusCancelled, true},
		{models.PlanStatusActive, models.PlanStatusDefaulted, true},
		{models.PlanStatusActive, models.PlanStatusIncomplete, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			plan := &models.Plan{Status: tt.from}
			result, err := Transition(plan, tt.to)

			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.from, result.From)
				assert.Equal(t, tt.to, result.To)
				assert.Equal(t, tt.to, plan.Status)
			} else {
				var terr *TransitionError
				require.ErrorAs(t, err, &terr)
				assert.Equal(t, tt.from, terr.From)
				assert.Equal(t, tt.to, terr.To)
				assert.Equal(t, tt.from, plan.Status)
			}
		})
	}
}

func TestTransitionRejectsTerminalStates(t *testing.T) {
	for _, from := range []models.PlanStatus{
		models.PlanStatusCompleted,
		models.PlanStatusCancelled,
		models.PlanStatusDefaulted,
	} {
		plan := &models.Plan{Status: from}
		_, err := Transition(plan, models.PlanStatusActive)

		var terr *TransitionError
		require.ErrorAs(t, err, &terr, "from %s", from)
		assert.Equal(t, from, plan.Status)
	}
}

func TestValidatePlanTypeRejectsZeroInstallments(t *testing.T) {
	planType := &models.PlanType{DurationDays: 90}

	err := validatePlanType(planType)
	assert.ErrorIs(t, err, ErrInvalidPlanType)

	planType.TotalInstallments = 3
	assert.NoError(t, validatePlanType(planType))
}

func TestBuildScheduleSplitsEvenlyWithRemainderOnLast(t *testing.T) {
	plan := &models.Plan{
		TotalInstallments: 3,
		InstallmentAmount: dec("33.33"),
		StartDate:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	plan.ID = 5
	planType := &models.PlanType{DurationDays: 90, TotalInstallments: 3}

	installments := BuildSchedule(plan, planType, dec("100.00"))
	require.Len(t, installments, 3)

	assert.True(t, installments[0].BaseAmount.Equal(dec("33.33")))
	assert.True(t, installments[1].BaseAmount.Equal(dec("33.33")))
	// The last installment absorbs the rounding remainder
	assert.True(t, installments[2].BaseAmount.Equal(dec("33.34")))

	total := decimalSum(installments)
	assert.True(t, total.Equal(dec("100.00")))

	for k, inst := range installments {
		assert.Equal(t, k+1, inst.Number)
		assert.Equal(t, plan.ID, inst.PlanID)
		assert.Equal(t, models.InstallmentStatusPending, inst.Status)
		assert.Equal(t, plan.StartDate.AddDate(0, 0, (k+1)*30), inst.DueDate)
		assert.True(t, inst.TotalDueAmount.Equal(inst.BaseAmount))
	}
}

func TestBuildScheduleIntervalNeverBelowOneDay(t *testing.T) {
	plan := &models.Plan{
		TotalInstallments: 10,
		InstallmentAmount: dec("10.00"),
		StartDate:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	planType := &models.PlanType{DurationDays: 5, TotalInstallments: 10}

	installments := BuildSchedule(plan, planType, dec("100.00"))
	require.Len(t, installments, 10)

	assert.Equal(t, plan.StartDate.AddDate(0, 0, 1), installments[0].DueDate)
	assert.Equal(t, plan.StartDate.AddDate(0, 0, 10), installments[9].DueDate)
}

func decimalSum(installments []*models.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.BaseAmount)
	}
	return total
}
