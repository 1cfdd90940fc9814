package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInstallmentUnpaidBase(t *testing.T) {
	inst := &Installment{
		BaseAmount:         d("1000.00"),
		OverpaymentCarried: d("100.00"),
		PaidBase:           d("400.00"),
	}
	assert.True(t, inst.UnpaidBase().Equal(d("500.00")))

	// Clamped at zero when carry and payments exceed the base
	inst.PaidBase = d("950.00")
	assert.True(t, inst.UnpaidBase().IsZero())
}

func TestInstallmentUnpaidLateInterest(t *testing.T) {
	inst := &Installment{
		LateInterest:     d("5.00"),
		PaidLateInterest: d("1.50"),
	}
	assert.True(t, inst.UnpaidLateInterest().Equal(d("3.50")))

	inst.PaidLateInterest = d("9.00")
	assert.True(t, inst.UnpaidLateInterest().IsZero())
}

func TestInstallmentRecomputeTotalDue(t *testing.T) {
	inst := &Installment{
		BaseAmount:         d("1000.00"),
		OverpaymentCarried: d("200.00"),
		LateInterest:       d("12.345"),
	}
	inst.RecomputeTotalDue()
	assert.True(t, inst.TotalDueAmount.Equal(d("812.35")))
}

func TestInstallmentRemainingBalanceClampsAtZero(t *testing.T) {
	inst := &Installment{
		TotalDueAmount:   d("100.00"),
		PaidBase:         d("98.00"),
		PaidLateInterest: d("1.00"),
	}
	assert.True(t, inst.RemainingBalance().Equal(d("1.00")))

	inst.PaidLateInterest = d("5.00")
	assert.True(t, inst.RemainingBalance().IsZero())
}

func TestInstallmentIsFullySettledByAmounts(t *testing.T) {
	inst := &Installment{
		BaseAmount:   d("100.00"),
		PaidBase:     d("100.00"),
		LateInterest: d("2.00"),
	}
	assert.False(t, inst.IsFullySettledByAmounts())

	inst.PaidLateInterest = d("2.00")
	assert.True(t, inst.IsFullySettledByAmounts())
}

func TestInstallmentStatusIsSettled(t *testing.T) {
	settled := []InstallmentStatus{
		InstallmentStatusPaidOnTime,
		InstallmentStatusPaidLate,
		InstallmentStatusCancelled,
		InstallmentStatusRefunded,
	}
	open := []InstallmentStatus{
		InstallmentStatusPending,
		InstallmentStatusPartiallyPaidOnTime,
		InstallmentStatusPartiallyPaidLate,
		InstallmentStatusOverdue,
	}

	for _, s := range settled {
		assert.True(t, s.IsSettled(), "%s", s)
	}
	for _, s := range open {
		assert.False(t, s.IsSettled(), "%s", s)
	}
}
