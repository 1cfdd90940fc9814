package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the settlement state of one installment
type InstallmentStatus string

const (
	InstallmentStatusPending             InstallmentStatus = "pending"
	InstallmentStatusPartiallyPaidOnTime InstallmentStatus = "partially_paid_ontime"
	InstallmentStatusPartiallyPaidLate   InstallmentStatus = "partially_paid_late"
	InstallmentStatusPaidOnTime          InstallmentStatus = "paid_ontime"
	InstallmentStatusPaidLate            InstallmentStatus = "paid_late"
	InstallmentStatusOverdue             InstallmentStatus = "overdue"
	InstallmentStatusCancelled           InstallmentStatus = "cancelled"
	InstallmentStatusRefunded            InstallmentStatus = "refunded"
)

// SettledStatuses are the terminal states excluded from every
// unsettled-ledger query. Rows in these states are never re-accrued
// or re-allocated.
var SettledStatuses = []InstallmentStatus{
	InstallmentStatusPaidOnTime,
	InstallmentStatusPaidLate,
	InstallmentStatusCancelled,
	InstallmentStatusRefunded,
}

// IsSettled reports whether s is one of the terminal states
func (s InstallmentStatus) IsSettled() bool {
	for _, t := range SettledStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Installment represents one scheduled payment within a plan.
// Rows are created in a batch at plan activation and are only ever
// status-terminated, never deleted.
type Installment struct {
	AuditFields

	PlanID uint `gorm:"index;uniqueIndex:idx_installments_plan_number" json:"plan_id"`
	Number int  `gorm:"uniqueIndex:idx_installments_plan_number" json:"number"`

	BaseAmount         decimal.Decimal `gorm:"type:decimal(15,2)" json:"base_amount"`
	DueDate            time.Time       `gorm:"index" json:"due_date"`
	LateInterest       decimal.Decimal `gorm:"type:decimal(15,2)" json:"late_interest"`
	OverpaymentCarried decimal.Decimal `gorm:"type:decimal(15,2)" json:"overpayment_carried"`
	TotalDueAmount     decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_due_amount"`
	PaidBase           decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_base"`
	PaidLateInterest   decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_late_interest"`

	LastPaymentDate         *time.Time `json:"last_payment_date"`
	LastInterestAppliedDate *time.Time `json:"last_interest_applied_date"`

	Status  InstallmentStatus `gorm:"type:varchar(30);default:'pending';index" json:"status"`
	Version uint              `gorm:"default:1" json:"version"`

	// Relationships
	Plan Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// UnpaidBase is the base principal still owed, net of the overpayment
// credit carried in from an earlier installment.
func (i *Installment) UnpaidBase() decimal.Decimal {
	unpaid := i.BaseAmount.Sub(i.OverpaymentCarried).Sub(i.PaidBase)
	if unpaid.IsNegative() {
		return decimal.Zero
	}
	return unpaid
}

// UnpaidLateInterest is the accrued penalty not yet paid
func (i *Installment) UnpaidLateInterest() decimal.Decimal {
	unpaid := i.LateInterest.Sub(i.PaidLateInterest)
	if unpaid.IsNegative() {
		return decimal.Zero
	}
	return unpaid
}

// RecomputeTotalDue refreshes the derived total obligation:
// base + accrued late interest, less consumed carry.
func (i *Installment) RecomputeTotalDue() {
	i.TotalDueAmount = i.BaseAmount.Sub(i.OverpaymentCarried).Add(i.LateInterest).Round(2)
}

// RemainingBalance is the total still owed on this installment.
// Invariant: never negative once payments are correctly allocated.
func (i *Installment) RemainingBalance() decimal.Decimal {
	remaining := i.TotalDueAmount.Sub(i.PaidBase).Sub(i.PaidLateInterest)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AmountPaid is the sum applied against both buckets
func (i *Installment) AmountPaid() decimal.Decimal {
	return i.PaidBase.Add(i.PaidLateInterest)
}

// IsFullySettledByAmounts reports whether both buckets are cleared
func (i *Installment) IsFullySettledByAmounts() bool {
	return i.UnpaidBase().IsZero() && i.UnpaidLateInterest().IsZero()
}
