package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanStatus represents the lifecycle state of a plan
type PlanStatus string

const (
	PlanStatusIncomplete PlanStatus = "incomplete"
	PlanStatusActive     PlanStatus = "active"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusCancelled  PlanStatus = "cancelled"
	PlanStatusDefaulted  PlanStatus = "defaulted"
)

// IsTerminal reports whether no further transition is allowed out of s
func (s PlanStatus) IsTerminal() bool {
	switch s {
	case PlanStatusCompleted, PlanStatusCancelled, PlanStatusDefaulted:
		return true
	}
	return false
}

// Plan represents one pay-later agreement tied to an order.
// Exactly one plan may exist per order (enforced by the unique index).
type Plan struct {
	AuditFields

	OrderID    uint `gorm:"uniqueIndex" json:"order_id"`
	PlanTypeID uint `gorm:"index" json:"plan_type_id"`

	TotalInstallments     int             `json:"total_installments"`
	RemainingInstallments int             `json:"remaining_installments"`
	InitialPayment        decimal.Decimal `gorm:"type:decimal(15,2)" json:"initial_payment"`
	InstallmentAmount     decimal.Decimal `gorm:"type:decimal(15,2)" json:"installment_amount"`
	StartDate             time.Time       `json:"start_date"`
	NextDueDate           *time.Time      `json:"next_due_date"`
	Status                PlanStatus      `gorm:"type:varchar(20);default:'incomplete';index" json:"status"`
	Version               uint            `gorm:"default:1" json:"version"`

	// Relationships
	Order        Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	PlanType     PlanType      `gorm:"foreignKey:PlanTypeID" json:"plan_type,omitempty"`
	Installments []Installment `gorm:"foreignKey:PlanID" json:"installments,omitempty"`
}
