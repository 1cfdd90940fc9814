package models

import (
	"github.com/shopspring/decimal"
)

// PlanType describes the financing terms a plan is created under
type PlanType struct {
	AuditFields

	Description               string          `gorm:"type:varchar(255)" json:"description"`
	DurationDays              int             `json:"duration_days"`
	TotalInstallments         int             `json:"total_installments"`
	InterestRate              decimal.Decimal `gorm:"type:decimal(8,6)" json:"interest_rate"`                  // flat rate on financed principal
	LatePayInterestRatePerDay decimal.Decimal `gorm:"type:decimal(8,6)" json:"late_pay_interest_rate_per_day"` // simple daily rate on unpaid base
	GraceDays                 int             `gorm:"default:1" json:"grace_days"`
}
