package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementSnapshotStatus represents the state of a settlement quote
type SettlementSnapshotStatus string

const (
	SettlementSnapshotStatusActive    SettlementSnapshotStatus = "active"
	SettlementSnapshotStatusCancelled SettlementSnapshotStatus = "cancelled"
)

// SettlementSnapshot is an immutable point-in-time quote of a plan's
// outstanding obligation. A superseded snapshot keeps its row; only
// IsLatest/Status flip.
//
// ActiveLatestKey is a derived column holding the plan id while the row
// is the active latest quote and NULL otherwise. The unique index over
// it makes the database reject a second concurrent "current" quote for
// the same plan; the losing writer of a race fails at commit and must
// re-read before retrying.
type SettlementSnapshot struct {
	AuditFields

	PlanID    uint   `gorm:"index" json:"plan_id"`
	Reference string `gorm:"type:varchar(100);uniqueIndex" json:"reference"`

	CurrentInstallmentNo int             `json:"current_installment_no"`
	CurrentBase          decimal.Decimal `gorm:"type:decimal(15,2)" json:"current_base"`
	TotalArrears         decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_arrears"`
	TotalLateInterest    decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_late_interest"`
	TotalPayable         decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_payable"`
	PaidBase             decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_base"`
	PaidLateInterest     decimal.Decimal `gorm:"type:decimal(15,2)" json:"paid_late_interest"`
	OverpaymentCarried   decimal.Decimal `gorm:"type:decimal(15,2)" json:"overpayment_carried"`

	Status          SettlementSnapshotStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	IsLatest        bool                     `gorm:"default:false" json:"is_latest"`
	ActiveLatestKey *string                  `gorm:"type:varchar(32);uniqueIndex" json:"-"`
	Version         uint                     `gorm:"default:1" json:"version"`

	// Relationships
	Plan Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// BeforeSave derives ActiveLatestKey so the uniqueness constraint holds
// without every writer remembering to maintain it.
func (s *SettlementSnapshot) BeforeSave(tx *gorm.DB) error {
	s.ApplyActiveLatestKey()
	return nil
}

// ApplyActiveLatestKey recomputes the derived uniqueness key
func (s *SettlementSnapshot) ApplyActiveLatestKey() {
	if s.Status == SettlementSnapshotStatusActive && s.IsLatest {
		key := fmt.Sprintf("%d", s.PlanID)
		s.ActiveLatestKey = &key
		return
	}
	s.ActiveLatestKey = nil
}

// NewSettlementReference builds the human-readable quote reference
func NewSettlementReference(planID uint) string {
	short := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("STL-%d-%s", planID, strings.ToUpper(short))
}
