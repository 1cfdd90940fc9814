package models

import (
	"encoding/json"
)

// PaymentGateway identifies how a payment reached us
type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayManual   PaymentGateway = "manual"
)

// PaymentSession tracks one gateway checkout opened for a settlement
// quote. At most one session per snapshot is active at a time; stale
// sessions are deactivated, never deleted.
type PaymentSession struct {
	AuditFields

	PlanID               uint            `gorm:"index" json:"plan_id"`
	SettlementSnapshotID uint            `gorm:"index" json:"settlement_snapshot_id"`
	InstallmentID        uint            `gorm:"index" json:"installment_id"`
	PaymentGateway       PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	GatewayOrderID       string          `gorm:"type:varchar(100);index" json:"gateway_order_id"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	RequestMetadata      json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata     json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
}
