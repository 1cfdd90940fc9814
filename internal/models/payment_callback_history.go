package models

import (
	"encoding/json"
)

// PaymentCallbackHistory keeps the raw gateway notification payloads
// for reconciliation. Written before any processing so a failed
// allocation can be replayed from the stored payload.
type PaymentCallbackHistory struct {
	AuditFields

	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	GatewayOrderID string          `gorm:"type:varchar(100);index" json:"gateway_order_id"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
}
