package models

import (
	"github.com/shopspring/decimal"
)

// Order is the minimal view of an order this backend needs. The full
// order workflow lives in another system; we only hold what settlement
// and the payment gateway require.
type Order struct {
	AuditFields

	Reference     string          `gorm:"type:varchar(100);uniqueIndex" json:"reference"`
	CustomerName  string          `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail string          `gorm:"type:varchar(255)" json:"customer_email"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(15,2)" json:"total_amount"`
}
