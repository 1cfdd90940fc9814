package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditFields carries the shared record metadata. Embedded by every
// entity instead of inheriting from a base model.
type AuditFields struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
