package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/peptidrop/backend/pkg/enums"
)

// Order is the single source of truth for payment state. The id is generated
// server-side before any processor call so processor metadata can embed it;
// processor_reference may therefore be written back after creation.
type Order struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Processor          enums.Processor   `gorm:"column:processor;type:text;not null"`
	ProcessorReference string            `gorm:"column:processor_reference;index"`
	Status             enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CustomerEmail      *string           `gorm:"column:customer_email"`
	UserID             *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	AmountTotalCents   *int64            `gorm:"column:amount_total_cents"`
	Currency           string            `gorm:"column:currency;not null;default:'usd'"`
	Items              []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt             *time.Time        `gorm:"column:paid_at"`
	RefundedAt         *time.Time        `gorm:"column:refunded_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
