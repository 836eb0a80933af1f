package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/peptidrop/backend/pkg/enums"
)

// OrderHistoryEntry mirrors a summary of an owned order into the buyer's
// personal history. It is written in the same transaction as the order
// transition that produced it.
type OrderHistoryEntry struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID          uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	AmountTotalCents int64             `gorm:"column:amount_total_cents;not null"`
	Currency         string            `gorm:"column:currency;not null"`
	PlacedAt         time.Time         `gorm:"column:placed_at;not null"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
