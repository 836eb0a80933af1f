package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peptidrop/backend/pkg/db/models"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindByIDForUpdate row-locks the order for the duration of the
	// enclosing transaction (Postgres only; a plain read elsewhere).
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByProcessorReference(ctx context.Context, processor string, reference string) (*models.Order, error)
	UpdateProcessorReference(ctx context.Context, id uuid.UUID, reference string) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpsertHistoryEntry(ctx context.Context, entry *models.OrderHistoryEntry) error
	ListHistoryByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderHistoryEntry, error)
}
