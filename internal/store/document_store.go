package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

// ListDocumentsOptions filters a document listing.
type ListDocumentsOptions struct {
	Type         models.DocumentType
	Status       models.DocumentStatus
	CostCenterID *uuid.UUID
	Search       string // matches description
	DueFrom      *time.Time
	DueTo        *time.Time
	Limit        int
}

// DocumentStore persists payables and receivables.
// The backend rejects rows holding both a supplier and a member (check).
type DocumentStore interface {
	// List orders by due date, most recent first.
	List(ctx context.Context, orgID uuid.UUID, opts ListDocumentsOptions) ([]*models.Document, error)
	Get(ctx context.Context, orgID, documentID uuid.UUID) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, orgID, documentID uuid.UUID) error

	// CountByCostCenter returns how many documents reference the cost center.
	CountByCostCenter(ctx context.Context, orgID, costCenterID uuid.UUID) (int, error)
}
