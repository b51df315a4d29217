package vmbuilder

import (
	"context"

	"github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// DraftRepository persists draft records. Drafts are never deleted by this
// subsystem - terminal drafts are retained for audit - so the interface
// deliberately has no delete method.
type DraftRepository interface {
	// Create persists a new draft
	Create(ctx context.Context, draft *vmbuilder.Draft) error

	// GetByID retrieves a draft with its last plan/validation snapshots
	GetByID(ctx context.Context, id string) (*vmbuilder.Draft, error)

	// List returns drafts newest-first, optionally filtered by status
	// (empty status = all)
	List(ctx context.Context, status vmbuilder.DraftStatus) ([]vmbuilder.Draft, error)

	// Update rewrites the mutable fields of an existing draft
	Update(ctx context.Context, draft *vmbuilder.Draft) error
}
