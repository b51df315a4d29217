package vmbuilder

import (
	"context"

	"github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// AuditRepository is the append-only draft audit trail. There is no update
// or delete path from within the subsystem - it is a pure write path plus
// read projections.
type AuditRepository interface {
	// Append writes one audit record. If rec.ID is empty the store assigns one.
	Append(ctx context.Context, rec *vmbuilder.AuditRecord) error

	// ListByDraft returns a draft's records oldest-first
	ListByDraft(ctx context.Context, draftID string) ([]vmbuilder.AuditRecord, error)
}

// OperationLogger is the collaborating audit subsystem, external to the
// builder core. The publisher invokes it once per successful publish with a
// payload summarizing the applied operations.
type OperationLogger interface {
	// LogOperation records one operation and returns its audit entry ID
	LogOperation(ctx context.Context, kind, targetID, actor string, payload map[string]any, undoable bool) (string, error)
}
