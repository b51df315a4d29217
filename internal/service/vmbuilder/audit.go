package vmbuilder

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	builderSvc "github.com/Yearfield/lorien/internal/domain/services/vmbuilder"
)

// auditLogger writes one record per lifecycle action. Failure-path entries
// are best-effort: an audit write error is logged and never masks the error
// that caused the failure in the first place.
type auditLogger struct {
	auditRepo builderRepo.AuditRepository
	logger    *slog.Logger
}

func newAuditLogger(auditRepo builderRepo.AuditRepository, logger *slog.Logger) *auditLogger {
	return &auditLogger{auditRepo: auditRepo, logger: logger}
}

// record appends one audit record. Before/after snapshots are JSON-encoded;
// a nil snapshot stays NULL.
func (a *auditLogger) record(ctx context.Context, draftID string, action models.AuditAction, actor string, before, after any, success bool, message string) error {
	rec := &models.AuditRecord{
		DraftID:   draftID,
		Action:    action,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Success:   success,
		Message:   message,
	}

	var err error
	if rec.Before, err = encodeSnapshot(before); err != nil {
		a.logger.Error("audit snapshot encode failed", "draft_id", draftID, "action", action, "error", err)
	}
	if rec.After, err = encodeSnapshot(after); err != nil {
		a.logger.Error("audit snapshot encode failed", "draft_id", draftID, "action", action, "error", err)
	}

	if err := a.auditRepo.Append(ctx, rec); err != nil {
		a.logger.Error("audit append failed", "draft_id", draftID, "action", action, "error", err)
		return err
	}
	return nil
}

// recordFailure is the best-effort variant used on paths that are already
// returning an error.
func (a *auditLogger) recordFailure(ctx context.Context, draftID string, action models.AuditAction, actor string, before any, message string) {
	_ = a.record(ctx, draftID, action, actor, before, nil, false, message)
}

func encodeSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// auditReader implements the AuditReader projection.
type auditReader struct {
	auditRepo builderRepo.AuditRepository
}

// NewAuditReader creates the read-only audit trail projection.
func NewAuditReader(auditRepo builderRepo.AuditRepository) builderSvc.AuditReader {
	return &auditReader{auditRepo: auditRepo}
}

// ListByDraft returns a draft's audit records oldest-first
func (s *auditReader) ListByDraft(ctx context.Context, draftID string) ([]models.AuditRecord, error) {
	return s.auditRepo.ListByDraft(ctx, draftID)
}
