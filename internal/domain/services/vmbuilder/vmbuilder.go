package vmbuilder

import (
	"context"
	"time"

	"github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// CreateDraftRequest carries the inputs for creating a draft.
type CreateDraftRequest struct {
	ParentID       string                `json:"parent_id"`
	TargetChildren []vmbuilder.ChildNode `json:"target_children"`
	Actor          string                `json:"-"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
}

// UpdateDraftRequest replaces a draft's target children.
type UpdateDraftRequest struct {
	TargetChildren []vmbuilder.ChildNode `json:"target_children"`
	Actor          string                `json:"-"`
}

// PublishRequest carries publish options. Force bypasses the status
// readiness check and the validation gate, never transactional atomicity.
type PublishRequest struct {
	Actor string `json:"-"`
	Force bool   `json:"force"`
}

// PublishResult reports the outcome of a successful publish.
type PublishResult struct {
	DraftID     string                `json:"draft_id"`
	Status      vmbuilder.DraftStatus `json:"status"`
	Applied     vmbuilder.DiffSummary `json:"applied"`
	PublishedAt time.Time             `json:"published_at"`
	PublishedBy string                `json:"published_by"`
	AuditID     string                `json:"audit_id,omitempty"`
}

// DraftService is the draft lifecycle manager: it creates, fetches and
// mutates drafts, and runs the plan step (diff + validate).
type DraftService interface {
	// CreateDraft creates a draft in status "draft" against an existing parent
	CreateDraft(ctx context.Context, req *CreateDraftRequest) (*vmbuilder.Draft, error)

	// GetDraft retrieves a draft by ID
	GetDraft(ctx context.Context, id string) (*vmbuilder.Draft, error)

	// ListDrafts returns drafts, optionally filtered by status
	ListDrafts(ctx context.Context, status vmbuilder.DraftStatus) ([]vmbuilder.Draft, error)

	// UpdateDraft replaces the target children while the draft is editable.
	// Returns (false, nil) - a silent no-op with no audit record - when the
	// draft is absent or in a terminal/in-flight status.
	UpdateDraft(ctx context.Context, id string, req *UpdateDraftRequest) (bool, error)

	// PlanDraft computes and persists a fresh diff plan plus validation
	PlanDraft(ctx context.Context, id, actor string) (*vmbuilder.DiffPlan, error)
}

// Publisher applies a draft's plan to the node store as one transaction.
type Publisher interface {
	Publish(ctx context.Context, draftID string, req *PublishRequest) (*PublishResult, error)
}

// AuditReader lists a draft's audit trail. Read-only projection; all writes
// happen inside the lifecycle manager and publisher.
type AuditReader interface {
	ListByDraft(ctx context.Context, draftID string) ([]vmbuilder.AuditRecord, error)
}
