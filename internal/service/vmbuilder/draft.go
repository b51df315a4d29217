package vmbuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/Yearfield/lorien/internal/config"
	"github.com/Yearfield/lorien/internal/domain"
	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	treeRepo "github.com/Yearfield/lorien/internal/domain/repositories/tree"
	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	builderSvc "github.com/Yearfield/lorien/internal/domain/services/vmbuilder"
	"github.com/Yearfield/lorien/internal/hierarchy"
)

// draftService implements the DraftService interface: the draft lifecycle
// manager plus the plan step.
type draftService struct {
	draftRepo builderRepo.DraftRepository
	nodeRepo  treeRepo.NodeRepository
	planner   *planner
	audit     *auditLogger
	registry  *hierarchy.Registry
	logger    *slog.Logger
}

// NewDraftService creates a new draft lifecycle manager
func NewDraftService(
	draftRepo builderRepo.DraftRepository,
	nodeRepo treeRepo.NodeRepository,
	auditRepo builderRepo.AuditRepository,
	registry *hierarchy.Registry,
	logger *slog.Logger,
) builderSvc.DraftService {
	return &draftService{
		draftRepo: draftRepo,
		nodeRepo:  nodeRepo,
		planner: &planner{
			nodeRepo:  nodeRepo,
			calc:      NewDiffCalculator(),
			validator: NewValidator(),
		},
		audit:    newAuditLogger(auditRepo, logger),
		registry: registry,
		logger:   logger,
	}
}

// CreateDraft creates a draft in status "draft" against an existing parent
func (s *draftService) CreateDraft(ctx context.Context, req *builderSvc.CreateDraftRequest) (*models.Draft, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	parent, err := s.nodeRepo.GetByID(ctx, req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("parent: %w", err)
	}
	if parent.Depth >= s.registry.MaxDepth() {
		return nil, fmt.Errorf("%w: node %s is at leaf depth %d and cannot have children",
			domain.ErrValidation, parent.ID, parent.Depth)
	}

	now := time.Now().UTC()
	draft := &models.Draft{
		ID:             uuid.NewString(),
		ParentID:       req.ParentID,
		TargetChildren: req.TargetChildren,
		Status:         models.StatusDraft,
		Metadata:       req.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	if err := s.audit.record(ctx, draft.ID, models.ActionCreateDraft, req.Actor,
		nil, draft, true, fmt.Sprintf("draft created against parent %s", req.ParentID)); err != nil {
		return nil, err
	}

	s.logger.Info("draft created",
		"draft_id", draft.ID,
		"parent_id", req.ParentID,
		"target_children", len(req.TargetChildren),
		"actor", req.Actor,
	)

	return draft, nil
}

// GetDraft retrieves a draft by ID
func (s *draftService) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	return s.draftRepo.GetByID(ctx, id)
}

// ListDrafts returns drafts, optionally filtered by status
func (s *draftService) ListDrafts(ctx context.Context, status models.DraftStatus) ([]models.Draft, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.draftRepo.List(ctx, status)
}

// UpdateDraft replaces the target children while the draft is editable.
// An absent draft or an ineligible status is a silent no-op: no error, no
// audit record, updated=false.
func (s *draftService) UpdateDraft(ctx context.Context, id string, req *builderSvc.UpdateDraftRequest) (bool, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !draft.Status.Editable() {
		return false, nil
	}

	if err := s.validateChildren(req.TargetChildren); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	before := draft.TargetChildren
	draft.TargetChildren = req.TargetChildren

	// Any previously computed plan/validation is stale now.
	draft.Plan = nil
	draft.Validation = nil
	draft.Status = models.StatusDraft
	draft.UpdatedAt = time.Now().UTC()

	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return false, err
	}

	if err := s.audit.record(ctx, draft.ID, models.ActionUpdateDraft, req.Actor,
		before, draft.TargetChildren, true, "target children replaced"); err != nil {
		return false, err
	}

	return true, nil
}

// PlanDraft computes a fresh diff plan, persists it onto the draft and
// advances the status: ready_to_publish when the calculator reports a
// publishable diff, otherwise back to planning. Severity-aware status
// gating is a known improvement opportunity; blocking validation findings
// clear the plan's can_publish flag but the status transition keys off the
// calculator's flag alone.
func (s *draftService) PlanDraft(ctx context.Context, id, actor string) (*models.DiffPlan, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch draft.Status {
	case models.StatusDraft, models.StatusPlanning, models.StatusReadyToPublish:
		// plannable
	default:
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("draft %s is %s and cannot be planned", id, draft.Status),
		}
	}

	draft.Status = models.StatusPlanning
	draft.UpdatedAt = time.Now().UTC()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	planned, err := s.planner.run(ctx, draft)
	if err != nil {
		s.failPlanning(ctx, draft, actor, err)
		return nil, err
	}

	draft.Plan = planned.plan
	draft.Validation = planned.issues
	if planned.diffCanPublish {
		draft.Status = models.StatusReadyToPublish
	} else {
		draft.Status = models.StatusPlanning
	}
	draft.UpdatedAt = time.Now().UTC()

	if err := s.draftRepo.Update(ctx, draft); err != nil {
		s.failPlanning(ctx, draft, actor, err)
		return nil, err
	}

	if err := s.audit.record(ctx, draft.ID, models.ActionPlanDraft, actor,
		nil, planned.plan.Summary, true,
		fmt.Sprintf("plan computed: %d create, %d update, %d delete, %d issue(s)",
			planned.plan.Summary.Create, planned.plan.Summary.Update,
			planned.plan.Summary.Delete, len(planned.issues))); err != nil {
		return nil, err
	}

	s.logger.Info("draft planned",
		"draft_id", draft.ID,
		"status", draft.Status,
		"operations", planned.plan.Summary.Total,
		"estimated_impact", planned.plan.EstimatedImpact,
		"can_publish", planned.plan.CanPublish,
	)

	return planned.plan, nil
}

// failPlanning marks the draft failed after a planning exception.
// Best-effort: the original error is what the caller sees.
func (s *draftService) failPlanning(ctx context.Context, draft *models.Draft, actor string, cause error) {
	draft.Status = models.StatusFailed
	draft.UpdatedAt = time.Now().UTC()
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		s.logger.Error("failed to mark draft failed", "draft_id", draft.ID, "error", err)
	}
	s.audit.recordFailure(ctx, draft.ID, models.ActionPlanDraft, actor, nil,
		fmt.Sprintf("planning failed: %v", cause))
}

// validateCreateRequest validates a create draft request
func (s *draftService) validateCreateRequest(req *builderSvc.CreateDraftRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ParentID, validation.Required),
	); err != nil {
		return err
	}
	return s.validateChildren(req.TargetChildren)
}

// validateChildren validates each proposed child descriptor. Slot and label
// conflicts across children are the validator's concern, not checked here.
func (s *draftService) validateChildren(children []models.ChildNode) error {
	if len(children) > config.MaxTargetChildren {
		return fmt.Errorf("at most %d target children are allowed, got %d",
			config.MaxTargetChildren, len(children))
	}
	for i := range children {
		child := &children[i]
		err := validation.ValidateStruct(child,
			validation.Field(&child.ID, validation.Required),
			validation.Field(&child.Label, validation.Length(0, config.MaxLabelLength)),
			validation.Field(&child.Slot,
				validation.Required.Error("slot is required"),
				validation.Min(1).Error("slot must be at least 1"),
				validation.Max(s.registry.SlotsPerParent()).Error(
					fmt.Sprintf("slot must be at most %d", s.registry.SlotsPerParent())),
			),
			validation.Field(&child.Depth,
				validation.Required.Error("depth is required"),
				validation.Min(1).Error("depth must be at least 1"),
				validation.Max(s.registry.MaxDepth()).Error(
					fmt.Sprintf("depth must be at most %d", s.registry.MaxDepth())),
			),
		)
		if err != nil {
			return fmt.Errorf("target child %d: %v", i, err)
		}
	}
	return nil
}
