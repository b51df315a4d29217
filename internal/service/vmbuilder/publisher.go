package vmbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yearfield/lorien/internal/domain"
	treeModels "github.com/Yearfield/lorien/internal/domain/models/tree"
	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	"github.com/Yearfield/lorien/internal/domain/repositories"
	treeRepo "github.com/Yearfield/lorien/internal/domain/repositories/tree"
	builderRepo "github.com/Yearfield/lorien/internal/domain/repositories/vmbuilder"
	builderSvc "github.com/Yearfield/lorien/internal/domain/services/vmbuilder"
)

// publisher implements the Publisher interface: it applies a draft's plan
// to the node store as one transaction and finalizes the draft.
type publisher struct {
	draftRepo builderRepo.DraftRepository
	nodeRepo  treeRepo.NodeRepository
	txManager repositories.TransactionManager
	opLogger  builderRepo.OperationLogger
	planner   *planner
	audit     *auditLogger
	logger    *slog.Logger
}

// NewPublisher creates a new publisher
func NewPublisher(
	draftRepo builderRepo.DraftRepository,
	nodeRepo treeRepo.NodeRepository,
	auditRepo builderRepo.AuditRepository,
	txManager repositories.TransactionManager,
	opLogger builderRepo.OperationLogger,
	logger *slog.Logger,
) builderSvc.Publisher {
	return &publisher{
		draftRepo: draftRepo,
		nodeRepo:  nodeRepo,
		txManager: txManager,
		opLogger:  opLogger,
		planner: &planner{
			nodeRepo:  nodeRepo,
			calc:      NewDiffCalculator(),
			validator: NewValidator(),
		},
		audit:  newAuditLogger(auditRepo, logger),
		logger: logger,
	}
}

// Publish applies the draft's plan. The plan is always recomputed fresh
// against the store's current state rather than trusting the stored
// snapshot; the recomputed plan and validation are persisted back onto the
// draft so the last validation snapshot reflects what was gated on.
//
// Force bypasses the status-readiness check and the validation gate. It
// never bypasses transactional atomicity.
func (p *publisher) Publish(ctx context.Context, draftID string, req *builderSvc.PublishRequest) (*builderSvc.PublishResult, error) {
	draft, err := p.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if !req.Force && draft.Status != models.StatusReadyToPublish {
		return nil, &domain.InvalidStateError{
			Message: fmt.Sprintf("draft %s is %s, not %s", draftID, draft.Status, models.StatusReadyToPublish),
		}
	}

	planned, err := p.planner.run(ctx, draft)
	if err != nil {
		return nil, err
	}
	draft.Plan = planned.plan
	draft.Validation = planned.issues
	draft.UpdatedAt = time.Now().UTC()
	if err := p.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	if !req.Force && !planned.plan.CanPublish {
		return nil, &domain.ValidationBlockedError{
			Message: fmt.Sprintf("draft %s cannot be published: validation found blocking issues", draftID),
			Issues:  planned.issues,
		}
	}

	draft.Status = models.StatusPublishing
	draft.UpdatedAt = time.Now().UTC()
	if err := p.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	// All node store writes ride this transaction; the first failing
	// operation aborts the rest and rolls everything back.
	txErr := p.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for _, op := range planned.plan.Operations {
			if err := p.apply(txCtx, draft.ParentID, op); err != nil {
				return fmt.Errorf("apply %s on node %s: %w", op.Kind, op.NodeID, err)
			}
		}
		return nil
	})

	if txErr != nil {
		draft.Status = models.StatusFailed
		draft.UpdatedAt = time.Now().UTC()
		if err := p.draftRepo.Update(ctx, draft); err != nil {
			p.logger.Error("failed to mark draft failed", "draft_id", draft.ID, "error", err)
		}
		p.audit.recordFailure(ctx, draft.ID, models.ActionPublishDraft, req.Actor,
			planned.plan.Summary, fmt.Sprintf("publish failed, transaction rolled back: %v", txErr))

		return nil, &domain.TransactionError{
			Message: fmt.Sprintf("publish draft %s", draftID),
			Cause:   txErr,
		}
	}

	now := time.Now().UTC()
	draft.Status = models.StatusPublished
	draft.PublishedAt = &now
	draft.PublishedBy = &req.Actor
	draft.UpdatedAt = now
	if err := p.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	// External audit entry summarizing the published operations. The node
	// mutations are already committed, so a logging failure is reported but
	// does not undo the publish.
	auditID, err := p.opLogger.LogOperation(ctx, string(models.ActionPublishDraft), draft.ParentID, req.Actor,
		publishPayload(draft, planned.plan), false)
	if err != nil {
		p.logger.Error("operation log write failed after publish", "draft_id", draft.ID, "error", err)
	}

	if err := p.audit.record(ctx, draft.ID, models.ActionPublishDraft, req.Actor,
		nil, planned.plan.Summary, true,
		fmt.Sprintf("published %d operation(s)", planned.plan.Summary.Total)); err != nil {
		return nil, err
	}

	p.logger.Info("draft published",
		"draft_id", draft.ID,
		"parent_id", draft.ParentID,
		"operations", planned.plan.Summary.Total,
		"forced", req.Force,
		"actor", req.Actor,
	)

	return &builderSvc.PublishResult{
		DraftID:     draft.ID,
		Status:      draft.Status,
		Applied:     planned.plan.Summary,
		PublishedAt: now,
		PublishedBy: req.Actor,
		AuditID:     auditID,
	}, nil
}

// apply issues one plan operation against the node store.
func (p *publisher) apply(ctx context.Context, parentID string, op models.DiffOperation) error {
	switch op.Kind {
	case models.OpCreate:
		// The descriptor's ID is a caller-proposed matching token; the
		// store assigns the real ID.
		node := &treeModels.Node{
			ParentID: &parentID,
			Label:    op.New.Label,
			Depth:    op.New.Depth,
			Slot:     op.New.Slot,
			Leaf:     op.New.Leaf,
		}
		return p.nodeRepo.Insert(ctx, node)
	case models.OpUpdate:
		return p.nodeRepo.Update(ctx, op.NodeID, op.New.Label, op.New.Slot, op.New.Leaf)
	case models.OpDelete:
		return p.nodeRepo.Delete(ctx, op.NodeID)
	default:
		return fmt.Errorf("unsupported operation kind %q", op.Kind)
	}
}

// publishPayload summarizes the applied operations for the external audit
// subsystem.
func publishPayload(draft *models.Draft, plan *models.DiffPlan) map[string]any {
	operations := make([]map[string]any, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		operations = append(operations, map[string]any{
			"kind":        string(op.Kind),
			"node_id":     op.NodeID,
			"impact":      string(op.Impact),
			"description": op.Description,
		})
	}
	return map[string]any{
		"draft_id":   draft.ID,
		"parent_id":  draft.ParentID,
		"summary":    plan.Summary,
		"operations": operations,
	}
}
