package vmbuilder

import (
	"context"
	"fmt"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
	treeRepo "github.com/Yearfield/lorien/internal/domain/repositories/tree"
)

// planner runs the diff + validate pipeline for one draft. It is shared by
// the lifecycle manager's plan step and by the publisher, which recomputes
// the plan fresh at publish time instead of trusting a stored snapshot.
type planner struct {
	nodeRepo  treeRepo.NodeRepository
	calc      *DiffCalculator
	validator *Validator
}

// plannedDraft is the outcome of one planning pass. diffCanPublish is the
// calculator's own flag, before validation findings are folded into the
// plan's CanPublish; the status transition keys off it.
type plannedDraft struct {
	plan           *models.DiffPlan
	issues         []models.ValidationIssue
	diffCanPublish bool
}

// run computes a fresh plan for the draft from the store's current state.
func (p *planner) run(ctx context.Context, draft *models.Draft) (*plannedDraft, error) {
	nodes, err := p.nodeRepo.ChildrenOf(ctx, draft.ParentID)
	if err != nil {
		return nil, fmt.Errorf("load current children: %w", err)
	}

	current := make([]models.ChildNode, 0, len(nodes))
	for _, n := range nodes {
		current = append(current, models.ChildNode{
			ID:    n.ID,
			Label: n.Label,
			Slot:  n.Slot,
			Leaf:  n.Leaf,
			Depth: n.Depth,
		})
	}

	ops := p.calc.Compute(current, draft.TargetChildren)
	plan := p.calc.BuildPlan(draft.ID, draft.ParentID, ops)

	issues := p.validator.Validate(draft, plan)
	plan.Issues = issues

	diffCanPublish := plan.CanPublish
	if models.HasBlocking(issues) {
		plan.CanPublish = false
	}

	return &plannedDraft{
		plan:           plan,
		issues:         issues,
		diffCanPublish: diffCanPublish,
	}, nil
}
