package vmbuilder

import (
	"fmt"
	"strings"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// warnLargeChangesetThreshold is the operation count above which an
// advisory "large changeset" warning is attached to the plan.
const warnLargeChangesetThreshold = 10

// DiffCalculator compares a parent's current children against a draft's
// target children and produces a classified operation list. It is pure:
// no store access, no clock, no randomness - calling it twice on the same
// inputs yields element-wise identical results.
type DiffCalculator struct{}

// NewDiffCalculator creates a diff calculator.
func NewDiffCalculator() *DiffCalculator {
	return &DiffCalculator{}
}

// Compute produces the operations that turn current into target. Both sets
// are keyed by node ID. The result is ordered deletions first, then
// updates, then creations; within each phase, input order is preserved.
func (c *DiffCalculator) Compute(current, target []models.ChildNode) []models.DiffOperation {
	targetByID := make(map[string]models.ChildNode, len(target))
	for _, child := range target {
		targetByID[child.ID] = child
	}
	currentByID := make(map[string]models.ChildNode, len(current))
	for _, child := range current {
		currentByID[child.ID] = child
	}

	var ops []models.DiffOperation

	// Deletions: present in current, absent from target.
	for _, old := range current {
		if _, ok := targetByID[old.ID]; ok {
			continue
		}
		old := old
		ops = append(ops, models.DiffOperation{
			Kind:        models.OpDelete,
			NodeID:      old.ID,
			Old:         &old,
			Impact:      models.ImpactHigh,
			Description: fmt.Sprintf("delete %q from slot %d", old.Label, old.Slot),
		})
	}

	// Updates: present in both with differing label, slot or leaf flag.
	// One operation covers all changed fields; slot/leaf changes dominate
	// label changes when both occur.
	for _, old := range current {
		next, ok := targetByID[old.ID]
		if !ok {
			continue
		}
		if op, changed := c.updateOp(old, next); changed {
			ops = append(ops, op)
		}
	}

	// Creations: present in target, absent from current.
	for _, next := range target {
		if _, ok := currentByID[next.ID]; ok {
			continue
		}
		next := next
		ops = append(ops, models.DiffOperation{
			Kind:        models.OpCreate,
			NodeID:      next.ID,
			New:         &next,
			Impact:      models.ImpactMedium,
			Description: fmt.Sprintf("create %q in slot %d", next.Label, next.Slot),
		})
	}

	return ops
}

// updateOp builds the single update operation covering every changed field,
// or reports changed=false when the two versions are identical.
func (c *DiffCalculator) updateOp(old, next models.ChildNode) (models.DiffOperation, bool) {
	var changes []string
	impact := models.ImpactMedium

	if old.Label != next.Label {
		changes = append(changes, fmt.Sprintf("label %q -> %q", old.Label, next.Label))
	}
	if old.Slot != next.Slot {
		changes = append(changes, fmt.Sprintf("slot %d -> %d", old.Slot, next.Slot))
		impact = models.ImpactHigh
	}
	if old.Leaf != next.Leaf {
		changes = append(changes, fmt.Sprintf("leaf %t -> %t", old.Leaf, next.Leaf))
		impact = models.ImpactHigh
	}

	if len(changes) == 0 {
		return models.DiffOperation{}, false
	}

	oldCopy, nextCopy := old, next
	return models.DiffOperation{
		Kind:        models.OpUpdate,
		NodeID:      old.ID,
		Old:         &oldCopy,
		New:         &nextCopy,
		Impact:      impact,
		Description: fmt.Sprintf("update %q: %s", old.Label, strings.Join(changes, ", ")),
	}, true
}

// BuildPlan wraps an operation list into a DiffPlan with summary counts,
// the aggregate impact estimate, the publishability flag and advisory
// warnings. Validation issues are attached separately by the planning step.
func (c *DiffCalculator) BuildPlan(draftID, parentID string, ops []models.DiffOperation) *models.DiffPlan {
	plan := &models.DiffPlan{
		DraftID:         draftID,
		ParentID:        parentID,
		Operations:      ops,
		EstimatedImpact: models.ImpactLow,
	}

	highCount := 0
	hasCritical := false
	for _, op := range ops {
		switch op.Kind {
		case models.OpCreate:
			plan.Summary.Create++
		case models.OpUpdate:
			plan.Summary.Update++
		case models.OpDelete:
			plan.Summary.Delete++
		}
		plan.Summary.Total++

		plan.EstimatedImpact = models.MaxImpact(plan.EstimatedImpact, op.Impact)
		if op.Impact == models.ImpactHigh {
			highCount++
		}
		if op.Impact == models.ImpactCritical {
			hasCritical = true
		}
	}

	plan.CanPublish = len(ops) > 0 && !hasCritical

	// Advisory only; warnings never block publishing.
	if len(ops) > warnLargeChangesetThreshold {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("large changeset: %d operations", len(ops)))
	}
	if highCount > 0 {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("%d high-impact operation(s): review before publishing", highCount))
	}

	return plan
}
