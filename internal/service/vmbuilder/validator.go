package vmbuilder

import (
	"fmt"
	"strings"

	models "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// Validator inspects a computed plan for conflicts. It runs immediately
// after diffing, before a plan is considered ready. Its findings are
// persisted onto the draft; blocking severities clear the plan's
// can_publish flag but do not drive the status transition (see PlanDraft).
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns the issue list for a draft's plan.
func (v *Validator) Validate(draft *models.Draft, plan *models.DiffPlan) []models.ValidationIssue {
	var issues []models.ValidationIssue

	if len(plan.Operations) == 0 {
		issues = append(issues, models.ValidationIssue{
			Severity:   models.SeverityWarning,
			Code:       models.CodeNoChanges,
			Message:    "target children match the current children; nothing to publish",
			Suggestion: "edit the draft before planning again",
		})
	}

	// Currently unreachable: no diff rule assigns critical impact. The
	// check is kept so a future rule that does is gated immediately.
	for _, op := range plan.Operations {
		if op.Impact == models.ImpactCritical {
			issues = append(issues, models.ValidationIssue{
				Severity: models.SeverityError,
				Code:     models.CodeCriticalOperations,
				Message:  fmt.Sprintf("critical operation on node %s: %s", op.NodeID, op.Description),
			})
		}
	}

	// Target slot values of create/update operations, in encounter order:
	// every reuse after the first is an error.
	seenSlots := make(map[int]string)
	for _, op := range plan.Operations {
		target := targetOf(op)
		if target == nil {
			continue
		}
		if firstID, ok := seenSlots[target.Slot]; ok {
			issues = append(issues, models.ValidationIssue{
				Severity:   models.SeverityError,
				Code:       models.CodeSlotConflict,
				Message:    fmt.Sprintf("slot %d is claimed by both node %s and node %s", target.Slot, firstID, op.NodeID),
				Field:      "slot",
				Suggestion: "assign each child a distinct slot between 1 and 5",
			})
			continue
		}
		seenSlots[target.Slot] = op.NodeID
	}

	// Target labels, trimmed, in encounter order: reuse is advisory only.
	// Empty labels are exempt.
	seenLabels := make(map[string]string)
	for _, op := range plan.Operations {
		target := targetOf(op)
		if target == nil {
			continue
		}
		label := strings.TrimSpace(target.Label)
		if label == "" {
			continue
		}
		if firstID, ok := seenLabels[label]; ok {
			issues = append(issues, models.ValidationIssue{
				Severity:   models.SeverityWarning,
				Code:       models.CodeLabelDuplicate,
				Message:    fmt.Sprintf("label %q is used by both node %s and node %s", label, firstID, op.NodeID),
				Field:      "label",
				Suggestion: "distinct labels keep sibling options unambiguous",
			})
			continue
		}
		seenLabels[label] = op.NodeID
	}

	return issues
}

// targetOf returns the proposed child a create/update operation writes,
// nil for deletions.
func targetOf(op models.DiffOperation) *models.ChildNode {
	switch op.Kind {
	case models.OpCreate, models.OpUpdate:
		return op.New
	}
	return nil
}
