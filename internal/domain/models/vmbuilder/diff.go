package vmbuilder

// DiffOpKind classifies one structural change within a plan.
type DiffOpKind string

const (
	OpCreate DiffOpKind = "create"
	OpUpdate DiffOpKind = "update"
	OpDelete DiffOpKind = "delete"

	// Move and reorder are reserved kinds: the calculator folds slot changes
	// into update operations today, but the wire format keeps room for them.
	OpMove    DiffOpKind = "move"
	OpReorder DiffOpKind = "reorder"
)

// Valid reports whether k is a member of the closed kind set.
func (k DiffOpKind) Valid() bool {
	switch k {
	case OpCreate, OpUpdate, OpDelete, OpMove, OpReorder:
		return true
	}
	return false
}

// ImpactLevel is the coarse blast-radius classification of one operation.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"

	// ImpactCritical is never assigned by the current calculator rules, but
	// the gating that checks for it is kept for forward compatibility.
	ImpactCritical ImpactLevel = "critical"
)

var impactRank = map[ImpactLevel]int{
	ImpactLow:      0,
	ImpactMedium:   1,
	ImpactHigh:     2,
	ImpactCritical: 3,
}

// Rank returns the ordering weight of the impact level.
func (l ImpactLevel) Rank() int {
	return impactRank[l]
}

// MaxImpact returns the higher of two impact levels.
func MaxImpact(a, b ImpactLevel) ImpactLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// DiffOperation is one atomic structural change. Exactly one of Old/New is
// nil for create/delete; both are present for update.
type DiffOperation struct {
	Kind        DiffOpKind  `json:"kind"`
	NodeID      string      `json:"node_id"`
	Old         *ChildNode  `json:"old,omitempty"`
	New         *ChildNode  `json:"new,omitempty"`
	Impact      ImpactLevel `json:"impact"`
	Description string      `json:"description"`

	// AffectedDescendants is reserved for subtree blast-radius reporting;
	// the calculator leaves it empty today.
	AffectedDescendants []string `json:"affected_descendants,omitempty"`
}

// DiffSummary holds the per-kind operation counts of a plan.
type DiffSummary struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Delete int `json:"delete"`
	Total  int `json:"total"`
}

// DiffPlan is the full proposed mutation set for one draft: the classified
// operations needed to turn the parent's current children into the draft's
// target children, plus validation findings and publish gating.
type DiffPlan struct {
	DraftID         string            `json:"draft_id"`
	ParentID        string            `json:"parent_id"`
	Operations      []DiffOperation   `json:"operations"`
	Summary         DiffSummary       `json:"summary"`
	Issues          []ValidationIssue `json:"issues,omitempty"`
	EstimatedImpact ImpactLevel       `json:"estimated_impact"`
	CanPublish      bool              `json:"can_publish"`
	Warnings        []string          `json:"warnings,omitempty"`
}
