package vmbuilder

import "time"

// DraftStatus is the lifecycle status of a draft. The set is closed; use
// Valid() at deserialization boundaries.
type DraftStatus string

const (
	StatusDraft          DraftStatus = "draft"
	StatusPlanning       DraftStatus = "planning"
	StatusReadyToPublish DraftStatus = "ready_to_publish"
	StatusPublishing     DraftStatus = "publishing"
	StatusPublished      DraftStatus = "published"
	StatusFailed         DraftStatus = "failed"

	// StatusCancelled is a supported terminal status, but no operation in
	// this subsystem produces it; reaching it is left to external callers.
	StatusCancelled DraftStatus = "cancelled"
)

// Valid reports whether s is a member of the closed status set.
func (s DraftStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPlanning, StatusReadyToPublish,
		StatusPublishing, StatusPublished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the draft can never leave this status.
func (s DraftStatus) Terminal() bool {
	switch s {
	case StatusPublished, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Editable reports whether the target children may still be replaced.
func (s DraftStatus) Editable() bool {
	return s == StatusDraft || s == StatusPlanning
}

// ChildNode is one proposed child descriptor inside a draft's target set.
// For existing children the ID matches the stored node; for new children it
// is a caller-proposed token used only to match diff entries - the store
// assigns the real ID at publish time.
type ChildNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slot  int    `json:"slot"`
	Leaf  bool   `json:"leaf"`
	Depth int    `json:"depth"`
}

// Draft is a staged, not-yet-applied proposal to change one parent node's
// set of children. Drafts are never deleted by this subsystem; terminal
// drafts are retained for audit.
type Draft struct {
	ID             string            `json:"id"`
	ParentID       string            `json:"parent_id"`
	TargetChildren []ChildNode       `json:"target_children"`
	Status         DraftStatus       `json:"status"`
	Plan           *DiffPlan         `json:"plan,omitempty"`
	Validation     []ValidationIssue `json:"validation,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	PublishedAt    *time.Time        `json:"published_at,omitempty"`
	PublishedBy    *string           `json:"published_by,omitempty"`
}
