package tree

import "time"

// Node is one persisted node of the decision-tree hierarchy.
//
// The hierarchy has a fixed shape: depth 0 is a "Vital Measurement" root,
// depths 1-5 are the five ordered child levels, and depth-5 nodes are leaves
// eligible to carry diagnostic triage/action text. Slot is the ordinal
// position (1-5) of a node under its parent; roots carry slot 0.
type Node struct {
	ID        string    `json:"id" db:"id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = root
	Label     string    `json:"label" db:"label"`
	Depth     int       `json:"depth" db:"depth"`
	Slot      int       `json:"slot" db:"slot"`
	Leaf      bool      `json:"leaf" db:"leaf"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the node is a Vital Measurement root.
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}
