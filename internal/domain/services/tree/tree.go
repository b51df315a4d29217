package tree

import (
	"context"

	"github.com/Yearfield/lorien/internal/domain/models/tree"
)

// ChildListing is the children of one parent plus the hierarchy level the
// children sit at.
type ChildListing struct {
	ParentID  string      `json:"parent_id"`
	Depth     int         `json:"depth"`
	LevelName string      `json:"level_name"`
	Children  []tree.Node `json:"children"`
}

// TreeService exposes read projections of the node store for the editor UI.
type TreeService interface {
	// Children returns a parent's children ordered by slot
	Children(ctx context.Context, parentID string) (*ChildListing, error)

	// Roots returns all Vital Measurement root nodes
	Roots(ctx context.Context) ([]tree.Node, error)
}
