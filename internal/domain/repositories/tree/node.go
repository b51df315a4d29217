package tree

import (
	"context"

	"github.com/Yearfield/lorien/internal/domain/models/tree"
)

// NodeRepository is the node store: the sole owner of persisted tree nodes.
// All methods participate in a transaction when one is present in the
// context; the publisher relies on this for all-or-nothing application.
type NodeRepository interface {
	// GetByID retrieves a single node
	GetByID(ctx context.Context, id string) (*tree.Node, error)

	// ChildrenOf returns the children of a parent ordered by slot
	ChildrenOf(ctx context.Context, parentID string) ([]tree.Node, error)

	// Roots returns all Vital Measurement root nodes ordered by label
	Roots(ctx context.Context) ([]tree.Node, error)

	// Insert creates a node under node.ParentID. If node.ID is empty the
	// store assigns one; the assigned ID is written back onto node.
	Insert(ctx context.Context, node *tree.Node) error

	// Update rewrites label, slot and leaf flag on an existing node
	Update(ctx context.Context, id, label string, slot int, leaf bool) error

	// Delete removes a node
	Delete(ctx context.Context, id string) error
}
