package testutil

import (
	"time"

	treeModels "github.com/Yearfield/lorien/internal/domain/models/tree"
	builderModels "github.com/Yearfield/lorien/internal/domain/models/vmbuilder"
)

// Child builds a leaf-level child descriptor at depth 5, the common case
// in fixed-depth trees where edited children sit under a depth-4 parent.
func Child(id, label string, slot int) builderModels.ChildNode {
	return builderModels.ChildNode{ID: id, Label: label, Slot: slot, Leaf: true, Depth: 5}
}

// ChildAt builds a child descriptor with explicit depth and leaf flag
func ChildAt(id, label string, slot, depth int, leaf bool) builderModels.ChildNode {
	return builderModels.ChildNode{ID: id, Label: label, Slot: slot, Leaf: leaf, Depth: depth}
}

// TreeNode builds a stored node. parentID may be empty for roots.
func TreeNode(id, parentID, label string, depth, slot int, leaf bool) treeModels.Node {
	node := treeModels.Node{
		ID:        id,
		Label:     label,
		Depth:     depth,
		Slot:      slot,
		Leaf:      leaf,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if parentID != "" {
		node.ParentID = &parentID
	}
	return node
}

// LeafNode builds a depth-5 leaf node under the given parent
func LeafNode(id, parentID, label string, slot int) treeModels.Node {
	return TreeNode(id, parentID, label, 5, slot, true)
}
