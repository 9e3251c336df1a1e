package domain

import (
	"slices"
	"time"
)

// HistoryNode is a read-only view of one node of a history graph
type HistoryNode struct {
	ID        string
	ParentID  string // empty for the root
	Children  []string
	Label     string
	Kind      string
	CreatedAt time.Time
}

// IsRoot reports whether the node has no parent
func (n HistoryNode) IsRoot() bool {
	return n.ParentID == ""
}

// TreeNode represents a node in the history tree for navigation
type TreeNode struct {
	ID         string
	Label      string
	Kind       string
	CreatedAt  time.Time
	IsCurrent  bool
	Children   []*TreeNode
	IsExpanded bool
	Parent     *TreeNode
}

// BuildTree links flat history nodes into a tree rooted at rootID.
// Every node starts expanded.
func BuildTree(nodes []HistoryNode, rootID, currentID string) *TreeNode {
	byID := make(map[string]HistoryNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	var build func(id string, parent *TreeNode) *TreeNode
	build = func(id string, parent *TreeNode) *TreeNode {
		n, ok := byID[id]
		if !ok {
			return nil
		}
		tn := &TreeNode{
			ID:         n.ID,
			Label:      n.Label,
			Kind:       n.Kind,
			CreatedAt:  n.CreatedAt,
			IsCurrent:  n.ID == currentID,
			IsExpanded: true,
			Parent:     parent,
		}
		for _, childID := range n.Children {
			if child := build(childID, tn); child != nil {
				tn.Children = append(tn.Children, child)
			}
		}
		return tn
	}
	return build(rootID, nil)
}

// Flatten returns all visible nodes in the tree (for list rendering)
func (n *TreeNode) Flatten() []*TreeNode {
	var result []*TreeNode
	n.flattenRecursive(&result)
	return result
}

func (n *TreeNode) flattenRecursive(result *[]*TreeNode) {
	*result = append(*result, n)
	if n.IsExpanded {
		for _, child := range n.Children {
			child.flattenRecursive(result)
		}
	}
}

// Depth returns the depth of this node in the tree
func (n *TreeNode) Depth() int {
	depth := 0
	current := n.Parent
	for current != nil {
		depth++
		current = current.Parent
	}
	return depth
}

// Find returns the node with the given id in this subtree
func (n *TreeNode) Find(id string) *TreeNode {
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// PathFromRoot returns the ids from the root down to this node
func (n *TreeNode) PathFromRoot() []string {
	var ids []string
	for current := n; current != nil; current = current.Parent {
		ids = append(ids, current.ID)
	}
	slices.Reverse(ids)
	return ids
}

// Toggle expands or collapses the node
func (n *TreeNode) Toggle() {
	n.IsExpanded = !n.IsExpanded
}

// Expand sets the node as expanded
func (n *TreeNode) Expand() {
	n.IsExpanded = true
}

// Collapse sets the node as collapsed
func (n *TreeNode) Collapse() {
	n.IsExpanded = false
}
