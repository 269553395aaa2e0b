// Package tree rebuilds a page's block hierarchy from its flat, persisted
// form and flattens it back into linear (pre-order) navigation order.
package tree

import (
	"sort"

	"github.com/skridlevsky/pagetree/types"
)

// Node wraps a block with its ordered children.
type Node struct {
	types.Block
	Children []*Node `json:"children"`
	Depth    int     `json:"depth"`
}

// Build converts a flat collection of one page's blocks into a forest.
//
// A block whose parent is not in the collection is placed at the root.
// So is a block whose parent chain loops back on itself, so corrupted data
// still renders every block exactly once. Sibling lists are sorted by Index;
// ties keep their input order.
func Build(blocks []types.Block) []*Node {
	nodes := make(map[string]*Node, len(blocks))
	for _, b := range blocks {
		nodes[b.ID] = &Node{Block: b}
	}

	var roots []*Node
	for _, b := range blocks {
		node := nodes[b.ID]
		parent, ok := nodes[b.ParentBlockID]
		if b.ParentBlockID == "" || !ok || inCycle(b.ID, nodes) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortNodes(roots, 0)
	return roots
}

// inCycle reports whether following parent references from id returns to id.
func inCycle(id string, nodes map[string]*Node) bool {
	seen := map[string]bool{id: true}
	cur := nodes[id].ParentBlockID
	for cur != "" {
		if seen[cur] {
			return cur == id
		}
		seen[cur] = true
		next, ok := nodes[cur]
		if !ok {
			return false
		}
		cur = next.ParentBlockID
	}
	return false
}

func sortNodes(nodes []*Node, depth int) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Index < nodes[j].Index
	})
	for _, n := range nodes {
		n.Depth = depth
		sortNodes(n.Children, depth+1)
	}
}

// Flatten returns the pre-order sequence of a forest: each node is
// immediately followed by its flattened children, in child order.
func Flatten(nodes []*Node) []*Node {
	var flat []*Node
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			flat = append(flat, n)
			walk(n.Children)
		}
	}
	walk(nodes)
	return flat
}

// Order returns the ids of blocks in linear navigation order.
func Order(blocks []types.Block) []string {
	flat := Flatten(Build(blocks))
	ids := make([]string, len(flat))
	for i, n := range flat {
		ids[i] = n.ID
	}
	return ids
}

// Prev returns the block before id in navigation order, or "" when id is
// first or unknown.
func Prev(blocks []types.Block, id string) string {
	ids := Order(blocks)
	for i, cur := range ids {
		if cur == id {
			if i > 0 {
				return ids[i-1]
			}
			return ""
		}
	}
	return ""
}

// Next returns the block after id in navigation order, or "" when id is
// last or unknown.
func Next(blocks []types.Block, id string) string {
	ids := Order(blocks)
	for i, cur := range ids {
		if cur == id {
			if i < len(ids)-1 {
				return ids[i+1]
			}
			return ""
		}
	}
	return ""
}

// Count returns the number of nodes in a forest.
func Count(nodes []*Node) int {
	count := len(nodes)
	for _, n := range nodes {
		count += Count(n.Children)
	}
	return count
}
