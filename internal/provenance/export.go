package provenance

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const exportVersion = 1

type exportDoc struct {
	Version int     `json:"version"`
	Root    string  `json:"root"`
	Current string  `json:"current"`
	Nodes   []*node `json:"nodes"`
}

// Export serializes the whole tree and the current pointer. Nodes are
// written in creation order, so exporting a loaded graph reproduces the
// input byte for byte.
func (g *Graph[S]) Export() (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := exportDoc{
		Version: exportVersion,
		Root:    g.root,
		Current: g.current,
		Nodes:   make([]*node, 0, len(g.order)),
	}
	for _, id := range g.order {
		doc.Nodes = append(doc.Nodes, g.nodes[id])
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to export graph: %w", err)
	}
	return string(data), nil
}

// Load rebuilds a graph from an Export string. The export is validated in
// full before a graph is returned; nothing is constructed on failure.
func (r *Registry[S]) Load(export string) (*Graph[S], error) {
	var doc exportDoc
	dec := json.NewDecoder(bytes.NewReader([]byte(export)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedExport)
	}
	if err := r.validateExport(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}

	g, err := newGraph(r)
	if err != nil {
		return nil, err
	}
	for _, n := range doc.Nodes {
		if n.Children == nil {
			n.Children = []string{}
		}
		g.insert(n)
	}
	g.root = doc.Root
	g.current = doc.Current

	// Every node must decode into S; a foreign export fails here, not later.
	for _, id := range g.order {
		if _, err := g.decodeAt(id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
	}
	return g, nil
}

func (r *Registry[S]) validateExport(doc *exportDoc) error {
	if doc.Version != exportVersion {
		return fmt.Errorf("unsupported version %d", doc.Version)
	}
	if len(doc.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}

	byID := make(map[string]*node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n == nil || n.ID == "" {
			return fmt.Errorf("node without id")
		}
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("duplicate node %s", n.ID)
		}
		byID[n.ID] = n
	}

	root, ok := byID[doc.Root]
	if !ok {
		return fmt.Errorf("root %s not found", doc.Root)
	}
	if _, ok := byID[doc.Current]; !ok {
		return fmt.Errorf("current %s not found", doc.Current)
	}
	if root.Parent != "" || root.Action != RootAction || root.Depth != 0 || len(root.State) == 0 {
		return fmt.Errorf("invalid root node %s", root.ID)
	}

	listed := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, childID := range n.Children {
			child, ok := byID[childID]
			if !ok || child.Parent != n.ID || listed[childID] {
				return fmt.Errorf("node %s lists foreign child %s", n.ID, childID)
			}
			listed[childID] = true
		}
		if n == root {
			continue
		}
		if n.Parent == "" {
			return fmt.Errorf("second root %s", n.ID)
		}
		parent, ok := byID[n.Parent]
		if !ok {
			return fmt.Errorf("parent %s of %s not found", n.Parent, n.ID)
		}
		// Depth strictly increasing along parent links rules out cycles.
		if n.Depth != parent.Depth+1 {
			return fmt.Errorf("node %s has depth %d under depth %d", n.ID, n.Depth, parent.Depth)
		}
		if len(n.State) == 0 && len(n.Delta) == 0 {
			return fmt.Errorf("node %s has no payload", n.ID)
		}
		if _, ok := r.reducer(n.Action); !ok {
			return fmt.Errorf("node %s uses unknown action %q", n.ID, n.Action)
		}
	}
	if len(listed) != len(doc.Nodes)-1 {
		return fmt.Errorf("children lists reference %d nodes, want %d", len(listed), len(doc.Nodes)-1)
	}
	return nil
}
