package sitetree

import (
	"fmt"

	"git.home.luguber.info/inful/siteconfig/internal/foundation/errors"
)

// Tree is an immutable adjacency-list view over a set of nodes.
type Tree struct {
	nodes map[string]Node
	order []string
	// users maps a node id to the ids of nodes listing it as a parent, in snapshot order.
	users map[string][]string
}

// New builds a tree. Node ids must be unique and every parent must exist.
// Parents form an ordered set; repeated parent ids collapse to the first.
func New(nodes []Node) (*Tree, error) {
	t := &Tree{
		nodes: make(map[string]Node, len(nodes)),
		order: make([]string, 0, len(nodes)),
		users: make(map[string][]string),
	}
	for _, n := range nodes {
		if n.ID == "" {
			return nil, errors.ValidationError("publication without id").
				WithContext("title", n.Title).
				Build()
		}
		if _, dup := t.nodes[n.ID]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("duplicate publication id %q", n.ID)).
				WithContext("id", n.ID).
				Build()
		}
		n = normalize(n)
		t.nodes[n.ID] = n
		t.order = append(t.order, n.ID)
	}
	for _, id := range t.order {
		for _, p := range t.nodes[id].Parents {
			if _, ok := t.nodes[p]; !ok {
				return nil, errors.NotFoundError(fmt.Sprintf("publication %q lists unknown parent %q", id, p)).
					WithContext("id", id).
					WithContext("parent", p).
					Build()
			}
			t.users[p] = append(t.users[p], id)
		}
	}
	return t, nil
}

func normalize(n Node) Node {
	meta := make(map[string]string, len(n.Metadata)+1)
	for k, v := range n.Metadata {
		meta[k] = v
	}
	if n.SiteIDField != "" {
		if _, set := meta[MetaSiteID]; !set {
			meta[MetaSiteID] = n.SiteIDField
		}
	}
	n.Metadata = meta
	n.SiteIDField = ""
	n.Parents = uniqueParents(n.Parents)
	return n
}

// uniqueParents copies parents, dropping repeated ids after their first occurrence.
func uniqueParents(parents []string) []string {
	out := make([]string, 0, len(parents))
	seen := make(map[string]bool, len(parents))
	for _, p := range parents {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }

// Node returns the node with the given id.
func (t *Tree) Node(id string) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns all nodes in snapshot order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Parents returns the parents of id in declaration order.
func (t *Tree) Parents(id string) []Node {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(n.Parents))
	for _, p := range n.Parents {
		out = append(out, t.nodes[p])
	}
	return out
}

// Metadata returns a metadata value of node id, "" when the node or key is absent.
func (t *Tree) Metadata(id, key string) string {
	return t.nodes[id].Meta(key)
}

// IsMasterCandidate reports whether the node is flagged as a master web publication.
func (t *Tree) IsMasterCandidate(id string) bool {
	return t.nodes[id].MasterWeb
}

// Using returns every node that directly or transitively uses id, breadth
// first. Each node appears once; id itself is never included.
func (t *Tree) Using(id string) []Node {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	seen := map[string]bool{id: true}
	queue := []string{id}
	var out []Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, u := range t.users[cur] {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, t.nodes[u])
			queue = append(queue, u)
		}
	}
	return out
}
