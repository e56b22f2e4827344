package tree

// Ancestors returns the lineage of a node, from the node itself up to the
// root, via repeated parent lookups. Unknown ids yield an empty path. The
// visualization highlights an edge when both endpoints are on the hovered
// node's path.
func (t *Tree) Ancestors(id string) []string {
	var path []string
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		node := t.Nodes[id]
		if node == nil {
			break
		}
		seen[id] = true
		path = append(path, id)
		id = node.ParentID
	}
	return path
}

// OnPath reports whether both endpoints of an edge are on the given path.
func OnPath(path []string, parentID, childID string) bool {
	var hasParent, hasChild bool
	for _, id := range path {
		if id == parentID {
			hasParent = true
		}
		if id == childID {
			hasChild = true
		}
	}
	return hasParent && hasChild
}
