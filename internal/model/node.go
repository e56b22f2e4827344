package model

import (
	"time"
)

// Node is the derived in-memory tree unit: one user prompt paired with
// its (possibly still absent) assistant response. Nodes are rebuilt from
// the flat message records on every load and never persisted.
type Node struct {
	// ID equals the originating user message ID.
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Response string   `json:"response"`
	Children []string `json:"children"`
	ParentID string   `json:"parent_id,omitempty"`

	// CreatedAt is the user message timestamp, used to order siblings.
	CreatedAt time.Time `json:"created_at"`
}

// Point is a 2D layout coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TreeResponse is the visualization payload: the reconstructed tree plus
// static layout coordinates. Positions are absent when layout is not
// requested.
type TreeResponse struct {
	Nodes     map[string]*Node `json:"nodes"`
	RootID    string           `json:"root_id,omitempty"`
	Positions map[string]Point `json:"positions,omitempty"`
}

// CompareRequest names the two nodes to diff.
type CompareRequest struct {
	LeftID  string `json:"left_id"`
	RightID string `json:"right_id"`
}
