package vtree

import (
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/seamlis/geom"
)

// Snapshot is the wire form of a rendered tree captured in one pass by the
// host (see livepage). Nodes are listed in pre-order; Parent indexes into
// Nodes and is -1 for the root.
type Snapshot struct {
	URL      string         `json:"url,omitempty"`
	Viewport geom.Viewport  `json:"viewport"`
	Frame    int            `json:"frame"`
	Nodes    []SnapshotNode `json:"nodes"`
	Hits     []SnapshotHit  `json:"hits,omitempty"`
}

// SnapshotNode is one element. Rect is [xmin, xmax, ymin, ymax].
type SnapshotNode struct {
	Parent      int               `json:"p"`
	Tag         string            `json:"t"`
	Class       string            `json:"c,omitempty"`
	Attrs       map[string]string `json:"a,omitempty"`
	Rect        [4]float64        `json:"r"`
	Hidden      bool              `json:"h,omitempty"`
	Transparent bool              `json:"o,omitempty"`
}

// SnapshotHit is the host's hit-test answer at a point, innermost first.
type SnapshotHit struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Nodes []int   `json:"n"`
}

// DecodeSnapshot parses a JSON snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vtree: decode snapshot: %w", err)
	}
	return &s, nil
}

// Document rebuilds the element tree.
func (s *Snapshot) Document() (*Document, error) {
	if len(s.Nodes) == 0 {
		return nil, fmt.Errorf("vtree: empty snapshot")
	}
	els := make([]*Element, len(s.Nodes))
	for i, n := range s.Nodes {
		e := El(n.Tag, geom.Rect{XMin: n.Rect[0], XMax: n.Rect[1], YMin: n.Rect[2], YMax: n.Rect[3]})
		e.Class = n.Class
		e.Attrs = n.Attrs
		e.Hidden = n.Hidden
		e.Transparent = n.Transparent
		els[i] = e

		switch {
		case i == 0:
			if n.Parent != -1 {
				return nil, fmt.Errorf("vtree: snapshot root has parent %d", n.Parent)
			}
		case n.Parent < 0 || n.Parent >= i:
			return nil, fmt.Errorf("vtree: snapshot node %d has invalid parent %d", i, n.Parent)
		default:
			els[n.Parent].Add(e)
		}
	}

	doc := NewDocument(els[0])
	if s.Frame > 0 && s.Frame < len(els) {
		doc.SetFrame(els[s.Frame])
	}
	for _, h := range s.Hits {
		nodes := make([]*Element, 0, len(h.Nodes))
		for _, idx := range h.Nodes {
			if idx >= 0 && idx < len(els) {
				nodes = append(nodes, els[idx])
			}
		}
		doc.SetHits(h.X, h.Y, nodes)
	}
	return doc, nil
}
