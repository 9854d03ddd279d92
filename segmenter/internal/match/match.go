// Package match maps a detection box to the visual node it most likely
// covers.
package match

import (
	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

// MinIoU is the overlap a candidate needs to be matched.
const MinIoU = 0.2

// Node returns the node hit at the box centroid with the highest IoU against
// box, or nil when no candidate reaches MinIoU. Candidates are scanned
// innermost first and only a strictly better score replaces the current best,
// so the topmost node wins ties. The document root and the frame never match.
func Node(t vtree.Tree, box geom.Rect, vp geom.Viewport) vtree.Node {
	x, y := box.Centroid()
	root, frame := t.Root(), t.Frame()

	var best vtree.Node
	bestIoU := MinIoU
	for _, c := range t.NodesAt(x, y) {
		if c == root || (frame != nil && c == frame) || !c.Visible() {
			continue
		}
		iou := geom.Finite(geom.IoU(box, c.Rect().Clip(vp)))
		if best == nil && iou >= bestIoU || iou > bestIoU {
			best, bestIoU = c, iou
		}
	}
	return best
}
