package screen

import (
	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/vtree"
)

// Outline is a serializable view of a placed segment and its subtree.
type Outline struct {
	ID           ID         `json:"id"`
	UIType       Kind       `json:"ui_type"`
	Role         Role       `json:"role,omitempty"`
	Label        string     `json:"label,omitempty"`
	Score        float64    `json:"score,omitempty"`
	Rect         geom.Rect  `json:"rect"`
	Path         vtree.Path `json:"path,omitempty"`
	Left         *ID        `json:"left,omitempty"`
	Right        *ID        `json:"right,omitempty"`
	Top          *ID        `json:"top,omitempty"`
	Bottom       *ID        `json:"bottom,omitempty"`
	MessageInput *ID        `json:"message_input,omitempty"`
	Children     []*Outline `json:"children,omitempty"`
}

// Outline returns the outline of the whole screen.
func (s *Screen) Outline() *Outline {
	return s.outline(s.Root())
}

func (s *Screen) outline(seg *Segment) *Outline {
	o := &Outline{
		ID:     seg.ID,
		UIType: seg.Kind,
		Role:   seg.Role,
		Label:  seg.Label,
		Score:  seg.Score,
		Rect:   seg.Rect,
		Path:   seg.Path(),
		Left:   link(seg.Left),
		Right:  link(seg.Right),
		Top:    link(seg.Top),
		Bottom: link(seg.Bottom),
	}
	if w, ok := seg.Variant.(*WidgetData); ok {
		o.MessageInput = link(w.MessageInput)
	}
	for _, c := range seg.Children {
		o.Children = append(o.Children, s.outline(s.segs[c]))
	}
	return o
}

func link(id ID) *ID {
	if id == None {
		return nil
	}
	return &id
}

// Walk visits the outline in pre-order.
func (o *Outline) Walk(fn func(*Outline)) {
	fn(o)
	for _, c := range o.Children {
		c.Walk(fn)
	}
}
