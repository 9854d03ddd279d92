package segmenter

import (
	"sync"

	"github.com/hazyhaar/seamlis/geom"
	"github.com/hazyhaar/seamlis/screen"
)

// Action is one injected input.
type Action struct {
	Kind string     `json:"kind"` // "click", "type", "enter"
	Rect *geom.Rect `json:"rect,omitempty"`
	Text string     `json:"text,omitempty"`
}

// Recorder is a screen.Dispatcher that records every action.
type Recorder struct {
	mu      sync.Mutex
	actions []Action
}

func (r *Recorder) add(a Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

func (r *Recorder) Click(rect geom.Rect)  { r.add(Action{Kind: "click", Rect: &rect}) }
func (r *Recorder) TypeText(text string) { r.add(Action{Kind: "type", Text: text}) }
func (r *Recorder) Enter()               { r.add(Action{Kind: "enter"}) }

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}

type tee []screen.Dispatcher

func (t tee) Click(r geom.Rect) {
	for _, d := range t {
		d.Click(r)
	}
}

func (t tee) TypeText(text string) {
	for _, d := range t {
		d.TypeText(text)
	}
}

func (t tee) Enter() {
	for _, d := range t {
		d.Enter()
	}
}
