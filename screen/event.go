package screen

import (
	"fmt"

	"github.com/hazyhaar/seamlis/geom"
)

// EventType names a semantic event.
type EventType string

const (
	EventSelect   EventType = "select"
	EventKeyInput EventType = "keyinput"
	EventSubmit   EventType = "submit"
)

// ParseEventType validates an event name.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(s); t {
	case EventSelect, EventKeyInput, EventSubmit:
		return t, nil
	}
	return "", fmt.Errorf("screen: unknown event %q", s)
}

// Dispatcher injects input into the host page. Calls are fire-and-forget.
type Dispatcher interface {
	Click(r geom.Rect)
	TypeText(text string)
	Enter()
}

// Event is a semantic event dispatched to a segment.
type Event struct {
	Type EventType
	// Text is the input of a keyinput event.
	Text string

	// Target is the rectangle the default action acts on.
	Target geom.Rect

	prevented bool
	action    func(Dispatcher)
}

// PreventDefault cancels the default action.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener cancelled the default action.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// HasDefault reports whether the event carries a default action.
func (e *Event) HasDefault() bool { return e.action != nil }

// Listener is called in registration order for each dispatched event.
type Listener func(seg *Segment, e *Event)

// ListenerID identifies a registered listener for removal.
type ListenerID int

type listenerEntry struct {
	id ListenerID
	fn Listener
}

type listenerSet struct {
	next   ListenerID
	byType map[EventType][]listenerEntry
}

// AddListener registers fn for events of type t.
func (s *Segment) AddListener(t EventType, fn Listener) ListenerID {
	if s.listeners.byType == nil {
		s.listeners.byType = make(map[EventType][]listenerEntry)
	}
	s.listeners.next++
	id := s.listeners.next
	s.listeners.byType[t] = append(s.listeners.byType[t], listenerEntry{id: id, fn: fn})
	return id
}

// RemoveListener unregisters a listener. It reports whether one was removed.
func (s *Segment) RemoveListener(t EventType, id ListenerID) bool {
	entries := s.listeners.byType[t]
	for i, e := range entries {
		if e.id == id {
			s.listeners.byType[t] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// Focused reports whether a search segment's input holds focus.
func (s *Segment) Focused() bool { return s.focused }

// Dispatch delivers ev to the segment: the default action is prepared, the
// listeners run in order, and the default action runs through d unless a
// listener prevented it. It reports whether a default action ran.
func (s *Screen) Dispatch(id ID, ev *Event, d Dispatcher) (bool, error) {
	seg, err := s.Lookup(id)
	if err != nil {
		return false, err
	}
	seg.prepare(ev)
	for _, l := range append([]listenerEntry(nil), seg.listeners.byType[ev.Type]...) {
		l.fn(seg, ev)
	}
	if ev.prevented || ev.action == nil || d == nil {
		return false, nil
	}
	ev.action(d)
	return true, nil
}

func (s *Segment) prepare(ev *Event) {
	switch data := s.Variant.(type) {
	case *NavItemData:
		if ev.Type != EventSelect {
			return
		}
		ev.Target = s.Rect
		if data.Link != nil {
			ev.Target = data.Link.Rect
		}
		target := ev.Target
		ev.action = func(d Dispatcher) { d.Click(target) }
	case *FormData:
		if s.Kind != KindSearch || data.Input == nil {
			return
		}
		target := data.Input.Rect
		ev.Target = target
		focused := s.focused
		switch ev.Type {
		case EventSelect:
			s.focused = true
			ev.action = func(d Dispatcher) { d.Click(target) }
		case EventKeyInput:
			s.focused = true
			text := ev.Text
			ev.action = func(d Dispatcher) {
				if !focused {
					d.Click(target)
				}
				d.TypeText(text)
			}
		case EventSubmit:
			s.focused = false
			ev.action = func(d Dispatcher) {
				if !focused {
					d.Click(target)
				}
				d.Enter()
			}
		}
	}
}
