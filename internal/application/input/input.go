// Package input maps raw device state to registered actions.
//
// A Source produces one State per frame. System applies each action's deadzone,
// outside radius and scale to the stick bindings and fires button bindings on
// the frame they are pressed.
package input

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Binding identifies a logical control
type Binding int

const (
	FloatLeftStick Binding = iota
	FloatRightStick
	ButtonNorth
	ButtonDump
	ButtonFullscreen
	ButtonExit
	ButtonCapture
	ButtonScreenshot
	// ButtonAny fires when any button or mouse button is pressed
	ButtonAny
)

// String returns the string representation of the binding
func (b Binding) String() string {
	switch b {
	case FloatLeftStick:
		return "LeftStick"
	case FloatRightStick:
		return "RightStick"
	case ButtonNorth:
		return "North"
	case ButtonDump:
		return "Dump"
	case ButtonFullscreen:
		return "Fullscreen"
	case ButtonExit:
		return "Exit"
	case ButtonCapture:
		return "Capture"
	case ButtonScreenshot:
		return "Screenshot"
	case ButtonAny:
		return "Any"
	default:
		return "Unknown"
	}
}

// IsStick reports whether the binding carries a float2 value
func (b Binding) IsStick() bool {
	return b == FloatLeftStick || b == FloatRightStick
}

// Buttons is a bit set of button bindings pressed this frame
type Buttons uint32

// Has reports whether b is in the set
func (m Buttons) Has(b Binding) bool {
	return m&(1<<uint(b)) != 0
}

// With returns the set with b added
func (m Buttons) With(b Binding) Buttons {
	return m | 1<<uint(b)
}

// State is one frame of raw input
type State struct {
	LeftStick  [2]float32 `json:"leftStick"`
	RightStick [2]float32 `json:"rightStick"`
	Buttons    Buttons    `json:"buttons"`
	CursorX    int        `json:"cursorX"`
	CursorY    int        `json:"cursorY"`
	Click      bool       `json:"click"`
}

// Source produces input states, one per frame
type Source interface {
	Poll() State
}

// Context is passed to action callbacks
type Context struct {
	Binding  Binding
	Float2   mgl32.Vec2
	Captured bool
}

// ActionDesc describes an action. Stick values below Deadzone are reported as zero,
// values beyond OutsideRadius are clamped to it, and the result is multiplied by Scale.
// A zero Scale is treated as one.
type ActionDesc struct {
	Binding       Binding
	Deadzone      float32
	OutsideRadius float32
	Scale         float32
	Func          func(ctx Context) bool
}

// ActionID identifies a registered action
type ActionID int

// System dispatches input states to actions
type System struct {
	source   Source
	actions  map[ActionID]ActionDesc
	nextID   ActionID
	captured bool
	last     State
}

// NewSystem creates an input system reading from source
func NewSystem(source Source) *System {
	return &System{
		source:  source,
		actions: make(map[ActionID]ActionDesc),
		nextID:  1,
	}
}

// AddAction registers an action and returns its id
func (s *System) AddAction(desc ActionDesc) ActionID {
	id := s.nextID
	s.nextID++
	s.actions[id] = desc
	return id
}

// RemoveAction unregisters an action. Unknown ids are ignored.
func (s *System) RemoveAction(id ActionID) {
	delete(s.actions, id)
}

// ActionCount returns the number of registered actions
func (s *System) ActionCount() int {
	return len(s.actions)
}

// SetCaptured sets whether camera-style actions should act on input
func (s *System) SetCaptured(c bool) {
	s.captured = c
}

func (s *System) Captured() bool {
	return s.captured
}

// SetSource replaces the input source
func (s *System) SetSource(src Source) {
	s.source = src
}

// Last returns the state dispatched by the most recent Update
func (s *System) Last() State {
	return s.last
}

// Update polls the source and dispatches the state to the actions in registration order
func (s *System) Update() {
	if s.source == nil {
		return
	}
	st := s.source.Poll()
	s.last = st

	ids := make([]ActionID, 0, len(s.actions))
	for id := range s.actions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		a, ok := s.actions[id]
		// A callback may remove later actions
		if !ok || a.Func == nil {
			continue
		}
		ctx := Context{Binding: a.Binding, Captured: s.captured}
		switch {
		case a.Binding == FloatLeftStick:
			ctx.Float2 = a.shape(st.LeftStick)
		case a.Binding == FloatRightStick:
			ctx.Float2 = a.shape(st.RightStick)
		case a.Binding == ButtonAny:
			if st.Buttons == 0 && !st.Click {
				continue
			}
		default:
			if !st.Buttons.Has(a.Binding) {
				continue
			}
		}
		a.Func(ctx)
	}
}

func (a ActionDesc) shape(raw [2]float32) mgl32.Vec2 {
	v := mgl32.Vec2{raw[0], raw[1]}
	l := v.Len()
	if l == 0 || l < a.Deadzone {
		return mgl32.Vec2{}
	}
	if a.OutsideRadius > 0 && l > a.OutsideRadius {
		v = v.Mul(a.OutsideRadius / l)
	}
	if a.Scale != 0 {
		v = v.Mul(a.Scale)
	}
	return v
}
