// Package ui is a small immediate-mode widget panel drawn through gfx.Cmd.
package ui

import (
	"image/color"

	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/gfx"
)

// Layout constants in screen pixels
const (
	rowHeight  = 26
	padding    = 8
	boxSize    = 14
	panelWidth = 220
)

var (
	panelColor  = color.RGBA{R: 20, G: 20, B: 24, A: 200}
	boxColor    = color.RGBA{R: 90, G: 90, B: 100, A: 255}
	checkColor  = color.RGBA{R: 240, G: 200, B: 60, A: 255}
	buttonColor = color.RGBA{R: 60, G: 60, B: 72, A: 255}
	hoverColor  = color.RGBA{R: 85, G: 85, B: 110, A: 255}
)

// WidgetKind is the type of a widget
type WidgetKind int

const (
	KindCheckbox WidgetKind = iota
	KindButton
)

// Widget is one row of a component
type Widget struct {
	Kind  WidgetKind
	Label string
	// Value is toggled by checkboxes and ignored by buttons
	Value *bool
	// OnEdited runs after a checkbox toggles or a button is pressed
	OnEdited func()
}

// Component is a titled panel of widgets
type Component struct {
	Title   string
	X, Y    float32
	widgets []*Widget
	hovered int
	focused bool
}

// NewComponent creates an empty panel at x, y
func NewComponent(title string, x, y float32) *Component {
	return &Component{Title: title, X: x, Y: y, hovered: -1}
}

// AddCheckbox adds a checkbox bound to value
func (c *Component) AddCheckbox(label string, value *bool) *Widget {
	w := &Widget{Kind: KindCheckbox, Label: label, Value: value}
	c.widgets = append(c.widgets, w)
	return w
}

// AddButton adds a push button
func (c *Component) AddButton(label string) *Widget {
	w := &Widget{Kind: KindButton, Label: label}
	c.widgets = append(c.widgets, w)
	return w
}

// Widgets returns the widgets in display order
func (c *Component) Widgets() []*Widget {
	return c.widgets
}

// Height returns the panel height
func (c *Component) Height() float32 {
	return float32(rowHeight*(len(c.widgets)+1) + padding)
}

// Contains reports whether the point lies on the panel
func (c *Component) Contains(x, y float32) bool {
	return x >= c.X && x < c.X+panelWidth && y >= c.Y && y < c.Y+c.Height()
}

// IsFocused reports whether the cursor was over the panel at the last Update
func (c *Component) IsFocused() bool {
	return c.focused
}

// Update tracks hover and focus from the cursor and fires widgets on click
func (c *Component) Update(st input.State) {
	x, y := float32(st.CursorX), float32(st.CursorY)
	c.focused = c.Contains(x, y)
	c.hovered = -1
	if !c.focused {
		return
	}

	row := int((y-c.Y)/rowHeight) - 1
	if row < 0 || row >= len(c.widgets) {
		return
	}
	c.hovered = row
	if st.Click {
		c.activate(c.widgets[row])
	}
}

func (c *Component) activate(w *Widget) {
	if w.Kind == KindCheckbox && w.Value != nil {
		*w.Value = !*w.Value
	}
	if w.OnEdited != nil {
		w.OnEdited()
	}
}

// Draw renders the panel into cmd, which must be inside a render pass
func (c *Component) Draw(cmd gfx.Cmd, font gfx.FontDrawDesc) {
	cmd.FillRect(c.X, c.Y, panelWidth, c.Height(), panelColor)
	cmd.DrawText(c.Title, c.X+padding, c.Y+padding/2, font)

	for i, w := range c.widgets {
		top := c.Y + float32(rowHeight*(i+1))
		switch w.Kind {
		case KindCheckbox:
			bx, by := c.X+padding, top+(rowHeight-boxSize)/2
			cmd.FillRect(bx, by, boxSize, boxSize, boxColor)
			if w.Value != nil && *w.Value {
				cmd.FillRect(bx+3, by+3, boxSize-6, boxSize-6, checkColor)
			}
			cmd.DrawText(w.Label, bx+boxSize+padding, top+padding/2, font)
		case KindButton:
			bg := buttonColor
			if i == c.hovered {
				bg = hoverColor
			}
			cmd.FillRect(c.X+padding, top+2, panelWidth-2*padding, rowHeight-4, bg)
			cmd.DrawText(w.Label, c.X+2*padding, top+padding/2, font)
		}
	}
}
