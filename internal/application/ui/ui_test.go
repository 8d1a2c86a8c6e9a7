package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/gfx/gfxtest"
)

// rowCenter returns a cursor position on the given widget row
func rowCenter(c *Component, row int) (int, int) {
	return int(c.X) + 20, int(c.Y) + rowHeight*(row+1) + rowHeight/2
}

func TestComponent_Focus(t *testing.T) {
	c := NewComponent("Settings", 10, 10)
	c.AddButton("Screenshot")

	c.Update(input.State{CursorX: 500, CursorY: 500})
	assert.False(t, c.IsFocused())

	c.Update(input.State{CursorX: 20, CursorY: 20})
	assert.True(t, c.IsFocused())
}

func TestComponent_CheckboxToggles(t *testing.T) {
	c := NewComponent("Settings", 0, 0)
	vsync := false
	edits := 0
	cb := c.AddCheckbox("Toggle VSync", &vsync)
	cb.OnEdited = func() { edits++ }

	x, y := rowCenter(c, 0)
	c.Update(input.State{CursorX: x, CursorY: y})
	assert.False(t, vsync, "hover alone does not toggle")

	c.Update(input.State{CursorX: x, CursorY: y, Click: true})
	assert.True(t, vsync)
	assert.Equal(t, 1, edits)

	c.Update(input.State{CursorX: x, CursorY: y, Click: true})
	assert.False(t, vsync)
	assert.Equal(t, 2, edits)
}

func TestComponent_ButtonFires(t *testing.T) {
	c := NewComponent("Settings", 0, 0)
	c.AddCheckbox("Toggle VSync", new(bool))
	pressed := 0
	c.AddButton("Screenshot").OnEdited = func() { pressed++ }

	// Click on the title row does nothing
	c.Update(input.State{CursorX: 20, CursorY: 5, Click: true})
	assert.Equal(t, 0, pressed)

	x, y := rowCenter(c, 1)
	c.Update(input.State{CursorX: x, CursorY: y, Click: true})
	assert.Equal(t, 1, pressed)
}

func TestComponent_Draw(t *testing.T) {
	dev := gfxtest.New(1280, 720, 3)
	pool, err := dev.AddCmdPool()
	require.NoError(t, err)
	cmd, err := dev.AddCmd(pool)
	require.NoError(t, err)

	c := NewComponent("Settings", 0, 0)
	on := true
	c.AddCheckbox("Toggle VSync", &on)
	c.AddButton("Screenshot")

	dev.Reset()
	cmd.Begin()
	c.Draw(cmd, gfx.FontDrawDesc{Size: 18, Color: 0xff00ffff})
	cmd.End()

	// panel, box, check mark, button background
	assert.Equal(t, 4, dev.Count("cmd.FillRect"))
	// title, checkbox label, button label
	assert.Equal(t, 3, dev.Count("cmd.DrawText"))
	assert.Empty(t, dev.Violations)
}
