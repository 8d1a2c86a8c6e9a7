package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyboardLook is the right stick value produced by the arrow keys, in cursor pixels per frame
const keyboardLook = 8

// EbitenSource reads keyboard, mouse and the first standard gamepad through ebiten.
//
// WASD or the left gamepad stick move, dragging with the right mouse button, the arrow
// keys or the right gamepad stick look around. R resets the view, F1 dumps the profile,
// F11 toggles fullscreen, F12 takes a screenshot, F9 captures a frame and Escape exits.
type EbitenSource struct {
	lastX, lastY int
	dragging     bool
	gamepads     []ebiten.GamepadID
}

// NewEbitenSource creates a source reading live ebiten input
func NewEbitenSource() *EbitenSource {
	return &EbitenSource{}
}

// Poll reads the current input state. Must be called from ebiten's Update.
func (s *EbitenSource) Poll() State {
	var st State

	st.LeftStick = keyAxis(ebiten.KeyA, ebiten.KeyD, ebiten.KeyS, ebiten.KeyW)
	look := keyAxis(ebiten.KeyArrowLeft, ebiten.KeyArrowRight, ebiten.KeyArrowDown, ebiten.KeyArrowUp)
	st.RightStick = [2]float32{look[0] * keyboardLook, look[1] * keyboardLook}

	mx, my := ebiten.CursorPosition()
	st.CursorX, st.CursorY = mx, my
	st.Click = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		if s.dragging {
			// Screen Y grows downward
			st.RightStick[0] += float32(mx - s.lastX)
			st.RightStick[1] -= float32(my - s.lastY)
		}
		s.dragging = true
	} else {
		s.dragging = false
	}
	s.lastX, s.lastY = mx, my

	s.gamepads = ebiten.AppendGamepadIDs(s.gamepads[:0])
	for _, id := range s.gamepads {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		lx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
		ly := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
		rx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal)
		ry := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical)
		st.LeftStick[0] += float32(lx)
		st.LeftStick[1] -= float32(ly)
		st.RightStick[0] += float32(rx) * keyboardLook
		st.RightStick[1] -= float32(ry) * keyboardLook

		if inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonRightTop) {
			st.Buttons = st.Buttons.With(ButtonNorth)
		}
		if inpututil.IsStandardGamepadButtonJustPressed(id, ebiten.StandardGamepadButtonCenterRight) {
			st.Buttons = st.Buttons.With(ButtonDump)
		}
		break
	}

	keys := []struct {
		key     ebiten.Key
		binding Binding
	}{
		{ebiten.KeyR, ButtonNorth},
		{ebiten.KeyF1, ButtonDump},
		{ebiten.KeyF11, ButtonFullscreen},
		{ebiten.KeyEscape, ButtonExit},
		{ebiten.KeyF9, ButtonCapture},
		{ebiten.KeyF12, ButtonScreenshot},
	}
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k.key) {
			st.Buttons = st.Buttons.With(k.binding)
		}
	}
	if len(inpututil.AppendJustPressedKeys(nil)) > 0 ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		st.Buttons = st.Buttons.With(ButtonAny)
	}

	return st
}

func keyAxis(neg, pos, down, up ebiten.Key) [2]float32 {
	var v [2]float32
	if ebiten.IsKeyPressed(neg) {
		v[0]--
	}
	if ebiten.IsKeyPressed(pos) {
		v[0]++
	}
	if ebiten.IsKeyPressed(down) {
		v[1]--
	}
	if ebiten.IsKeyPressed(up) {
		v[1]++
	}
	return v
}
