package game

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
)

// mockHost is a test double for the Host interface
type mockHost struct {
	updateCalled int
	drawCalled   int
	lastDT       float32
	done         bool
	updateErr    error
	drawErr      error
}

func (m *mockHost) Update(dt float32) error {
	m.updateCalled++
	m.lastDT = dt
	return m.updateErr
}

func (m *mockHost) Draw() error {
	m.drawCalled++
	return m.drawErr
}

func (m *mockHost) Done() bool { return m.done }

type mockScreen struct{ set int }

func (m *mockScreen) SetScreen(*ebiten.Image) { m.set++ }

func TestGame_Update_DelegatesToHost(t *testing.T) {
	h := &mockHost{}
	g := New(h, nil, 320, 240)

	err := g.Update()
	assert.NoError(t, err)
	assert.Equal(t, 1, h.updateCalled, "Update should delegate to host")
	assert.InDelta(t, 1.0/60.0, h.lastDT, 1e-7)
}

func TestGame_Draw_SetsScreenThenDraws(t *testing.T) {
	h := &mockHost{}
	s := &mockScreen{}
	g := New(h, s, 320, 240)

	g.Draw(nil)

	assert.Equal(t, 1, s.set)
	assert.Equal(t, 1, h.drawCalled, "Draw should delegate to host")
}

func TestGame_Layout(t *testing.T) {
	g := New(&mockHost{}, nil, 320, 240)

	w, h := g.Layout(640, 480)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestGame_SetDT(t *testing.T) {
	h := &mockHost{}
	g := New(h, nil, 320, 240)
	g.SetDT(0.5)

	assert.NoError(t, g.Update())
	assert.Equal(t, float32(0.5), h.lastDT)
}

func TestGame_Termination(t *testing.T) {
	t.Run("host done", func(t *testing.T) {
		h := &mockHost{done: true}
		g := New(h, nil, 320, 240)

		assert.ErrorIs(t, g.Update(), ebiten.Termination)
		assert.Equal(t, 0, h.updateCalled)
	})

	t.Run("stop condition", func(t *testing.T) {
		h := &mockHost{}
		g := New(h, nil, 320, 240)
		frames := 0
		g.SetStop(func() bool { return frames >= 3 })

		for i := 0; i < 3; i++ {
			assert.NoError(t, g.Update())
			frames++
		}
		assert.ErrorIs(t, g.Update(), ebiten.Termination)
	})
}

func TestGame_Errors(t *testing.T) {
	t.Run("update error", func(t *testing.T) {
		g := New(&mockHost{updateErr: assert.AnError}, nil, 320, 240)
		assert.Error(t, g.Update(), "Error should propagate from host")
	})

	t.Run("draw error surfaces on next update", func(t *testing.T) {
		h := &mockHost{drawErr: assert.AnError}
		g := New(h, nil, 320, 240)

		g.Draw(nil)
		g.Draw(nil)
		assert.Equal(t, 1, h.drawCalled, "no further draws after a failure")
		assert.ErrorIs(t, g.Update(), assert.AnError)
		assert.Equal(t, 0, h.updateCalled)
	})
}
