package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/input"
)

type fixedSource struct {
	states []input.State
	i      int
}

func (f *fixedSource) Poll() input.State {
	st := f.states[f.i%len(f.states)]
	f.i++
	return st
}

func TestFrameInput_OmitsIdleFields(t *testing.T) {
	data, err := json.Marshal(FrameInput{F: 3, MX: 10, MY: 20})
	require.NoError(t, err)

	assert.JSONEq(t, `{"f":3,"mx":10,"my":20}`, string(data))
}

func TestReplayer_GetInput(t *testing.T) {
	north := uint32(input.Buttons(0).With(input.ButtonNorth))
	data := ReplayData{
		Version: "1.0",
		Scene:   "colors",
		Frames: []FrameInput{
			{F: 0, LY: 1, MX: 100, MY: 100},
			{F: 1, RX: 4, RY: -2, B: north, MX: 110, MY: 95},
			{F: 2, MX: 120, MY: 90, MC: true},
		},
	}

	replayer := NewReplayer(data)

	// Frame 0
	st, ok := replayer.GetInput()
	require.True(t, ok)
	assert.Equal(t, [2]float32{0, 1}, st.LeftStick)
	assert.Equal(t, 100, st.CursorX)

	// Frame 1
	st, ok = replayer.GetInput()
	require.True(t, ok)
	assert.Equal(t, [2]float32{4, -2}, st.RightStick)
	assert.True(t, st.Buttons.Has(input.ButtonNorth))
	assert.False(t, st.Buttons.Has(input.ButtonExit))

	// Frame 2
	st, ok = replayer.GetInput()
	require.True(t, ok)
	assert.True(t, st.Click)
	assert.Equal(t, [2]float32{}, st.LeftStick)

	// End of frames
	_, ok = replayer.GetInput()
	assert.False(t, ok)
	assert.True(t, replayer.Done())
	assert.Equal(t, input.State{}, replayer.Poll())
}

func TestReplayer_Progress(t *testing.T) {
	replayer := NewReplayer(IdleSession("colors", 5, 100, 100))

	assert.Equal(t, 0, replayer.CurrentFrame())
	assert.Equal(t, 5, replayer.TotalFrames())
	assert.Equal(t, "colors", replayer.Scene())
	assert.InDelta(t, 1.0/60.0, replayer.DT(), 1e-9)

	replayer.GetInput()
	replayer.Poll()
	replayer.Poll()
	assert.Equal(t, 3, replayer.CurrentFrame())
	assert.False(t, replayer.Done())
}

func TestReplayer_Reset(t *testing.T) {
	replayer := NewReplayer(IdleSession("colors", 3, 100, 100))
	for !replayer.Done() {
		replayer.Poll()
	}
	_, ok := replayer.GetInput()
	assert.False(t, ok)

	replayer.Reset()
	assert.Equal(t, 0, replayer.CurrentFrame())

	st, ok := replayer.GetInput()
	assert.True(t, ok)
	assert.Equal(t, 100, st.CursorX)
}

func TestIdleSession(t *testing.T) {
	data := IdleSession("testscene", 60, 200, 150)

	assert.Equal(t, FormatVersion, data.Version)
	assert.Equal(t, "testscene", data.Scene)
	require.Len(t, data.Frames, 60)
	for i, frame := range data.Frames {
		assert.Equal(t, i, frame.F)
		assert.Equal(t, 200, frame.MX)
		assert.Equal(t, 150, frame.MY)
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	live := []input.State{
		{LeftStick: [2]float32{0, 1}, CursorX: 5},
		{RightStick: [2]float32{3, 0}, Buttons: input.Buttons(0).With(input.ButtonDump)},
		{Click: true, CursorX: 7, CursorY: 9},
	}
	rec := NewRecorder(&fixedSource{states: live}, "colors", 1.0/60.0)

	for range live {
		rec.Poll()
	}
	assert.Equal(t, 3, rec.FrameCount())
	assert.True(t, rec.IsRecording())

	rec.Stop()
	rec.Poll()
	assert.Equal(t, 3, rec.FrameCount(), "stopped recorder still forwards but does not record")

	path := filepath.Join(t.TempDir(), GenerateFilename())
	require.NoError(t, rec.Save(path))

	data, err := LoadReplay(path)
	require.NoError(t, err)
	assert.Equal(t, "colors", data.Scene)

	replayer := NewReplayer(*data)
	for i, want := range live {
		got, ok := replayer.GetInput()
		require.True(t, ok)
		assert.Equal(t, want, got, "frame %d", i)
	}
}

func TestRecorder_SaveEmpty(t *testing.T) {
	rec := NewRecorder(&fixedSource{states: []input.State{{}}}, "colors", 1.0/60.0)
	path := filepath.Join(t.TempDir(), "empty.json")
	assert.ErrorIs(t, rec.Save(path), ErrEmpty)
	assert.NoFileExists(t, path)
}

func TestLoadReplay_Errors(t *testing.T) {
	_, err := LoadReplay(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadReplay(bad)
	assert.Error(t, err)

	_, err = ReadReplay(strings.NewReader(`{"version":"0.9","frames":[]}`))
	assert.ErrorIs(t, err, ErrVersion)
}
