package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/younwookim/lightscenes/internal/application/input"
)

// Replayer plays a recorded session back as an input.Source. Past the last frame it
// reports idle input.
type Replayer struct {
	session ReplayData
	next    int
}

// NewReplayer creates a replayer positioned at the first frame
func NewReplayer(data ReplayData) *Replayer {
	return &Replayer{session: data}
}

// ReadReplay decodes a session and checks its format version
func ReadReplay(r io.Reader) (*ReplayData, error) {
	var data ReplayData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("replay: decode: %w", err)
	}
	if data.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %q", ErrVersion, data.Version)
	}
	return &data, nil
}

// LoadReplay reads a session file written by Recorder.Save
func LoadReplay(filename string) (*ReplayData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadReplay(f)
}

// GetInput returns the next recorded state. ok is false once the session is exhausted.
func (r *Replayer) GetInput() (st input.State, ok bool) {
	if r.Done() {
		return input.State{}, false
	}
	st = r.session.Frames[r.next].state()
	r.next++
	return st, true
}

// Poll implements input.Source
func (r *Replayer) Poll() input.State {
	st, _ := r.GetInput()
	return st
}

// Done reports whether every recorded frame was played
func (r *Replayer) Done() bool { return r.next >= len(r.session.Frames) }

// CurrentFrame returns the index of the frame the next Poll plays
func (r *Replayer) CurrentFrame() int { return r.next }

// TotalFrames returns the session length
func (r *Replayer) TotalFrames() int { return len(r.session.Frames) }

// Scene returns the scene the session was recorded in
func (r *Replayer) Scene() string { return r.session.Scene }

// DT returns the fixed step the session was recorded with
func (r *Replayer) DT() float64 { return r.session.DT }

// Reset rewinds to the first frame
func (r *Replayer) Reset() { r.next = 0 }

// IdleSession builds a session of n frames with the cursor parked at (x, y)
func IdleSession(scene string, n, x, y int) ReplayData {
	frames := make([]FrameInput, n)
	for i := range frames {
		frames[i] = FrameInput{F: i, MX: x, MY: y}
	}
	return ReplayData{Version: FormatVersion, Scene: scene, DT: 1.0 / 60.0, Frames: frames}
}
