package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/younwookim/lightscenes/internal/application/input"
)

// ErrEmpty is returned when saving a session without frames
var ErrEmpty = errors.New("replay: no frames recorded")

// Recorder tees a live input.Source into a session. It is itself an input.Source,
// so the host's input system polls through it.
type Recorder struct {
	source  input.Source
	session ReplayData
	stopped bool
}

// NewRecorder starts recording the states polled from source for scene
func NewRecorder(source input.Source, scene string, dt float64) *Recorder {
	return &Recorder{
		source: source,
		session: ReplayData{
			Version:   FormatVersion,
			Scene:     scene,
			DT:        dt,
			StartTime: time.Now().Format(time.RFC3339),
			Frames:    make([]FrameInput, 0, 3600), // one minute at 60 Hz
		},
	}
}

// Poll implements input.Source
func (r *Recorder) Poll() input.State {
	st := r.source.Poll()
	r.RecordFrame(st)
	return st
}

// RecordFrame appends st as the next frame unless recording was stopped
func (r *Recorder) RecordFrame(st input.State) {
	if r.stopped {
		return
	}
	r.session.Frames = append(r.session.Frames, toFrame(len(r.session.Frames), st))
}

// WriteTo encodes the session as indented JSON
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	if len(r.session.Frames) == 0 {
		return 0, ErrEmpty
	}
	data, err := json.MarshalIndent(r.session, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("replay: encode: %w", err)
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// Save writes the session to filename
func (r *Recorder) Save(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if _, err := r.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(filename)
		return err
	}
	return f.Close()
}

// Stop ends recording. Poll keeps forwarding the source.
func (r *Recorder) Stop() { r.stopped = true }

// IsRecording reports whether polled states are still recorded
func (r *Recorder) IsRecording() bool { return !r.stopped }

// FrameCount returns the number of recorded frames
func (r *Recorder) FrameCount() int { return len(r.session.Frames) }

// GenerateFilename names a recording after the current time
func GenerateFilename() string {
	return "replay_" + time.Now().Format("20060102_150405") + ".json"
}
