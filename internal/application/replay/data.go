package replay

import (
	"errors"

	"github.com/younwookim/lightscenes/internal/application/input"
)

// FormatVersion is written into every session and required when reading one
const FormatVersion = "1.0"

// ErrVersion is returned for sessions written in another format version
var ErrVersion = errors.New("replay: unsupported format version")

// FrameInput records input state for a single frame
type FrameInput struct {
	F  int     `json:"f"`            // Frame number
	LX float32 `json:"lx,omitempty"` // Left stick X
	LY float32 `json:"ly,omitempty"` // Left stick Y
	RX float32 `json:"rx,omitempty"` // Right stick X
	RY float32 `json:"ry,omitempty"` // Right stick Y
	B  uint32  `json:"b,omitempty"`  // Buttons pressed this frame
	MX int     `json:"mx"`           // CursorX
	MY int     `json:"my"`           // CursorY
	MC bool    `json:"mc,omitempty"` // Click
}

// ReplayData contains all data needed to replay a camera session
type ReplayData struct {
	Version   string       `json:"version"`
	Scene     string       `json:"scene"`
	DT        float64      `json:"dt"` // Fixed step the session was recorded with
	StartTime string       `json:"startTime"`
	Frames    []FrameInput `json:"frames"`
}

func toFrame(n int, st input.State) FrameInput {
	return FrameInput{
		F:  n,
		LX: st.LeftStick[0],
		LY: st.LeftStick[1],
		RX: st.RightStick[0],
		RY: st.RightStick[1],
		B:  uint32(st.Buttons),
		MX: st.CursorX,
		MY: st.CursorY,
		MC: st.Click,
	}
}

func (fi FrameInput) state() input.State {
	return input.State{
		LeftStick:  [2]float32{fi.LX, fi.LY},
		RightStick: [2]float32{fi.RX, fi.RY},
		Buttons:    input.Buttons(fi.B),
		CursorX:    fi.MX,
		CursorY:    fi.MY,
		Click:      fi.MC,
	}
}
