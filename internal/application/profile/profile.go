// Package profile keeps rolling CPU and GPU timings for named frame sections.
package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/younwookim/lightscenes/internal/gfx"
)

// smoothing is the weight of the newest sample in the rolling average
const smoothing = 0.1

// Section is the accumulated timing of one named region
type Section struct {
	Name    string        `json:"name"`
	GPU     bool          `json:"gpu"`
	Last    time.Duration `json:"lastNs"`
	Average time.Duration `json:"averageNs"`
	Max     time.Duration `json:"maxNs"`
	Samples int           `json:"samples"`
}

func (s *Section) add(d time.Duration) {
	s.Last = d
	if s.Samples == 0 {
		s.Average = d
	} else {
		s.Average = time.Duration(float64(s.Average)*(1-smoothing) + float64(d)*smoothing)
	}
	if d > s.Max {
		s.Max = d
	}
	s.Samples++
}

type open struct {
	name  string
	gpu   bool
	start time.Time
}

// Profiler records CPU sections and GPU timestamp queries
type Profiler struct {
	now      func() time.Time
	sections []*Section
	index    map[string]*Section
	stack    []open
	frame    time.Time
	frames   int
}

// New creates a profiler using the wall clock
func New() *Profiler {
	return NewWithClock(time.Now)
}

// NewWithClock creates a profiler reading time from now
func NewWithClock(now func() time.Time) *Profiler {
	return &Profiler{now: now, index: make(map[string]*Section)}
}

// BeginFrame closes the previous frame's "CPU Frame" section and starts a new one
func (p *Profiler) BeginFrame() {
	t := p.now()
	if !p.frame.IsZero() {
		p.section("CPU Frame", false).add(t.Sub(p.frame))
	}
	p.frame = t
	p.frames++
}

// Begin opens a CPU section
func (p *Profiler) Begin(name string) {
	p.stack = append(p.stack, open{name: name, start: p.now()})
}

// BeginGPU opens a GPU section and records the matching timestamp query into cmd
func (p *Profiler) BeginGPU(cmd gfx.Cmd, name string) {
	cmd.BeginTimestampQuery(name)
	p.stack = append(p.stack, open{name: name, gpu: true, start: p.now()})
}

// End closes the innermost open section. For GPU sections cmd receives the end query.
func (p *Profiler) End(cmd gfx.Cmd) {
	if len(p.stack) == 0 {
		return
	}
	o := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if o.gpu && cmd != nil {
		cmd.EndTimestampQuery()
	}
	p.section(o.name, o.gpu).add(p.now().Sub(o.start))
}

func (p *Profiler) section(name string, gpu bool) *Section {
	key := name
	if gpu {
		key = "gpu:" + name
	}
	s, ok := p.index[key]
	if !ok {
		s = &Section{Name: name, GPU: gpu}
		p.index[key] = s
		p.sections = append(p.sections, s)
	}
	return s
}

// Sections returns the sections in first-seen order
func (p *Profiler) Sections() []Section {
	out := make([]Section, len(p.sections))
	for i, s := range p.sections {
		out[i] = *s
	}
	return out
}

// Frames returns the number of frames begun
func (p *Profiler) Frames() int {
	return p.frames
}

// Lines formats the rolling averages for the overlay
func (p *Profiler) Lines() []string {
	lines := make([]string, 0, len(p.sections))
	for _, s := range p.sections {
		prefix := "CPU"
		if s.GPU {
			prefix = "GPU"
		}
		if s.Name == "CPU Frame" {
			fps := 0.0
			if s.Average > 0 {
				fps = float64(time.Second) / float64(s.Average)
			}
			lines = append(lines, fmt.Sprintf("CPU Frame: %.2f ms (%.0f fps)", ms(s.Average), fps))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s: %.2f ms", prefix, s.Name, ms(s.Average)))
	}
	return lines
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// DrawText writes the overlay lines into cmd starting at x, y
func (p *Profiler) DrawText(cmd gfx.Cmd, x, y float32, font gfx.FontDrawDesc) {
	for _, line := range p.Lines() {
		_, h := cmd.DrawText(line, x, y, font)
		y += h + 2
	}
}

type dump struct {
	Frames   int       `json:"frames"`
	Sections []Section `json:"sections"`
}

// Dump writes the sections as JSON
func (p *Profiler) Dump(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump{Frames: p.frames, Sections: p.Sections()}); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return nil
}

// DumpFile writes the profile to a timestamped file in dir and returns its path
func (p *Profiler) DumpFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, "profile-"+p.now().Format("20060102-150405")+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := p.Dump(f); err != nil {
		return "", err
	}
	return path, nil
}
