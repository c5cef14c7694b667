package player

import (
	"errors"
	"time"

	"asciivid/ascii"
)

// State tracks where the scheduler is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// Clock abstracts wall time so pacing can be tested deterministically.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Sink is the terminal the scheduler draws to.
type Sink interface {
	// Dimensions reports the current size as rows and columns. It is
	// re-read every frame; the window can resize mid-playback.
	Dimensions() (rows, cols int)
	Render(rows []string) error
	// PollKey reports, without blocking, whether a key was pressed.
	PollKey() bool
	HideCursor()
}

// Scheduler replays text frames against the wall clock. When rendering falls
// behind it skips ahead to the frame the clock calls for instead of queueing
// a backlog, trading frame fidelity for temporal accuracy.
type Scheduler struct {
	frames []ascii.TextFrame
	fps    int
	state  State

	// Loop restarts playback from frame 0 after the last frame.
	Loop bool
	// Clock defaults to the wall clock when nil.
	Clock Clock
}

// NewScheduler builds an idle scheduler for the given frame sequence.
func NewScheduler(frames []ascii.TextFrame, fps int) *Scheduler {
	return &Scheduler{frames: frames, fps: fps}
}

// State returns the scheduler's lifecycle state.
func (s *Scheduler) State() State {
	return s.state
}

// Run plays the frames on sink until the sequence ends (unless looping) or a
// key is pressed. Errors are only possible before the first frame or from the
// sink itself.
func (s *Scheduler) Run(sink Sink) error {
	if len(s.frames) == 0 {
		return errors.New("no frames to play")
	}
	if s.fps <= 0 {
		return errors.New("frame rate must be positive")
	}

	clock := s.Clock
	if clock == nil {
		clock = realClock{}
	}
	frameDur := time.Second / time.Duration(s.fps)

	sink.HideCursor()
	s.state = StateRunning
	defer func() { s.state = StateStopped }()

	start := clock.Now()
	i := 0
	for {
		rows, cols := sink.Dimensions()
		if err := sink.Render(clip(s.frames[i], rows, cols)); err != nil {
			return err
		}

		// Pace against (i+1)*frameDur from start. A positive budget means
		// we are on time: sleep and advance. A negative one means the
		// render fell behind: jump to the frame the clock calls for.
		elapsed := clock.Now().Sub(start)
		sleep := time.Duration(i+1)*frameDur - elapsed
		if sleep > 0 {
			clock.Sleep(sleep)
			i++
		} else {
			i = int(elapsed / frameDur)
		}

		if sink.PollKey() {
			return nil
		}

		if i >= len(s.frames) {
			if !s.Loop {
				return nil
			}
			i = 0
			start = clock.Now()
		}
	}
}

// clip bounds a frame to the sink's current dimensions.
func clip(frame ascii.TextFrame, rows, cols int) []string {
	if rows > 0 && len(frame) > rows {
		frame = frame[:rows]
	}
	out := make([]string, len(frame))
	for i, row := range frame {
		if cols > 0 && len(row) > cols {
			row = row[:cols]
		}
		out[i] = row
	}
	return out
}
