package ascii

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"testing"
)

// fakeSource serves pre-built frames and can simulate absent frames or an
// early end of stream.
type fakeSource struct {
	frames []image.Image
	absent map[int]bool
	fps    int
	w, h   int
}

func (s *fakeSource) FrameCount() int        { return len(s.frames) }
func (s *fakeSource) FPS() int               { return s.fps }
func (s *fakeSource) Resolution() (int, int) { return s.w, s.h }

func (s *fakeSource) ReadFrame(i int) (image.Image, error) {
	if i >= len(s.frames) {
		return nil, io.EOF
	}
	if s.absent[i] {
		return nil, fmt.Errorf("frame %d absent", i)
	}
	return s.frames[i], nil
}

// darkSource builds n uniform frames with distinct dark values, so every
// transcoded row is non-blank and survives a decode round trip.
func darkSource(n int) *fakeSource {
	src := &fakeSource{fps: 10, w: 8, h: 8, absent: map[int]bool{}}
	for i := 0; i < n; i++ {
		src.frames = append(src.frames, grayImage(8, 8, uint8((i%8)*25)))
	}
	return src
}

func TestEncode_RoundTrip(t *testing.T) {
	src := darkSource(5)
	var buf bytes.Buffer

	report, err := Encode(src, &buf, Options{Width: 4, Workers: 3})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if report.FramesWritten != 5 {
		t.Fatalf("FramesWritten = %d, expected 5", report.FramesWritten)
	}

	store, err := DecodeArtifact(&buf, 99)
	if err != nil {
		t.Fatalf("DecodeArtifact returned error: %v", err)
	}

	if store.Meta.Width != 8 || store.Meta.Height != 8 || store.Meta.FPS != 10 {
		t.Errorf("metadata did not round-trip: %+v", store.Meta)
	}
	if len(store.Frames) != 5 {
		t.Fatalf("decoded %d frames, expected 5", len(store.Frames))
	}

	// Decoded frames must match a direct sequential transcode exactly.
	for i := range store.Frames {
		want, err := TranscodeFrame(src.frames[i], 4, DefaultRamp)
		if err != nil {
			t.Fatalf("reference transcode failed: %v", err)
		}
		if len(store.Frames[i]) != len(want) {
			t.Fatalf("frame %d has %d rows, expected %d", i, len(store.Frames[i]), len(want))
		}
		for j := range want {
			if store.Frames[i][j] != want[j] {
				t.Errorf("frame %d row %d = %q, expected %q", i, j, store.Frames[i][j], want[j])
			}
		}
	}
}

func TestEncode_HeaderFormat(t *testing.T) {
	src := darkSource(1)
	var buf bytes.Buffer

	if _, err := Encode(src, &buf, Options{Width: 4}); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	wantPrefix := "Video Resolution: 8x8\n" +
		"Video FPS: 10\n" +
		"\n" +
		strings.Repeat("=", 80) + "\n" +
		"\n"
	if !strings.HasPrefix(buf.String(), wantPrefix) {
		t.Errorf("artifact header = %q, expected prefix %q", buf.String()[:min(len(buf.String()), len(wantPrefix))], wantPrefix)
	}
}

func TestEncode_SkipsAbsentFrames(t *testing.T) {
	// frame_count says 5 but frame 3 cannot be fetched: the run completes
	// with 4 contiguous frames and a recorded skip, not an error.
	src := darkSource(5)
	src.absent[3] = true
	var buf bytes.Buffer

	report, err := Encode(src, &buf, Options{Width: 4, Workers: 2})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if report.FramesWritten != 4 {
		t.Errorf("FramesWritten = %d, expected 4", report.FramesWritten)
	}
	if report.FramesSkipped != 1 {
		t.Errorf("FramesSkipped = %d, expected 1", report.FramesSkipped)
	}

	store, err := DecodeArtifact(&buf, 24)
	if err != nil {
		t.Fatalf("DecodeArtifact returned error: %v", err)
	}
	if len(store.Frames) != 4 {
		t.Errorf("decoded %d frames, expected 4", len(store.Frames))
	}
}

func TestEncode_Stride(t *testing.T) {
	src := darkSource(10)
	var buf bytes.Buffer

	report, err := Encode(src, &buf, Options{Width: 4, Stride: 3})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	// Indices 0, 3, 6, 9.
	if report.FramesWritten != 4 {
		t.Errorf("FramesWritten = %d, expected 4", report.FramesWritten)
	}
}

func TestEncode_BadFrameTolerated(t *testing.T) {
	src := darkSource(5)
	src.frames[2] = nil // decodes to a transcode failure, not a fetch failure
	var buf bytes.Buffer

	report, err := Encode(src, &buf, Options{Width: 4, Workers: 2})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if report.FramesFailed != 1 {
		t.Errorf("FramesFailed = %d, expected 1", report.FramesFailed)
	}
	if report.FramesWritten != 5 {
		t.Errorf("FramesWritten = %d, expected 5 (empty frame still holds its slot)", report.FramesWritten)
	}

	// The empty frame occupies no rows, so only 4 frames decode.
	store, err := DecodeArtifact(&buf, 24)
	if err != nil {
		t.Fatalf("DecodeArtifact returned error: %v", err)
	}
	if len(store.Frames) != 4 {
		t.Errorf("decoded %d frames, expected 4", len(store.Frames))
	}
}

func TestEncode_Dedupe(t *testing.T) {
	// Two identical structured frames followed by their inverse: the middle
	// duplicate is dropped.
	pattern := image.NewGray(image.Rect(0, 0, 8, 8))
	inverse := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				pattern.Pix[y*8+x] = 0
				inverse.Pix[y*8+x] = 255
			} else {
				pattern.Pix[y*8+x] = 255
				inverse.Pix[y*8+x] = 0
			}
		}
	}
	src := &fakeSource{
		frames: []image.Image{pattern, pattern, inverse},
		absent: map[int]bool{},
		fps:    10, w: 8, h: 8,
	}

	var buf bytes.Buffer
	report, err := Encode(src, &buf, Options{Width: 4, Dedupe: true})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if report.DupesDropped != 1 {
		t.Errorf("DupesDropped = %d, expected 1", report.DupesDropped)
	}
	if report.FramesWritten != 2 {
		t.Errorf("FramesWritten = %d, expected 2", report.FramesWritten)
	}
}

func TestEncode_SinkFailure(t *testing.T) {
	src := darkSource(5)
	sink := &failingWriter{failAfter: 120}

	_, err := Encode(src, sink, Options{Width: 4, Workers: 2})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if !errors.Is(err, errSinkBroken) {
		t.Errorf("expected wrapped sink error, got %v", err)
	}
}

func TestEncode_ProgressEvents(t *testing.T) {
	src := darkSource(6)
	var buf bytes.Buffer
	var events []Event

	_, err := Encode(src, &buf, Options{
		Width:    4,
		Workers:  3,
		Progress: func(ev Event) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	if len(events) != 6 {
		t.Fatalf("received %d progress events, expected 6", len(events))
	}
	for i, ev := range events {
		if ev.Total != 6 {
			t.Errorf("event %d Total = %d, expected 6", i, ev.Total)
		}
		if ev.Emitted < 1 || ev.Emitted > 6 {
			t.Errorf("event %d Emitted = %d, out of range", i, ev.Emitted)
		}
	}
}

var errSinkBroken = errors.New("sink broken")

// failingWriter accepts failAfter bytes, then errors forever.
type failingWriter struct {
	written   int
	failAfter int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.failAfter {
		return 0, errSinkBroken
	}
	w.written += len(p)
	return len(p), nil
}
