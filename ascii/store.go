package ascii

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	headerResolution = "Video Resolution:"
	headerFPS        = "Video FPS:"

	// The metadata delimiter is always 80 characters wide; frame separators
	// match the configured render width.
	metaRuleWidth = 80
)

// ErrMalformedHeader is returned when an artifact carries a header that
// cannot be parsed. A missing header is not malformed; it falls back to the
// caller's default fps.
var ErrMalformedHeader = errors.New("malformed artifact header")

// StreamMetadata describes the source stream. It is written verbatim into the
// artifact header and read back unchanged.
type StreamMetadata struct {
	Width  int
	Height int
	FPS    int
}

// Resolution formats the source dimensions as WxH.
func (m StreamMetadata) Resolution() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

// FrameStore holds a decoded artifact: its metadata plus the frame sequence
// in artifact order.
type FrameStore struct {
	Meta   StreamMetadata
	Frames []TextFrame
}

// DecodeArtifact parses an artifact from r. Legacy artifacts without a header
// (frames only, separated by rules of '=') parse with defaultFPS; an artifact
// whose header carries a non-numeric fps fails with ErrMalformedHeader.
// Empty segments between separators are discarded.
func DecodeArtifact(r io.Reader, defaultFPS int) (*FrameStore, error) {
	store := &FrameStore{Meta: StreamMetadata{FPS: defaultFPS}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows []string
	flush := func() {
		if len(rows) > 0 {
			store.Frames = append(store.Frames, TextFrame(rows))
			rows = nil
		}
	}

	inHeader := false
	headerChecked := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if !headerChecked {
			if trimmed == "" {
				continue
			}
			// Only files that open with a "Video ..." key carry metadata;
			// anything else is a legacy frames-only artifact.
			headerChecked = true
			inHeader = strings.HasPrefix(trimmed, "Video ")
		}

		if inHeader {
			if trimmed == "" {
				inHeader = false
				continue
			}
			if err := store.Meta.parseHeaderLine(trimmed); err != nil {
				return nil, err
			}
			continue
		}

		if trimmed == "" {
			continue
		}
		if isRule(trimmed) {
			flush()
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	flush()

	return store, nil
}

func (m *StreamMetadata) parseHeaderLine(line string) error {
	switch {
	case strings.HasPrefix(line, headerResolution):
		value := strings.TrimSpace(strings.TrimPrefix(line, headerResolution))
		w, h, err := ParseResolution(value)
		if err != nil {
			return fmt.Errorf("%w: resolution %q", ErrMalformedHeader, value)
		}
		m.Width, m.Height = w, h
	case strings.HasPrefix(line, headerFPS):
		value := strings.TrimSpace(strings.TrimPrefix(line, headerFPS))
		fps, err := strconv.Atoi(value)
		if err != nil || fps <= 0 {
			return fmt.Errorf("%w: fps %q", ErrMalformedHeader, value)
		}
		m.FPS = fps
	}
	// Unknown header keys are ignored so newer writers stay readable.
	return nil
}

// ParseResolution splits a WxH string into its dimensions.
func ParseResolution(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid resolution format: %s", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution format: %s", s)
	}
	height, err = strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid resolution format: %s", s)
	}
	return width, height, nil
}

// isRule reports whether a line is a frame separator: nothing but '='.
// Accepting any rule length of two or more keeps artifacts rendered narrower
// than 80 columns parseable alongside the 80-column metadata delimiter.
func isRule(line string) bool {
	if len(line) < 2 {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != '=' {
			return false
		}
	}
	return true
}

func writeHeader(w io.Writer, meta StreamMetadata) error {
	_, err := fmt.Fprintf(w, "%s %s\n%s %d\n\n%s\n\n",
		headerResolution, meta.Resolution(),
		headerFPS, meta.FPS,
		strings.Repeat("=", metaRuleWidth))
	return err
}

func writeFrame(w io.Writer, frame TextFrame, width int) error {
	for _, row := range frame {
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, strings.Repeat("=", width))
	return err
}
