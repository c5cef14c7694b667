package video

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegSource decodes a video file into grayscale raster frames by streaming
// ffmpeg rawvideo output. Frames can only be read in ascending index order;
// skipped indices are decoded and discarded.
type FFmpegSource struct {
	path   string
	width  int
	height int
	fps    int
	frames int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
	next   int
}

// NewFFmpegSource probes the file with ffprobe and opens the frame stream.
func NewFFmpegSource(path string) (*FFmpegSource, error) {
	info, err := probeStream(path)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("ffmpeg", "-v", "error", "-i", path,
		"-f", "rawvideo", "-pix_fmt", "gray", "-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open frame stream: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &FFmpegSource{
		path:   path,
		width:  info.width,
		height: info.height,
		fps:    info.fps,
		frames: info.frames,
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, info.width*info.height),
	}, nil
}

// FrameCount returns the number of frames the container reports. The stream
// may still end earlier than this.
func (s *FFmpegSource) FrameCount() int { return s.frames }

// FPS returns the native frame rate rounded to the nearest integer.
func (s *FFmpegSource) FPS() int { return s.fps }

// Resolution returns the source dimensions in pixels.
func (s *FFmpegSource) Resolution() (width, height int) { return s.width, s.height }

// ReadFrame returns the frame at the given index, which must not be lower
// than any previously requested index. io.EOF signals the stream ended early.
func (s *FFmpegSource) ReadFrame(index int) (image.Image, error) {
	if index < s.next {
		return nil, fmt.Errorf("frame %d already consumed (stream position %d)", index, s.next)
	}

	for s.next <= index {
		if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			return nil, err
		}
		s.next++
	}

	// The read buffer is reused for the next frame, so hand out a copy.
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, s.buf)
	return img, nil
}

// Close tears down the ffmpeg process.
func (s *FFmpegSource) Close() error {
	_ = s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

type streamInfo struct {
	width  int
	height int
	fps    int
	frames int
}

// probeStream extracts stream metadata using ffprobe.
func probeStream(path string) (streamInfo, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-of", "default=noprint_wrappers=1", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return streamInfo{}, fmt.Errorf("failed to probe video: %w\nffprobe output: %s", err, string(output))
	}

	info, err := parseProbeOutput(string(output))
	if err != nil {
		return streamInfo{}, err
	}

	if info.frames <= 0 {
		// Some containers omit nb_frames; estimate from the duration.
		duration, err := probeDuration(path)
		if err != nil {
			return streamInfo{}, err
		}
		info.frames = int(duration * float64(info.fps))
	}

	return info, nil
}

// probeDuration extracts the container duration in seconds using ffprobe.
func probeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries",
		"format=duration", "-of", "default=noprint_wrappers=1:nokey=1", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return duration, nil
}

func parseProbeOutput(output string) (streamInfo, error) {
	info := streamInfo{}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			info.width, _ = strconv.Atoi(value)
		case "height":
			info.height, _ = strconv.Atoi(value)
		case "r_frame_rate":
			fps, err := parseFrameRate(value)
			if err != nil {
				return info, err
			}
			info.fps = fps
		case "nb_frames":
			// "N/A" when the container does not carry a frame count.
			info.frames, _ = strconv.Atoi(value)
		}
	}

	if info.width <= 0 || info.height <= 0 {
		return info, fmt.Errorf("invalid resolution %dx%d in probe output", info.width, info.height)
	}
	if info.fps <= 0 {
		return info, fmt.Errorf("invalid frame rate in probe output")
	}
	return info, nil
}

// parseFrameRate converts an ffprobe rate like "30000/1001" or "25" to the
// nearest integer fps.
func parseFrameRate(value string) (int, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		den = "1"
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse frame rate %q: %w", value, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("failed to parse frame rate %q", value)
	}
	fps := int(math.Round(n / d))
	if fps <= 0 {
		return 0, fmt.Errorf("non-positive frame rate %q", value)
	}
	return fps, nil
}
