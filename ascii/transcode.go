package ascii

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/nfnt/resize"
)

// TextFrame is one video frame rendered as fixed-width rows of characters.
// Frames are immutable once produced.
type TextFrame []string

// ErrNoFrame is returned when a frame is absent or carries no pixels.
var ErrNoFrame = errors.New("no frame data")

// TranscodeFrame converts a raster frame into rows of ramp characters exactly
// width columns wide. Height follows the source aspect ratio, so a 2:1 frame
// rendered at width 80 comes out 40 rows tall. A nil or empty frame yields an
// empty TextFrame and ErrNoFrame; a single bad frame must not abort a run.
func TranscodeFrame(frame image.Image, width int, ramp Ramp) (TextFrame, error) {
	if frame == nil || width <= 0 || len(ramp) == 0 {
		return TextFrame{}, ErrNoFrame
	}

	bounds := frame.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return TextFrame{}, ErrNoFrame
	}

	aspect := float64(bounds.Dx()) / float64(bounds.Dy())
	height := int(math.Round(float64(width) / aspect))
	if height < 1 {
		height = 1
	}

	scaled := resize.Resize(uint(width), uint(height), frame, resize.Bilinear)

	rows := make(TextFrame, 0, height)
	var row strings.Builder
	sb := scaled.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		row.Reset()
		row.Grow(width)
		for x := sb.Min.X; x < sb.Max.X && row.Len() < width; x++ {
			gray := color.GrayModel.Convert(scaled.At(x, y)).(color.Gray)
			row.WriteByte(ramp.Glyph(gray.Y))
		}
		for row.Len() < width {
			row.WriteByte(ramp.Lightest())
		}
		rows = append(rows, row.String())
	}

	return rows, nil
}
