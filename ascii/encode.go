package ascii

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/corona10/goimagehash"
	"golang.org/x/sync/errgroup"
)

// FrameSource supplies decodable raster frames plus basic stream metadata.
// ReadFrame returns io.EOF once the stream ends, which may happen before
// FrameCount frames have been read.
type FrameSource interface {
	FrameCount() int
	FPS() int
	Resolution() (width, height int)
	ReadFrame(index int) (image.Image, error)
}

// Options control one encode run.
type Options struct {
	// Width is the render width in characters.
	Width int
	// Stride selects every nth source frame; 1 keeps every frame.
	Stride int
	// Workers caps transcode parallelism; 0 means one per CPU.
	Workers int
	// Ramp overrides DefaultRamp when non-empty.
	Ramp Ramp
	// Dedupe drops frames perceptually identical to the previous kept frame.
	Dedupe bool
	// Progress, when set, is called once per emitted frame from the encode
	// goroutine.
	Progress func(Event)
}

// Event reports one emitted frame to a progress consumer.
type Event struct {
	Index   int
	Worker  int
	Failed  bool
	Emitted int
	Total   int
}

// Report summarizes one encode run. It is the only run accounting; nothing
// global is mutated.
type Report struct {
	FramesWritten int
	FramesFailed  int
	FramesSkipped int
	DupesDropped  int
	Elapsed       time.Duration
}

// Encode drives the full pipeline: write the metadata header, transcode every
// stride-th source frame in parallel, and append frames to w strictly in
// submission order regardless of completion order. Per-frame failures are
// recorded in the report; only source and sink failures abort the run.
func Encode(src FrameSource, w io.Writer, opts Options) (*Report, error) {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Stride < 1 {
		opts.Stride = 1
	}
	if opts.Ramp == "" {
		opts.Ramp = DefaultRamp
	}

	srcWidth, srcHeight := src.Resolution()
	meta := StreamMetadata{Width: srcWidth, Height: srcHeight, FPS: src.FPS()}
	if err := writeHeader(w, meta); err != nil {
		return nil, fmt.Errorf("write artifact header: %w", err)
	}

	total := src.FrameCount()
	selected := 0
	if total > 0 {
		selected = (total + opts.Stride - 1) / opts.Stride
	}

	start := time.Now()
	report := &Report{}
	pool := NewWorkerPool(opts.Workers, opts.Width, opts.Ramp)

	var g errgroup.Group

	// Producer: fetch frames in source order and hand them to the pool.
	// Skipped and deduped frames never get an output index, so the artifact
	// stays contiguous.
	g.Go(func() error {
		defer pool.Close()

		next := 0
		var prev *goimagehash.ImageHash
		for i := 0; i < total; i += opts.Stride {
			frame, err := src.ReadFrame(i)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				report.FramesSkipped++
				continue
			}
			if opts.Dedupe {
				if hash, err := goimagehash.AverageHash(frame); err == nil {
					if prev != nil {
						if dist, err := hash.Distance(prev); err == nil && dist == 0 {
							report.DupesDropped++
							continue
						}
					}
					prev = hash
				}
			}
			pool.Submit(Job{Index: next, Frame: frame})
			next++
		}
		return nil
	})

	// Consumer: restore index order and persist. On a sink failure the pool
	// is still drained so the producer never wedges on a full channel.
	g.Go(func() error {
		reasm := NewReassembler(func(index int, frame TextFrame) error {
			if err := writeFrame(w, frame, opts.Width); err != nil {
				return fmt.Errorf("write frame %d: %w", index, err)
			}
			return nil
		})

		var firstErr error
		for res := range pool.Results() {
			if res.Failed {
				report.FramesFailed++
			}
			if firstErr != nil {
				continue
			}
			if err := reasm.Push(res); err != nil {
				firstErr = err
				continue
			}
			if opts.Progress != nil {
				opts.Progress(Event{
					Index:   res.Index,
					Worker:  res.Worker,
					Failed:  res.Failed,
					Emitted: reasm.Emitted(),
					Total:   selected,
				})
			}
		}
		report.FramesWritten = reasm.Emitted()
		return firstErr
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Elapsed = time.Since(start)
	return report, nil
}
