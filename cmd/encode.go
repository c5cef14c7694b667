package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"asciivid/ascii"
	"asciivid/types"
	"asciivid/ui"
	"asciivid/utils"
	"asciivid/video"
)

type EncodeCmd struct {
	Input      string `arg:"" name:"input" help:"Video file (or URL with --url) to encode"`
	Output     string `help:"Artifact path (defaults to <input>_ascii.txt)" short:"o"`
	Width      int    `help:"Render width in characters" default:"80"`
	Stride     int    `help:"Encode every nth frame" default:"1"`
	Workers    int    `help:"Number of parallel workers" default:"0"`
	Dedupe     bool   `help:"Drop frames identical to the previous one"`
	URL        bool   `help:"Treat input as a remote URL and download it first"`
	Resolution string `help:"Maximum download resolution" default:"360p"`
	Keep       bool   `help:"Keep the downloaded video file"`
	NoTUI      bool   `help:"Disable the interactive progress display"`
}

func (cmd *EncodeCmd) Run(appCtx *types.AppContext) error {
	version := types.DefaultVersion
	if appCtx != nil {
		version = appCtx.Version
	}

	if err := utils.ValidateFFmpegDependencies(); err != nil {
		return err
	}

	input := cmd.Input
	if cmd.URL {
		if err := utils.ValidateDownloadDependencies(); err != nil {
			return err
		}
		fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("⬇️  Downloading %s (max %s)", cmd.Input, cmd.Resolution)))
		downloaded, err := video.Download(cmd.Input, "video", cmd.Resolution)
		if err != nil {
			return err
		}
		if !cmd.Keep {
			defer func() { _ = os.Remove(downloaded) }()
		}
		input = downloaded
	}

	src, err := video.NewFFmpegSource(input)
	if err != nil {
		return fmt.Errorf("failed to open video source: %w", err)
	}
	defer func() { _ = src.Close() }()

	output := cmd.Output
	if output == "" {
		output = defaultOutputPath(input)
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer func() { _ = out.Close() }()
	sink := bufio.NewWriter(out)

	workers := cmd.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	opts := ascii.Options{
		Width:   cmd.Width,
		Stride:  cmd.Stride,
		Workers: workers,
		Dedupe:  cmd.Dedupe,
	}

	srcW, srcH := src.Resolution()
	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("ASCII Encoder %s", version)))
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("🎬 Encoding %s (%dx%d @ %d fps, %d frames) with %d workers",
		input, srcW, srcH, src.FPS(), src.FrameCount(), workers)))

	var report *ascii.Report
	if cmd.useTUI(workers) {
		report, err = cmd.runWithTUI(src, sink, opts, version)
	} else {
		report, err = cmd.runPlain(src, sink, opts)
	}
	if err != nil {
		return err
	}

	if err := sink.Flush(); err != nil {
		return fmt.Errorf("failed to flush artifact: %w", err)
	}

	cmd.printSummary(report, output)
	return nil
}

// useTUI picks the interactive display only when it can actually draw.
func (cmd *EncodeCmd) useTUI(workers int) bool {
	return !cmd.NoTUI && workers > 1 && isatty.IsTerminal(os.Stdout.Fd())
}

// runPlain drives the encode with a single progress bar.
func (cmd *EncodeCmd) runPlain(src ascii.FrameSource, sink *bufio.Writer, opts ascii.Options) (*ascii.Report, error) {
	selected := src.FrameCount()
	if opts.Stride > 1 {
		selected = (selected + opts.Stride - 1) / opts.Stride
	}
	bar := progressbar.NewOptions(selected,
		progressbar.OptionSetDescription("Transcoding frames"),
		progressbar.OptionShowCount(),
	)
	opts.Progress = func(ev ascii.Event) {
		_ = bar.Set(ev.Emitted)
	}

	report, err := ascii.Encode(src, sink, opts)
	_ = bar.Finish()
	fmt.Println()
	return report, err
}

// runWithTUI drives the encode behind the bubbletea progress display. The
// encode itself runs in a goroutine and keeps going even if the display is
// quit early; the run has no mid-flight cancellation.
func (cmd *EncodeCmd) runWithTUI(src ascii.FrameSource, sink *bufio.Writer, opts ascii.Options, version string) (*ascii.Report, error) {
	selected := src.FrameCount()
	if opts.Stride > 1 {
		selected = (selected + opts.Stride - 1) / opts.Stride
	}

	p := tea.NewProgram(ui.NewEncodeModel(selected, opts.Workers, version))
	opts.Progress = func(ev ascii.Event) {
		p.Send(ui.FrameEncodedMsg{
			Index:   ev.Index,
			Worker:  ev.Worker,
			Failed:  ev.Failed,
			Emitted: ev.Emitted,
			Total:   ev.Total,
		})
	}

	done := make(chan struct{})
	var report *ascii.Report
	var encErr error
	go func() {
		defer close(done)
		report, encErr = ascii.Encode(src, sink, opts)
		p.Send(ui.EncodeDoneMsg{Report: report, Err: encErr})
	}()

	if _, err := p.Run(); err != nil {
		<-done
		return nil, fmt.Errorf("progress display failed: %w", err)
	}
	<-done
	return report, encErr
}

// printSummary displays final statistics
func (cmd *EncodeCmd) printSummary(report *ascii.Report, output string) {
	fmt.Printf("\n%s\n", ui.HeaderStyle.Render("📊 Encoding Summary"))
	fmt.Printf("   Frames written: %d\n", report.FramesWritten)
	if report.FramesFailed > 0 {
		fmt.Printf("   %s\n", ui.WarningStyle.Render(fmt.Sprintf("Frames failed: %d", report.FramesFailed)))
	}
	if report.FramesSkipped > 0 {
		fmt.Printf("   Frames skipped: %d\n", report.FramesSkipped)
	}
	if report.DupesDropped > 0 {
		fmt.Printf("   Duplicates dropped: %d\n", report.DupesDropped)
	}
	fmt.Printf("   Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
	fmt.Printf("\n%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ ASCII video written to %s", output)))
}

// defaultOutputPath derives the artifact name from the input file.
func defaultOutputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_ascii.txt"
}
