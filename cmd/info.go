package cmd

import (
	"fmt"
	"os"
	"time"

	"asciivid/ascii"
	"asciivid/ui"
)

type InfoCmd struct {
	File string `arg:"" name:"file" help:"ASCII video artifact to inspect" type:"existingfile"`
	FPS  int    `help:"Fallback frame rate for artifacts without a header" default:"24"`
}

func (cmd *InfoCmd) Run() error {
	f, err := os.Open(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	store, err := ascii.DecodeArtifact(f, cmd.FPS)
	if err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}

	duration := time.Duration(0)
	if store.Meta.FPS > 0 {
		duration = time.Duration(len(store.Frames)) * time.Second / time.Duration(store.Meta.FPS)
	}

	fmt.Println(ui.InfoStyle.Render(fmt.Sprintf("📼 %s", cmd.File)))
	fmt.Printf("   Source resolution: %s\n", store.Meta.Resolution())
	fmt.Printf("   Frame rate: %d fps\n", store.Meta.FPS)
	fmt.Printf("   Frames: %d\n", len(store.Frames))
	fmt.Printf("   Duration: %s\n", duration.Round(time.Second/10))
	if len(store.Frames) > 0 {
		frame := store.Frames[0]
		width := 0
		if len(frame) > 0 {
			width = len(frame[0])
		}
		fmt.Printf("   Render size: %dx%d characters\n", width, len(frame))
	}
	return nil
}
