package cmd

import (
	"fmt"
	"os"

	"asciivid/ascii"
	"asciivid/player"
)

type PlayCmd struct {
	File string `arg:"" name:"file" help:"ASCII video artifact to play" type:"existingfile"`
	FPS  int    `help:"Fallback frame rate for artifacts without a header" default:"24"`
	Loop bool   `help:"Restart from the first frame after the last"`
}

func (cmd *PlayCmd) Run() error {
	f, err := os.Open(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	store, err := ascii.DecodeArtifact(f, cmd.FPS)
	if err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}
	if len(store.Frames) == 0 {
		return fmt.Errorf("artifact %s contains no frames", cmd.File)
	}

	term, err := player.NewTerminal()
	if err != nil {
		return err
	}
	defer func() { _ = term.Close() }()

	sched := player.NewScheduler(store.Frames, store.Meta.FPS)
	sched.Loop = cmd.Loop
	return sched.Run(term)
}
