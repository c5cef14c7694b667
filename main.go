package main

import (
	"github.com/alecthomas/kong"

	"asciivid/cmd"
	"asciivid/types"
)

var Version = "dev"

type CLI struct {
	Encode cmd.EncodeCmd `cmd:"" help:"Encode a video into an ASCII art artifact"`
	Play   cmd.PlayCmd   `cmd:"" help:"Play an ASCII art artifact in the terminal"`
	Info   cmd.InfoCmd   `cmd:"" help:"Show artifact metadata without playing it"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("asciivid"),
		kong.Description("Encode videos to ASCII art and play them back in the terminal"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&types.AppContext{Version: Version})
	ctx.FatalIfErrorf(err)
}
