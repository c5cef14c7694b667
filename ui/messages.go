package ui

import "asciivid/ascii"

// TUI message types for encoder communication

// FrameEncodedMsg reports one frame emitted into the artifact.
type FrameEncodedMsg struct {
	Index   int
	Worker  int
	Failed  bool
	Emitted int
	Total   int
}

// EncodeDoneMsg reports the end of the encode run.
type EncodeDoneMsg struct {
	Report *ascii.Report
	Err    error
}
