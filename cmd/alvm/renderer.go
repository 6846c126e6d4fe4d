package main

import (
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
)

// terminalRenderer draws each frame as a row of colored blocks,
// overwriting the previous frame in place.
type terminalRenderer struct {
	out     *termenv.Output
	profile termenv.Profile
}

func newTerminalRenderer() *terminalRenderer {
	out := termenv.NewOutput(os.Stdout)
	return &terminalRenderer{
		out:     out,
		profile: out.ColorProfile(),
	}
}

func (r *terminalRenderer) Render(frame bytecode.Frame) error {
	var sb strings.Builder
	sb.WriteString("\r")
	for _, px := range frame {
		block := r.out.String("█").Foreground(r.profile.Color(px.Hex()))
		sb.WriteString(block.String())
	}
	_, err := r.out.WriteString(sb.String())
	return err
}

func (r *terminalRenderer) Close() {
	r.out.WriteString("\n")
}
