// Command cutscene_preview plays a cutscene definition file in the terminal.
//
//	cutscene_preview [-spm 4] [-maxstep 0.04] intro.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/OCAP2/cutscene/internal/interp"
	"github.com/OCAP2/cutscene/internal/library"
)

func main() {
	spm := flag.Float64("spm", interp.DefaultSecondsPerMarker, "default seconds per marker")
	maxStep := flag.Float64("maxstep", interp.DefaultMaxStep, "largest step a single frame may advance")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cutscene_preview [flags] <definition.yaml>")
		os.Exit(2)
	}

	def, err := library.LoadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m, err := newModel(def, interp.Options{SecondsPerMarker: *spm, MaxStep: *maxStep})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running preview: %v\n", err)
		os.Exit(1)
	}
}
