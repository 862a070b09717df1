package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func printError(w io.Writer, text string) {
	red.Fprintf(w, "%s\n", text)
}

func printHeading(w io.Writer, text string) {
	yellow.Fprintf(w, "%s\n", text)
}

// printEntry prints a name column followed by a description.
func printEntry(w io.Writer, name, desc string) {
	green.Fprintf(w, "  %-24s", name)
	fmt.Fprintf(w, " %s\n", desc)
}
