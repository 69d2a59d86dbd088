package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	succColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed)
	valueColor = color.New(color.FgCyan)
	grayColor  = color.New(color.Faint)
)

func applyColor(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

func printError(w io.Writer, err error) {
	_, _ = failColor.Fprintf(w, "error: %v\n", err)
}

func printList(w io.Writer, mark string, c *color.Color, items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  %s %s\n", c.Sprint(mark), item)
	}
}
