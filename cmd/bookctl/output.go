package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describeError renders an error with its machine code when it has one.
func describeError(err error) string {
	var de *domainerrors.Error
	if domainerrors.As(err, &de) {
		return fmt.Sprintf("%s %s", red(string(de.Code)), de.Message)
	}
	return red(err.Error())
}

// orDash returns s, or a gray dash when s is empty.
func orDash(s string) string {
	if s == "" {
		return gray("-")
	}
	return s
}
