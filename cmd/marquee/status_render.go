package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// backendState is how usable a backend is for recommendations.
type backendState int

const (
	backendNote backendState = iota
	backendReady
	backendDegraded
	backendOff
)

func (s backendState) label() string {
	switch s {
	case backendReady:
		return "ready"
	case backendDegraded:
		return "degraded"
	case backendOff:
		return "off"
	default:
		return ""
	}
}

func (s backendState) colors() text.Colors {
	switch s {
	case backendReady:
		return text.Colors{text.FgGreen}
	case backendDegraded:
		return text.Colors{text.FgYellow}
	case backendOff:
		return text.Colors{text.FgHiBlack}
	default:
		return nil
	}
}

type statusEntry struct {
	name   string
	state  backendState
	detail string
}

// renderStatus aligns entries on the longest name. Notes have no state column
// value and are never colored.
func renderStatus(entries []statusEntry, colorize bool) []string {
	nameWidth := 0
	for _, e := range entries {
		nameWidth = max(nameWidth, len(e.name))
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		state := fmt.Sprintf("%-8s", e.state.label())
		if colorize && e.state != backendNote {
			state = e.state.colors().Sprint(state)
		}
		line := fmt.Sprintf("  %-*s  %s  %s", nameWidth, e.name, state, e.detail)
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

func renderHeading(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("~", max(len([]rune(title)), 3))
	if colorize {
		title = text.Bold.Sprint(title)
	}
	return []string{title, rule}
}

func printLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
