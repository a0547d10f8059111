package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type checkKind int

const (
	checkOK checkKind = iota
	checkWarn
	checkFail
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	checkLabelWidth = 24
	checkIndent     = "  "
)

// renderCheckLine formats one doctor result as "  <label>: [OK] detail".
func renderCheckLine(label string, kind checkKind, message string, colorize bool) string {
	marker := fmt.Sprintf("[%s]", checkKindLabel(kind))
	if message != "" {
		marker += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", checkIndent, checkLabelWidth, label+":", marker)
	if colorize {
		return checkKindColor(kind) + line + ansiReset
	}
	return line
}

func checkKindLabel(kind checkKind) string {
	switch kind {
	case checkOK:
		return "OK"
	case checkWarn:
		return "WARN"
	default:
		return "FAIL"
	}
}

func checkKindColor(kind checkKind) string {
	switch kind {
	case checkOK:
		return ansiGreen
	case checkWarn:
		return ansiYellow
	default:
		return ansiRed
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
