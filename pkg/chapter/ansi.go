package chapter

import (
	"regexp"
	"strings"
)

var (
	ansiEscape   = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	bareColor    = regexp.MustCompile(`\[\d{1,2}m`)
	blankRunning = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// CleanCompileOutput strips terminal escape sequences from compiler output
// and collapses runs of blank lines.
func CleanCompileOutput(text string) string {
	if text == "" {
		return ""
	}
	cleaned := ansiEscape.ReplaceAllString(text, "")
	cleaned = bareColor.ReplaceAllString(cleaned, "")
	cleaned = blankRunning.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
