// Package render turns engine effects into screens: word-wrapped text lines
// plus an optional illustration, written to a terminal or handed to another
// front end.
package render

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

// DefaultWidth is the line width used when none is configured.
const DefaultWidth = 50

// Wrap splits text into display lines no longer than width where possible.
// Each "\n"-separated paragraph is wrapped on its own and paragraphs are
// separated by one blank line. Words longer than width stay whole. A width of
// zero or less selects [DefaultWidth].
func Wrap(text string, width int) []string {
	if width <= 0 {
		width = DefaultWidth
	}
	if text == "" {
		return nil
	}
	var lines []string
	for i, para := range strings.Split(text, "\n") {
		if i > 0 {
			lines = append(lines, "")
		}
		para = strings.Join(strings.Fields(para), " ")
		if para == "" {
			continue
		}
		lines = append(lines, strings.Split(wordwrap.WrapString(para, uint(width)), "\n")...)
	}
	return lines
}
