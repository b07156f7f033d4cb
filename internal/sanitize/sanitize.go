package sanitize

import (
	"regexp"
	"strings"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Filename removes characters that aren't allowed in file and directory names
func Filename(title string) string {
	// Remove illegal chars
	title = illegalChars.ReplaceAllString(title, "")
	title = whitespace.ReplaceAllString(title, " ")

	// Trim spaces & dots
	title = strings.Trim(title, " .")

	if title == "" {
		return "_"
	}

	return title
}
