package history

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title derives a display title from an input directory name, e.g.
// "/in/cute_cats-2" becomes "Cute Cats 2".
func Title(inputDir string) string {
	base := filepath.Base(filepath.Clean(strings.TrimSpace(inputDir)))
	var cleaned strings.Builder
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Render"
	}
	return cases.Title(language.Und).String(title)
}
