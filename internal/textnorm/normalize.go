// Package textnorm cleans transcribed or typed text before it is placed in a
// prompt.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

// Keeps letters, numbers, underscore, whitespace, CJK ideographs and a small
// punctuation set.
var disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\p{Zs}\x{4e00}-\x{9fff}.,!?！？。]`)

// Normalize strips emoji and non-linguistic symbols and trims the result.
func Normalize(text string) string {
	text = gomoji.RemoveEmojis(text)
	text = disallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
