package orgs

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// translit maps runes that do not decompose to an ASCII base letter
// under NFD. Covers the characters seen in Nordic feed data.
var translit = map[rune]string{
	'æ': "ae",
	'ø': "o",
	'œ': "oe",
	'ß': "ss",
	'đ': "d",
	'ð': "d",
	'þ': "th",
	'ł': "l",
}

// stripMarks removes combining marks after NFD decomposition, turning
// e.g. "å" into "a" and "é" into "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives the URL-safe identifier used as the backend's primary
// key for an organization: ASCII-transliterated, lowercase, with runs of
// non-alphanumerics collapsed to single hyphens and no leading or
// trailing hyphen. Slugifying an already-slugified value returns it
// unchanged.
func Slugify(title string) string {
	s, _, err := transform.String(stripMarks, title)
	if err != nil {
		s = title
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range s {
		if repl, ok := translit[r]; ok {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteString(repl)
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
