package textextract

import "unicode"

var unicodeSpaces = map[rune]bool{
	' ': true, // non-breaking space
	' ': true, ' ': true, ' ': true, ' ': true,
	' ': true, ' ': true, ' ': true, ' ': true,
	' ': true, ' ': true, ' ': true,
	' ': true, // narrow no-break space
	' ': true, // medium mathematical space
	'　': true, // ideographic space
}

var zeroWidth = map[rune]bool{
	'​': true, // zero-width space
	'‌': true, // zero-width non-joiner
	'‍': true, // zero-width joiner
	'﻿': true, // zero-width no-break space (BOM)
	'᠎': true, // Mongolian vowel separator
}

// normalizeUnicode cleans text: Unicode whitespace variants collapse to
// a regular space, and zero-width/format characters are dropped
// outright. It runs over the raw HTML bytes before DOM parsing and again
// over each extracted text run in collapseWhitespace, because goquery's
// parser decodes named/numeric entities (e.g. &nbsp;) into these
// characters only after the first pass.
func normalizeUnicode(data []byte) []byte {
	out := make([]rune, 0, len(data))

	for _, r := range string(data) {
		switch {
		case unicodeSpaces[r]:
			out = append(out, ' ')
		case zeroWidth[r]:
			continue
		case unicode.Is(unicode.Cf, r) && r != '\t' && r != '\n' && r != '\r':
			continue
		default:
			out = append(out, r)
		}
	}

	return []byte(string(out))
}
