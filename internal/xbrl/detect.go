package xbrl

import "strings"

// Detect classifies a filing by the discovered documents and returns
// an ordered fallback list of modes to try. hasInstance
// reports whether the locator discovered a separate `*_htm.xml`
// instance; primaryHTML is the primary document's bytes, scanned for
// inline-XBRL markers when no instance was found.
func Detect(hasInstance bool, primaryHTML []byte) []Mode {
	if hasInstance {
		return []Mode{ModeTraditional, ModeInline, ModeTextOnly}
	}
	if looksInline(primaryHTML) {
		return []Mode{ModeInline, ModeTextOnly}
	}
	return []Mode{ModeTextOnly}
}

// looksInline scans for the inline-XBRL namespace declaration or any
// <ix:*> element.
func looksInline(data []byte) bool {
	s := string(data)
	return strings.Contains(s, "xmlns:ix=") ||
		strings.Contains(s, "<ix:") ||
		strings.Contains(s, "inlineXBRL")
}
