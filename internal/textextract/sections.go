package textextract

import (
	"regexp"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
)

// sectionPattern pairs a heading regular expression with the canonical
// label it maps to.
type sectionPattern struct {
	label edgarmodel.SectionLabel
	re    *regexp.Regexp
}

// sectionPatterns is checked in order; the first match wins for any
// given heading position.
var sectionPatterns = buildSectionPatterns()

func buildSectionPatterns() []sectionPattern {
	return []sectionPattern{
		{label: "Part II", re: regexp.MustCompile(`(?i)^\s*part\s+ii\b`)},
		{label: "Part I", re: regexp.MustCompile(`(?i)^\s*part\s+i\b`)},
		{label: "Item 1", re: regexp.MustCompile(`(?i)^\s*item\s+1\.?\s+business\b`)},
		{label: "Item 1A", re: regexp.MustCompile(`(?i)^\s*item\s+1a\.?\s+risk\s+factors\b`)},
		{label: "Item 1B", re: regexp.MustCompile(`(?i)^\s*item\s+1b\.?\s+unresolved\s+staff\s+comments\b`)},
		{label: "Item 2", re: regexp.MustCompile(`(?i)^\s*item\s+2\.?\s+properties\b`)},
		{label: "Item 3", re: regexp.MustCompile(`(?i)^\s*item\s+3\.?\s+legal\s+proceedings\b`)},
		{label: "Item 7", re: regexp.MustCompile(`(?i)^\s*item\s+7\.?\s+management.s\s+discussion`)},
		{label: "Item 7A", re: regexp.MustCompile(`(?i)^\s*item\s+7a\.?\s+quantitative\s+and\s+qualitative`)},
		{label: "Item 8", re: regexp.MustCompile(`(?i)^\s*item\s+8\.?\s+financial\s+statements`)},
		{label: "Risk Factors", re: regexp.MustCompile(`(?i)^\s*risk\s+factors\s*$`)},
		{label: "Management's Discussion and Analysis", re: regexp.MustCompile(`(?i)^\s*management.s\s+discussion\s+and\s+analysis`)},
	}
}
