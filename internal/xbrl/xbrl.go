// Package xbrl implements the dual-mode XBRL reader: the
// traditional-instance parser and the inline-XBRL extractor share a
// common result shape and a common encoding/xml token-walk for decoding
// contexts and units (inline facts are read from an x/net/html tree),
// normalized into the Context/Unit/Fact model in internal/edgarmodel.
package xbrl

import "github.com/oakline-data/edgaringest/internal/edgarmodel"

// Document is the parsed (contexts, units, facts) triple produced by
// either extraction mode.
type Document struct {
	Contexts []edgarmodel.Context
	Units    []edgarmodel.Unit
	Facts    []edgarmodel.Fact
}

// Mode is the tagged variant the format detector returns, rather than
// duck-typing the XBRL source at each call site.
type Mode string

const (
	ModeTraditional Mode = "traditional-xbrl"
	ModeInline      Mode = "inline-xbrl"
	ModeTextOnly    Mode = "text-only"
)

// ContextByID builds a lookup map, keyed by context id, honoring the
// first-occurrence-wins tie-break rule.
func ContextByID(contexts []edgarmodel.Context) map[string]edgarmodel.Context {
	m := make(map[string]edgarmodel.Context, len(contexts))
	for _, c := range contexts {
		if _, exists := m[c.ID]; !exists {
			m[c.ID] = c
		}
	}
	return m
}

// UnitByID builds a lookup map, keyed by unit id, with the same
// first-occurrence-wins tie-break as contexts.
func UnitByID(units []edgarmodel.Unit) map[string]edgarmodel.Unit {
	m := make(map[string]edgarmodel.Unit, len(units))
	for _, u := range units {
		if _, exists := m[u.ID]; !exists {
			m[u.ID] = u
		}
	}
	return m
}
