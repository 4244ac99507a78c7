// Package fiscal computes fiscal-year/fiscal-period attribution for a
// filing from a registry of known fiscal-year-end months, falling back
// to filing evidence and calendar heuristics when a ticker is not
// registered.
package fiscal

import (
	"os"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry is one ticker's fiscal-year-end declaration.
type Entry struct {
	FiscalYearEndMonth int      `yaml:"fiscal_year_end_month"`
	KnownPeriodEnds    []string `yaml:"known_period_ends,omitempty"`
}

// Registry is the immutable, process-wide map of ticker to fiscal-year-end
// declaration, loaded once at startup.
type Registry struct {
	entries map[string]Entry
}

type registryFile struct {
	Tickers map[string]Entry `yaml:"tickers"`
}

// LoadRegistry reads the immutable fiscal registry from a YAML file,
// loaded once at process startup.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fiscal: read registry %s", path)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes registry YAML already in memory.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "fiscal: parse registry")
	}
	entries := make(map[string]Entry, len(file.Tickers))
	for ticker, e := range file.Tickers {
		if e.FiscalYearEndMonth < 1 || e.FiscalYearEndMonth > 12 {
			return nil, eris.Errorf("fiscal: registry entry %s has invalid fiscal_year_end_month %d", ticker, e.FiscalYearEndMonth)
		}
		entries[edgarmodel.NormalizeTicker(ticker)] = e
	}
	return &Registry{entries: entries}, nil
}

// Lookup returns the registered entry for a ticker, if any.
func (r *Registry) Lookup(ticker string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.entries[edgarmodel.NormalizeTicker(ticker)]
	return e, ok
}
