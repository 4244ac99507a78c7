// Package serializer renders parsed XBRL state and fiscal attribution
// into the LLM-native text format and commits it to disk with a
// write-then-rename pattern.
package serializer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/xbrl"
	"github.com/rotisserie/eris"
)

// SerializeLLM writes the deterministic LLM-native rendering of a
// filing's parsed XBRL tables: header block, context and unit data
// dictionaries, then facts grouped by concept and sorted by context
// period-end ascending.
func SerializeLLM(filing edgarmodel.Filing, doc xbrl.Document, attr edgarmodel.FiscalAttribution) string {
	var b strings.Builder
	writeHeader(&b, filing, attr)
	writeContextDictionary(&b, doc.Contexts)
	writeUnitDictionary(&b, doc.Units)
	writeFacts(&b, doc)
	return b.String()
}

func writeHeader(b *strings.Builder, filing edgarmodel.Filing, attr edgarmodel.FiscalAttribution) {
	periodEnd := filing.PeriodEnd.Format("2006-01-02")
	fmt.Fprintf(b, "@DOCUMENT: %s-%s-%s\n", filing.Company.Ticker, filing.FilingType, periodEnd)
	fmt.Fprintf(b, "@FILING_DATE: %s\n", filing.FilingDate.Format("2006-01-02"))
	fmt.Fprintf(b, "@COMPANY: %s\n", filing.Company.Name)
	fmt.Fprintf(b, "@CIK: %s\n", filing.Company.CIK)
	fmt.Fprintf(b, "@FISCAL_YEAR: %d\n", attr.FiscalYear)
	fmt.Fprintf(b, "@FISCAL_PERIOD: %s\n", attr.FiscalPeriod)
	b.WriteString("\n")
}

func writeContextDictionary(b *strings.Builder, contexts []edgarmodel.Context) {
	b.WriteString("@DATA_DICTIONARY: CONTEXTS\n")
	for _, ctx := range contexts {
		fmt.Fprintf(b, "@CONTEXT_DEF: %s | %s\n", ctx.ID, contextLabel(ctx))
	}
	b.WriteString("\n")
}

// contextLabel renders a context's human-readable label: a period
// description, plus a "Segment: <member>" suffix per dimension, in
// sorted dimension-key order for determinism.
func contextLabel(ctx edgarmodel.Context) string {
	var label string
	switch {
	case ctx.Period.IsInstant():
		label = "Instant: " + ctx.Period.Instant.Format("2006-01-02")
	case ctx.Period.IsDuration():
		label = "Period: " + ctx.Period.Start.Format("2006-01-02") + " to " + ctx.Period.End.Format("2006-01-02")
	default:
		label = "Period: unknown"
	}

	if len(ctx.Dimensions) == 0 {
		return label
	}

	dims := make([]string, 0, len(ctx.Dimensions))
	for k := range ctx.Dimensions {
		dims = append(dims, k)
	}
	sort.Strings(dims)

	for _, dim := range dims {
		label += " | Segment: " + ctx.Dimensions[dim]
	}
	return label
}

func writeUnitDictionary(b *strings.Builder, units []edgarmodel.Unit) {
	b.WriteString("@DATA_DICTIONARY: UNITS\n")
	for _, u := range units {
		fmt.Fprintf(b, "@UNIT_DEF: %s | %s\n", u.ID, unitLabel(u))
	}
	b.WriteString("\n")
}

func unitLabel(u edgarmodel.Unit) string {
	if u.IsDivide() {
		return u.Numerator + " / " + u.Denominator
	}
	return u.Measure
}

// writeFacts groups facts by concept (alphabetical), sorts each group
// by the referenced context's period-end date ascending, and writes
// each as a short record.
func writeFacts(b *strings.Builder, doc xbrl.Document) {
	contexts := xbrl.ContextByID(doc.Contexts)

	groups := map[string][]edgarmodel.Fact{}
	for _, f := range doc.Facts {
		groups[f.Concept] = append(groups[f.Concept], f)
	}
	concepts := make([]string, 0, len(groups))
	for concept := range groups {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	b.WriteString("@FACTS\n")
	for _, concept := range concepts {
		facts := groups[concept]
		sort.SliceStable(facts, func(i, j int) bool {
			return contexts[facts[i].ContextRef].Period.EndDate().Before(contexts[facts[j].ContextRef].Period.EndDate())
		})
		for _, f := range facts {
			b.WriteString("\n")
			writeFact(b, f)
		}
	}
}

func writeFact(b *strings.Builder, f edgarmodel.Fact) {
	fmt.Fprintf(b, "@CONCEPT: %s\n", f.Concept)
	fmt.Fprintf(b, "@VALUE: %s\n", f.Value)
	if f.UnitRef != "" {
		fmt.Fprintf(b, "@UNIT_REF: %s\n", f.UnitRef)
	}
	if f.Decimals != nil {
		fmt.Fprintf(b, "@DECIMALS: %d\n", *f.Decimals)
	}
	fmt.Fprintf(b, "@CONTEXT_REF: %s\n", f.ContextRef)
	if f.NumericValue != nil {
		fmt.Fprintf(b, "@NORMALIZED: %v\n", *f.NumericValue)
	}
}

// WriteArtifact commits content to path using a write-then-rename
// pattern: the content is first written to a sibling `.tmp-<nonce>`
// file, then atomically renamed into place, so a cancellation or crash
// never leaves a half-written artifact in the sink.
func WriteArtifact(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "serializer: create directory %s", dir)
	}

	tmpPath := path + ".tmp-" + uuid.New().String()
	if err := os.WriteFile(tmpPath, content, 0o644); err != nil {
		return eris.Wrapf(err, "serializer: write temp file %s", tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return eris.Wrapf(err, "serializer: rename %s to %s", tmpPath, path)
	}
	return nil
}
