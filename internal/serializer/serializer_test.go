package serializer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/serializer"
	"github.com/oakline-data/edgaringest/internal/xbrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDoc() xbrl.Document {
	decimals := -6
	numeric := 352755000000.0
	return xbrl.Document{
		Contexts: []edgarmodel.Context{
			{ID: "Q4", Period: edgarmodel.Period{Instant: d("2023-09-30")}},
			{ID: "FY", Period: edgarmodel.Period{Start: d("2022-10-01"), End: d("2023-09-30")}},
		},
		Units: []edgarmodel.Unit{
			{ID: "USD", Measure: "iso4217:USD"},
		},
		Facts: []edgarmodel.Fact{
			{Concept: "us-gaap:Assets", Value: "352755000000", ContextRef: "Q4", UnitRef: "USD", Decimals: &decimals, NumericValue: &numeric},
			{Concept: "us-gaap:Revenues", Value: "383285000000", ContextRef: "FY", UnitRef: "USD"},
		},
	}
}

func sampleFiling() edgarmodel.Filing {
	return edgarmodel.Filing{
		Company:    edgarmodel.Company{Ticker: "AAPL", CIK: "0000320193", Name: "Apple Inc."},
		FilingType: edgarmodel.Filing10K,
		Accession:  "0000320193-23-000106",
		FilingDate: d("2023-11-03"),
		PeriodEnd:  d("2023-09-30"),
	}
}

func TestSerializeLLM_HeaderBlock(t *testing.T) {
	out := serializer.SerializeLLM(sampleFiling(), sampleDoc(), edgarmodel.FiscalAttribution{FiscalYear: 2023, FiscalPeriod: edgarmodel.PeriodAnnual})
	assert.Contains(t, out, "@DOCUMENT: AAPL-10-K-2023-09-30")
	assert.Contains(t, out, "@FILING_DATE: 2023-11-03")
	assert.Contains(t, out, "@COMPANY: Apple Inc.")
	assert.Contains(t, out, "@CIK: 0000320193")
	assert.Contains(t, out, "@FISCAL_YEAR: 2023")
	assert.Contains(t, out, "@FISCAL_PERIOD: annual")
}

func TestSerializeLLM_ContextDictionary(t *testing.T) {
	out := serializer.SerializeLLM(sampleFiling(), sampleDoc(), edgarmodel.FiscalAttribution{})
	assert.Contains(t, out, "@CONTEXT_DEF: Q4 | Instant: 2023-09-30")
	assert.Contains(t, out, "@CONTEXT_DEF: FY | Period: 2022-10-01 to 2023-09-30")
}

func TestSerializeLLM_FactsGroupedByConceptAndSortedByPeriod(t *testing.T) {
	out := serializer.SerializeLLM(sampleFiling(), sampleDoc(), edgarmodel.FiscalAttribution{})
	assetsIdx := strings.Index(out, "@CONCEPT: us-gaap:Assets")
	revenuesIdx := strings.Index(out, "@CONCEPT: us-gaap:Revenues")
	require.True(t, assetsIdx >= 0 && revenuesIdx >= 0)
	assert.Less(t, assetsIdx, revenuesIdx, "alphabetical by concept")
	assert.Contains(t, out, "@NORMALIZED: 3.52755e+11")
}

func TestSerializeLLM_Deterministic(t *testing.T) {
	attr := edgarmodel.FiscalAttribution{FiscalYear: 2023, FiscalPeriod: edgarmodel.PeriodAnnual}
	first := serializer.SerializeLLM(sampleFiling(), sampleDoc(), attr)
	second := serializer.SerializeLLM(sampleFiling(), sampleDoc(), attr)
	assert.Equal(t, first, second)
}

func TestWriteArtifact_CommitsViaRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "artifact.txt")

	err := serializer.WriteArtifact(path, []byte("hello"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
