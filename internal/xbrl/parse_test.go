package xbrl_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/xbrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInstance = `<?xml version="1.0"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2023" xmlns:dei="http://xbrl.sec.gov/dei/2023">
  <context id="FY2023Q4">
    <entity>
      <identifier>0000320193</identifier>
      <segment>
        <xbrldi:explicitMember dimension="us-gaap:StatementClassOfStockAxis">us-gaap:CommonStockMember</xbrldi:explicitMember>
      </segment>
    </entity>
    <period>
      <instant>2023-09-30</instant>
    </period>
  </context>
  <context id="FY2023">
    <entity><identifier>0000320193</identifier></entity>
    <period>
      <startDate>2022-10-01</startDate>
      <endDate>2023-09-30</endDate>
    </period>
  </context>
  <unit id="USD">
    <measure>iso4217:USD</measure>
  </unit>
  <unit id="USDPerShare">
    <divide>
      <unitNumerator><measure>iso4217:USD</measure></unitNumerator>
      <unitDenominator><measure>shares</measure></unitDenominator>
    </divide>
  </unit>
  <us-gaap:Assets contextRef="FY2023Q4" unitRef="USD" decimals="-6">352755000000</us-gaap:Assets>
  <dei:DocumentFiscalYearFocus contextRef="FY2023">2023</dei:DocumentFiscalYearFocus>
  <us-gaap:EarningsPerShareBasic contextRef="FY2023" unitRef="USDPerShare" decimals="2" xsi:nil="true"></us-gaap:EarningsPerShareBasic>
</xbrl>`

func TestParseInstance_ContextsUnitsFacts(t *testing.T) {
	doc, err := xbrl.ParseInstance([]byte(sampleInstance))
	require.NoError(t, err)

	require.Len(t, doc.Contexts, 2)
	require.Len(t, doc.Units, 2)
	require.Len(t, doc.Facts, 3)

	contexts := xbrl.ContextByID(doc.Contexts)
	ctx, ok := contexts["FY2023Q4"]
	require.True(t, ok)
	assert.True(t, ctx.Period.IsInstant())
	assert.Equal(t, "0000320193", ctx.EntityID)
	assert.Equal(t, "us-gaap:CommonStockMember", ctx.Dimensions["us-gaap:StatementClassOfStockAxis"])

	duration := contexts["FY2023"]
	assert.True(t, duration.Period.IsDuration())

	units := xbrl.UnitByID(doc.Units)
	assert.Equal(t, "iso4217:USD", units["USD"].Measure)
	assert.True(t, units["USDPerShare"].IsDivide())
	assert.Equal(t, "iso4217:USD", units["USDPerShare"].Numerator)
	assert.Equal(t, "shares", units["USDPerShare"].Denominator)

	var found bool
	for _, f := range doc.Facts {
		if f.Concept == "us-gaap:Assets" {
			found = true
			assert.Equal(t, "352755000000", f.Value)
			assert.Equal(t, "FY2023Q4", f.ContextRef)
			assert.Equal(t, "USD", f.UnitRef)
			require.NotNil(t, f.Decimals)
			assert.Equal(t, -6, *f.Decimals)
		}
		if f.Concept == "us-gaap:EarningsPerShareBasic" {
			assert.True(t, f.Nil)
			assert.Equal(t, "", f.Value)
		}
	}
	assert.True(t, found)
}

func TestParseInstance_DuplicateContext_FirstWins(t *testing.T) {
	doc, err := xbrl.ParseInstance([]byte(`<xbrl>
		<context id="C1"><entity><identifier>first</identifier></entity><period><instant>2023-01-01</instant></period></context>
		<context id="C1"><entity><identifier>second</identifier></entity><period><instant>2023-06-30</instant></period></context>
	</xbrl>`))
	require.NoError(t, err)
	require.Len(t, doc.Contexts, 1)
	assert.Equal(t, "first", doc.Contexts[0].EntityID)
}

func TestParseInstance_FactTable_StableAcrossReparse(t *testing.T) {
	first, err := xbrl.ParseInstance([]byte(sampleInstance))
	require.NoError(t, err)
	second, err := xbrl.ParseInstance([]byte(sampleInstance))
	require.NoError(t, err)

	byConcept := func(facts []edgarmodel.Fact) []edgarmodel.Fact {
		out := append([]edgarmodel.Fact(nil), facts...)
		sort.Slice(out, func(i, j int) bool { return out[i].Concept < out[j].Concept })
		return out
	}

	if diff := cmp.Diff(byConcept(first.Facts), byConcept(second.Facts)); diff != "" {
		t.Fatalf("fact table differs across identical parses (-first +second):\n%s", diff)
	}
}

func TestParseInstance_RejectsAmbiguousPeriod(t *testing.T) {
	doc, err := xbrl.ParseInstance([]byte(`<xbrl>
		<context id="bad">
			<entity><identifier>x</identifier></entity>
			<period><instant>2023-01-01</instant><startDate>2022-01-01</startDate><endDate>2023-01-01</endDate></period>
		</context>
	</xbrl>`))
	require.Error(t, err)
	assert.Empty(t, doc.Contexts)
}
