package xbrl_test

import (
	"testing"

	"github.com/oakline-data/edgaringest/internal/xbrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInlineDoc = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL">
<body>
<div style="display:none">
  <ix:header>
    <ix:resources>
      <context id="c1">
        <entity><identifier>0000789019</identifier></entity>
        <period><startDate>2022-07-01</startDate><endDate>2023-06-30</endDate></period>
      </context>
      <unit id="usd"><measure>iso4217:USD</measure></unit>
    </ix:resources>
  </ix:header>
</div>
<p>Total revenue was <ix:nonFraction name="us-gaap:Revenues" contextRef="c1" unitRef="usd" decimals="-6" scale="6" format="ixt:num-dot-decimal">211,915</ix:nonFraction> million.</p>
<p><ix:nonNumeric name="dei:DocumentFiscalPeriodFocus" contextRef="c1">FY</ix:nonNumeric></p>
</body>
</html>`

func TestParseInline_HiddenBlockAndFacts(t *testing.T) {
	doc, err := xbrl.ParseInline([]byte(sampleInlineDoc))
	require.NoError(t, err)

	require.Len(t, doc.Contexts, 1)
	require.Len(t, doc.Units, 1)
	require.Len(t, doc.Facts, 2)

	var revenue *float64
	for _, f := range doc.Facts {
		if f.Concept == "us-gaap:Revenues" {
			assert.Equal(t, "211,915", f.Value)
			require.NotNil(t, f.NumericValue)
			revenue = f.NumericValue
		}
	}
	require.NotNil(t, revenue)
	assert.InDelta(t, 211915000000.0, *revenue, 1)
}

const sampleInlineNoHiddenBlock = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL">
<body>
<context id="c1"><entity><identifier>1</identifier></entity><period><instant>2023-12-31</instant></period></context>
<unit id="usd"><measure>iso4217:USD</measure></unit>
<ix:nonFraction name="us-gaap:Cash" contextRef="c1" unitRef="usd" decimals="0" sign="-">500</ix:nonFraction>
</body>
</html>`

func TestParseInline_FallsBackToWholeDocument(t *testing.T) {
	doc, err := xbrl.ParseInline([]byte(sampleInlineNoHiddenBlock))
	require.NoError(t, err)
	require.Len(t, doc.Contexts, 1)
	require.Len(t, doc.Facts, 1)
	require.NotNil(t, doc.Facts[0].NumericValue)
	assert.Equal(t, -500.0, *doc.Facts[0].NumericValue)
}

func TestDetect_FallbackOrder(t *testing.T) {
	assert.Equal(t, []xbrl.Mode{xbrl.ModeTraditional, xbrl.ModeInline, xbrl.ModeTextOnly}, xbrl.Detect(true, nil))
	assert.Equal(t, []xbrl.Mode{xbrl.ModeInline, xbrl.ModeTextOnly}, xbrl.Detect(false, []byte(`<html xmlns:ix="x"><ix:nonFraction/></html>`)))
	assert.Equal(t, []xbrl.Mode{xbrl.ModeTextOnly}, xbrl.Detect(false, []byte(`<html><body>plain</body></html>`)))
}
