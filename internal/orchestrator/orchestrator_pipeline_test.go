package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/fiscal"
	"github.com/oakline-data/edgaringest/internal/locator"
	"github.com/oakline-data/edgaringest/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLocator is a fixed-response stand-in for *locator.Locator.
type fakeLocator struct {
	cik     string
	cikErr  error
	refs    []locator.FilingRef
	refsErr error
	docs    map[string]locator.FilingDocuments
	docsErr error
}

func (f *fakeLocator) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	return f.cik, f.cikErr
}

func (f *fakeLocator) ListFilings(ctx context.Context, cik string, filingTypes []edgarmodel.FilingType, company edgarmodel.Company) ([]locator.FilingRef, error) {
	return f.refs, f.refsErr
}

func (f *fakeLocator) DiscoverDocuments(ctx context.Context, ref locator.FilingRef) (locator.FilingDocuments, error) {
	if f.docsErr != nil {
		return locator.FilingDocuments{}, f.docsErr
	}
	return f.docs[ref.Accession], nil
}

// fakeFetcher serves canned bodies keyed by URL, or an error if one is
// registered for that URL.
type fakeFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.bodies[url], nil
}

// fakeSink is an in-memory Sink.
type fakeSink struct {
	mu       sync.Mutex
	objects  map[string][]byte
	existing map[string]bool
	metadata map[string]map[string]string
	putErr   error
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		objects:  map[string][]byte{},
		existing: map[string]bool{},
		metadata: map[string]map[string]string{},
	}
}

func (s *fakeSink) Put(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[path] = data
	return nil
}

func (s *fakeSink) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[path], nil
}

func (s *fakeSink) RecordMetadata(ctx context.Context, filingID string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[filingID] = attrs
	return nil
}

func emptyRegistry(t *testing.T) *fiscal.Registry {
	t.Helper()
	registry, err := fiscal.ParseRegistry(nil)
	require.NoError(t, err)
	return registry
}

func baseRef() locator.FilingRef {
	return locator.FilingRef{
		Company:         edgarmodel.Company{Ticker: "AAPL", CIK: "0000320193"},
		FilingType:      edgarmodel.Filing10K,
		RequestedType:   edgarmodel.Filing10K,
		Accession:       "0000320193-23-000106",
		FilingDate:      time.Date(2023, time.November, 3, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2023, time.September, 30, 0, 0, 0, 0, time.UTC),
		PrimaryDocument: "aapl-20230930.htm",
	}
}

const plainNarrativeHTML = `<html><body><p>Item 1. Business</p><p>We design, manufacture, and sell widgets.</p></body></html>`

const inlineXBRLHTML = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL">
<body>
<div style="display:none">
  <ix:header>
    <ix:resources>
      <context id="c1">
        <entity><identifier>0000320193</identifier></entity>
        <period><startDate>2022-10-01</startDate><endDate>2023-09-30</endDate></period>
      </context>
      <unit id="usd"><measure>iso4217:USD</measure></unit>
    </ix:resources>
  </ix:header>
</div>
<p>Revenue was <ix:nonFraction name="us-gaap:Revenues" contextRef="c1" unitRef="usd" decimals="-6">211,915</ix:nonFraction> million.</p>
</body>
</html>`

func TestProcessTicker_TextOnlyFiling_SerializesEmptyFactTable(t *testing.T) {
	ref := baseRef()
	primaryURL := "https://www.sec.gov/Archives/edgar/data/320193/000032019323000106/aapl-20230930.htm"

	loc := &fakeLocator{
		cik:  "0000320193",
		refs: []locator.FilingRef{ref},
		docs: map[string]locator.FilingDocuments{
			ref.Accession: {PrimaryDocURL: primaryURL},
		},
	}
	fetch := &fakeFetcher{bodies: map[string][]byte{
		primaryURL: []byte(plainNarrativeHTML),
	}}
	sk := newFakeSink()

	orc := orchestrator.New(loc, fetch, emptyRegistry(t), sk, zap.NewNop())
	outcomes := orc.ProcessTicker(context.Background(), "AAPL", orchestrator.Options{
		FilingTypes: []edgarmodel.FilingType{edgarmodel.Filing10K},
	})

	require.Len(t, outcomes, 1)
	outcome := outcomes[0]

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.ErrorKind)
	assert.Empty(t, outcome.ErrorMessage)
	require.Len(t, outcome.ArtifactPaths, 2)

	var llmPath string
	for _, p := range outcome.ArtifactPaths {
		if strings.Contains(p, "llm") {
			llmPath = p
		}
	}
	require.NotEmpty(t, llmPath)
	llmContent, ok := sk.objects[llmPath]
	require.True(t, ok)
	assert.NotContains(t, string(llmContent), "us-gaap:")
}

func TestProcessTicker_TraditionalFails_FallsBackToInline(t *testing.T) {
	ref := baseRef()
	primaryURL := "https://www.sec.gov/Archives/edgar/data/320193/000032019323000106/aapl-20230930.htm"
	instanceURL := "https://www.sec.gov/Archives/edgar/data/320193/000032019323000106/aapl-20230930_htm.xml"

	loc := &fakeLocator{
		cik:  "0000320193",
		refs: []locator.FilingRef{ref},
		docs: map[string]locator.FilingDocuments{
			ref.Accession: {PrimaryDocURL: primaryURL, InstanceURL: instanceURL},
		},
	}
	fetch := &fakeFetcher{
		bodies: map[string][]byte{
			primaryURL: []byte(inlineXBRLHTML),
		},
		errs: map[string]error{
			instanceURL: errors.New("instance document not found"),
		},
	}
	sk := newFakeSink()

	orc := orchestrator.New(loc, fetch, emptyRegistry(t), sk, zap.NewNop())
	outcomes := orc.ProcessTicker(context.Background(), "AAPL", orchestrator.Options{
		FilingTypes: []edgarmodel.FilingType{edgarmodel.Filing10K},
	})

	require.Len(t, outcomes, 1)
	outcome := outcomes[0]

	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.ErrorKind)

	var llmPath string
	for _, p := range outcome.ArtifactPaths {
		if strings.Contains(p, "llm") {
			llmPath = p
		}
	}
	require.NotEmpty(t, llmPath)
	assert.Contains(t, string(sk.objects[llmPath]), "us-gaap:Revenues")
}

func TestProcessTicker_ArtifactAlreadyCommitted_SkipsFetchEntirely(t *testing.T) {
	ref := baseRef()

	// classifyByEvidence with no facts for a 10-K attributes FiscalYear
	// from PeriodEnd.Year() and PeriodAnnual, deterministically, before
	// any fetch happens.
	llmPath := edgarmodel.ArtifactPath(ref.Company.Ticker, ref.FilingType, ref.PeriodEnd.Year(), edgarmodel.PeriodAnnual, "llm")

	// DiscoverDocuments returning an error proves the short-circuit
	// never reaches it: a non-short-circuited run would surface this
	// error as a sealed failure instead of a success.
	loc := &fakeLocator{
		cik:     "0000320193",
		refs:    []locator.FilingRef{ref},
		docsErr: errors.New("discover_documents should not be called"),
	}
	fetch := &fakeFetcher{}
	sk := newFakeSink()
	sk.existing[llmPath] = true

	orc := orchestrator.New(loc, fetch, emptyRegistry(t), sk, zap.NewNop())
	outcomes := orc.ProcessTicker(context.Background(), "AAPL", orchestrator.Options{
		FilingTypes: []edgarmodel.FilingType{edgarmodel.Filing10K},
	})

	require.Len(t, outcomes, 1)
	outcome := outcomes[0]

	assert.True(t, outcome.Success)
	assert.True(t, outcome.Sealed)
	assert.Equal(t, []string{llmPath}, outcome.ArtifactPaths)
}
