// Package orchestrator runs the per-ticker ingest sequence: locate,
// fetch, parse, attribute, serialize, sink, isolating failures at the
// filing level so one bad filing never aborts the rest of a ticker's
// run.
package orchestrator

import (
	"context"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/fetcher"
	"github.com/oakline-data/edgaringest/internal/fiscal"
	"github.com/oakline-data/edgaringest/internal/locator"
	"github.com/oakline-data/edgaringest/internal/serializer"
	"github.com/oakline-data/edgaringest/internal/sink"
	"github.com/oakline-data/edgaringest/internal/textextract"
	"github.com/oakline-data/edgaringest/internal/xbrl"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultPerFilingTimeout bounds a single filing's end-to-end
// processing time.
const DefaultPerFilingTimeout = 5 * time.Minute

// Options configures a ticker run.
type Options struct {
	FilingTypes      []edgarmodel.FilingType
	StartYear        int // 0 = unbounded
	EndYear          int // 0 = unbounded
	PerFilingTimeout time.Duration
}

func (o Options) timeout() time.Duration {
	if o.PerFilingTimeout <= 0 {
		return DefaultPerFilingTimeout
	}
	return o.PerFilingTimeout
}

// FilingLocator is the subset of *locator.Locator the orchestrator
// depends on, narrowed to an interface so tests can substitute a fake.
type FilingLocator interface {
	ResolveCIK(ctx context.Context, ticker string) (string, error)
	ListFilings(ctx context.Context, cik string, filingTypes []edgarmodel.FilingType, company edgarmodel.Company) ([]locator.FilingRef, error)
	DiscoverDocuments(ctx context.Context, ref locator.FilingRef) (locator.FilingDocuments, error)
}

// DocFetcher is the subset of *fetcher.Fetcher the orchestrator
// depends on.
type DocFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Orchestrator wires together one ticker's pipeline collaborators.
type Orchestrator struct {
	Locator  FilingLocator
	Fetcher  DocFetcher
	Registry *fiscal.Registry
	Sink     sink.Sink
	Logger   *zap.Logger
}

// New builds an Orchestrator from its collaborators. logger may be nil.
func New(loc FilingLocator, f DocFetcher, registry *fiscal.Registry, sk sink.Sink, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Locator: loc, Fetcher: f, Registry: registry, Sink: sk, Logger: logger}
}

// ProcessTicker resolves a ticker's CIK, lists its filings, and
// processes each one in filing-date-descending order, recording one
// Outcome per filing. A single filing's failure does not stop the
// remaining filings; a resolve/list failure produces one Outcome and
// stops the ticker.
func (o *Orchestrator) ProcessTicker(ctx context.Context, ticker string, opts Options) []edgarmodel.Outcome {
	log := o.Logger.With(zap.String("ticker", ticker))

	cik, err := o.Locator.ResolveCIK(ctx, ticker)
	if err != nil {
		log.Warn("failed to resolve CIK", zap.Error(err))
		return []edgarmodel.Outcome{failedOutcome(ticker, "", err)}
	}

	company := edgarmodel.Company{Ticker: edgarmodel.NormalizeTicker(ticker), CIK: edgarmodel.PadCIK(cik)}

	refs, err := o.Locator.ListFilings(ctx, company.CIK, opts.FilingTypes, company)
	if err != nil {
		log.Warn("failed to list filings", zap.Error(err))
		return []edgarmodel.Outcome{failedOutcome(ticker, "", err)}
	}

	refs = filterByYear(refs, opts.StartYear, opts.EndYear)

	var outcomes []edgarmodel.Outcome
	for _, ref := range refs {
		if ctx.Err() != nil {
			log.Info("cancellation observed, skipping remaining filings")
			break
		}
		outcomes = append(outcomes, o.processFiling(ctx, ref, opts.timeout()))
	}
	return outcomes
}

func filterByYear(refs []locator.FilingRef, startYear, endYear int) []locator.FilingRef {
	if startYear == 0 && endYear == 0 {
		return refs
	}
	var filtered []locator.FilingRef
	for _, ref := range refs {
		year := ref.FilingDate.Year()
		if startYear != 0 && year < startYear {
			continue
		}
		if endYear != 0 && year > endYear {
			continue
		}
		filtered = append(filtered, ref)
	}
	return filtered
}

// processFiling runs one filing through discover -> fetch -> parse ->
// text-extract -> attribute -> serialize -> sink, isolating any
// failure into the returned Outcome.
func (o *Orchestrator) processFiling(ctx context.Context, ref locator.FilingRef, timeout time.Duration) edgarmodel.Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := o.Logger.With(
		zap.String("ticker", ref.Company.Ticker),
		zap.String("accession", ref.Accession),
		zap.String("filing_type", string(ref.FilingType)),
	)

	filing := edgarmodel.Filing{
		Company:       ref.Company,
		FilingType:    ref.FilingType,
		Accession:     ref.Accession,
		FilingDate:    ref.FilingDate,
		PeriodEnd:     ref.PeriodEnd,
		Substituted:   ref.Substituted,
		RequestedType: ref.RequestedType,
	}

	// Existence-check short-circuit using a preliminary attribution
	// computed without filing evidence (the registry, or the no-evidence
	// heuristics for an unregistered ticker): no fetch is needed to know
	// that canonical path, so a previously-committed filing skips all
	// network and parse work.
	prelim := fiscal.Attribute(o.Registry, filing, nil, o.Logger)
	llmPath := edgarmodel.ArtifactPath(filing.Company.Ticker, filing.FilingType, prelim.FiscalYear, prelim.FiscalPeriod, "llm")
	if exists, err := o.Sink.Exists(ctx, llmPath); err == nil && exists {
		log.Info("artifact already committed, skipping", zap.String("path", llmPath))
		return edgarmodel.Outcome{
			Ticker:        filing.Company.Ticker,
			FilingType:    filing.FilingType,
			FiscalYear:    prelim.FiscalYear,
			FiscalPeriod:  prelim.FiscalPeriod,
			Success:       true,
			ArtifactPaths: []string{llmPath},
			Substituted:   filing.Substituted,
			Sealed:        true,
		}
	}

	docs, err := o.Locator.DiscoverDocuments(ctx, ref)
	if err != nil {
		log.Warn("failed to discover documents", zap.Error(err))
		return sealedFailure(filing, edgarmodel.ErrNotFound, err)
	}

	primaryHTML, err := o.Fetcher.Fetch(ctx, docs.PrimaryDocURL)
	if err != nil {
		log.Warn("failed to fetch primary document", zap.Error(err))
		return sealedFailure(filing, edgarmodel.ErrFetch, err)
	}

	doc, textOnly, parseErr := o.parseXBRL(ctx, docs, primaryHTML)

	text, textErr := textextract.Extract(primaryHTML)
	if textErr != nil {
		log.Warn("text extraction failed", zap.Error(textErr))
	}

	if parseErr != nil && textErr != nil {
		return sealedFailure(filing, edgarmodel.ErrParse, parseErr)
	}

	attr := fiscal.Attribute(o.Registry, filing, doc.Facts, o.Logger)
	outcome := edgarmodel.Outcome{
		Ticker:       filing.Company.Ticker,
		FilingType:   filing.FilingType,
		FiscalYear:   attr.FiscalYear,
		FiscalPeriod: attr.FiscalPeriod,
		Substituted:  filing.Substituted,
	}
	if attr.Confidence < 1.0 {
		outcome.FiscalAmbiguous = true
	}

	var paths []string
	if parseErr == nil {
		if textOnly {
			log.Info("no XBRL present, serializing with an empty fact table")
		}
		llmContent := []byte(serializer.SerializeLLM(filing, doc, attr))
		path := edgarmodel.ArtifactPath(filing.Company.Ticker, filing.FilingType, attr.FiscalYear, attr.FiscalPeriod, "llm")
		if err := o.Sink.Put(ctx, path, llmContent); err != nil {
			log.Warn("failed to write llm artifact", zap.Error(err))
			return sealedFailure(filing, edgarmodel.ErrSerialize, err)
		}
		paths = append(paths, path)
	} else {
		log.Warn("XBRL parse failed, emitting text-only artifact", zap.Error(parseErr))
		outcome.ErrorKind = edgarmodel.ErrParse
		outcome.ErrorMessage = parseErr.Error()
	}

	if textErr == nil {
		path := edgarmodel.ArtifactPath(filing.Company.Ticker, filing.FilingType, attr.FiscalYear, attr.FiscalPeriod, "text")
		if err := o.Sink.Put(ctx, path, []byte(text)); err != nil {
			log.Warn("failed to write text artifact", zap.Error(err))
			if len(paths) == 0 {
				return sealedFailure(filing, edgarmodel.ErrSerialize, err)
			}
		} else {
			paths = append(paths, path)
		}
	}

	filingID := sink.FilingID(filing.Company.Ticker, string(filing.FilingType), attr.FiscalYear, string(attr.FiscalPeriod))
	metaErr := o.Sink.RecordMetadata(ctx, filingID, map[string]string{
		"source":      string(attr.Source),
		"accession":   filing.Accession,
		"substituted": boolStr(filing.Substituted),
	})
	if metaErr != nil {
		log.Warn("failed to record metadata", zap.Error(metaErr))
	}

	outcome.Success = len(paths) > 0
	outcome.ArtifactPaths = paths
	outcome.Sealed = true
	return outcome
}

// parseXBRL runs the format detector and tries each candidate mode in
// order until one parses successfully. A text-only classification is
// not an error: it reports textOnly=true with a nil error and a zero-
// value Document, so the caller serializes an empty fact table rather
// than treating the filing as a parse failure.
func (o *Orchestrator) parseXBRL(ctx context.Context, docs locator.FilingDocuments, primaryHTML []byte) (doc xbrl.Document, textOnly bool, err error) {
	hasInstance := docs.InstanceURL != ""
	modes := xbrl.Detect(hasInstance, primaryHTML)

	var lastErr error
	for _, mode := range modes {
		switch mode {
		case xbrl.ModeTraditional:
			instance, err := o.Fetcher.Fetch(ctx, docs.InstanceURL)
			if err != nil {
				lastErr = err
				continue
			}
			parsed, err := xbrl.ParseInstance(instance)
			if err != nil {
				lastErr = err
				continue
			}
			return parsed, false, nil
		case xbrl.ModeInline:
			parsed, err := xbrl.ParseInline(primaryHTML)
			if err != nil {
				lastErr = err
				continue
			}
			return parsed, false, nil
		case xbrl.ModeTextOnly:
			return xbrl.Document{}, true, nil
		}
	}
	if lastErr == nil {
		lastErr = eris.New("no applicable XBRL parsing mode")
	}
	return xbrl.Document{}, false, lastErr
}

func sealedFailure(filing edgarmodel.Filing, kind edgarmodel.ErrorKind, err error) edgarmodel.Outcome {
	return edgarmodel.Outcome{
		Ticker:       filing.Company.Ticker,
		FilingType:   filing.FilingType,
		Success:      false,
		ErrorKind:    kind,
		ErrorMessage: err.Error(),
		Substituted:  filing.Substituted,
		Sealed:       true,
	}
}

func failedOutcome(ticker, filingType string, err error) edgarmodel.Outcome {
	kind := edgarmodel.ErrFetch
	if fetcher.IsNotFound(err) {
		kind = edgarmodel.ErrNotFound
	} else if fetcher.IsRateLimited(err) {
		kind = edgarmodel.ErrRateLimit
	} else if fetcher.IsConfig(err) {
		kind = edgarmodel.ErrConfig
	}
	return edgarmodel.Outcome{
		Ticker:       ticker,
		FilingType:   edgarmodel.FilingType(filingType),
		Success:      false,
		ErrorKind:    kind,
		ErrorMessage: err.Error(),
		Sealed:       true,
	}
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
