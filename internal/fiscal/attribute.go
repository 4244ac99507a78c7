package fiscal

import (
	"strconv"
	"strings"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"go.uber.org/zap"
)

// monthBucket maps a (period-end-month - fiscal-year-end-month) mod 12
// offset to the fiscal period it falls in, with ±1 month tolerance
// around the canonical 0/3/6/9 offsets.
var monthBucket = [12]edgarmodel.FiscalPeriod{
	0:  edgarmodel.PeriodAnnual,
	1:  edgarmodel.PeriodAnnual,
	2:  edgarmodel.PeriodQ1,
	3:  edgarmodel.PeriodQ1,
	4:  edgarmodel.PeriodQ1,
	5:  edgarmodel.PeriodQ2,
	6:  edgarmodel.PeriodQ2,
	7:  edgarmodel.PeriodQ2,
	8:  edgarmodel.PeriodQ3,
	9:  edgarmodel.PeriodQ3,
	10: edgarmodel.PeriodQ3,
	11: edgarmodel.PeriodAnnual,
}

// Attribute computes the (fiscal_year, fiscal_period) determination for
// a filing. facts is the filing's parsed XBRL fact set, consulted for
// dei evidence when the ticker is unregistered. logger may be nil.
func Attribute(registry *Registry, filing edgarmodel.Filing, facts []edgarmodel.Fact, logger *zap.Logger) edgarmodel.FiscalAttribution {
	var attr edgarmodel.FiscalAttribution

	if entry, ok := registry.Lookup(filing.Company.Ticker); ok {
		attr = classifyByRegistry(entry, filing.PeriodEnd)
	} else {
		attr = classifyByEvidence(filing, facts)
	}

	return applyAnnualOverride(filing, attr, logger)
}

// classifyByRegistry buckets period_end_date against a registered
// fiscal-year-end month.
func classifyByRegistry(entry Entry, periodEnd time.Time) edgarmodel.FiscalAttribution {
	month := int(periodEnd.Month())
	fye := entry.FiscalYearEndMonth
	offset := ((month - fye) + 12) % 12

	// A period ending after the fiscal-year-end month belongs to the
	// fiscal year ending next calendar year, except one ending a month
	// late (offset 1), which closes the fiscal year that just ended.
	year := periodEnd.Year()
	if month > fye && offset != 1 {
		year++
	}

	return edgarmodel.FiscalAttribution{
		FiscalYear:   year,
		FiscalPeriod: monthBucket[offset],
		Source:       edgarmodel.SourceRegistry,
		Confidence:   1.0,
	}
}

// classifyByEvidence handles unregistered tickers: dei facts take
// priority; otherwise a default-calendar heuristic is applied.
func classifyByEvidence(filing edgarmodel.Filing, facts []edgarmodel.Fact) edgarmodel.FiscalAttribution {
	if period, year, ok := deiFocus(facts); ok {
		return edgarmodel.FiscalAttribution{
			FiscalYear:   year,
			FiscalPeriod: period,
			Source:       edgarmodel.SourceFilingEvidence,
			Confidence:   1.0,
		}
	}

	if filing.FilingType == edgarmodel.Filing10K || filing.FilingType == edgarmodel.Filing20F {
		return edgarmodel.FiscalAttribution{
			FiscalYear:   filing.PeriodEnd.Year(),
			FiscalPeriod: edgarmodel.PeriodAnnual,
			Source:       edgarmodel.SourceDerived,
			Confidence:   1.0,
		}
	}

	// 10-Q default-calendar heuristic (FYE December), confidence 0.6.
	defaultEntry := Entry{FiscalYearEndMonth: 12}
	attr := classifyByRegistry(defaultEntry, filing.PeriodEnd)
	attr.Source = edgarmodel.SourceDerived
	attr.Confidence = 0.6
	return attr
}

// applyAnnualOverride enforces the hard invariant: 10-K/20-F filings
// are always "annual" regardless of evidence.
func applyAnnualOverride(filing edgarmodel.Filing, attr edgarmodel.FiscalAttribution, logger *zap.Logger) edgarmodel.FiscalAttribution {
	if filing.FilingType != edgarmodel.Filing10K && filing.FilingType != edgarmodel.Filing20F {
		return attr
	}
	if attr.FiscalPeriod == edgarmodel.PeriodAnnual {
		return attr
	}

	if logger != nil {
		logger.Warn("fiscal period overridden to annual",
			zap.String("ticker", filing.Company.Ticker),
			zap.String("filing_type", string(filing.FilingType)),
			zap.String("evidence_period", string(attr.FiscalPeriod)),
		)
	}
	attr.FiscalPeriod = edgarmodel.PeriodAnnual
	attr.Overridden = true
	return attr
}

// deiFocus extracts DocumentFiscalPeriodFocus/DocumentFiscalYearFocus
// from a filing's dei facts, if both are present and well-formed.
func deiFocus(facts []edgarmodel.Fact) (edgarmodel.FiscalPeriod, int, bool) {
	var periodFocus string
	var yearFocus int
	var havePeriod, haveYear bool

	for _, f := range facts {
		switch f.Concept {
		case "dei:DocumentFiscalPeriodFocus":
			periodFocus = strings.ToUpper(strings.TrimSpace(f.Value))
			havePeriod = periodFocus != ""
		case "dei:DocumentFiscalYearFocus":
			if y, err := strconv.Atoi(strings.TrimSpace(f.Value)); err == nil {
				yearFocus = y
				haveYear = true
			}
		}
	}

	if !havePeriod || !haveYear {
		return "", 0, false
	}

	period, ok := mapDeiPeriod(periodFocus)
	if !ok {
		return "", 0, false
	}
	return period, yearFocus, true
}

func mapDeiPeriod(focus string) (edgarmodel.FiscalPeriod, bool) {
	switch focus {
	case "FY":
		return edgarmodel.PeriodAnnual, true
	case "Q1":
		return edgarmodel.PeriodQ1, true
	case "Q2":
		return edgarmodel.PeriodQ2, true
	case "Q3":
		return edgarmodel.PeriodQ3, true
	default:
		return "", false
	}
}
