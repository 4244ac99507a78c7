// Package edgarmodel holds the shared domain types for the filing
// ingestion pipeline: companies, filings, the XBRL tables (contexts,
// units, facts), fiscal attribution, the extracted text document, and
// the per-filing outcome record.
package edgarmodel

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FilingType is a closed-ish set of SEC form types this pipeline cares
// about. Other form types pass through locator filters untouched but
// are not modeled further.
type FilingType string

const (
	Filing10K FilingType = "10-K"
	Filing10Q FilingType = "10-Q"
	Filing20F FilingType = "20-F"
)

// Company is process-wide, read-mostly state: a resolved ticker/CIK
// pair plus display name.
type Company struct {
	Ticker string // normalized upper-case ASCII
	CIK    string // zero-padded 10 digits
	Name   string
}

var accessionPattern = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// PadCIK zero-pads a CIK to 10 digits.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	cik = strings.TrimLeft(cik, "0")
	if cik == "" {
		cik = "0"
	}
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

// Filing is one EDGAR submission by one issuer.
type Filing struct {
	Company       Company
	FilingType    FilingType
	Accession     string // dash-formatted: NNNNNNNNNN-NN-NNNNNN
	FilingDate    time.Time
	PeriodEnd     time.Time
	PrimaryDocURL string
	InstanceURL   string // empty when no separate XBRL instance exists

	// Substituted records that the locator replaced a requested 10-K
	// with a 20-F for a foreign issuer.
	Substituted   bool
	RequestedType FilingType
}

// ValidAccession reports whether the accession number matches EDGAR's
// format.
func ValidAccession(accession string) bool {
	return accessionPattern.MatchString(accession)
}

// Valid checks the Filing invariants from the data model: the
// accession format and period_end_date <= filing_date.
func (f Filing) Valid() bool {
	if !ValidAccession(f.Accession) {
		return false
	}
	if f.PeriodEnd.After(f.FilingDate) {
		return false
	}
	return true
}

// Period describes a Context's time dimension: exactly one of Instant
// or (Start, End) is populated.
type Period struct {
	Instant time.Time
	Start   time.Time
	End     time.Time
}

// IsInstant reports whether this is a point-in-time period.
func (p Period) IsInstant() bool {
	return !p.Instant.IsZero()
}

// IsDuration reports whether this is a start/end duration period.
func (p Period) IsDuration() bool {
	return !p.Start.IsZero() && !p.End.IsZero()
}

// EndDate returns the period's end date for sorting purposes: End for
// a duration, Instant for an instant.
func (p Period) EndDate() time.Time {
	if p.IsDuration() {
		return p.End
	}
	return p.Instant
}

// Context is a reusable descriptor for a fact's entity, period, and
// dimensions, scoped to a single filing.
type Context struct {
	ID         string
	EntityID   string
	Period     Period
	Dimensions map[string]string // dimension-concept -> member-concept, insertion order not preserved
}

// Unit is a reusable measurement descriptor, scoped to a single
// filing: either a single measure or a numerator/denominator pair.
type Unit struct {
	ID          string
	Measure     string // verbatim, including namespace prefix; empty when Divide is set
	Numerator   string
	Denominator string
}

// IsDivide reports whether this unit is a ratio (numerator/denominator)
// rather than a single measure.
func (u Unit) IsDivide() bool {
	return u.Numerator != "" || u.Denominator != ""
}

// Fact is a single reported value bound to a concept, context, and
// optional unit.
type Fact struct {
	Concept      string // namespaced, e.g. "us-gaap:Cash"
	Value        string // preserved verbatim as reported
	Nil          bool   // xsi:nil="true"
	ContextRef   string
	UnitRef      string
	Decimals     *int
	Precision    *int
	NumericValue *float64 // optional numeric normalization
}

// IsNumeric reports whether the fact carries a numeric normalization.
func (f Fact) IsNumeric() bool {
	return f.NumericValue != nil
}

// FiscalSource records how a FiscalAttribution was derived.
type FiscalSource string

const (
	SourceRegistry       FiscalSource = "registry"
	SourceFilingEvidence FiscalSource = "filing-evidence"
	SourceDerived        FiscalSource = "derived"
)

// FiscalPeriod is one of the four buckets this system ever emits.
// "Q4" is never a valid value — annual filings use PeriodAnnual.
type FiscalPeriod string

const (
	PeriodQ1     FiscalPeriod = "Q1"
	PeriodQ2     FiscalPeriod = "Q2"
	PeriodQ3     FiscalPeriod = "Q3"
	PeriodAnnual FiscalPeriod = "annual"
)

// FiscalAttribution is the (fiscal_year, fiscal_period) determination
// attached to a Filing.
type FiscalAttribution struct {
	FiscalYear   int
	FiscalPeriod FiscalPeriod
	Source       FiscalSource
	Confidence   float64
	Overridden   bool // true when the 10-K/20-F hard override disagreed with evidence
}

// SectionLabel is a canonical label drawn from the fixed SEC item
// vocabulary.
type SectionLabel string

// Section is one tagged region of the extracted narrative document.
type Section struct {
	Label SectionLabel
	Body  string
}

// TextDoc is the ordered sequence of tagged sections produced by the
// HTML text extractor.
type TextDoc struct {
	Sections []Section
}

// ErrorKind is the closed set of error categories propagated in an
// Outcome.
type ErrorKind string

const (
	ErrConfig     ErrorKind = "ConfigError"
	ErrNotFound   ErrorKind = "NotFound"
	ErrRateLimit  ErrorKind = "RateLimited"
	ErrFetch      ErrorKind = "FetchError"
	ErrParse      ErrorKind = "ParseError"
	ErrSerialize  ErrorKind = "SerializeError"
	ErrNone       ErrorKind = ""
)

// Outcome is the per-filing result record produced by the orchestrator.
// Once Sealed, an Outcome is never mutated again.
type Outcome struct {
	Ticker          string
	FilingType      FilingType
	FiscalYear      int
	FiscalPeriod    FiscalPeriod
	Success         bool
	ArtifactPaths   []string
	ErrorKind       ErrorKind
	ErrorMessage    string
	Substituted     bool // 10-K -> 20-F substitution occurred
	FiscalAmbiguous bool
	Sealed          bool
}

// Seal freezes the outcome; subsequent mutation attempts are a
// programming error the caller must avoid (no invariant is enforced
// here beyond the flag — the orchestrator never mutates after Seal).
func (o *Outcome) Seal() {
	o.Sealed = true
}

// PeriodFolder maps a FiscalPeriod to the canonical artifact path
// segment ("annual" or "Q1"/"Q2"/"Q3" — never "Q4").
func PeriodFolder(p FiscalPeriod) string {
	return string(p)
}

// ArtifactPath builds the canonical sink path:
// companies/{TICKER}/{FILING_TYPE}/{YYYY}/{PERIOD}/{kind}.txt
func ArtifactPath(ticker string, ft FilingType, fiscalYear int, period FiscalPeriod, kind string) string {
	return "companies/" + NormalizeTicker(ticker) + "/" + string(ft) + "/" +
		strconv.Itoa(fiscalYear) + "/" + PeriodFolder(period) + "/" + kind + ".txt"
}
