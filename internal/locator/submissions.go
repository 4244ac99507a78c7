package locator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/fetcher"
	"github.com/rotisserie/eris"
)

// submissions mirrors the shape of EDGAR's per-company submissions
// JSON, covering every filing type this pipeline cares about rather
// than only Form 4.
type submissions struct {
	CIK      string          `json:"cik"`
	Name     string          `json:"name"`
	Tickers  []string        `json:"tickers"`
	Filings  filingsData     `json:"filings"`
}

type filingsData struct {
	Recent filingArrays `json:"recent"`
}

type filingArrays struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
	IsXBRL          []int    `json:"isXBRL"`
	IsInlineXBRL    []int    `json:"isInlineXBRL"`
}

// FilingRef is the minimal reference to a single submission returned
// by ListFilings; DiscoverDocuments resolves the rest.
type FilingRef struct {
	Company         edgarmodel.Company
	FilingType      edgarmodel.FilingType
	RequestedType   edgarmodel.FilingType
	Substituted     bool
	Accession       string
	FilingDate      time.Time
	PeriodEnd       time.Time
	PrimaryDocument string // filename only, resolved relative to the accession folder
	IsXBRL          bool
	IsInlineXBRL    bool
}

func submissionsURL(cik string) string {
	return "https://data.sec.gov/submissions/CIK" + edgarmodel.PadCIK(cik) + ".json"
}

func fetchSubmissions(ctx context.Context, f *fetcher.Fetcher, cik string) (*submissions, error) {
	body, err := f.Fetch(ctx, submissionsURL(cik))
	if err != nil {
		return nil, err
	}
	var subs submissions
	if err := json.Unmarshal(body, &subs); err != nil {
		return nil, eris.Wrapf(err, "parsing submissions JSON for CIK %s", cik)
	}
	return &subs, nil
}

func (s *submissions) refs(company edgarmodel.Company, match edgarmodel.FilingType, requested edgarmodel.FilingType, substituted bool) []FilingRef {
	fa := s.Filings.Recent
	n := len(fa.AccessionNumber)
	refs := make([]FilingRef, 0, n)

	for i := 0; i < n; i++ {
		form := edgarmodel.FilingType("")
		if i < len(fa.Form) {
			form = edgarmodel.FilingType(fa.Form[i])
		}
		if form != match {
			continue
		}

		ref := FilingRef{
			Company:       company,
			FilingType:    form,
			RequestedType: requested,
			Substituted:   substituted,
			Accession:     fa.AccessionNumber[i],
		}
		if i < len(fa.FilingDate) {
			ref.FilingDate, _ = time.Parse("2006-01-02", fa.FilingDate[i])
		}
		if i < len(fa.ReportDate) && fa.ReportDate[i] != "" {
			ref.PeriodEnd, _ = time.Parse("2006-01-02", fa.ReportDate[i])
		}
		if i < len(fa.PrimaryDocument) {
			ref.PrimaryDocument = fa.PrimaryDocument[i]
		}
		if i < len(fa.IsXBRL) {
			ref.IsXBRL = fa.IsXBRL[i] != 0
		}
		if i < len(fa.IsInlineXBRL) {
			ref.IsInlineXBRL = fa.IsInlineXBRL[i] != 0
		}

		refs = append(refs, ref)
	}

	return refs
}
