// Package locator implements EDGAR document discovery: resolving a
// ticker to its CIK, enumerating filings of the requested types, and
// discovering the primary document / XBRL instance / schema and
// linkbase URLs for a single filing.
package locator

import (
	"bytes"
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/fetcher"
	"github.com/rotisserie/eris"
)

// Locator discovers filings and their documents from EDGAR.
type Locator struct {
	fetcher *fetcher.Fetcher
}

// New builds a Locator backed by the given rate-limited Fetcher.
func New(f *fetcher.Fetcher) *Locator {
	return &Locator{fetcher: f}
}

var cikPattern = regexp.MustCompile(`CIK=(\d{10})`)

// ResolveCIK consults EDGAR's company-search endpoint and extracts the
// first 10-digit CIK match for the ticker.
func (l *Locator) ResolveCIK(ctx context.Context, ticker string) (string, error) {
	ticker = edgarmodel.NormalizeTicker(ticker)
	url := "https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&CIK=" + ticker + "&type=10-K&owner=exclude&count=40"

	body, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return "", eris.Wrapf(fetcher.ErrNotFound, "no CIK found for ticker %s", ticker)
		}
		return "", err
	}

	match := cikPattern.FindSubmatch(body)
	if match == nil {
		return "", eris.Wrapf(fetcher.ErrNotFound, "no CIK found for ticker %s", ticker)
	}
	return string(match[1]), nil
}

// ListFilings reads the CIK's EDGAR submissions JSON (its "recent"
// filing arrays, in a single request) and returns refs for every
// requested filing type, sorted by filing date
// descending. When a 10-K request yields zero results, it automatically
// retries with 20-F (foreign issuers) and marks the result as
// substituted.
func (l *Locator) ListFilings(ctx context.Context, cik string, filingTypes []edgarmodel.FilingType, company edgarmodel.Company) ([]FilingRef, error) {
	subs, err := fetchSubmissions(ctx, l.fetcher, cik)
	if err != nil {
		return nil, err
	}

	var all []FilingRef
	for _, ft := range filingTypes {
		refs := subs.refs(company, ft, ft, false)
		if len(refs) == 0 && ft == edgarmodel.Filing10K {
			refs = subs.refs(company, edgarmodel.Filing20F, edgarmodel.Filing10K, true)
		}
		all = append(all, refs...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].FilingDate.After(all[j].FilingDate)
	})

	return all, nil
}

// FilingDocuments is the set of URLs discover_documents resolves for a
// single filing.
type FilingDocuments struct {
	PrimaryDocURL string
	InstanceURL   string // empty when no separate XBRL instance exists
	SchemaURL     string
	LinkbaseURLs  []string
}

var stripLinkbaseSuffix = regexp.MustCompile(`_(cal|def|pre|lab)\.xml$`)

// indexEntry is one row of the accession's directory listing.
type indexEntry struct {
	Name string
	Size int64
}

// DiscoverDocuments fetches the accession index page and identifies the
// primary HTML document, the XBRL instance URL, and any schema/
// linkbase URLs. Inline-XBRL viewer URLs (`ix?doc=`) are stripped to
// their underlying document before being returned.
func (l *Locator) DiscoverDocuments(ctx context.Context, ref FilingRef) (FilingDocuments, error) {
	base := accessionBaseURL(ref.Company.CIK, ref.Accession)
	indexURL := base + "/"

	body, err := l.fetcher.Fetch(ctx, indexURL)
	if err != nil {
		return FilingDocuments{}, err
	}

	entries, err := parseIndexEntries(body)
	if err != nil {
		return FilingDocuments{}, eris.Wrap(err, "parsing accession index page")
	}

	docs := FilingDocuments{}

	if ref.PrimaryDocument != "" {
		docs.PrimaryDocURL = base + "/" + stripViewerPrefix(ref.PrimaryDocument)
	} else {
		docs.PrimaryDocURL = base + "/" + largestTextDocument(entries)
	}

	accessionCompact := strings.ReplaceAll(ref.Accession, "-", "")
	if instance := chooseInstance(entries, accessionCompact); instance != "" {
		docs.InstanceURL = base + "/" + instance
	}

	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if strings.HasSuffix(name, ".xsd") {
			docs.SchemaURL = base + "/" + e.Name
		}
		if stripLinkbaseSuffix.MatchString(name) {
			docs.LinkbaseURLs = append(docs.LinkbaseURLs, base+"/"+e.Name)
		}
	}

	return docs, nil
}

func accessionBaseURL(cik, accession string) string {
	compact := strings.ReplaceAll(accession, "-", "")
	return "https://www.sec.gov/Archives/edgar/data/" + strings.TrimLeft(cik, "0") + "/" + compact
}

// stripViewerPrefix strips the inline-XBRL viewer wrapper
// ("ix?doc=/Archives/...") down to the underlying document path.
func stripViewerPrefix(doc string) string {
	if idx := strings.Index(doc, "ix?doc="); idx != -1 {
		rest := doc[idx+len("ix?doc="):]
		if slash := strings.LastIndex(rest, "/"); slash != -1 {
			return rest[slash+1:]
		}
		return rest
	}
	if strings.Contains(doc, "/") {
		parts := strings.Split(doc, "/")
		return parts[len(parts)-1]
	}
	return doc
}

// parseIndexEntries scrapes the accession directory-listing HTML for
// file name and size columns using goquery DOM traversal, since the
// listing is a real HTML table rather than a fixed schema.
func parseIndexEntries(body []byte) ([]indexEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var entries []indexEntry
	doc.Find("table.tableFile tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a")
		if link.Length() == 0 {
			return
		}
		name := strings.TrimSpace(link.First().Text())
		if name == "" {
			return
		}
		var size int64
		row.Find("td").Each(func(i int, cell *goquery.Selection) {
			if n, err := strconv.ParseInt(strings.TrimSpace(cell.Text()), 10, 64); err == nil {
				size = n
			}
		})
		entries = append(entries, indexEntry{Name: name, Size: size})
	})

	// Fall back to bare anchor scraping for older, table-less index
	// pages (pre-2000s filings use a plain <pre> listing).
	if len(entries) == 0 {
		doc.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			name := href
			if slash := strings.LastIndex(name, "/"); slash != -1 {
				name = name[slash+1:]
			}
			if name == "" || strings.Contains(name, "..") {
				return
			}
			entries = append(entries, indexEntry{Name: name})
		})
	}

	return entries, nil
}

func largestTextDocument(entries []indexEntry) string {
	var best indexEntry
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if !strings.HasSuffix(name, ".htm") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".txt") {
			continue
		}
		if strings.Contains(name, "ex") && isLikelyExhibit(name) {
			continue
		}
		if e.Size > best.Size {
			best = e
		}
	}
	return best.Name
}

var exhibitPattern = regexp.MustCompile(`^ex[-_]?\d`)

func isLikelyExhibit(name string) bool {
	base := name
	if slash := strings.LastIndex(base, "/"); slash != -1 {
		base = base[slash+1:]
	}
	return exhibitPattern.MatchString(base)
}

// chooseInstance implements the XBRL instance-selection rule: first
// match of `*_htm.xml`, else `*.xml`/`*.xbrl` not ending in
// `_cal/_def/_pre/_lab`, with ties broken by earliest occurrence whose
// filename matches the filing's accession number.
func chooseInstance(entries []indexEntry, accessionCompact string) string {
	var htmXML, accessionMatch, anyXML string

	for _, e := range entries {
		name := strings.ToLower(e.Name)
		if stripLinkbaseSuffix.MatchString(name) {
			continue
		}
		if strings.HasSuffix(name, "_htm.xml") {
			if htmXML == "" {
				htmXML = e.Name
			}
			if accessionMatch == "" && strings.Contains(strings.ReplaceAll(name, "-", ""), accessionCompact) {
				accessionMatch = e.Name
			}
			continue
		}
		if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".xbrl") {
			if anyXML == "" {
				anyXML = e.Name
			}
		}
	}

	if accessionMatch != "" {
		return accessionMatch
	}
	if htmXML != "" {
		return htmXML
	}
	return anyXML
}
