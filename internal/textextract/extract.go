// Package textextract renders a filing's primary HTML document into a
// deterministic plain-text narrative with canonical section tagging.
package textextract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TableDelimiter separates flattened table cells.
const TableDelimiter = "   "

var whitespaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLineRun = regexp.MustCompile(`\n{3,}`)

// Extract strips scripts, styles, and iXBRL elements from an HTML
// document (retaining their text), flattens tables row-by-row, and
// tags section headings with `@SECTION: <label>` sentinel lines. The
// result is a pure function of the input bytes.
func Extract(rawHTML []byte) (string, error) {
	rawHTML = normalizeUnicode(rawHTML)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(rawHTML)))
	if err != nil {
		return "", err
	}

	doc.Find("script, style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})
	unwrapInlineElements(doc.Selection)

	var lines []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		lines = walkBlock(body)
	})
	if len(lines) == 0 {
		// No <body> (fragment input): walk the whole document.
		lines = walkBlock(doc.Selection)
	}

	return tagSections(lines), nil
}

// unwrapInlineElements removes ix:* elements from the tree while
// keeping their text content.
func unwrapInlineElements(root *goquery.Selection) {
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		if strings.HasPrefix(node.Data, "ix:") {
			s.ReplaceWithHtml(s.Text())
		}
	})
}

// blockTags are the elements treated as paragraph boundaries: their
// text content is emitted as its own line, separated from surrounding
// content by a blank line.
var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true, "br": true,
}

// walkBlock produces one text line per paragraph-level block and one
// flattened entry per table (its rows separated by newlines), in
// document order.
func walkBlock(root *goquery.Selection) []string {
	var lines []string
	var visit func(*goquery.Selection)

	visit = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			node := c.Get(0)
			if node == nil {
				return
			}
			if node.Type == html.TextNode {
				if t := collapseWhitespace(c.Text()); t != "" {
					lines = append(lines, t)
				}
				return
			}
			if node.Type != html.ElementNode {
				return
			}
			if node.Data == "table" {
				if flat := flattenTable(c); flat != "" {
					lines = append(lines, flat)
				}
				return
			}
			if blockTags[node.Data] {
				if t := collapseWhitespace(c.Text()); t != "" {
					lines = append(lines, t)
				}
				return
			}
			visit(c)
		})
	}
	visit(root)
	return lines
}

// flattenTable renders a table row-by-row, cells joined by
// TableDelimiter, rows joined by newlines.
func flattenTable(table *goquery.Selection) string {
	var rows []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			if t := collapseWhitespace(cell.Text()); t != "" {
				cells = append(cells, t)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, TableDelimiter))
		}
	})
	return strings.Join(rows, "\n")
}

func collapseWhitespace(s string) string {
	s = string(normalizeUnicode([]byte(s)))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tagSections inserts `@SECTION: <label>` sentinels immediately before
// any line matching the SEC item vocabulary, then joins lines with
// blank-line paragraph separation.
func tagSections(lines []string) string {
	var out strings.Builder
	for i, line := range lines {
		if label, ok := matchSection(line); ok {
			out.WriteString("@SECTION: ")
			out.WriteString(string(label))
			out.WriteString("\n")
		}
		out.WriteString(line)
		if i < len(lines)-1 {
			out.WriteString("\n\n")
		}
	}
	return blankLineRun.ReplaceAllString(out.String(), "\n\n")
}

func matchSection(line string) (label string, ok bool) {
	for _, p := range sectionPatterns {
		if p.re.MatchString(line) {
			return string(p.label), true
		}
	}
	return "", false
}
