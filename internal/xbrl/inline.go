package xbrl

import (
	"bytes"
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"golang.org/x/net/html"
)

// ParseInline reads the same three tables (contexts, units, facts) from
// an inline-XBRL (iXBRL) HTML document. It first looks
// for the hidden block carrying the ix:resources/ix:header definitions;
// if absent, it scans the whole document, since some filings omit the
// hidden wrapper entirely.
func ParseInline(data []byte) (Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}

	scope := findHiddenBlock(root)
	if scope == nil {
		scope = root
	}

	var doc Document
	seenContexts := map[string]bool{}
	seenUnits := map[string]bool{}

	walk(scope, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "context":
			if ctx, ok := decodeHTMLContext(n); ok && !seenContexts[ctx.ID] {
				seenContexts[ctx.ID] = true
				doc.Contexts = append(doc.Contexts, ctx)
			}
		case "unit":
			if u, ok := decodeHTMLUnit(n); ok && !seenUnits[u.ID] {
				seenUnits[u.ID] = true
				doc.Units = append(doc.Units, u)
			}
		}
	})

	// Facts can appear anywhere in the document, not just inside the
	// hidden block, so they're always discovered from root.
	continuations := indexContinuations(root)
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "ix:nonnumeric":
			doc.Facts = append(doc.Facts, decodeNonNumeric(n, continuations))
		case "ix:nonfraction":
			doc.Facts = append(doc.Facts, decodeNonFraction(n, continuations))
		case "ix:fraction":
			if f, ok := decodeFraction(n); ok {
				doc.Facts = append(doc.Facts, f)
			}
		}
	})

	return doc, nil
}

// findHiddenBlock locates the element carrying all non-displayed
// iXBRL definitions: typically a `<div style="display:none">`
// containing `<ix:header>` or `<ix:resources>`.
func findHiddenBlock(root *html.Node) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if n.Data != "div" && n.Data != "span" {
			return
		}
		if !strings.Contains(styleAttr(n), "display:none") && !strings.Contains(styleAttr(n), "display: none") {
			return
		}
		var hasResources bool
		walk(n, func(c *html.Node) {
			if c.Type == html.ElementNode && (c.Data == "ix:header" || c.Data == "ix:resources") {
				hasResources = true
			}
		})
		if hasResources {
			found = n
		}
	})
	return found
}

func styleAttr(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "style" {
			return strings.ReplaceAll(a.Val, " ", "")
		}
	}
	return ""
}

func walk(n *html.Node, visit func(*html.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func nodeAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// decodeHTMLContext and decodeHTMLUnit re-serialize the matched subtree
// and decode it with the same encoding/xml logic the traditional parser
// uses (parse.go), since the hidden block's <context>/<unit> elements
// follow the identical XBRL grammar as a standalone instance document.
func decodeHTMLContext(n *html.Node) (edgarmodel.Context, bool) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return edgarmodel.Context{}, false
	}
	decoder := xml.NewDecoder(&buf)
	decoder.Strict = false
	tok, err := decoder.Token()
	if err != nil {
		return edgarmodel.Context{}, false
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return edgarmodel.Context{}, false
	}
	ctx, err := decodeContext(decoder, start)
	if err != nil {
		return edgarmodel.Context{}, false
	}
	return ctx, true
}

func decodeHTMLUnit(n *html.Node) (edgarmodel.Unit, bool) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return edgarmodel.Unit{}, false
	}
	decoder := xml.NewDecoder(&buf)
	decoder.Strict = false
	tok, err := decoder.Token()
	if err != nil {
		return edgarmodel.Unit{}, false
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return edgarmodel.Unit{}, false
	}
	unit, err := decodeUnit(decoder, start)
	if err != nil {
		return edgarmodel.Unit{}, false
	}
	return unit, true
}

// indexContinuations maps an ix:continuation element's id to its node,
// so continuedAt chains can be followed in document order.
func indexContinuations(root *html.Node) map[string]*html.Node {
	m := map[string]*html.Node{}
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "ix:continuation" {
			if id, ok := nodeAttr(n, "id"); ok {
				m[id] = n
			}
		}
	})
	return m
}

// textWithContinuation returns a node's text content, followed by any
// chained ix:continuation text (continuedAt -> id), concatenated in
// document order.
func textWithContinuation(n *html.Node, continuations map[string]*html.Node) string {
	var sb strings.Builder
	sb.WriteString(textContent(n))

	next, ok := nodeAttr(n, "continuedat")
	for ok {
		cont, found := continuations[next]
		if !found {
			break
		}
		sb.WriteString(textContent(cont))
		next, ok = nodeAttr(cont, "continuedat")
	}
	return sb.String()
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func decodeNonNumeric(n *html.Node, continuations map[string]*html.Node) edgarmodel.Fact {
	name, _ := nodeAttr(n, "name")
	contextRef, _ := nodeAttr(n, "contextref")
	isNil, _ := nodeAttr(n, "nil")

	return edgarmodel.Fact{
		Concept:    name,
		Value:      strings.TrimSpace(textWithContinuation(n, continuations)),
		Nil:        isNil == "true",
		ContextRef: contextRef,
	}
}

func decodeFraction(n *html.Node) (edgarmodel.Fact, bool) {
	name, _ := nodeAttr(n, "name")
	contextRef, _ := nodeAttr(n, "contextref")
	if name == "" || contextRef == "" {
		return edgarmodel.Fact{}, false
	}
	return edgarmodel.Fact{
		Concept:    name,
		Value:      strings.TrimSpace(textContent(n)),
		ContextRef: contextRef,
		UnitRef:    firstAttr(n, "unitref"),
	}, true
}

func firstAttr(n *html.Node, key string) string {
	v, _ := nodeAttr(n, key)
	return v
}

// decodeNonFraction resolves an ix:nonFraction fact's displayed text,
// verbatim, into Value, and computes the scaled/signed/format-applied
// numeric normalization into NumericValue.
func decodeNonFraction(n *html.Node, continuations map[string]*html.Node) edgarmodel.Fact {
	name, _ := nodeAttr(n, "name")
	contextRef, _ := nodeAttr(n, "contextref")
	unitRef, _ := nodeAttr(n, "unitref")
	isNil, _ := nodeAttr(n, "nil")
	displayed := strings.TrimSpace(textWithContinuation(n, continuations))

	fact := edgarmodel.Fact{
		Concept:    name,
		Value:      displayed,
		Nil:        isNil == "true",
		ContextRef: contextRef,
		UnitRef:    unitRef,
	}

	if d, ok := nodeAttr(n, "decimals"); ok && d != "" && d != "INF" {
		if dv, err := strconv.Atoi(d); err == nil {
			fact.Decimals = &dv
		}
	}

	if !fact.Nil {
		format, _ := nodeAttr(n, "format")
		scaleStr, _ := nodeAttr(n, "scale")
		signStr, _ := nodeAttr(n, "sign")
		fact.NumericValue = resolveNonFractionValue(displayed, format, scaleStr, signStr)
	}

	return fact
}

func resolveNonFractionValue(displayed, format, scaleStr, signStr string) *float64 {
	cleaned := normalizeNumberFormat(displayed, format)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	if scaleStr != "" {
		if scale, err := strconv.Atoi(scaleStr); err == nil {
			n *= math.Pow(10, float64(scale))
		}
	}
	if signStr == "-" {
		n = -n
	}
	return &n
}

// normalizeNumberFormat strips thousands separators per the ixt
// numeric format in use (e.g. "ixt:num-dot-decimal" uses "," as
// thousands separator and "." as decimal; "ixt:num-comma-decimal" is
// the reverse).
func normalizeNumberFormat(displayed, format string) string {
	cleaned := strings.TrimSpace(displayed)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(cleaned, "%")

	if strings.Contains(format, "comma-decimal") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	cleaned = strings.TrimPrefix(cleaned, "(")
	neg := strings.HasSuffix(cleaned, ")")
	cleaned = strings.TrimSuffix(cleaned, ")")
	if neg && !strings.HasPrefix(cleaned, "-") {
		cleaned = "-" + cleaned
	}

	return strings.TrimSpace(cleaned)
}
