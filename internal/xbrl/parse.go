package xbrl

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/rotisserie/eris"
)

// ParseInstance reads a traditional XBRL instance document: contexts,
// units, and every element carrying a contextRef attribute as a fact.
// Parsing is lenient — unknown entities and mismatched prefixes do not
// halt it; a context/unit/fact that fails to decode is skipped rather
// than aborting the whole document.
func ParseInstance(data []byte) (Document, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var doc Document
	seenContexts := map[string]bool{}
	seenUnits := map[string]bool{}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Lenient recovery: a malformed token stream still yields
			// whatever facts/contexts/units were read before the break.
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "context":
			ctx, err := decodeContext(decoder, start)
			if err != nil {
				continue
			}
			if !seenContexts[ctx.ID] {
				seenContexts[ctx.ID] = true
				doc.Contexts = append(doc.Contexts, ctx)
			}
		case "unit":
			unit, err := decodeUnit(decoder, start)
			if err != nil {
				continue
			}
			if !seenUnits[unit.ID] {
				seenUnits[unit.ID] = true
				doc.Units = append(doc.Units, unit)
			}
		default:
			if fact, ok := decodeFactElement(decoder, start); ok {
				doc.Facts = append(doc.Facts, fact)
			}
		}
	}

	if len(doc.Contexts) == 0 && len(doc.Units) == 0 && len(doc.Facts) == 0 {
		return doc, eris.New("no contexts, units, or facts found in XBRL instance")
	}
	return doc, nil
}

func attrValue(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func decodeContext(decoder *xml.Decoder, start xml.StartElement) (edgarmodel.Context, error) {
	ctx := edgarmodel.Context{
		ID:         attrValue(start.Attr, "id"),
		Dimensions: map[string]string{},
	}

	var hasInstant, hasDuration bool

	depth := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return ctx, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			// Compared lower-cased: the inline extractor's HTML parser
			// lower-cases element names (startDate -> startdate).
			switch strings.ToLower(t.Name.Local) {
			case "identifier":
				ctx.EntityID = readCharData(decoder)
			case "instant":
				if d, err := time.Parse("2006-01-02", strings.TrimSpace(readCharData(decoder))); err == nil {
					ctx.Period.Instant = d
					hasInstant = true
				}
			case "startdate":
				if d, err := time.Parse("2006-01-02", strings.TrimSpace(readCharData(decoder))); err == nil {
					ctx.Period.Start = d
					hasDuration = true
				}
			case "enddate":
				if d, err := time.Parse("2006-01-02", strings.TrimSpace(readCharData(decoder))); err == nil {
					ctx.Period.End = d
				}
			case "explicitmember":
				dim := attrValue(t.Attr, "dimension")
				member := strings.TrimSpace(readCharData(decoder))
				if dim != "" {
					ctx.Dimensions[dim] = member
				}
			}
		case xml.EndElement:
			if t.Name.Local == "context" {
				goto done
			}
			depth--
		}
	}
done:
	if hasInstant && hasDuration {
		// Both instant and start/end present: reject this context
		// entirely rather than guess which one is authoritative.
		return ctx, eris.Newf("context %s has both instant and duration periods", ctx.ID)
	}
	return ctx, nil
}

func decodeUnit(decoder *xml.Decoder, start xml.StartElement) (edgarmodel.Unit, error) {
	unit := edgarmodel.Unit{ID: attrValue(start.Attr, "id")}

	inNumerator, inDenominator := false, false

	for {
		tok, err := decoder.Token()
		if err != nil {
			return unit, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "measure":
				measure := strings.TrimSpace(readCharData(decoder))
				switch {
				case inNumerator:
					unit.Numerator = measure
				case inDenominator:
					unit.Denominator = measure
				default:
					unit.Measure = measure
				}
			case "unitnumerator":
				inNumerator = true
			case "unitdenominator":
				inDenominator = true
			}
		case xml.EndElement:
			switch strings.ToLower(t.Name.Local) {
			case "unit":
				return unit, nil
			case "unitnumerator":
				inNumerator = false
			case "unitdenominator":
				inDenominator = false
			}
		}
	}
}

// decodeFactElement consumes a generic element and, if it carries a
// contextRef attribute, returns it as a Fact.
func decodeFactElement(decoder *xml.Decoder, start xml.StartElement) (edgarmodel.Fact, bool) {
	contextRef := attrValue(start.Attr, "contextRef")
	if contextRef == "" {
		return edgarmodel.Fact{}, false
	}

	concept := conceptName(start.Name)
	isNil := attrValue(start.Attr, "nil") == "true"
	text := readCharData(decoder)

	fact := edgarmodel.Fact{
		Concept:    concept,
		Value:      strings.TrimSpace(text),
		Nil:        isNil,
		ContextRef: contextRef,
		UnitRef:    attrValue(start.Attr, "unitRef"),
	}
	if d := attrValue(start.Attr, "decimals"); d != "" && d != "INF" {
		if n, err := strconv.Atoi(d); err == nil {
			fact.Decimals = &n
		}
	}
	if p := attrValue(start.Attr, "precision"); p != "" && p != "INF" {
		if n, err := strconv.Atoi(p); err == nil {
			fact.Precision = &n
		}
	}
	if !isNil {
		fact.NumericValue = parseNumeric(fact.Value)
	}
	return fact, true
}

// readCharData consumes tokens until the enclosing element's EndElement,
// concatenating CharData along the way. Nested elements are walked but
// their own text is still captured in document order (sufficient for
// the flat text content XBRL facts carry).
func readCharData(decoder *xml.Decoder) string {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := decoder.Token()
		if err != nil {
			return sb.String()
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return sb.String()
			}
			depth--
		}
	}
}

func conceptName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return namespacePrefix(name.Space) + ":" + name.Local
}

func namespacePrefix(namespace string) string {
	switch {
	case strings.Contains(namespace, "us-gaap"):
		return "us-gaap"
	case strings.Contains(namespace, "/dei/"):
		return "dei"
	case strings.Contains(namespace, "xbrli"):
		return "xbrli"
	case strings.Contains(namespace, "ifrs"):
		return "ifrs-full"
	}
	parts := strings.Split(namespace, "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return "unknown"
}

func parseNumeric(value string) *float64 {
	cleaned := strings.ReplaceAll(value, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "-" || cleaned == "—" {
		return nil
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &n
}
