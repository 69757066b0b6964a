// Package extract converts raw lab-report text into validated biomarker
// records. Extraction is a pure function of the input text and the fixed
// rule, unit and plausibility tables: it never fails, the worst case is an
// empty result with diagnostics.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"askyourdoc/internal/domain"
	"askyourdoc/internal/units"
)

// Extractor applies the ordered rule table to free text.
type Extractor struct {
	table []biomarkerRule
}

// New returns an extractor over the built-in rule table.
func New() *Extractor {
	return &Extractor{table: ruleTable}
}

// proximityValue matches a number with an optional trailing unit inside a
// keyword window.
var proximityValue = regexp.MustCompile(`(\d+(?:[.,]\d+)?)[\s]*([a-zA-Zµμ%][a-zA-Zµμ%0-9^/\.]*)?`)

const proximityWindow = 40

// FromText extracts every biomarker the rule table recognizes. Values are
// normalized to the biomarker's canonical unit; values outside the
// plausibility bound, or carrying an unconvertible unit, are dropped with a
// diagnostic instead of propagating.
func (e *Extractor) FromText(text string) (map[string]domain.BiomarkerRecord, []domain.Diagnostic) {
	records := make(map[string]domain.BiomarkerRecord)
	var diags []domain.Diagnostic
	if strings.TrimSpace(text) == "" {
		return records, diags
	}

	for _, br := range e.table {
		raw, rawUnit, matched := e.firstMatch(br, text)
		if !matched {
			continue
		}
		value, err := parseNumber(raw)
		if err != nil {
			diags = append(diags, domain.Diagnostic{
				Biomarker: br.Name,
				Kind:      domain.DiagnosticMalformedValue,
				Detail:    fmt.Sprintf("matched %q but could not parse a number", raw),
			})
			continue
		}

		value, unitDiag := normalizeUnit(br, value, rawUnit)
		if unitDiag != nil {
			diags = append(diags, *unitDiag)
			continue
		}

		if value < br.Min || value > br.Max {
			diags = append(diags, domain.Diagnostic{
				Biomarker: br.Name,
				Kind:      domain.DiagnosticRejectedValue,
				Detail: fmt.Sprintf("value %s %s outside plausibility bound [%s, %s]",
					domain.FormatValue(value), br.Unit, domain.FormatValue(br.Min), domain.FormatValue(br.Max)),
			})
			continue
		}

		records[br.Name] = domain.BiomarkerRecord{
			Name:       br.Name,
			Value:      value,
			Unit:       br.Unit,
			Confidence: matchConfidence(rawUnit),
		}
	}
	return records, diags
}

// firstMatch tries the biomarker's rules in priority order. Proximity rules
// index and slice the same lowercased text: byte offsets found in the lowered
// string are not valid positions in the original when case folding changes
// rune widths.
func (e *Extractor) firstMatch(br biomarkerRule, text string) (value, unit string, ok bool) {
	lower := strings.ToLower(text)
	for _, rule := range br.Rules {
		switch rule.Kind {
		case KindPattern:
			m := rule.Pattern.FindStringSubmatch(text)
			if len(m) >= 2 && m[1] != "" {
				u := ""
				if len(m) >= 3 {
					u = m[2]
				}
				return m[1], u, true
			}
		case KindProximity:
			for _, kw := range rule.Keywords {
				idx := strings.Index(lower, kw)
				if idx < 0 {
					continue
				}
				end := idx + len(kw) + proximityWindow
				if end > len(lower) {
					end = len(lower)
				}
				if m := proximityValue.FindStringSubmatch(lower[idx+len(kw) : end]); m != nil {
					return m[1], m[2], true
				}
			}
		}
	}
	return "", "", false
}

// normalizeUnit converts the extracted value into the biomarker's canonical
// unit. A missing unit is taken as already canonical (reports frequently omit
// it); an unrecognized or unconvertible unit rejects the value.
func normalizeUnit(br biomarkerRule, value float64, rawUnit string) (float64, *domain.Diagnostic) {
	if strings.TrimSpace(rawUnit) == "" {
		return value, nil
	}
	converted, ok := units.Convert(br.Name, value, rawUnit, br.Unit)
	if !ok {
		return 0, &domain.Diagnostic{
			Biomarker: br.Name,
			Kind:      domain.DiagnosticUnknownUnit,
			Detail:    fmt.Sprintf("unit %q not convertible to %s", rawUnit, br.Unit),
		}
	}
	return converted, nil
}

// matchConfidence is higher when the source text carried an explicit unit.
func matchConfidence(rawUnit string) float64 {
	if strings.TrimSpace(rawUnit) != "" {
		return 0.95
	}
	return 0.7
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}

// CoerceValues converts a caller-supplied mapping of biomarker name to
// loosely typed value into validated records. Names are canonicalized first,
// alias-aware, so direct input validates against the same plausibility bounds
// as extraction. Non-numeric values are dropped with a diagnostic; names with
// no canonical match pass through so they can still surface in the report as
// Unknown.
func (e *Extractor) CoerceValues(values map[string]any) (map[string]domain.BiomarkerRecord, []domain.Diagnostic) {
	records := make(map[string]domain.BiomarkerRecord, len(values))
	var diags []domain.Diagnostic
	for name, raw := range values {
		key := domain.Canonicalize(name)
		if key == "" {
			continue
		}
		value, err := coerceFloat(raw)
		if err != nil {
			diags = append(diags, domain.Diagnostic{
				Biomarker: key,
				Kind:      domain.DiagnosticMalformedValue,
				Detail:    fmt.Sprintf("value %v has no coercible numeric type", raw),
			})
			continue
		}
		rec := domain.BiomarkerRecord{Name: key, Value: value, Confidence: 1}
		if min, max, ok := bounds(key); ok {
			rec.Unit = canonicalUnit(key)
			if value < min || value > max {
				diags = append(diags, domain.Diagnostic{
					Biomarker: key,
					Kind:      domain.DiagnosticRejectedValue,
					Detail: fmt.Sprintf("value %s outside plausibility bound [%s, %s]",
						domain.FormatValue(value), domain.FormatValue(min), domain.FormatValue(max)),
				})
				continue
			}
		}
		records[key] = rec
	}
	return records, diags
}

func canonicalUnit(name string) string {
	for _, r := range ruleTable {
		if r.Name == name {
			return r.Unit
		}
	}
	return ""
}

func coerceFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := parseNumber(strings.TrimSpace(x))
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	// NaN and infinities slip past interval checks: every comparison against
	// the bounds is false.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}
