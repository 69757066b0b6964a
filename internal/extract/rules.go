package extract

import "regexp"

// RuleKind tags the matching strategy of an extraction rule.
type RuleKind int

const (
	// KindPattern matches a regular expression capturing value and unit.
	KindPattern RuleKind = iota
	// KindProximity finds a keyword and scans a short window after it for
	// a numeric value with an optional unit. Used as a fallback for noisy
	// OCR text where the separator between label and value is mangled.
	KindProximity
)

// Rule is one tagged extraction rule. Rules for a biomarker are tried in
// order; the first rule producing a parseable value wins.
type Rule struct {
	Kind     RuleKind
	Pattern  *regexp.Regexp // KindPattern: groups 1=value, 2=unit (optional)
	Keywords []string       // KindProximity
}

// biomarkerRule bundles the ordered rules with the canonical unit and the
// plausibility bound for one biomarker.
type biomarkerRule struct {
	Name  string
	Unit  string  // canonical unit of the reference data
	Min   float64 // plausibility bound, inclusive
	Max   float64
	Rules []Rule
}

func pat(expr string) Rule {
	return Rule{Kind: KindPattern, Pattern: regexp.MustCompile(expr)}
}

func prox(keywords ...string) Rule {
	return Rule{Kind: KindProximity, Keywords: keywords}
}

const (
	num  = `(\d+(?:[.,]\d+)?)`
	sep  = `[\s:=\-]*`
	unit = `[\s]*([a-zA-Zµμ%][a-zA-Zµμ%0-9^/\.]*)?`
)

// ruleTable is the ordered extraction table. New biomarkers are added here,
// not in code. Patterns and plausibility bounds follow the curated lab
// vocabulary; bounds reject transcription garbage, they are not reference
// ranges.
var ruleTable = []biomarkerRule{
	{
		Name: "hemoglobin", Unit: "g/dL", Min: 3, Max: 25,
		Rules: []Rule{
			pat(`(?i)\b(?:hemoglobin|haemoglobin|hgb|hb)\b` + sep + num + unit),
			prox("hemoglobin", "haemoglobin"),
		},
	},
	{
		Name: "glucose", Unit: "mg/dL", Min: 0, Max: 2000,
		Rules: []Rule{
			pat(`(?i)\b(?:fasting\s+)?(?:blood\s+)?(?:glucose|glu)\b` + sep + num + unit),
			prox("glucose"),
		},
	},
	{
		Name: "hba1c", Unit: "%", Min: 2, Max: 20,
		Rules: []Rule{
			pat(`(?i)\b(?:hba1c|hb\s*a1c|glycated\s+hemoglobin|glycosylated\s+hemoglobin)\b` + sep + num + unit),
			prox("hba1c"),
		},
	},
	{
		Name: "total_cholesterol", Unit: "mg/dL", Min: 50, Max: 1000,
		Rules: []Rule{
			pat(`(?i)\b(?:total\s+cholesterol|cholesterol,?\s+total)\b` + sep + num + unit),
			pat(`(?i)\bchol\b` + sep + num + unit),
		},
	},
	{
		Name: "ldl", Unit: "mg/dL", Min: 10, Max: 600,
		Rules: []Rule{
			pat(`(?i)\bldl(?:-c|\s+cholesterol)?\b` + sep + num + unit),
		},
	},
	{
		Name: "hdl", Unit: "mg/dL", Min: 5, Max: 200,
		Rules: []Rule{
			pat(`(?i)\bhdl(?:-c|\s+cholesterol)?\b` + sep + num + unit),
		},
	},
	{
		Name: "triglycerides", Unit: "mg/dL", Min: 10, Max: 5000,
		Rules: []Rule{
			pat(`(?i)\b(?:triglycerides?|tg)\b` + sep + num + unit),
		},
	},
	{
		Name: "tsh", Unit: "mIU/L", Min: 0.01, Max: 150,
		Rules: []Rule{
			pat(`(?i)\b(?:tsh|thyroid\s+stimulating\s+hormone|thyrotropin)\b` + sep + num + unit),
			prox("tsh"),
		},
	},
	{
		Name: "t3", Unit: "ng/dL", Min: 10, Max: 800,
		Rules: []Rule{
			pat(`(?i)\b(?:total\s+)?t3\b` + sep + num + unit),
			pat(`(?i)\btriiodothyronine\b` + sep + num + unit),
		},
	},
	{
		Name: "t4", Unit: "ng/dL", Min: 0.1, Max: 30,
		Rules: []Rule{
			pat(`(?i)\b(?:free\s+)?t4\b` + sep + num + unit),
			pat(`(?i)\bthyroxine\b` + sep + num + unit),
		},
	},
	{
		Name: "creatinine", Unit: "mg/dL", Min: 0.1, Max: 25,
		Rules: []Rule{
			pat(`(?i)\b(?:serum\s+)?(?:creatinine|creat)\b` + sep + num + unit),
		},
	},
	{
		Name: "vitamin_d", Unit: "ng/mL", Min: 1, Max: 300,
		Rules: []Rule{
			pat(`(?i)\b(?:25-?oh\s+)?vitamin\s*d(?:3)?\b` + sep + num + unit),
			pat(`(?i)\b25ohd\b` + sep + num + unit),
		},
	},
	{
		Name: "crp", Unit: "mg/L", Min: 0, Max: 500,
		Rules: []Rule{
			pat(`(?i)\b(?:hs-?crp|crp|c-?reactive\s+protein)\b` + sep + num + unit),
		},
	},
	{
		Name: "esr", Unit: "mm/hr", Min: 0, Max: 200,
		Rules: []Rule{
			pat(`(?i)\b(?:esr|erythrocyte\s+sedimentation\s+rate|sed\s+rate)\b` + sep + num + unit),
		},
	},
	{
		Name: "wbc", Unit: "10^3/uL", Min: 0.1, Max: 200,
		Rules: []Rule{
			pat(`(?i)\b(?:wbc|white\s+blood\s+cells?|leukocytes?)\b` + sep + num + unit),
		},
	},
	{
		Name: "rbc", Unit: "10^6/uL", Min: 1, Max: 10,
		Rules: []Rule{
			pat(`(?i)\b(?:rbc|red\s+blood\s+cells?|erythrocytes?)\b` + sep + num + unit),
		},
	},
	{
		Name: "platelets", Unit: "10^3/uL", Min: 5, Max: 2000,
		Rules: []Rule{
			pat(`(?i)\b(?:platelets?|plt)\b` + sep + num + unit),
		},
	},
	{
		Name: "mcv", Unit: "fL", Min: 40, Max: 160,
		Rules: []Rule{
			pat(`(?i)\b(?:mcv|mean\s+corpuscular\s+volume)\b` + sep + num + unit),
		},
	},
	{
		Name: "iron", Unit: "ug/dL", Min: 5, Max: 600,
		Rules: []Rule{
			pat(`(?i)\b(?:serum\s+)?iron\b` + sep + num + unit),
		},
	},
	{
		Name: "ferritin", Unit: "ng/mL", Min: 1, Max: 5000,
		Rules: []Rule{
			pat(`(?i)\bferritin\b` + sep + num + unit),
		},
	},
}

// bounds returns the plausibility bound for a canonical biomarker name.
func bounds(name string) (min, max float64, ok bool) {
	for _, r := range ruleTable {
		if r.Name == name {
			return r.Min, r.Max, true
		}
	}
	return 0, 0, false
}
