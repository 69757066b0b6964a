// Package units normalizes lab-measurement units and converts values between
// the units seen in reports and the canonical unit the reference data uses.
package units

import "strings"

// spellings maps lower-cased unit spellings to their canonical form.
var spellings = map[string]string{
	"mg/dl":       "mg/dL",
	"g/dl":        "g/dL",
	"g/l":         "g/L",
	"ng/dl":       "ng/dL",
	"ng/ml":       "ng/mL",
	"mg/l":        "mg/L",
	"mmol/l":      "mmol/L",
	"umol/l":      "umol/L",
	"µmol/l":      "umol/L",
	"μmol/l":      "umol/L",
	"nmol/l":      "nmol/L",
	"miu/l":       "mIU/L",
	"miu/ml":      "mIU/L",
	"uiu/ml":      "mIU/L",
	"µiu/ml":      "mIU/L",
	"μiu/ml":      "mIU/L",
	"mu/l":        "mIU/L",
	"%":           "%",
	"percent":     "%",
	"mm/hr":       "mm/hr",
	"mm/h":        "mm/hr",
	"fl":          "fL",
	"ug/dl":       "ug/dL",
	"mcg/dl":      "ug/dL",
	"µg/dl":       "ug/dL",
	"μg/dl":       "ug/dL",
	"10^3/ul":     "10^3/uL",
	"10e3/ul":     "10^3/uL",
	"thousand/ul": "10^3/uL",
	"/ul":         "10^3/uL",
	"10^9/l":      "10^3/uL",
	"10e9/l":      "10^3/uL",
	"10^6/ul":     "10^6/uL",
	"million/ul":  "10^6/uL",
	"10^12/l":     "10^6/uL",
}

// conversion is a fixed multiplicative factor from one canonical unit to
// another, valid only for the biomarkers listed.
type conversion struct {
	from, to string
	factor   float64
}

// Conversion factors are biomarker-specific: mmol/L -> mg/dL differs between
// glucose, cholesterol and triglycerides because of molar mass.
var conversions = map[string][]conversion{
	"glucose":           {{"mmol/L", "mg/dL", 18.016}},
	"total_cholesterol": {{"mmol/L", "mg/dL", 38.67}},
	"ldl":               {{"mmol/L", "mg/dL", 38.67}},
	"hdl":               {{"mmol/L", "mg/dL", 38.67}},
	"triglycerides":     {{"mmol/L", "mg/dL", 88.57}},
	"creatinine":        {{"umol/L", "mg/dL", 1.0 / 88.42}},
	"vitamin_d":         {{"nmol/L", "ng/mL", 1.0 / 2.496}},
	"hemoglobin":        {{"g/L", "g/dL", 0.1}},
}

// Canonical returns the canonical spelling of unit, or ("", false) when the
// unit is not recognized at all.
func Canonical(unit string) (string, bool) {
	u := strings.TrimSpace(strings.ToLower(unit))
	if u == "" {
		return "", false
	}
	c, ok := spellings[u]
	return c, ok
}

// Convert converts value from one unit to another for the given canonical
// biomarker name. Identity conversions always succeed; everything else must
// appear in the fixed conversion table.
func Convert(biomarker string, value float64, from, to string) (float64, bool) {
	cf, okFrom := Canonical(from)
	ct, okTo := Canonical(to)
	if !okFrom || !okTo {
		return 0, false
	}
	if cf == ct {
		return value, true
	}
	for _, c := range conversions[biomarker] {
		if c.from == cf && c.to == ct {
			return value * c.factor, true
		}
		if c.from == ct && c.to == cf {
			return value / c.factor, true
		}
	}
	return 0, false
}
