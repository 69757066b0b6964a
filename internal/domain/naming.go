package domain

import "strings"

// aliases maps alternate spellings of biomarker names to canonical names.
// Lookup happens after lowercasing and space/hyphen folding.
var aliases = map[string]string{
	"hb":                          "hemoglobin",
	"hgb":                         "hemoglobin",
	"haemoglobin":                 "hemoglobin",
	"glu":                         "glucose",
	"blood_glucose":               "glucose",
	"fasting_glucose":             "glucose",
	"a1c":                         "hba1c",
	"hb_a1c":                      "hba1c",
	"glycated_hemoglobin":         "hba1c",
	"cholesterol":                 "total_cholesterol",
	"chol":                        "total_cholesterol",
	"ldl_cholesterol":             "ldl",
	"ldl_c":                       "ldl",
	"hdl_cholesterol":             "hdl",
	"hdl_c":                       "hdl",
	"tg":                          "triglycerides",
	"triglyceride":                "triglycerides",
	"thyroid_stimulating_hormone": "tsh",
	"thyrotropin":                 "tsh",
	"triiodothyronine":            "t3",
	"thyroxine":                   "t4",
	"free_t4":                     "t4",
	"creat":                       "creatinine",
	"vit_d":                       "vitamin_d",
	"vitamin_d3":                  "vitamin_d",
	"25ohd":                       "vitamin_d",
	"c_reactive_protein":          "crp",
	"hs_crp":                      "crp",
	"sed_rate":                    "esr",
	"white_blood_cells":           "wbc",
	"leukocytes":                  "wbc",
	"red_blood_cells":             "rbc",
	"erythrocytes":                "rbc",
	"plt":                         "platelets",
	"platelet":                    "platelets",
	"serum_iron":                  "iron",
}

// Canonicalize folds a biomarker name to its canonical form: lower case,
// spaces and hyphens as underscores, aliases resolved. Every component that
// keys on biomarker names goes through this one fold, so extraction, direct
// input and knowledge-base lookup cannot disagree on a name.
func Canonicalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}
