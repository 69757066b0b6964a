package compose

import (
	"fmt"
	"sort"
	"strings"

	"askyourdoc/internal/domain"
)

// symptomCategories maps a category to the free-text terms that signal it.
var symptomCategories = map[string][]string{
	"fatigue":          {"tired", "tiredness", "fatigue", "fatigued", "exhausted", "exhaustion", "weak", "weakness", "lethargic"},
	"weight_changes":   {"weight", "gain", "gained", "loss", "losing", "obese", "appetite"},
	"mood_changes":     {"depressed", "depression", "anxious", "anxiety", "mood", "irritable", "irritability"},
	"digestive_issues": {"nausea", "vomiting", "diarrhea", "constipation", "bloating", "stomach"},
	"cardiovascular":   {"chest", "palpitations", "breath", "breathless", "heart"},
	"neurological":     {"headache", "headaches", "dizziness", "dizzy", "confusion", "memory", "numbness"},
}

// weightedCategory associates a symptom category with a biomarker at a
// fixed strength.
type weightedCategory struct {
	category string
	weight   float64
}

// associations is the fixed symptom-to-biomarker table. Strength of an
// emitted correlation is the matched weight share of the biomarker's total.
var associations = map[string][]weightedCategory{
	"tsh":               {{"fatigue", 0.9}, {"weight_changes", 0.8}, {"mood_changes", 0.6}},
	"t4":                {{"fatigue", 0.7}, {"weight_changes", 0.6}},
	"glucose":           {{"fatigue", 0.8}, {"weight_changes", 0.7}, {"digestive_issues", 0.4}},
	"hba1c":             {{"fatigue", 0.7}, {"weight_changes", 0.7}},
	"total_cholesterol": {{"cardiovascular", 0.8}},
	"ldl":               {{"cardiovascular", 0.9}},
	"hdl":               {{"cardiovascular", 0.5}},
	"triglycerides":     {{"cardiovascular", 0.6}, {"digestive_issues", 0.3}},
	"crp":               {{"fatigue", 0.6}, {"cardiovascular", 0.7}},
	"esr":               {{"fatigue", 0.5}},
	"hemoglobin":        {{"fatigue", 0.9}, {"neurological", 0.5}, {"cardiovascular", 0.4}},
	"ferritin":          {{"fatigue", 0.8}, {"neurological", 0.4}},
	"iron":              {{"fatigue", 0.7}},
	"vitamin_d":         {{"fatigue", 0.6}, {"mood_changes", 0.5}},
	"creatinine":        {{"fatigue", 0.4}, {"digestive_issues", 0.4}},
}

// DetectCategories returns the symptom categories present in the free-text
// input, sorted for deterministic output.
func DetectCategories(symptoms string) []string {
	text := strings.ToLower(symptoms)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var detected []string
	for category, terms := range symptomCategories {
		for _, term := range terms {
			if strings.Contains(text, term) {
				detected = append(detected, category)
				break
			}
		}
	}
	sort.Strings(detected)
	return detected
}

// correlate emits a CorrelationRecord when the detected symptom categories
// overlap the biomarker's association table, nil otherwise.
func correlate(c domain.Classification, detected []string) *domain.CorrelationRecord {
	assoc, ok := associations[c.Biomarker]
	if !ok || len(detected) == 0 {
		return nil
	}
	detectedSet := make(map[string]struct{}, len(detected))
	for _, d := range detected {
		detectedSet[d] = struct{}{}
	}
	var matched []string
	matchedWeight, totalWeight := 0.0, 0.0
	for _, wc := range assoc {
		totalWeight += wc.weight
		if _, ok := detectedSet[wc.category]; ok {
			matched = append(matched, wc.category)
			matchedWeight += wc.weight
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return &domain.CorrelationRecord{
		Biomarker:          c.Biomarker,
		Value:              c.Value,
		CorrelatedSymptoms: matched,
		Strength:           matchedWeight / totalWeight,
		Explanation: fmt.Sprintf("Your %s level of %s (%s) may be related to your reported symptoms: %s.",
			c.Biomarker, domain.FormatValue(c.Value), c.Status, strings.Join(matched, ", ")),
	}
}
