package analyze

import "askyourdoc/internal/domain"

// conditionOrder fixes the category ordering of risk assessments and
// recommendations.
var conditionOrder = []string{
	"diabetes",
	"cardiovascular",
	"thyroid",
	"inflammation",
	"kidney",
	"hematology",
	"vitamins",
}

// conditionLabels maps a category to its display condition.
var conditionLabels = map[string]string{
	"diabetes":       "Diabetes/Pre-diabetes",
	"cardiovascular": "Cardiovascular Disease",
	"thyroid":        "Thyroid Dysfunction",
	"inflammation":   "Inflammation",
	"kidney":         "Kidney Function Impairment",
	"hematology":     "Blood Count Abnormality",
	"vitamins":       "Vitamin Deficiency",
}

// generalLifestyle applies whenever at least one biomarker was analyzed.
var generalLifestyle = []string{
	"Maintain a balanced diet rich in fruits, vegetables, and whole grains",
	"Engage in regular physical activity (at least 150 minutes per week)",
	"Maintain a healthy weight",
	"Avoid smoking and limit alcohol consumption",
	"Get adequate sleep (7-9 hours per night)",
}

// generalMonitoring applies whenever at least one biomarker was analyzed.
var generalMonitoring = []string{
	"Schedule regular follow-up lab tests as recommended by your healthcare provider",
	"Keep a record of your lab results to track trends over time",
}

// lifestyleByCondition holds the fixed per-category lifestyle
// recommendations, emitted for any category with an active risk assessment.
var lifestyleByCondition = map[string][]string{
	"diabetes": {
		"Limit refined carbohydrates and sugary foods",
		"Monitor carbohydrate intake and consider portion control",
	},
	"cardiovascular": {
		"Reduce saturated and trans fats in your diet",
		"Increase intake of omega-3 fatty acids and soluble fiber",
	},
	"thyroid": {
		"Ensure adequate iodine intake through diet",
		"Consider selenium-rich foods such as Brazil nuts and fish",
	},
	"inflammation": {
		"Favor an anti-inflammatory diet pattern rich in oily fish and leafy greens",
	},
	"kidney": {
		"Stay well hydrated and review use of NSAID pain relievers with your doctor",
	},
	"hematology": {
		"Include iron-rich foods such as lean red meat, legumes and dark leafy greens",
	},
	"vitamins": {
		"Get regular sun exposure (15-30 minutes daily)",
		"Consider vitamin D supplementation if deficient",
	},
}

// monitoringByCondition holds the fixed per-category monitoring
// recommendations, keyed by severity tiers inside the helper below.
var monitoringByCondition = map[string][]string{
	"diabetes":       {"Consider HbA1c testing every 3-6 months"},
	"cardiovascular": {"Monitor lipid profile every 6-12 months"},
	"thyroid":        {"Monitor thyroid function tests every 6-12 months"},
	"inflammation":   {"Repeat inflammatory markers after 4-6 weeks to confirm persistence"},
	"kidney":         {"Monitor kidney function and urine protein every 3-6 months"},
	"hematology":     {"Repeat a complete blood count and iron studies in 4-8 weeks"},
	"vitamins":       {"Recheck vitamin D level after 8-12 weeks of supplementation"},
}

// escalatedMonitoring is appended when a category reaches high or critical
// severity.
var escalatedMonitoring = map[string]string{
	"diabetes":       "Discuss home glucose monitoring with your healthcare provider",
	"cardiovascular": "Discuss a formal cardiovascular risk assessment with your healthcare provider",
	"thyroid":        "Arrange thyroid antibody and free T4 testing promptly",
	"inflammation":   "Seek evaluation for an underlying infectious or autoimmune cause",
	"kidney":         "Arrange nephrology review of kidney function",
	"hematology":     "Arrange hematology review of the abnormal blood count",
	"vitamins":       "Recheck levels under medical supervision",
}

// recommendationsFor expands the fixed mapping for one risk assessment.
func recommendationsFor(category string, severity domain.RiskLevel) (lifestyle, monitoring []string) {
	lifestyle = append(lifestyle, lifestyleByCondition[category]...)
	monitoring = append(monitoring, monitoringByCondition[category]...)
	if severity.Rank() >= domain.RiskHigh.Rank() {
		if extra, ok := escalatedMonitoring[category]; ok {
			monitoring = append(monitoring, extra)
		}
	}
	return lifestyle, monitoring
}
