package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askyourdoc/internal/compose"
	"askyourdoc/internal/domain"
)

// fakeKB serves reference ranges and condition categories from fixed maps.
type fakeKB struct {
	ranges     map[string]domain.ReferenceRange
	categories map[string][]string
}

func (f *fakeKB) Range(name string) (domain.ReferenceRange, error) {
	rr, ok := f.ranges[name]
	if !ok {
		return domain.ReferenceRange{}, assert.AnError
	}
	return rr, nil
}

func (f *fakeKB) Categories(name string) []string { return f.categories[name] }

func ptr(v float64) *float64 { return &v }

func newFakeKB() *fakeKB {
	return &fakeKB{
		ranges: map[string]domain.ReferenceRange{
			"glucose": {Biomarker: "glucose", Low: 70, High: 100, CriticalLow: ptr(50), CriticalHigh: ptr(300), Unit: "mg/dL"},
			"tsh":     {Biomarker: "tsh", Low: 0.4, High: 4, CriticalLow: ptr(0.01), CriticalHigh: ptr(20), Unit: "mIU/L"},
			"hba1c":   {Biomarker: "hba1c", Low: 4, High: 5.6, CriticalHigh: ptr(10), Unit: "%"},
		},
		categories: map[string][]string{
			"glucose": {"diabetes"},
			"hba1c":   {"diabetes"},
			"tsh":     {"thyroid"},
		},
	}
}

func emptyContext() compose.Context {
	return compose.Context{Insights: map[string][]domain.SearchResult{}}
}

func TestReportEmptyInput(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records:         map[string]domain.BiomarkerRecord{},
		Classifications: map[string]domain.Classification{},
		Context:         emptyContext(),
	})

	assert.NotEmpty(t, report.Disclaimer)
	assert.NotEqual(t, "", report.ID.String())
	assert.False(t, report.GeneratedAt.IsZero())

	assert.Empty(t, report.Interpretation.Biomarkers)
	assert.Equal(t, "No symptoms provided for correlation analysis", report.Correlation.Note)
	assert.False(t, report.Correlation.SymptomAnalysis.SymptomsProvided)
	assert.Empty(t, report.Prediction.RiskAssessments)
	assert.Equal(t, domain.RiskLow, report.Prediction.OverallRisk)
	assert.Empty(t, report.Recommendation.ImmediateActions)
	assert.Empty(t, report.Recommendation.LifestyleRecommendations)
	assert.False(t, report.Recommendation.MedicalConsultationRequired)
	assert.Contains(t, report.ContextualKnowledge, "general")
}

func TestReportNormalValues(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"glucose": {Name: "glucose", Value: 85, Unit: "mg/dL"},
		},
		Classifications: map[string]domain.Classification{
			"glucose": {Biomarker: "glucose", Value: 85, Status: domain.StatusNormal},
		},
		Context: emptyContext(),
	})

	require.Contains(t, report.Interpretation.Biomarkers, "glucose")
	bi := report.Interpretation.Biomarkers["glucose"]
	assert.Equal(t, domain.StatusNormal, bi.Status)
	require.NotNil(t, bi.ReferenceRange)
	assert.Contains(t, bi.Interpretation, "Normal")
	assert.Contains(t, bi.Interpretation, "70-100 mg/dL")

	assert.Empty(t, report.Prediction.RiskAssessments)
	assert.Equal(t, domain.RiskLow, report.Prediction.OverallRisk)
	assert.False(t, report.Recommendation.MedicalConsultationRequired)
	// general guidance still applies once anything was analyzed
	assert.NotEmpty(t, report.Recommendation.LifestyleRecommendations)
	assert.NotEmpty(t, report.Recommendation.MonitoringRecommendations)
}

func TestReportHighTSHModerateThyroidRisk(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"tsh": {Name: "tsh", Value: 6.2, Unit: "mIU/L"},
		},
		Classifications: map[string]domain.Classification{
			"tsh": {Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
		},
		Context: emptyContext(),
	})

	require.Len(t, report.Prediction.RiskAssessments, 1)
	ra := report.Prediction.RiskAssessments[0]
	assert.Equal(t, "Thyroid Dysfunction", ra.Condition)
	assert.Equal(t, domain.RiskModerate, ra.RiskLevel)
	require.NotEmpty(t, ra.RiskFactors)
	assert.Contains(t, ra.RiskFactors[0], "tsh 6.2")

	assert.Equal(t, domain.RiskModerate, report.Prediction.OverallRisk)
	assert.True(t, report.Recommendation.MedicalConsultationRequired)
	assert.Contains(t, report.Recommendation.MonitoringRecommendations,
		"Monitor thyroid function tests every 6-12 months")
}

func TestReportFarOutOfRangeEscalatesToHigh(t *testing.T) {
	s := New(newFakeKB())
	// range width is 3.6; 9.0 is more than one width above the upper bound
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"tsh": {Name: "tsh", Value: 9, Unit: "mIU/L"},
		},
		Classifications: map[string]domain.Classification{
			"tsh": {Biomarker: "tsh", Value: 9, Status: domain.StatusHigh},
		},
		Context: emptyContext(),
	})
	require.Len(t, report.Prediction.RiskAssessments, 1)
	assert.Equal(t, domain.RiskHigh, report.Prediction.RiskAssessments[0].RiskLevel)
}

func TestReportTwoModerateFindingsEscalateCategory(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"glucose": {Name: "glucose", Value: 110, Unit: "mg/dL"},
			"hba1c":   {Name: "hba1c", Value: 6.1, Unit: "%"},
		},
		Classifications: map[string]domain.Classification{
			"glucose": {Biomarker: "glucose", Value: 110, Status: domain.StatusHigh},
			"hba1c":   {Biomarker: "hba1c", Value: 6.1, Status: domain.StatusHigh},
		},
		Context: emptyContext(),
	})
	require.Len(t, report.Prediction.RiskAssessments, 1)
	ra := report.Prediction.RiskAssessments[0]
	assert.Equal(t, "Diabetes/Pre-diabetes", ra.Condition)
	assert.Equal(t, domain.RiskHigh, ra.RiskLevel)
	assert.Len(t, ra.RiskFactors, 2)
}

func TestReportCriticalValue(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"glucose": {Name: "glucose", Value: 320, Unit: "mg/dL"},
		},
		Classifications: map[string]domain.Classification{
			"glucose": {Biomarker: "glucose", Value: 320, Status: domain.StatusCriticalHigh},
		},
		Context: emptyContext(),
	})

	require.Len(t, report.Recommendation.ImmediateActions, 1)
	assert.Contains(t, report.Recommendation.ImmediateActions[0], "CRITICAL")
	assert.Contains(t, report.Recommendation.ImmediateActions[0], "glucose")
	assert.True(t, report.Recommendation.MedicalConsultationRequired)
	assert.Equal(t, domain.RiskCritical, report.Prediction.OverallRisk)
}

func TestReportUnknownBiomarker(t *testing.T) {
	s := New(newFakeKB())
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"homocysteine": {Name: "homocysteine", Value: 12.5},
		},
		Classifications: map[string]domain.Classification{
			"homocysteine": {Biomarker: "homocysteine", Value: 12.5, Status: domain.StatusUnknown},
		},
		Context: emptyContext(),
	})

	bi := report.Interpretation.Biomarkers["homocysteine"]
	assert.Equal(t, domain.StatusUnknown, bi.Status)
	assert.Nil(t, bi.ReferenceRange)
	assert.Contains(t, bi.Interpretation, "no reference range")
	// Unknown never reaches risk aggregation
	assert.Empty(t, report.Prediction.RiskAssessments)
	assert.Equal(t, domain.RiskLow, report.Prediction.OverallRisk)
	assert.False(t, report.Recommendation.MedicalConsultationRequired)
}

func TestReportSymptomCorrelationSection(t *testing.T) {
	s := New(newFakeKB())
	ctx := emptyContext()
	ctx.Correlations = []domain.CorrelationRecord{{
		Biomarker:          "tsh",
		Value:              6.2,
		CorrelatedSymptoms: []string{"fatigue"},
		Strength:           0.39,
		Explanation:        "Your tsh level of 6.2 (High) may be related to your reported symptoms: fatigue.",
	}}
	ctx.DetectedCategories = []string{"fatigue"}
	ctx.Insights["tsh"] = []domain.SearchResult{
		{Chunk: domain.KnowledgeChunk{Text: "Elevated TSH is associated with fatigue. It develops slowly."}, Score: 0.8},
	}

	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"tsh": {Name: "tsh", Value: 6.2, Unit: "mIU/L"},
		},
		Classifications: map[string]domain.Classification{
			"tsh": {Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
		},
		Context:  ctx,
		Symptoms: "always tired",
	})

	cor := report.Correlation
	assert.Empty(t, cor.Note)
	assert.True(t, cor.SymptomAnalysis.SymptomsProvided)
	assert.Equal(t, "always tired", cor.SymptomAnalysis.RawSymptoms)
	assert.Equal(t, []string{"fatigue"}, cor.SymptomAnalysis.DetectedCategories)
	require.Len(t, cor.Correlations, 1)
	assert.NotEmpty(t, cor.SymptomAnalysis.Summary)
}

func TestReportAbnormalInterpretationCarriesInsight(t *testing.T) {
	s := New(newFakeKB())
	ctx := emptyContext()
	ctx.Insights["tsh"] = []domain.SearchResult{
		{Chunk: domain.KnowledgeChunk{Text: "Elevated TSH is associated with primary hypothyroidism."}, Score: 0.9},
	}
	report := s.Report(Input{
		Records: map[string]domain.BiomarkerRecord{
			"tsh": {Name: "tsh", Value: 6.2, Unit: "mIU/L"},
		},
		Classifications: map[string]domain.Classification{
			"tsh": {Biomarker: "tsh", Value: 6.2, Status: domain.StatusHigh},
		},
		Context: ctx,
	})
	bi := report.Interpretation.Biomarkers["tsh"]
	assert.Contains(t, bi.Interpretation, "primary hypothyroidism")
	require.Len(t, bi.ContextualInsights, 1)
}
