// Package analyze implements the four-pillar synthesis pipeline. The four
// stages run strictly in order, each a pure function of the previous stage's
// output and the immutable knowledge base, so a report is fully determined
// by its inputs and the index contents.
package analyze

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"askyourdoc/internal/compose"
	"askyourdoc/internal/domain"
	"askyourdoc/internal/summarize"
)

// Disclaimer is carried verbatim on every report, regardless of input.
const Disclaimer = `IMPORTANT MEDICAL DISCLAIMER: This analysis is for informational purposes only and should not be considered medical advice, diagnosis, or treatment recommendation. It is based on statistical patterns and general medical knowledge; individual health conditions can vary significantly. Always consult a qualified healthcare provider for any health concerns, do not make medical decisions based solely on this analysis, and seek immediate medical attention for any urgent health issue.`

// KnowledgeReader is the knowledge-base subset the synthesizer needs.
type KnowledgeReader interface {
	Range(name string) (domain.ReferenceRange, error)
	Categories(name string) []string
}

// Input bundles everything the pipeline consumes. Classifications are keyed
// by canonical biomarker name and cover every record.
type Input struct {
	Records         map[string]domain.BiomarkerRecord
	Classifications map[string]domain.Classification
	Context         compose.Context
	Symptoms        string
	Lifestyle       string
}

// Synthesizer renders analysis reports from classified biomarkers and
// retrieval context.
type Synthesizer struct {
	kb     KnowledgeReader
	ranker *summarize.FrequencyRanker
}

func New(kb KnowledgeReader) *Synthesizer {
	return &Synthesizer{kb: kb, ranker: summarize.NewFrequencyRanker()}
}

// Report runs the four pillars in order and assembles the final report.
// Every section is populated even for empty input.
func (s *Synthesizer) Report(in Input) domain.AnalysisReport {
	interpretation := s.interpret(in)
	correlation := s.correlate(in)
	prediction := s.predict(in)
	recommendation := s.recommend(in, prediction)

	used := domain.ContextualKnowledge{}
	for name, insights := range in.Context.Insights {
		used[name] = insights
	}
	used["general"] = append([]domain.SearchResult{}, in.Context.General...)

	return domain.AnalysisReport{
		ID:                  uuid.New(),
		GeneratedAt:         time.Now().UTC(),
		Disclaimer:          Disclaimer,
		Interpretation:      interpretation,
		Correlation:         correlation,
		Prediction:          prediction,
		Recommendation:      recommendation,
		ContextualKnowledge: used,
	}
}

// interpret is pillar 1: per-biomarker range, status, templated sentence
// and contextual insights.
func (s *Synthesizer) interpret(in Input) domain.InterpretationPillar {
	pillar := domain.InterpretationPillar{
		Title:      "Interpretation of Key Biomarkers",
		Biomarkers: make(map[string]domain.BiomarkerInterpretation, len(in.Records)),
	}
	for _, name := range sortedNames(in.Records) {
		rec := in.Records[name]
		cl := in.Classifications[name]

		var rr *domain.ReferenceRange
		if found, err := s.kb.Range(name); err == nil {
			rr = &found
		}
		insights := in.Context.Insights[name]
		if insights == nil {
			insights = []domain.SearchResult{}
		}
		pillar.Biomarkers[name] = domain.BiomarkerInterpretation{
			Value:              rec.Value,
			Unit:               rec.Unit,
			ReferenceRange:     rr,
			Status:             cl.Status,
			Interpretation:     interpretationSentence(name, rec, cl, rr, insights),
			ContextualInsights: insights,
		}
	}
	return pillar
}

func interpretationSentence(name string, rec domain.BiomarkerRecord, cl domain.Classification, rr *domain.ReferenceRange, insights []domain.SearchResult) string {
	value := domain.FormatValue(rec.Value)
	if rec.Unit != "" {
		value += " " + rec.Unit
	}
	var sentence string
	switch {
	case cl.Status == domain.StatusUnknown:
		sentence = fmt.Sprintf("Your %s level is %s; no reference range is on file for this biomarker, so it was not classified.", name, value)
	case rr != nil:
		sentence = fmt.Sprintf("Your %s level is %s, which is %s relative to the reference range %s.", name, value, cl.Status, rr.String())
	default:
		sentence = fmt.Sprintf("Your %s level is %s, which is classified as %s.", name, value, cl.Status)
	}
	if cl.Status.Abnormal() && cl.Status != domain.StatusUnknown && len(insights) > 0 {
		sentence += " " + insights[0].Chunk.Text
	}
	return sentence
}

// correlate is pillar 2: correlation records plus the symptom analysis
// summary.
func (s *Synthesizer) correlate(in Input) domain.CorrelationPillar {
	pillar := domain.CorrelationPillar{
		Title:        "Correlation Between Symptoms and Biomarker Trends",
		Correlations: []domain.CorrelationRecord{},
		SymptomAnalysis: domain.SymptomAnalysis{
			SymptomsProvided: strings.TrimSpace(in.Symptoms) != "",
		},
	}
	if !pillar.SymptomAnalysis.SymptomsProvided {
		pillar.Note = "No symptoms provided for correlation analysis"
		return pillar
	}

	pillar.Correlations = append(pillar.Correlations, in.Context.Correlations...)
	pillar.SymptomAnalysis.RawSymptoms = in.Symptoms
	pillar.SymptomAnalysis.DetectedCategories = in.Context.DetectedCategories

	var narrative strings.Builder
	for _, rec := range in.Context.Correlations {
		for _, r := range in.Context.Insights[rec.Biomarker] {
			narrative.WriteString(r.Chunk.Text)
			narrative.WriteString(" ")
		}
	}
	if narrative.Len() > 0 {
		pillar.SymptomAnalysis.Summary = s.ranker.Summarize(narrative.String(), 3)
	}
	return pillar
}

// predict is pillar 3: abnormal, non-Unknown classifications grouped by
// condition category, each category's severity the maximum among its
// contributors.
func (s *Synthesizer) predict(in Input) domain.PredictionPillar {
	pillar := domain.PredictionPillar{
		Title:           "Predictive Insights on Potential Health Risks",
		RiskAssessments: []domain.RiskAssessment{},
		OverallRisk:     domain.RiskLow,
	}

	grouped := make(map[string][]domain.Classification)
	for _, name := range sortedNames(in.Records) {
		cl := in.Classifications[name]
		if !cl.Status.Abnormal() || cl.Status == domain.StatusUnknown {
			continue
		}
		for _, category := range s.kb.Categories(name) {
			grouped[category] = append(grouped[category], cl)
		}
	}

	for _, category := range conditionOrder {
		contributors := grouped[category]
		if len(contributors) == 0 {
			continue
		}
		severity := domain.RiskLow
		factors := make([]string, 0, len(contributors))
		for _, cl := range contributors {
			severity = domain.MaxRisk(severity, s.contributorSeverity(cl))
			factors = append(factors, s.riskFactor(cl))
		}
		// Multiple independent abnormalities in one category escalate a
		// moderate finding.
		if len(contributors) >= 2 && severity == domain.RiskModerate {
			severity = domain.RiskHigh
		}
		insights := in.Context.General
		if len(insights) > 2 {
			insights = insights[:2]
		}
		pillar.RiskAssessments = append(pillar.RiskAssessments, domain.RiskAssessment{
			Condition:          conditionLabels[category],
			RiskLevel:          severity,
			RiskFactors:        factors,
			ContextualInsights: append([]domain.SearchResult{}, insights...),
		})
		pillar.OverallRisk = domain.MaxRisk(pillar.OverallRisk, severity)
	}
	return pillar
}

// contributorSeverity maps one abnormal classification to a severity:
// critical statuses are critical; values more than one full range-width
// beyond a normal bound are high; everything else is moderate.
func (s *Synthesizer) contributorSeverity(cl domain.Classification) domain.RiskLevel {
	if cl.Status.Critical() {
		return domain.RiskCritical
	}
	if rr, err := s.kb.Range(cl.Biomarker); err == nil {
		width := rr.High - rr.Low
		if cl.Status == domain.StatusHigh && cl.Value > rr.High+width {
			return domain.RiskHigh
		}
		if cl.Status == domain.StatusLow && cl.Value < rr.Low-width {
			return domain.RiskHigh
		}
	}
	return domain.RiskModerate
}

func (s *Synthesizer) riskFactor(cl domain.Classification) string {
	if rr, err := s.kb.Range(cl.Biomarker); err == nil {
		return fmt.Sprintf("%s %s %s is %s relative to reference range %s",
			cl.Biomarker, domain.FormatValue(cl.Value), rr.Unit, cl.Status, rr.String())
	}
	return fmt.Sprintf("%s %s is %s", cl.Biomarker, domain.FormatValue(cl.Value), cl.Status)
}

// recommend is pillar 4: immediate actions for critical findings plus the
// fixed per-category recommendation mapping.
func (s *Synthesizer) recommend(in Input, prediction domain.PredictionPillar) domain.RecommendationPillar {
	pillar := domain.RecommendationPillar{
		Title:                     "Clear, Actionable Recommendations",
		ImmediateActions:          []string{},
		LifestyleRecommendations:  []string{},
		MonitoringRecommendations: []string{},
	}

	anyCritical := false
	for _, name := range sortedNames(in.Records) {
		cl := in.Classifications[name]
		if !cl.Status.Critical() {
			continue
		}
		anyCritical = true
		rec := in.Records[name]
		value := domain.FormatValue(rec.Value)
		if rec.Unit != "" {
			value += " " + rec.Unit
		}
		pillar.ImmediateActions = append(pillar.ImmediateActions,
			fmt.Sprintf("CRITICAL: %s level of %s requires immediate medical attention", name, value))
	}

	if len(in.Records) > 0 {
		pillar.LifestyleRecommendations = append(pillar.LifestyleRecommendations, generalLifestyle...)
		pillar.MonitoringRecommendations = append(pillar.MonitoringRecommendations, generalMonitoring...)
	}
	for _, ra := range prediction.RiskAssessments {
		category := categoryForLabel(ra.Condition)
		lifestyle, monitoring := recommendationsFor(category, ra.RiskLevel)
		pillar.LifestyleRecommendations = append(pillar.LifestyleRecommendations, lifestyle...)
		pillar.MonitoringRecommendations = append(pillar.MonitoringRecommendations, monitoring...)
	}

	pillar.MedicalConsultationRequired = anyCritical ||
		prediction.OverallRisk.Rank() >= domain.RiskModerate.Rank()
	return pillar
}

func categoryForLabel(label string) string {
	for category, l := range conditionLabels {
		if l == label {
			return category
		}
	}
	return label
}

func sortedNames(records map[string]domain.BiomarkerRecord) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
