package domain

import (
	"time"

	"github.com/google/uuid"
)

// BiomarkerInterpretation is one pillar-1 entry.
type BiomarkerInterpretation struct {
	Value              float64         `json:"value"`
	Unit               string          `json:"unit,omitempty"`
	ReferenceRange     *ReferenceRange `json:"reference_range"`
	Status             Status          `json:"status"`
	Interpretation     string          `json:"interpretation"`
	ContextualInsights []SearchResult  `json:"contextual_insights"`
}

// InterpretationPillar is pillar 1: interpretation of key biomarkers.
type InterpretationPillar struct {
	Title      string                             `json:"title"`
	Biomarkers map[string]BiomarkerInterpretation `json:"biomarkers"`
}

// SymptomAnalysis summarizes the free-text symptom input.
type SymptomAnalysis struct {
	SymptomsProvided   bool     `json:"symptoms_provided"`
	RawSymptoms        string   `json:"raw_symptoms,omitempty"`
	DetectedCategories []string `json:"detected_categories,omitempty"`
	Summary            string   `json:"summary,omitempty"`
}

// CorrelationPillar is pillar 2: symptom / biomarker correlation.
type CorrelationPillar struct {
	Title           string              `json:"title"`
	Correlations    []CorrelationRecord `json:"correlations"`
	SymptomAnalysis SymptomAnalysis     `json:"symptom_analysis"`
	Note            string              `json:"note,omitempty"`
}

// PredictionPillar is pillar 3: predictive risk insights.
type PredictionPillar struct {
	Title           string           `json:"title"`
	RiskAssessments []RiskAssessment `json:"risk_assessments"`
	OverallRisk     RiskLevel        `json:"overall_risk_level"`
}

// RecommendationPillar is pillar 4: actionable recommendations.
type RecommendationPillar struct {
	Title                       string   `json:"title"`
	ImmediateActions            []string `json:"immediate_actions"`
	LifestyleRecommendations    []string `json:"lifestyle_recommendations"`
	MonitoringRecommendations   []string `json:"monitoring_recommendations"`
	MedicalConsultationRequired bool     `json:"medical_consultation_required"`
}

// ContextualKnowledge is the set of retrieved chunks the report drew on,
// keyed by biomarker plus a "general" entry.
type ContextualKnowledge map[string][]SearchResult

// AnalysisReport is the full four-pillar output. All sections are always
// present; empty sections hold empty collections, never nil-for-absent JSON.
type AnalysisReport struct {
	ID                  uuid.UUID            `json:"id"`
	GeneratedAt         time.Time            `json:"generated_at"`
	Disclaimer          string               `json:"disclaimer"`
	Interpretation      InterpretationPillar `json:"pillar_1_biomarker_interpretation"`
	Correlation         CorrelationPillar    `json:"pillar_2_symptom_correlation"`
	Prediction          PredictionPillar     `json:"pillar_3_predictive_insights"`
	Recommendation      RecommendationPillar `json:"pillar_4_actionable_recommendations"`
	ContextualKnowledge ContextualKnowledge  `json:"contextual_knowledge_used"`
}
