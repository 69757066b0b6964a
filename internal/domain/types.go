package domain

import "strconv"

// Status is the categorical position of a biomarker value relative to its
// reference range.
type Status string

const (
	StatusNormal       Status = "Normal"
	StatusLow          Status = "Low"
	StatusHigh         Status = "High"
	StatusCriticalLow  Status = "Critical-Low"
	StatusCriticalHigh Status = "Critical-High"
	StatusUnknown      Status = "Unknown"
)

// Abnormal reports whether the status deviates from Normal. Unknown counts
// as abnormal for retrieval purposes but is excluded from risk aggregation.
func (s Status) Abnormal() bool { return s != StatusNormal }

// Critical reports whether the status is beyond a critical bound.
func (s Status) Critical() bool {
	return s == StatusCriticalLow || s == StatusCriticalHigh
}

// BiomarkerRecord is one extracted or caller-supplied lab measurement.
// Records are request-scoped and never persisted.
type BiomarkerRecord struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ReferenceRange is the population-normal interval for a biomarker, with
// optional critical thresholds. Loaded once at knowledge-base build and
// shared read-only across requests.
type ReferenceRange struct {
	Biomarker    string   `json:"biomarker"`
	Low          float64  `json:"low"`
	High         float64  `json:"high"`
	CriticalLow  *float64 `json:"critical_low,omitempty"`
	CriticalHigh *float64 `json:"critical_high,omitempty"`
	Unit         string   `json:"unit"`
}

// String renders the range the way the report shows it, e.g. "70-100 mg/dL".
func (r ReferenceRange) String() string {
	return FormatValue(r.Low) + "-" + FormatValue(r.High) + " " + r.Unit
}

// KnowledgeChunk is one unit of curated narrative medical text with its
// embedding. Chunks are built once and never mutated afterwards.
type KnowledgeChunk struct {
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Biomarker string    `json:"biomarker,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Embedding []float64 `json:"-"`

	// Priority is the fixed per-dataset tie-break rank; Ordinal is the
	// ingestion position. Together they make search ordering deterministic.
	Priority int `json:"-"`
	Ordinal  int `json:"-"`
}

// SearchResult is a retrieved chunk with its cosine similarity score.
type SearchResult struct {
	Chunk KnowledgeChunk `json:"chunk"`
	Score float64        `json:"score"`
}

// Classification pairs a biomarker value with its status.
type Classification struct {
	Biomarker string  `json:"biomarker"`
	Value     float64 `json:"value"`
	Status    Status  `json:"status"`
}

// CorrelationRecord links reported symptoms to an abnormal biomarker.
type CorrelationRecord struct {
	Biomarker          string   `json:"biomarker"`
	Value              float64  `json:"value"`
	CorrelatedSymptoms []string `json:"correlated_symptoms"`
	Strength           float64  `json:"strength"`
	Explanation        string   `json:"explanation"`
}

// RiskLevel is a qualitative severity category, ordered low to critical.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{RiskLow: 0, RiskModerate: 1, RiskHigh: 2, RiskCritical: 3}

// Rank returns the ordering position of the level, low first.
func (r RiskLevel) Rank() int { return riskRank[r] }

// MaxRisk returns the more severe of a and b.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskAssessment is a per-condition-category risk summary.
type RiskAssessment struct {
	Condition          string         `json:"condition"`
	RiskLevel          RiskLevel      `json:"risk_level"`
	RiskFactors        []string       `json:"risk_factors"`
	ContextualInsights []SearchResult `json:"contextual_insights"`
}

// DiagnosticKind tags the reason a field or value was dropped.
type DiagnosticKind string

const (
	DiagnosticRejectedValue  DiagnosticKind = "rejected_value"
	DiagnosticMalformedValue DiagnosticKind = "malformed_value"
	DiagnosticUnknownUnit    DiagnosticKind = "unknown_unit"
)

// Diagnostic records a per-biomarker extraction or input problem. Diagnostics
// never abort a request.
type Diagnostic struct {
	Biomarker string         `json:"biomarker"`
	Kind      DiagnosticKind `json:"kind"`
	Detail    string         `json:"detail"`
}

// FormatValue renders a measurement without trailing zeros (110, 6.2, 0.45).
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
