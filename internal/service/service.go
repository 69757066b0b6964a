// Package service orchestrates a full analysis request: extraction,
// classification, context retrieval and four-pillar synthesis. The service
// holds no per-request state; the only shared resource is the knowledge-base
// handle, whose snapshots are immutable.
package service

import (
	"sort"

	"go.uber.org/zap"

	"askyourdoc/internal/analyze"
	"askyourdoc/internal/compose"
	"askyourdoc/internal/domain"
	"askyourdoc/internal/extract"
	"askyourdoc/internal/knowledge"
)

// Service runs analysis pipelines against the current knowledge base.
type Service struct {
	kb        *knowledge.Handle
	extractor *extract.Extractor
	log       *zap.Logger
}

// New wires a service over a built knowledge-base handle.
func New(kb *knowledge.Handle, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{kb: kb, extractor: extract.New(), log: log}
}

// Result is an analysis report plus the non-fatal diagnostics collected
// along the way.
type Result struct {
	Report      domain.AnalysisReport             `json:"report"`
	Biomarkers  map[string]domain.BiomarkerRecord `json:"biomarkers"`
	Diagnostics []domain.Diagnostic               `json:"diagnostics"`
}

// AnalyzeText extracts biomarkers from raw report text and analyzes them.
// Structurally empty input yields an empty but fully formed report; the only
// hard failure is an unbuilt knowledge base.
func (s *Service) AnalyzeText(text, symptoms, lifestyle string) (Result, error) {
	records, diags := s.extractor.FromText(text)
	return s.analyze(records, diags, symptoms, lifestyle)
}

// AnalyzeValues analyzes a caller-supplied biomarker mapping. Values without
// a coercible numeric type are dropped with a diagnostic.
func (s *Service) AnalyzeValues(values map[string]any, symptoms, lifestyle string) (Result, error) {
	records, diags := s.extractor.CoerceValues(values)
	return s.analyze(records, diags, symptoms, lifestyle)
}

// ExtractOnly runs extraction without synthesis, for inspection tooling.
func (s *Service) ExtractOnly(text string) (map[string]domain.BiomarkerRecord, []domain.Diagnostic) {
	return s.extractor.FromText(text)
}

func (s *Service) analyze(records map[string]domain.BiomarkerRecord, diags []domain.Diagnostic, symptoms, lifestyle string) (Result, error) {
	base, err := s.kb.Current()
	if err != nil {
		return Result{}, err
	}

	// Re-key on canonical names so aliases collapse before classification.
	canonical := make(map[string]domain.BiomarkerRecord, len(records))
	classifications := make(map[string]domain.Classification, len(records))
	for _, rec := range records {
		name := domain.Canonicalize(rec.Name)
		rec.Name = name
		canonical[name] = rec
		classifications[name] = base.ClassifyRecord(rec)
	}

	ordered := make([]domain.Classification, 0, len(classifications))
	for _, name := range sortedKeys(classifications) {
		ordered = append(ordered, classifications[name])
	}

	composer := compose.New(base)
	ctx := composer.Gather(ordered, symptoms)

	synthesizer := analyze.New(base)
	report := synthesizer.Report(analyze.Input{
		Records:         canonical,
		Classifications: classifications,
		Context:         ctx,
		Symptoms:        symptoms,
		Lifestyle:       lifestyle,
	})

	s.log.Debug("analysis complete",
		zap.Int("biomarkers", len(canonical)),
		zap.Int("diagnostics", len(diags)),
		zap.String("overall_risk", string(report.Prediction.OverallRisk)),
	)
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	return Result{Report: report, Biomarkers: canonical, Diagnostics: diags}, nil
}

// Search queries the knowledge base directly.
func (s *Service) Search(query string, topK int) ([]domain.SearchResult, error) {
	base, err := s.kb.Current()
	if err != nil {
		return nil, err
	}
	return base.Search(query, topK)
}

// ReferenceRanges returns all loaded reference ranges.
func (s *Service) ReferenceRanges() (map[string]domain.ReferenceRange, error) {
	base, err := s.kb.Current()
	if err != nil {
		return nil, err
	}
	return base.Ranges(), nil
}

// Stats reports knowledge-base counts.
func (s *Service) Stats() (knowledge.Stats, error) {
	base, err := s.kb.Current()
	if err != nil {
		return knowledge.Stats{}, err
	}
	return base.Stats(), nil
}

func sortedKeys(m map[string]domain.Classification) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
