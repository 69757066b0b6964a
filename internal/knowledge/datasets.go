package knowledge

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"askyourdoc/internal/domain"
)

//go:embed data/*.csv
var embeddedData embed.FS

// embeddedDatasets is the fixed load order of the curated datasets; the
// position doubles as the search tie-break priority.
var embeddedDatasets = []string{
	"reference_ranges",
	"abnormalities",
	"dataset_insights",
}

// datasetRow is one normalized ingestion row. Every dataset, embedded or
// external, shares this shape: optional range bounds plus optional narrative.
type datasetRow struct {
	Biomarker    string
	Low, High    *float64
	CriticalLow  *float64
	CriticalHigh *float64
	Unit         string
	Tags         []string
	Narrative    string
}

// loadEmbeddedDataset reads one of the curated CSVs shipped with the binary.
func loadEmbeddedDataset(name string) ([]datasetRow, error) {
	f, err := embeddedData.Open("data/" + name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("open embedded dataset %s: %w", name, err)
	}
	defer f.Close()
	return parseDataset(name, f)
}

// externalDatasets lists the cohort CSV files in dir, sorted by filename so
// their tie-break priorities are stable. A missing or empty dir is fine.
func externalDatasets(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dataset dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// loadExternalDataset reads one cohort CSV. The file handle is scoped to
// this call and released on every exit path.
func loadExternalDataset(dir, filename string) ([]datasetRow, error) {
	f, err := os.Open(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", filename, err)
	}
	defer f.Close()
	return parseDataset(strings.TrimSuffix(filename, filepath.Ext(filename)), f)
}

func parseDataset(name string, r io.Reader) ([]datasetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 8
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("dataset %s: no data rows", name)
	}

	rows := make([]datasetRow, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		row := datasetRow{
			Biomarker: domain.Canonicalize(rec[0]),
			Unit:      strings.TrimSpace(rec[5]),
			Narrative: strings.TrimSpace(rec[7]),
		}
		if row.Biomarker == "" {
			return nil, fmt.Errorf("dataset %s row %d: missing biomarker name", name, i+2)
		}
		for _, t := range strings.Split(rec[6], ";") {
			if t = strings.TrimSpace(t); t != "" {
				row.Tags = append(row.Tags, t)
			}
		}
		fields := []struct {
			value string
			dst   **float64
		}{
			{rec[1], &row.Low},
			{rec[2], &row.High},
			{rec[3], &row.CriticalLow},
			{rec[4], &row.CriticalHigh},
		}
		for _, fld := range fields {
			v := strings.TrimSpace(fld.value)
			if v == "" {
				continue
			}
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset %s row %d: bad bound %q", name, i+2, v)
			}
			*fld.dst = &parsed
		}
		if (row.Low == nil) != (row.High == nil) {
			return nil, fmt.Errorf("dataset %s row %d: range needs both normal bounds", name, i+2)
		}
		if row.Low != nil && row.Unit == "" {
			return nil, fmt.Errorf("dataset %s row %d: range without unit", name, i+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// referenceRange converts a row with bounds into a ReferenceRange, or nil
// for narrative-only rows.
func (r datasetRow) referenceRange() *domain.ReferenceRange {
	if r.Low == nil || r.High == nil {
		return nil
	}
	return &domain.ReferenceRange{
		Biomarker:    r.Biomarker,
		Low:          *r.Low,
		High:         *r.High,
		CriticalLow:  r.CriticalLow,
		CriticalHigh: r.CriticalHigh,
		Unit:         r.Unit,
	}
}
