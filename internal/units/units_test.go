package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalSpellings(t *testing.T) {
	cases := map[string]string{
		"mg/dL":   "mg/dL",
		"MG/DL":   "mg/dL",
		"uIU/mL":  "mIU/L",
		"mU/L":    "mIU/L",
		"percent": "%",
		"mm/h":    "mm/hr",
		"mcg/dl":  "ug/dL",
		"10^9/L":  "10^3/uL",
	}
	for in, want := range cases {
		got, ok := Canonical(in)
		require.True(t, ok, "unit %q should be recognized", in)
		assert.Equal(t, want, got)
	}

	_, ok := Canonical("furlongs")
	assert.False(t, ok)
	_, ok = Canonical("")
	assert.False(t, ok)
}

func TestConvertIdentity(t *testing.T) {
	v, ok := Convert("glucose", 110, "mg/dl", "mg/dL")
	require.True(t, ok)
	assert.Equal(t, 110.0, v)
}

func TestConvertGlucoseMolar(t *testing.T) {
	v, ok := Convert("glucose", 6.1, "mmol/L", "mg/dL")
	require.True(t, ok)
	assert.InDelta(t, 109.9, v, 0.1)

	// reverse direction uses the same factor
	back, ok := Convert("glucose", v, "mg/dL", "mmol/L")
	require.True(t, ok)
	assert.InDelta(t, 6.1, back, 0.001)
}

func TestConvertBiomarkerSpecificFactors(t *testing.T) {
	chol, ok := Convert("total_cholesterol", 5.2, "mmol/L", "mg/dL")
	require.True(t, ok)
	glu, ok2 := Convert("glucose", 5.2, "mmol/L", "mg/dL")
	require.True(t, ok2)
	assert.NotEqual(t, chol, glu, "molar factors differ per biomarker")
}

func TestConvertUnsupported(t *testing.T) {
	_, ok := Convert("glucose", 110, "fL", "mg/dL")
	assert.False(t, ok, "no glucose conversion from fL")

	_, ok = Convert("glucose", 110, "zorp", "mg/dL")
	assert.False(t, ok, "unrecognized unit")
}
