package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "glucose", Canonicalize("Blood Glucose"))
	assert.Equal(t, "hdl", Canonicalize("HDL-C"))
	assert.Equal(t, "tsh", Canonicalize("Thyroid Stimulating Hormone"))
	assert.Equal(t, "hemoglobin", Canonicalize("  Hb "))
	assert.Equal(t, "homocysteine", Canonicalize("Homocysteine"))
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for alias := range aliases {
		canonical := Canonicalize(alias)
		assert.Equal(t, canonical, Canonicalize(canonical), "alias %s", alias)
	}
}
