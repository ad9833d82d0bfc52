package app

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"camv-core/peptide"
)

func TestResolveWorkers(t *testing.T) {
	assert.Equal(t, 4, resolveWorkers(4))
	// The "all CPUs" zero value resolves to a concrete count so the
	// conversion fan-out gets real parallelism, not a clamp to 1.
	assert.Equal(t, runtime.NumCPU(), resolveWorkers(0))
	assert.Equal(t, runtime.NumCPU(), resolveWorkers(-1))
}

func TestCheckRawCoverage(t *testing.T) {
	queries := []*peptide.Query{
		{Filename: "run1.raw"},
		{Filename: "data/run2.raw"},
	}

	err := checkRawCoverage(queries, []string{"/spectra/run1.raw", "run2.raw"})
	assert.NoError(t, err)

	err = checkRawCoverage(queries, []string{"run1.raw"})
	assert.ErrorContains(t, err, "run2.raw")
}
