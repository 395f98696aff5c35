package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalabro/cowbloom"
)

func TestWriteReport(t *testing.T) {
	f, err := cowbloom.NewString(1000, 0.01)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeReport(&buf, "Empty filter", f.Statistics(), row{"Probes", "12"})

	out := buf.String()
	assert.Contains(t, out, "Empty filter")
	assert.Contains(t, out, "9,586 bits (1.2 KiB)")
	assert.Contains(t, out, "Remaining capacity")
	assert.Contains(t, out, "999")
	assert.Contains(t, out, "0 (0.0%)")
	assert.Contains(t, out, "Probes")
	assert.Contains(t, out, "12")
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0.01", formatRate(0.01))
	assert.Equal(t, "0.0001235", formatRate(0.000123456))
	assert.Equal(t, "0", formatRate(0))
}

func TestVerdict(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	assert.Equal(t, "PASS", verdict(0.005, 0.01))
	assert.Equal(t, "PASS", verdict(0.02, 0.01))
	assert.Equal(t, "FAIL", verdict(0.021, 0.01))
}
