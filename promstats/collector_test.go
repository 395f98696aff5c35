package promstats_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcalabro/cowbloom"
	"github.com/jcalabro/cowbloom/promstats"
)

type fixedSource cowbloom.Statistics

func (s fixedSource) Statistics() cowbloom.Statistics { return cowbloom.Statistics(s) }

func TestCollectorFilter(t *testing.T) {
	t.Parallel()

	f, err := cowbloom.NewString(1000, 0.01)
	require.NoError(t, err)

	c := promstats.NewCollector("sessions", f)

	// 7 gauges plus the retry counter.
	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP cowbloom_bit_size Size of the bit array in bits.
# TYPE cowbloom_bit_size gauge
cowbloom_bit_size{filter="sessions"} 9586
# HELP cowbloom_capacity Number of insertions the filter was sized for.
# TYPE cowbloom_capacity gauge
cowbloom_capacity{filter="sessions"} 1000
# HELP cowbloom_hash_functions Number of bit positions probed per element.
# TYPE cowbloom_hash_functions gauge
cowbloom_hash_functions{filter="sessions"} 7
# HELP cowbloom_remaining_capacity Insertions left before the estimated false positive probability exceeds the configured one.
# TYPE cowbloom_remaining_capacity gauge
cowbloom_remaining_capacity{filter="sessions"} 999
# HELP cowbloom_cas_retries_total Writes re-applied after losing a snapshot swap race.
# TYPE cowbloom_cas_retries_total counter
cowbloom_cas_retries_total{filter="sessions"} 0
`
	err = testutil.CollectAndCompare(c, strings.NewReader(expected),
		"cowbloom_bit_size",
		"cowbloom_capacity",
		"cowbloom_hash_functions",
		"cowbloom_remaining_capacity",
		"cowbloom_cas_retries_total",
	)
	require.NoError(t, err)
}

func TestCollectorTracksWrites(t *testing.T) {
	t.Parallel()

	f, err := cowbloom.NewString(1000, 0.01)
	require.NoError(t, err)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(promstats.NewCollector("ids", f)))

	bitsSet := func() float64 {
		mfs, err := reg.Gather()
		require.NoError(t, err)
		for _, mf := range mfs {
			if mf.GetName() == "cowbloom_bits_set" {
				return mf.GetMetric()[0].GetGauge().GetValue()
			}
		}
		t.Fatal("cowbloom_bits_set not gathered")
		return 0
	}

	assert.Zero(t, bitsSet())
	f.AddAll("a", "b", "c")
	assert.Equal(t, float64(f.Statistics().BitsSet), bitsSet())
}

func TestCollectorWithoutRetries(t *testing.T) {
	t.Parallel()

	src := fixedSource{
		ConfiguredFPP:     0.05,
		EstimatedFPP:      0.01,
		Capacity:          10,
		BitSize:           63,
		HashFunctions:     4,
		BitsSet:           20,
		RemainingCapacity: 3,
	}
	c := promstats.NewCollector("fixed", src)

	assert.Equal(t, 7, testutil.CollectAndCount(c))

	expected := `
# HELP cowbloom_configured_fpp Target false positive probability the filter was sized for.
# TYPE cowbloom_configured_fpp gauge
cowbloom_configured_fpp{filter="fixed"} 0.05
# HELP cowbloom_estimated_fpp False positive probability implied by the bits currently set.
# TYPE cowbloom_estimated_fpp gauge
cowbloom_estimated_fpp{filter="fixed"} 0.01
# HELP cowbloom_bits_set Number of bits currently set.
# TYPE cowbloom_bits_set gauge
cowbloom_bits_set{filter="fixed"} 20
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"cowbloom_configured_fpp", "cowbloom_estimated_fpp", "cowbloom_bits_set"))
}
