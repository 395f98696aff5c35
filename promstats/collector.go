// Package promstats exports bloom filter statistics as Prometheus metrics.
//
// Statistics are computed at scrape time from the filter's current snapshot,
// so collecting never blocks writers.
package promstats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcalabro/cowbloom"
)

const namespace = "cowbloom"

// Source is anything that can report bloom filter statistics, such as a
// *cowbloom.Filter.
type Source interface {
	Statistics() cowbloom.Statistics
}

// retrySource is implemented by filters that count lost compare-and-swap
// races.
type retrySource interface {
	Retries() uint64
}

// Collector is a prometheus.Collector for one filter. Every metric carries a
// constant "filter" label.
type Collector struct {
	source Source

	configuredFPP     *prometheus.Desc
	estimatedFPP      *prometheus.Desc
	capacity          *prometheus.Desc
	bitSize           *prometheus.Desc
	hashFunctions     *prometheus.Desc
	bitsSet           *prometheus.Desc
	remainingCapacity *prometheus.Desc
	retries           *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reporting source's statistics under the
// given filter name.
func NewCollector(name string, source Source) *Collector {
	labels := prometheus.Labels{"filter": name}
	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", metric), help, nil, labels)
	}

	return &Collector{
		source:            source,
		configuredFPP:     desc("configured_fpp", "Target false positive probability the filter was sized for."),
		estimatedFPP:      desc("estimated_fpp", "False positive probability implied by the bits currently set."),
		capacity:          desc("capacity", "Number of insertions the filter was sized for."),
		bitSize:           desc("bit_size", "Size of the bit array in bits."),
		hashFunctions:     desc("hash_functions", "Number of bit positions probed per element."),
		bitsSet:           desc("bits_set", "Number of bits currently set."),
		remainingCapacity: desc("remaining_capacity", "Insertions left before the estimated false positive probability exceeds the configured one."),
		retries:           desc("cas_retries_total", "Writes re-applied after losing a snapshot swap race."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.configuredFPP
	ch <- c.estimatedFPP
	ch <- c.capacity
	ch <- c.bitSize
	ch <- c.hashFunctions
	ch <- c.bitsSet
	ch <- c.remainingCapacity
	if _, ok := c.source.(retrySource); ok {
		ch <- c.retries
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Statistics()

	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.configuredFPP, s.ConfiguredFPP)
	gauge(c.estimatedFPP, s.EstimatedFPP)
	gauge(c.capacity, float64(s.Capacity))
	gauge(c.bitSize, float64(s.BitSize))
	gauge(c.hashFunctions, float64(s.HashFunctions))
	gauge(c.bitsSet, float64(s.BitsSet))
	gauge(c.remainingCapacity, float64(s.RemainingCapacity))

	if r, ok := c.source.(retrySource); ok {
		ch <- prometheus.MustNewConstMetric(c.retries, prometheus.CounterValue, float64(r.Retries()))
	}
}
