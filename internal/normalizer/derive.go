package normalizer

import (
	"math"

	"github.com/dbaops/mysqlpulse/internal/models"
)

const (
	metricBufferPoolReadRequests = "bufferpool.innodb_buffer_pool_read_requests"
	metricBufferPoolDiskReads    = "bufferpool.innodb_buffer_pool_reads"

	// MetricBufferPoolHitRate is the derived buffer pool hit rate percent.
	MetricBufferPoolHitRate = "bufferpool.hit_rate_percent"
)

// Derive computes cross-counter metrics from already-normalized ones.
// Currently: the buffer pool hit rate percent, the share of page read
// requests served from memory rather than disk, rounded to two decimals.
func Derive(metrics []models.Metric) []models.Metric {
	var readRequests, diskReads *models.Metric
	for i := range metrics {
		switch metrics[i].Name {
		case metricBufferPoolReadRequests:
			readRequests = &metrics[i]
		case metricBufferPoolDiskReads:
			diskReads = &metrics[i]
		}
	}

	if readRequests == nil || diskReads == nil {
		return nil
	}

	requests, ok := readRequests.Value.Float64()
	if !ok || requests <= 0 {
		return nil
	}
	reads, ok := diskReads.Value.Float64()
	if !ok {
		return nil
	}

	hitRate := math.Round((1-reads/requests)*100*100) / 100

	return []models.Metric{{
		Name:  MetricBufferPoolHitRate,
		Value: models.Value{Kind: models.KindPercent, Float: hitRate},
		Unit:  "%",
		Probe: readRequests.Probe,
	}}
}
