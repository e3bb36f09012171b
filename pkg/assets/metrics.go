// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import "github.com/prometheus/client_golang/prometheus"

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "landingpress_asset_uploads_total",
			Help: "Asset leaf uploads by walker phase and outcome",
		},
		[]string{"phase", "result"},
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "landingpress_asset_upload_bytes",
			Help:    "Size of stored (transcoded) assets in bytes",
			Buckets: prometheus.ExponentialBuckets(4*1024, 4, 8), // 4KiB .. 64MiB
		},
	)

	uploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "landingpress_asset_upload_duration_seconds",
			Help:    "Time to decode, transcode and store one asset",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(uploadsTotal, uploadBytes, uploadDuration)
}
