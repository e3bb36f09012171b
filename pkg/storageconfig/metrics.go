// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package storageconfig

import "github.com/prometheus/client_golang/prometheus"

var resolutionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "landingpress_storage_config_resolutions_total",
		Help: "Storage config resolutions by source (store or fallback)",
	},
	[]string{"source"},
)

func init() {
	prometheus.MustRegister(resolutionsTotal)
}
