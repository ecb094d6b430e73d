// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus counters faultline exports.
// The counters register with the default registry on import; a process
// that serves /metrics through promhttp picks them up without further
// wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FaultsTotal counts observed faults by assigned tier and kind.
	FaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_faults_total",
			Help: "Total number of faults observed, by tier and kind",
		},
		[]string{"tier", "kind"},
	)

	// ShutdownsTotal counts completed shutdown procedures by mode and
	// outcome ("continue" or the exit code name of a halt).
	ShutdownsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_shutdowns_total",
			Help: "Total number of shutdown procedures completed, by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// LogAppendFailures counts fault log writes that failed, by
	// destination role ("background" or "terminal").
	LogAppendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_log_append_failures_total",
			Help: "Total number of failed fault log appends, by destination",
		},
		[]string{"destination"},
	)

	// ActionPanics counts panics recovered from terminal actions and
	// presenters.
	ActionPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_action_panics_total",
			Help: "Total number of panics recovered from terminal actions and presenters",
		},
	)
)
