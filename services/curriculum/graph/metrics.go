// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// buildsTotal counts graph builds by shape and outcome.
	// Labels: shape (full, focus), status (ok, not_found, error)
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillgraph",
		Subsystem: "graph",
		Name:      "builds_total",
		Help:      "Total graph builds by shape and outcome",
	}, []string{"shape", "status"})

	// buildDurationSeconds measures end-to-end build latency.
	// Labels: shape
	buildDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skillgraph",
		Subsystem: "graph",
		Name:      "build_duration_seconds",
		Help:      "End-to-end graph build latency",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"shape"})

	// edgeInsertsTotal counts requires-edge authoring attempts by outcome.
	// Labels: status (ok, cycle_rejected, duplicate, error)
	edgeInsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skillgraph",
		Subsystem: "graph",
		Name:      "edge_inserts_total",
		Help:      "Total requires-edge insert attempts by outcome",
	}, []string{"status"})
)

// recordBuildMetrics records one build's duration and outcome.
func recordBuildMetrics(shape string, duration time.Duration, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	buildsTotal.WithLabelValues(shape, status).Inc()
	buildDurationSeconds.WithLabelValues(shape).Observe(duration.Seconds())
}

// RecordEdgeInsert records one authoring attempt's outcome.
func RecordEdgeInsert(err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCycle), errors.Is(err, ErrSelfLoop):
		status = "cycle_rejected"
	case errors.Is(err, ErrDuplicateEdge):
		status = "duplicate"
	default:
		status = "error"
	}
	edgeInsertsTotal.WithLabelValues(status).Inc()
}
