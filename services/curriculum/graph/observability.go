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
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans.
const tracerName = "aleutian.skillgraph"

// startBuildSpan opens a span for one graph build. shape is "full" or
// "focus".
func startBuildSpan(ctx context.Context, shape string, focusID uuid.UUID) (context.Context, oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("graph.shape", shape),
	}
	if focusID != uuid.Nil {
		attrs = append(attrs, attribute.String("graph.focus_id", focusID.String()))
	}
	return otel.Tracer(tracerName).Start(ctx, "graph.build",
		oteltrace.WithAttributes(attrs...),
	)
}

// finishBuildSpan records the build outcome on the span.
func finishBuildSpan(span oteltrace.Span, abstractCount, edgeCount int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "graph build failed")
		return
	}
	span.SetAttributes(
		attribute.Int("graph.abstract_count", abstractCount),
		attribute.Int("graph.edge_count", edgeCount),
	)
	span.SetStatus(codes.Ok, "graph build complete")
}
