// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tracing installs the process-wide OpenTelemetry
// TracerProvider the solver's otel.Tracer(...) calls need to produce
// real spans instead of silent no-ops. It mirrors the teacher's
// services/trace/telemetry package, trimmed to traces only: the
// solver's own metrics already go through internal/metrics and
// promhttp, so there is no otel MeterProvider here.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ErrNilContext is returned by Init when called with a nil context.
var ErrNilContext = errors.New("tracing: nil context")

// ErrUnknownExporter is returned by Init when Config.Exporter names
// an exporter this package does not implement.
var ErrUnknownExporter = errors.New("tracing: unknown trace exporter")

// Config controls which trace exporter Init installs.
type Config struct {
	// ServiceName identifies this process in exported spans.
	ServiceName string

	// ServiceVersion is the version string attached to every span's
	// resource.
	ServiceVersion string

	// Exporter selects the trace exporter: "stdout" or "none". Unlike
	// the teacher's telemetry package, "otlp" is intentionally not
	// implemented here; see DESIGN.md for why.
	Exporter string
}

// DefaultConfig returns tracing defaults for a solver run.
// BOBAIL_TRACES_EXPORTER overrides the exporter choice, matching the
// teacher's OTEL_TRACES_EXPORTER env var naming.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "bobail-solver",
		ServiceVersion: "dev",
		Exporter:       getEnvOr("BOBAIL_TRACES_EXPORTER", "none"),
	}
}

// Init installs a TracerProvider as the global otel default so every
// otel.Tracer(...).Start(...) call in the engine and store packages
// produces a real span. The returned shutdown func flushes and stops
// the provider; callers must invoke it before the process exits.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	if cfg.Exporter == "none" || cfg.Exporter == "" {
		return func(context.Context) error { return nil }, nil
	}

	var exporter trace.SpanExporter
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("tracing: creating %s exporter: %w", cfg.Exporter, err)
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
